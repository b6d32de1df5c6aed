package core

import "SmilePos/app/models"

// Point is a doneness choice for burgers that need one
type Point struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Burger configuration options. These are fixed kitchen options, not catalog
// records, so they live here rather than in the menu store.
var (
	burgerVariants = []Variant{
		{ID: "smash", Label: "Smash", Price: 0},
		{ID: "gourmet", Label: "Gourmet 200g", Price: 2.00, NeedsPoint: true},
		{ID: "vegan", Label: "Vegana", Price: 0},
		{ID: "chicken", Label: "Pollo", Price: 0},
	}

	cookingPoints = []Point{
		{ID: "poco", Label: "Poco hecha"},
		{ID: "punto", Label: "Al punto"},
		{ID: "hecha", Label: "Muy hecha"},
	}

	extras = []models.Extra{
		{ID: "xtr-cheese", Label: "Queso extra", Price: 1.00},
		{ID: "xtr-bacon", Label: "Bacon", Price: 1.20},
		{ID: "xtr-egg", Label: "Huevo frito", Price: 1.50},
		{ID: "xtr-sauce", Label: "Salsa Smile", Price: 0.80},
	}
)

// BurgerVariants returns the burger base options
func BurgerVariants() []Variant {
	return append([]Variant(nil), burgerVariants...)
}

// CookingPoints returns the doneness options
func CookingPoints() []Point {
	return append([]Point(nil), cookingPoints...)
}

// Extras returns the available extras
func Extras() []models.Extra {
	return append([]models.Extra(nil), extras...)
}

// VariantByID looks up a burger variant, nil when unknown
func VariantByID(id string) *Variant {
	for i := range burgerVariants {
		if burgerVariants[i].ID == id {
			v := burgerVariants[i]
			return &v
		}
	}
	return nil
}

// PointByID looks up a doneness choice, nil when unknown
func PointByID(id string) *Point {
	for i := range cookingPoints {
		if cookingPoints[i].ID == id {
			p := cookingPoints[i]
			return &p
		}
	}
	return nil
}

// ExtrasByID resolves a list of extra ids, silently skipping unknown ones
func ExtrasByID(ids []string) []models.Extra {
	var out []models.Extra
	for _, id := range ids {
		for i := range extras {
			if extras[i].ID == id {
				out = append(out, extras[i])
				break
			}
		}
	}
	return out
}
