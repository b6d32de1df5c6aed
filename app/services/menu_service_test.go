package services

import (
	"testing"

	"SmilePos/app/models"
)

func TestMenuSaveValidation(t *testing.T) {
	st := newTestStore(t)
	svc := NewMenuService(st)

	if _, err := svc.Save(models.MenuItem{Name: "Sin ID", Price: "5.00"}); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := svc.Save(models.MenuItem{ID: "x1", Name: "Gratis", Price: "abc"}); err == nil {
		t.Error("expected error for unparseable price")
	}

	// Comma decimals from the seeded data are valid
	saved, err := svc.Save(models.MenuItem{ID: "b9", Name: "Doble", Price: "14,90", Category: "burgers"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Price != "14,90" {
		t.Errorf("raw price rewritten: %q", saved.Price)
	}
}

func TestMenuGrouped(t *testing.T) {
	st := newTestStore(t)
	seedMenu(t, st)
	svc := NewMenuService(st)

	grouped, err := svc.Grouped()
	if err != nil {
		t.Fatalf("Grouped: %v", err)
	}
	if len(grouped) != 3 {
		t.Fatalf("categories = %d, want 3", len(grouped))
	}
	if len(grouped["burgers"]) != 1 || grouped["burgers"][0].ID != "b1" {
		t.Errorf("burgers group = %+v", grouped["burgers"])
	}

	byCat, err := svc.ByCategory("bebidas")
	if err != nil || len(byCat) != 1 {
		t.Errorf("ByCategory(bebidas) = %d items (%v), want 1", len(byCat), err)
	}

	if err := svc.Delete("b1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	grouped, _ = svc.Grouped()
	if len(grouped["burgers"]) != 0 {
		t.Errorf("burgers still present after delete: %+v", grouped["burgers"])
	}
}

func TestMenuOptionsCatalog(t *testing.T) {
	st := newTestStore(t)
	svc := NewMenuService(st)

	variants, points, extras := svc.Options()
	if len(variants) != 4 {
		t.Errorf("variants = %d, want 4", len(variants))
	}
	if len(points) != 3 {
		t.Errorf("points = %d, want 3", len(points))
	}
	if len(extras) != 4 {
		t.Errorf("extras = %d, want 4", len(extras))
	}

	var gourmet bool
	for _, v := range variants {
		if v.ID == "gourmet" && v.NeedsPoint && v.Price == 2.00 {
			gourmet = true
		}
	}
	if !gourmet {
		t.Error("gourmet variant missing its surcharge or point requirement")
	}
}
