package services

import (
	"fmt"

	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/store"
)

// MenuService exposes the catalog: menu items grouped by category plus the
// fixed burger configuration options.
type MenuService struct {
	store *store.Store
}

// NewMenuService creates a new menu service
func NewMenuService(st *store.Store) *MenuService {
	return &MenuService{store: st}
}

// List returns the full catalog
func (s *MenuService) List() ([]models.MenuItem, error) {
	return s.store.MenuItems()
}

// ByCategory returns one category of the catalog
func (s *MenuService) ByCategory(category string) ([]models.MenuItem, error) {
	return s.store.MenuItemsByCategory(category)
}

// Grouped returns the catalog keyed by category, the shape the tablets
// render directly.
func (s *MenuService) Grouped() (map[string][]models.MenuItem, error) {
	items, err := s.store.MenuItems()
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.MenuItem)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped, nil
}

// Save validates and upserts a catalog entry
func (s *MenuService) Save(item models.MenuItem) (*models.MenuItem, error) {
	if item.ID == "" || item.Name == "" {
		return nil, fmt.Errorf("menu item requires an id and a name")
	}
	if _, err := core.ParsePrice(item.Price); err != nil {
		return nil, err
	}
	if err := s.store.SaveMenuItem(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a catalog entry
func (s *MenuService) Delete(id string) error {
	return s.store.DeleteMenuItem(id)
}

// Options returns the fixed burger configuration choices
func (s *MenuService) Options() (variants []core.Variant, points []core.Point, extras []models.Extra) {
	return core.BurgerVariants(), core.CookingPoints(), core.Extras()
}
