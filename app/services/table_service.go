package services

import (
	"fmt"
	"log"
	"time"

	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/store"
)

// TableService owns the floor plan: layout CRUD, the repair-on-load step and
// the merged per-table view the tablets render.
type TableService struct {
	store *store.Store
}

// NewTableService creates a new table service
func NewTableService(st *store.Store) *TableService {
	return &TableService{store: st}
}

// RepairOnLoad runs the one-time layout repairs: synthesize canonical tables
// that are missing from the store and re-grid entries clumped at the origin.
// Called once at startup, before the first derivation.
func (s *TableService) RepairOnLoad() error {
	stored, err := s.store.Layouts()
	if err != nil {
		return err
	}

	if missing := core.MissingLayouts(stored); len(missing) > 0 {
		if err := s.store.SaveLayouts(missing); err != nil {
			return fmt.Errorf("persist missing layouts: %w", err)
		}
		log.Printf("Layout repair: synthesized %d missing tables", len(missing))
		stored, err = s.store.Layouts()
		if err != nil {
			return err
		}
	}

	if moved := core.RegridClumped(stored); len(moved) > 0 {
		if err := s.store.SaveLayouts(moved); err != nil {
			return fmt.Errorf("persist regridded layouts: %w", err)
		}
		log.Printf("Layout repair: redistributed %d clumped tables", len(moved))
	}

	return nil
}

// Derived recomputes the merged table views from the current collections
func (s *TableService) Derived() ([]core.TableView, error) {
	layouts, err := s.store.Layouts()
	if err != nil {
		return nil, err
	}
	orders, err := s.store.OpenOrders()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	reservations, err := s.store.ReservationsForDate(now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return core.DeriveTables(layouts, orders, reservations, now), nil
}

// Layouts returns the raw floor plan records
func (s *TableService) Layouts() ([]models.TableLayout, error) {
	return s.store.Layouts()
}

// AddTable adds a table to the floor plan
func (s *TableService) AddTable(layout models.TableLayout) (*models.TableLayout, error) {
	if layout.ID == "" || layout.Name == "" {
		return nil, fmt.Errorf("table requires an id and a name")
	}
	existing, err := s.store.Layouts()
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.ID == layout.ID {
			return nil, fmt.Errorf("table %s already exists", layout.ID)
		}
	}
	layout.Sanitize()
	if err := s.store.SaveLayout(&layout); err != nil {
		return nil, err
	}
	log.Printf("Added table %s (%s)", layout.ID, layout.Name)
	return &layout, nil
}

// MoveTable repositions a table on the grid
func (s *TableService) MoveTable(id string, x, y float64) (*models.TableLayout, error) {
	layout, err := s.layoutByID(id)
	if err != nil {
		return nil, err
	}
	layout.X = x
	layout.Y = y
	layout.Sanitize()
	if err := s.store.SaveLayout(layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// RenameTable changes a table's display name
func (s *TableService) RenameTable(id, name string) (*models.TableLayout, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	layout, err := s.layoutByID(id)
	if err != nil {
		return nil, err
	}
	layout.Name = name
	if err := s.store.SaveLayout(layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// DeleteTable removes a table from the floor plan. A table with a live order
// cannot be removed.
func (s *TableService) DeleteTable(id string) error {
	layout, err := s.layoutByID(id)
	if err != nil {
		return err
	}
	orders, err := s.store.OpenOrders()
	if err != nil {
		return err
	}
	for i := range orders {
		o := &orders[i]
		if o.Type != models.OrderTypeSala {
			continue
		}
		if o.TableID == layout.ID || (o.TableID == "" && o.Name == layout.Name) {
			return fmt.Errorf("table %s has an open order", id)
		}
	}
	if err := s.store.DeleteLayout(id); err != nil {
		return err
	}
	log.Printf("Deleted table %s", id)
	return nil
}

func (s *TableService) layoutByID(id string) (*models.TableLayout, error) {
	layouts, err := s.store.Layouts()
	if err != nil {
		return nil, err
	}
	for i := range layouts {
		if layouts[i].ID == id {
			return &layouts[i], nil
		}
	}
	return nil, fmt.Errorf("unknown table %s", id)
}
