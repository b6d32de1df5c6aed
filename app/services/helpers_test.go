package services

import (
	"testing"

	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/store"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens an in-memory store with the full schema migrated
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A pooled second connection would get its own empty memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.TableLayout{},
		&models.Order{},
		&models.OrderItem{},
		&models.Reservation{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Employee{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewWithDB(db)
}

func seedFloorPlan(t *testing.T, st *store.Store) {
	t.Helper()
	if err := st.SaveLayouts(core.MissingLayouts(nil)); err != nil {
		t.Fatalf("seed layouts: %v", err)
	}
}

func seedMenu(t *testing.T, st *store.Store) {
	t.Helper()
	items := []models.MenuItem{
		{ID: "d1", Name: "Coca-Cola", Price: "2.50", Category: "bebidas"},
		{ID: "e1", Name: "Croquetas de cocido", Price: "6.90", Category: "entrantes"},
		{ID: "b1", Name: "Smash Clásica", Price: "12.50", Category: "burgers"},
	}
	for i := range items {
		if err := st.SaveMenuItem(&items[i]); err != nil {
			t.Fatalf("seed menu: %v", err)
		}
	}
}
