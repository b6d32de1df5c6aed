package store

import (
	"testing"
	"time"

	"SmilePos/app/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
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
	return NewWithDB(db)
}

func waitFor(t *testing.T, ch <-chan Collection, want Collection) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("notification = %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("no notification for %q", want)
	}
}

func TestSubscribeNotifiesOnWrite(t *testing.T) {
	st := newTestStore(t)
	ch, cancel := st.Subscribe(CollectionLayouts)
	defer cancel()

	layout := &models.TableLayout{ID: "1", Name: "M1", X: 10, Y: 10}
	if err := st.SaveLayout(layout); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	waitFor(t, ch, CollectionLayouts)

	if err := st.DeleteLayout("1"); err != nil {
		t.Fatalf("DeleteLayout: %v", err)
	}
	waitFor(t, ch, CollectionLayouts)
}

func TestSubscribeAllFansIn(t *testing.T) {
	st := newTestStore(t)
	ch, cancel := st.SubscribeAll()
	defer cancel()

	item := &models.MenuItem{ID: "d1", Name: "Agua", Price: "1.80", Category: "bebidas"}
	if err := st.SaveMenuItem(item); err != nil {
		t.Fatalf("SaveMenuItem: %v", err)
	}
	waitFor(t, ch, CollectionMenu)

	res := &models.Reservation{ID: "r1", Name: "Ana", Phone: "600111222", Pax: 2, Date: "2026-09-01", Time: "21:00"}
	if err := st.SaveReservation(res); err != nil {
		t.Fatalf("SaveReservation: %v", err)
	}
	waitFor(t, ch, CollectionReservations)
}

func TestCancelClosesSubscription(t *testing.T) {
	st := newTestStore(t)
	ch, cancel := st.Subscribe(CollectionCustomers)
	cancel()

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}

	// Writes after cancellation must not panic
	if err := st.SaveCustomer(&models.Customer{Phone: "600111222", Name: "Ana"}); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
}

func TestSaveOrderMirrorsItemList(t *testing.T) {
	st := newTestStore(t)
	order := &models.Order{
		ID:     "o1",
		Type:   models.OrderTypeSala,
		Name:   "M1",
		Status: models.OrderStatusOccupied,
		Stage:  models.StageDrinks,
		Items: []models.OrderItem{
			{LineID: "l1", ProductID: "d1", Name: "Agua", Category: "bebidas", Price: 1.80},
			{LineID: "l2", ProductID: "d2", Name: "Caña", Category: "bebidas", Price: 2.20},
		},
		Total: 4.00,
	}
	if err := st.SaveOrder(order); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	// Dropping a line in memory removes the stored row on the next save
	order.Items = order.Items[:1]
	order.Total = 1.80
	if err := st.SaveOrder(order); err != nil {
		t.Fatalf("second SaveOrder: %v", err)
	}

	loaded, err := st.OrderByID("o1")
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].LineID != "l1" {
		t.Errorf("items = %+v, want only l1", loaded.Items)
	}

	if err := st.DeleteOrder("o1"); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	var count int64
	st.DB().Model(&models.OrderItem{}).Count(&count)
	if count != 0 {
		t.Errorf("%d orphan item rows after order delete", count)
	}
}

func TestOpenOrdersExcludesClosed(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()
	open := &models.Order{ID: "o1", Type: models.OrderTypeSala, Name: "M1", Status: models.OrderStatusOccupied}
	closed := &models.Order{ID: "o2", Type: models.OrderTypeDelivery, Name: "#GL-1", Status: models.OrderStatusClosed, ClosedAt: &now}
	for _, o := range []*models.Order{open, closed} {
		if err := st.SaveOrder(o); err != nil {
			t.Fatalf("SaveOrder: %v", err)
		}
	}

	orders, err := st.OpenOrders()
	if err != nil {
		t.Fatalf("OpenOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Errorf("open orders = %+v, want only o1", orders)
	}

	all, err := st.Orders()
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all orders = %d, want 2", len(all))
	}
}
