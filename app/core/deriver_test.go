package core

import (
	"reflect"
	"testing"
	"time"

	"SmilePos/app/models"
)

func layoutM5() models.TableLayout {
	return models.TableLayout{ID: "5", Name: "M5", X: 40, Y: 20, Type: models.ZoneSala}
}

func TestDeriveEmptyOrderShowsFree(t *testing.T) {
	orders := []models.Order{{
		ID:      "o1",
		Type:    models.OrderTypeSala,
		TableID: "5",
		Status:  models.OrderStatusOccupied,
		Stage:   models.StageEmpty,
	}}
	view := DeriveTable(layoutM5(), orders, nil, time.Now())
	if view.Occupied || view.Status != TableStatusFree {
		t.Fatalf("empty order must derive free: %+v", view)
	}
	if view.Items == nil || len(view.Items) != 0 {
		t.Fatalf("free view must carry an empty item list, got %#v", view.Items)
	}
}

func TestDeriveOccupiedMergesUnderLayoutIdentity(t *testing.T) {
	layout := layoutM5()
	orders := []models.Order{{
		ID:      "o1",
		Type:    models.OrderTypeSala,
		TableID: "5",
		Name:    "stale name",
		Status:  models.OrderStatusOccupied,
		Stage:   models.StageBurgers,
		Total:   27.40,
		Comment: "terraza pref",
		Items:   []models.OrderItem{{LineID: "l1", Name: "Smile Classic", Price: 12.50}},
	}}
	view := DeriveTable(layout, orders, nil, time.Now())
	if !view.Occupied {
		t.Fatalf("expected occupied view: %+v", view)
	}
	// layout owns identity and position even when the order disagrees
	if view.ID != "5" || view.Name != "M5" || view.X != 40 || view.Y != 20 {
		t.Fatalf("layout identity lost: %+v", view)
	}
	if view.Status != string(models.OrderStatusOccupied) || view.Stage != models.StageBurgers {
		t.Fatalf("order state lost: %+v", view)
	}
	if view.Total != 27.40 || view.OrderID != "o1" || len(view.Items) != 1 {
		t.Fatalf("order payload lost: %+v", view)
	}
}

func TestDeriveNameFallbackMatch(t *testing.T) {
	orders := []models.Order{{
		ID:     "o1",
		Type:   models.OrderTypeSala,
		Name:   "M5",
		Status: models.OrderStatusOccupied,
		Items:  []models.OrderItem{{LineID: "l1", Price: 2.30}},
	}}
	view := DeriveTable(layoutM5(), orders, nil, time.Now())
	if !view.Occupied || view.OrderID != "o1" {
		t.Fatalf("name-only order should match layout by name: %+v", view)
	}

	// id match wins over name match
	orders = append(orders, models.Order{
		ID:      "o2",
		Type:    models.OrderTypeSala,
		TableID: "5",
		Status:  models.OrderStatusOccupied,
		Items:   []models.OrderItem{{LineID: "l2", Price: 6.50}},
	})
	view = DeriveTable(layoutM5(), orders, nil, time.Now())
	if view.OrderID != "o2" {
		t.Fatalf("id match must win over name fallback, got order %s", view.OrderID)
	}
}

func TestDeriveIgnoresClosedAndDelivery(t *testing.T) {
	closedAt := time.Now()
	orders := []models.Order{
		{ID: "o1", Type: models.OrderTypeSala, TableID: "5", Status: models.OrderStatusClosed, ClosedAt: &closedAt, Items: []models.OrderItem{{LineID: "l1"}}},
		{ID: "o2", Type: models.OrderTypeDelivery, TableID: "5", Status: models.OrderStatusCocina, Items: []models.OrderItem{{LineID: "l2"}}},
	}
	view := DeriveTable(layoutM5(), orders, nil, time.Now())
	if view.Occupied {
		t.Fatalf("closed and delivery orders must not occupy tables: %+v", view)
	}
}

func TestDerivePaymentPendingOccupiesWithoutItems(t *testing.T) {
	orders := []models.Order{{
		ID:      "o1",
		Type:    models.OrderTypeSala,
		TableID: "5",
		Status:  models.OrderStatusPayment,
	}}
	view := DeriveTable(layoutM5(), orders, nil, time.Now())
	if !view.Occupied || view.Status != string(models.OrderStatusPayment) {
		t.Fatalf("payment-pending order must occupy: %+v", view)
	}
}

func TestReservationBlockingWindow(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	res := &models.Reservation{
		ID:      "r1",
		TableID: "5",
		Date:    "2026-03-14",
		Time:    "21:00",
	}

	cases := []struct {
		clock   string
		blocked bool
	}{
		{"20:29", false}, // more than 30 min early
		{"20:30", true},  // window opens
		{"20:45", true},
		{"21:00", true},
		{"21:59", true},
		{"22:00", false}, // 60 min past, guest assumed no-show
		{"22:05", false},
		{"19:00", false},
	}
	for _, c := range cases {
		clock, _ := time.Parse("15:04", c.clock)
		now := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
		if got := ReservationBlocks(res, now); got != c.blocked {
			t.Errorf("at %s: blocked = %v, want %v", c.clock, got, c.blocked)
		}
	}

	now := day.Add(21 * time.Hour)
	seated := *res
	seated.Seated = true
	if ReservationBlocks(&seated, now) {
		t.Error("seated reservation must not block")
	}
	otherDay := *res
	otherDay.Date = "2026-03-15"
	if ReservationBlocks(&otherDay, now) {
		t.Error("reservation on another day must not block")
	}
	badTime := *res
	badTime.Time = "9pm"
	if ReservationBlocks(&badTime, now) {
		t.Error("unparseable booking time must fail open")
	}
}

func TestDeriveAttachesReservation(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 45, 0, 0, time.Local)
	reservations := []models.Reservation{{
		ID: "r1", TableID: "5", Date: "2026-03-14", Time: "21:00", Name: "Laura",
	}}
	view := DeriveTable(layoutM5(), nil, reservations, now)
	if !view.Blocked || view.Reservation == nil || view.Reservation.ID != "r1" {
		t.Fatalf("reservation not attached: %+v", view)
	}
	if view.Occupied {
		t.Fatalf("blocked is independent of occupied: %+v", view)
	}
}

func TestDeriveIsPure(t *testing.T) {
	layouts := []models.TableLayout{layoutM5(), {ID: "T1", Name: "T1", X: 10, Y: 12, Type: models.ZoneTerraza}}
	orders := []models.Order{{
		ID: "o1", Type: models.OrderTypeSala, TableID: "5",
		Status: models.OrderStatusOccupied, Stage: models.StageDrinks, Total: 2.30,
		Items: []models.OrderItem{{LineID: "l1", Price: 2.30}},
	}}
	now := time.Date(2026, 3, 14, 13, 0, 0, 0, time.Local)

	first := DeriveTables(layouts, orders, nil, now)
	second := DeriveTables(layouts, orders, nil, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("derivation must be deterministic for identical inputs")
	}
	if len(first) != 2 {
		t.Fatalf("got %d views, want 2", len(first))
	}
}

func TestDeriveSanitizesLayout(t *testing.T) {
	layout := models.TableLayout{ID: "9", Name: "M9", X: -4, Y: 250}
	view := DeriveTable(layout, nil, nil, time.Now())
	if view.X != 0 || view.Y != 0 || view.Type != models.ZoneSala {
		t.Fatalf("out-of-range coordinates must clamp: %+v", view)
	}
}
