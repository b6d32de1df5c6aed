package services

import (
	"testing"
	"time"

	"SmilePos/app/core"
	"SmilePos/app/models"
)

func TestRepairOnLoadSeedsCanonicalPlan(t *testing.T) {
	st := newTestStore(t)
	svc := NewTableService(st)

	if err := svc.RepairOnLoad(); err != nil {
		t.Fatalf("RepairOnLoad: %v", err)
	}
	layouts, err := svc.Layouts()
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}
	if len(layouts) != 30 {
		t.Fatalf("layouts = %d, want 30", len(layouts))
	}

	// Idempotent: a second run must not duplicate or move anything
	before := make(map[string][2]float64, len(layouts))
	for _, l := range layouts {
		before[l.ID] = [2]float64{l.X, l.Y}
	}
	if err := svc.RepairOnLoad(); err != nil {
		t.Fatalf("second RepairOnLoad: %v", err)
	}
	layouts, _ = svc.Layouts()
	if len(layouts) != 30 {
		t.Fatalf("layouts after second run = %d, want 30", len(layouts))
	}
	for _, l := range layouts {
		if pos, ok := before[l.ID]; !ok || pos[0] != l.X || pos[1] != l.Y {
			t.Errorf("table %s moved on idempotent repair", l.ID)
		}
	}
}

func TestRepairOnLoadRegridsClumpedPlan(t *testing.T) {
	st := newTestStore(t)
	svc := NewTableService(st)

	clumped := core.MissingLayouts(nil)
	for i := range clumped {
		clumped[i].X = 0
		clumped[i].Y = 0
	}
	if err := st.SaveLayouts(clumped); err != nil {
		t.Fatalf("seed clumped: %v", err)
	}

	if err := svc.RepairOnLoad(); err != nil {
		t.Fatalf("RepairOnLoad: %v", err)
	}
	layouts, err := svc.Layouts()
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}

	seen := make(map[[2]float64]int)
	for _, l := range layouts {
		if l.X < 0 || l.X >= 100 || l.Y < 0 || l.Y >= 100 {
			t.Errorf("table %s out of range: (%v, %v)", l.ID, l.X, l.Y)
		}
		seen[[2]float64{l.X, l.Y}]++
	}
	for pos, n := range seen {
		if n > 1 {
			t.Errorf("%d tables still stacked at %v", n, pos)
		}
	}
}

func TestAddTableRejectsDuplicates(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	svc := NewTableService(st)

	if _, err := svc.AddTable(models.TableLayout{ID: "5", Name: "M5b"}); err == nil {
		t.Error("expected error for duplicate table id")
	}
	if _, err := svc.AddTable(models.TableLayout{Name: "M31"}); err == nil {
		t.Error("expected error for missing id")
	}

	added, err := svc.AddTable(models.TableLayout{ID: "31", Name: "M31", X: 250, Y: -4})
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	if added.X != 0 || added.Y != 0 || added.Type != models.ZoneSala {
		t.Errorf("coordinates not sanitized: %+v", added)
	}
}

func TestMoveAndRenameTable(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	svc := NewTableService(st)

	moved, err := svc.MoveTable("5", 42.5, 17)
	if err != nil {
		t.Fatalf("MoveTable: %v", err)
	}
	if moved.X != 42.5 || moved.Y != 17 {
		t.Errorf("position = (%v, %v)", moved.X, moved.Y)
	}

	renamed, err := svc.RenameTable("5", "Rincón")
	if err != nil {
		t.Fatalf("RenameTable: %v", err)
	}
	if renamed.Name != "Rincón" {
		t.Errorf("name = %q", renamed.Name)
	}
	if _, err := svc.RenameTable("5", ""); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := svc.MoveTable("99", 1, 1); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestDeleteTableBlockedByOpenOrder(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	tables := NewTableService(st)
	orders := NewOrderService(st)

	order, err := orders.AddItemToTable("8", ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("open order: %v", err)
	}
	if err := tables.DeleteTable("8"); err == nil {
		t.Error("expected error deleting table with open order")
	}

	if _, err := orders.CloseOrder(order.ID, "cash"); err != nil {
		t.Fatalf("close order: %v", err)
	}
	if err := tables.DeleteTable("8"); err != nil {
		t.Errorf("delete after close: %v", err)
	}
	layouts, _ := tables.Layouts()
	if len(layouts) != 29 {
		t.Errorf("layouts = %d, want 29", len(layouts))
	}
}

func TestDerivedMergesOrdersAndReservations(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	tables := NewTableService(st)
	orders := NewOrderService(st)

	if _, err := orders.AddItemToTable("5", ItemRequest{ProductID: "d1"}); err != nil {
		t.Fatalf("open order: %v", err)
	}

	now := time.Now()
	target := now.Add(10 * time.Minute)
	if target.Day() != now.Day() {
		target = now.Add(-30 * time.Minute)
	}
	res := &models.Reservation{
		ID: "r1", Name: "Marta", Phone: "600333444", Pax: 4,
		Date: now.Format("2006-01-02"), Time: target.Format("15:04"), TableID: "3",
	}
	if err := st.SaveReservation(res); err != nil {
		t.Fatalf("save reservation: %v", err)
	}

	views, err := tables.Derived()
	if err != nil {
		t.Fatalf("Derived: %v", err)
	}
	if len(views) != 30 {
		t.Fatalf("views = %d, want 30", len(views))
	}

	byID := make(map[string]core.TableView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	if v := byID["5"]; !v.Occupied || v.Total != 2.50 {
		t.Errorf("table 5 = occupied=%v total=%v, want occupied with 2.50", v.Occupied, v.Total)
	}
	if v := byID["3"]; !v.Blocked || v.Reservation == nil {
		t.Errorf("table 3 not blocked by its reservation: %+v", v)
	}
	if v := byID["9"]; v.Occupied || v.Blocked || v.Status != core.TableStatusFree {
		t.Errorf("table 9 should derive free: %+v", v)
	}
}
