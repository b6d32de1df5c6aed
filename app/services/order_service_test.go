package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"SmilePos/app/core"
	"SmilePos/app/models"
)

func TestAddItemToTableCreatesOrder(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.AddItemToTable("5", ItemRequest{
		ProductID: "b1",
		VariantID: "gourmet",
		PointID:   "punto",
		ExtraIDs:  []string{"xtr-cheese"},
	})
	if err != nil {
		t.Fatalf("AddItemToTable: %v", err)
	}
	if order.TableID != "5" || order.Type != models.OrderTypeSala {
		t.Errorf("order not bound to table 5: table=%q type=%q", order.TableID, order.Type)
	}
	if order.Stage != models.StageBurgers {
		t.Errorf("stage = %q, want burgers", order.Stage)
	}
	// 12.50 base + 2.00 gourmet + 1.00 cheese
	if order.Total != 15.50 {
		t.Errorf("total = %v, want 15.50", order.Total)
	}

	persisted, err := st.OrderByID(order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if len(persisted.Items) != 1 {
		t.Fatalf("persisted items = %d, want 1", len(persisted.Items))
	}
	item := persisted.Items[0]
	if item.VariantName != "Gourmet 200g" || item.PointName == "" {
		t.Errorf("line config lost: variant=%q point=%q", item.VariantName, item.PointName)
	}
	if len(item.Extras) != 1 || item.Extras[0].ID != "xtr-cheese" {
		t.Errorf("extras lost: %+v", item.Extras)
	}

	// Second item lands on the same order
	again, err := svc.AddItemToTable("5", ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("second AddItemToTable: %v", err)
	}
	if again.ID != order.ID {
		t.Errorf("second item opened a new order: %s vs %s", again.ID, order.ID)
	}
	if len(again.Items) != 2 {
		t.Errorf("items = %d, want 2", len(again.Items))
	}
}

func TestAddItemGourmetRequiresPoint(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	_, err := svc.AddItemToTable("5", ItemRequest{ProductID: "b1", VariantID: "gourmet"})
	if err == nil {
		t.Fatal("expected error for gourmet variant without cooking point")
	}
	if order, _ := svc.OrderForTable("5"); order != nil {
		t.Error("rejected item still opened an order")
	}
}

func TestAddItemUnknownTableOrProduct(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	if _, err := svc.AddItemToTable("99", ItemRequest{ProductID: "d1"}); err == nil {
		t.Error("expected error for unknown table")
	}
	if _, err := svc.AddItemToTable("5", ItemRequest{ProductID: "nope"}); err == nil {
		t.Error("expected error for unknown product")
	}
}

func TestConfirmSeatingPersistsEmptyOrder(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	svc := NewOrderService(st)

	today := time.Now().Format("2006-01-02")
	res := &models.Reservation{
		ID: "res-1", Name: "Marta", Phone: "600111222",
		Pax: 4, Date: today, Time: "21:00", TableID: "5",
	}
	if err := st.SaveReservation(res); err != nil {
		t.Fatalf("save reservation: %v", err)
	}

	order, err := svc.ConfirmSeating("5")
	if err != nil {
		t.Fatalf("ConfirmSeating: %v", err)
	}
	if order.Stage != models.StageDrinks {
		t.Errorf("empty seated order stage = %q, want drinks", order.Stage)
	}
	if len(order.Items) != 0 {
		t.Errorf("seated order has %d items, want 0", len(order.Items))
	}

	found, err := svc.OrderForTable("5")
	if err != nil || found == nil {
		t.Fatalf("seated order not found: %v", err)
	}
	if found.ID != order.ID {
		t.Errorf("OrderForTable returned %s, want %s", found.ID, order.ID)
	}

	seated, err := st.ReservationByID("res-1")
	if err != nil {
		t.Fatalf("reservation lookup: %v", err)
	}
	if !seated.Seated {
		t.Error("confirming the seating did not seat the table's reservation")
	}
}

func TestSendToKitchenLocksLines(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.AddItemToTable("3", ItemRequest{ProductID: "e1"})
	if err != nil {
		t.Fatalf("AddItemToTable: %v", err)
	}
	lineID := order.Items[0].LineID

	order, err = svc.SendToKitchen(order.ID)
	if err != nil {
		t.Fatalf("SendToKitchen: %v", err)
	}
	if !order.Items[0].SentToKitchen {
		t.Error("line not marked as sent")
	}

	if _, err := svc.RemoveItem(order.ID, lineID); !errors.Is(err, core.ErrItemSentToKitchen) {
		t.Errorf("RemoveItem after send = %v, want ErrItemSentToKitchen", err)
	}
	if _, err := svc.CommentItem(order.ID, lineID, "sin sal"); !errors.Is(err, core.ErrItemSentToKitchen) {
		t.Errorf("CommentItem after send = %v, want ErrItemSentToKitchen", err)
	}
	if _, err := svc.SendToKitchen(order.ID); !errors.Is(err, core.ErrNothingToSend) {
		t.Errorf("second SendToKitchen = %v, want ErrNothingToSend", err)
	}
}

func TestRemoveItemRecalculatesTotal(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.AddItemToTable("2", ItemRequest{ProductID: "e1"})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	order, err = svc.AddItemToOrder(order.ID, ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if order.Total != 9.40 {
		t.Fatalf("total = %v, want 9.40", order.Total)
	}

	order, err = svc.RemoveItem(order.ID, order.Items[0].LineID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(order.Items) != 1 || order.Total != 2.50 {
		t.Errorf("after removal: items=%d total=%v, want 1 and 2.50", len(order.Items), order.Total)
	}

	persisted, err := st.OrderByID(order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(persisted.Items) != 1 {
		t.Errorf("persisted items = %d, want 1", len(persisted.Items))
	}
}

func TestCloseOrderIsTerminal(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.AddItemToTable("7", ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("AddItemToTable: %v", err)
	}
	if _, err := svc.SetPaymentPending(order.ID); err != nil {
		t.Fatalf("SetPaymentPending: %v", err)
	}

	closed, err := svc.CloseOrder(order.ID, "card")
	if err != nil {
		t.Fatalf("CloseOrder: %v", err)
	}
	if closed.Status != models.OrderStatusClosed || closed.ClosedAt == nil {
		t.Errorf("order not closed: status=%q closedAt=%v", closed.Status, closed.ClosedAt)
	}
	if closed.PaymentMethod != "card" {
		t.Errorf("payment method = %q, want card", closed.PaymentMethod)
	}

	// The table frees up immediately
	if found, _ := svc.OrderForTable("7"); found != nil {
		t.Error("closed order still claims the table")
	}

	if _, err := svc.AddItemToOrder(order.ID, ItemRequest{ProductID: "e1"}); !errors.Is(err, core.ErrOrderClosed) {
		t.Errorf("add to closed order = %v, want ErrOrderClosed", err)
	}
	if _, err := svc.CloseOrder(order.ID, "cash"); !errors.Is(err, core.ErrOrderClosed) {
		t.Errorf("double close = %v, want ErrOrderClosed", err)
	}
}

func TestCreateDeliveryOrder(t *testing.T) {
	st := newTestStore(t)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.CreateDeliveryOrder(DeliveryRequest{
		Platform:      "Glovo",
		CustomerName:  "Luis",
		CustomerPhone: "612 345 678",
	})
	if err != nil {
		t.Fatalf("CreateDeliveryOrder: %v", err)
	}
	if !strings.HasPrefix(order.Name, "#GL-") {
		t.Errorf("delivery code = %q, want #GL- prefix", order.Name)
	}
	if order.Status != models.OrderStatusCocina {
		t.Errorf("status = %q, want cocina", order.Status)
	}

	// Persisted immediately, unlike table drafts
	if _, err := st.OrderByID(order.ID); err != nil {
		t.Fatalf("delivery order not persisted: %v", err)
	}

	// Customer profile created under the normalized phone without counting
	// the order yet
	customer, err := st.CustomerByPhone("612345678")
	if err != nil {
		t.Fatalf("customer not upserted: %v", err)
	}
	if customer.Name != "Luis" || customer.OrderCount != 0 {
		t.Errorf("customer = %+v, want Luis with 0 orders", customer)
	}

	// Pipeline statuses are free-form
	order, err = svc.UpdateDeliveryStatus(order.ID, "rider")
	if err != nil {
		t.Fatalf("UpdateDeliveryStatus: %v", err)
	}
	if order.Status != "rider" {
		t.Errorf("status = %q, want rider", order.Status)
	}

	// Closing counts the order on the profile
	if _, err := svc.CloseOrder(order.ID, "cash"); err != nil {
		t.Fatalf("CloseOrder: %v", err)
	}
	customer, err = st.CustomerByPhone("612345678")
	if err != nil {
		t.Fatalf("customer reload: %v", err)
	}
	if customer.OrderCount != 1 || customer.FirstOrder == nil {
		t.Errorf("customer counters not updated: %+v", customer)
	}
}

func TestUnknownDeliveryPlatformRejected(t *testing.T) {
	st := newTestStore(t)
	svc := NewOrderService(st)

	if _, err := svc.CreateDeliveryOrder(DeliveryRequest{Platform: "Deliveroo"}); err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestDeliveryStatusOnSalaOrderRejected(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.AddItemToTable("1", ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("AddItemToTable: %v", err)
	}
	if _, err := svc.UpdateDeliveryStatus(order.ID, "rider"); err == nil {
		t.Error("expected error for delivery status on a sala order")
	}
}

// A status write of "closed" would terminate the order without a payment
// method or close timestamp
func TestDeliveryStatusClosedRejected(t *testing.T) {
	st := newTestStore(t)
	seedMenu(t, st)
	svc := NewOrderService(st)

	order, err := svc.CreateDeliveryOrder(DeliveryRequest{Platform: "Glovo"})
	if err != nil {
		t.Fatalf("CreateDeliveryOrder: %v", err)
	}
	if _, err := svc.UpdateDeliveryStatus(order.ID, "closed"); err == nil {
		t.Error("expected error writing closed as a plain status")
	}

	reloaded, err := st.OrderByID(order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.IsClosed() {
		t.Error("order closed without going through the close operation")
	}
}

func TestClearOrdersRemovesEverything(t *testing.T) {
	st := newTestStore(t)
	seedFloorPlan(t, st)
	seedMenu(t, st)
	svc := NewOrderService(st)

	open, err := svc.AddItemToTable("4", ItemRequest{ProductID: "d1"})
	if err != nil {
		t.Fatalf("open order: %v", err)
	}
	_ = open
	delivery, err := svc.CreateDeliveryOrder(DeliveryRequest{Platform: "Uber"})
	if err != nil {
		t.Fatalf("delivery order: %v", err)
	}
	if _, err := svc.CloseOrder(delivery.ID, "cash"); err != nil {
		t.Fatalf("close delivery: %v", err)
	}

	count, err := svc.ClearOrders()
	if err != nil {
		t.Fatalf("ClearOrders: %v", err)
	}
	if count != 2 {
		t.Errorf("cleared = %d, want 2", count)
	}
	remaining, err := st.Orders()
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d orders left after clear", len(remaining))
	}
}
