package core

import (
	"errors"
	"testing"
	"time"

	"SmilePos/app/models"
)

func newSalaOrder() *models.Order {
	return &models.Order{
		ID:     "o1",
		Type:   models.OrderTypeSala,
		TableID: "5",
		Name:   "M5",
		Status: models.OrderStatusOccupied,
		Stage:  models.StageEmpty,
	}
}

func line(id, category string, price float64) models.OrderItem {
	return models.OrderItem{LineID: id, ProductID: "p-" + id, Name: id, Category: category, Price: price}
}

func TestAddItemKeepsTotalRounded(t *testing.T) {
	order := newSalaOrder()
	prices := []float64{2.30, 2.90, 6.50, 12.50, 0.80, 1.20}
	var want float64
	for i, p := range prices {
		if err := AddItem(order, line(string(rune('a'+i)), "bebidas", p)); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		want = Round2(want + p)
	}
	if order.Total != want {
		t.Fatalf("total = %v, want %v", order.Total, want)
	}

	// removing and re-adding many times must not accumulate drift
	for i := 0; i < 50; i++ {
		if err := AddItem(order, line("x", "bebidas", 0.10)); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := RemoveItem(order, "x"); err != nil {
			t.Fatalf("RemoveItem: %v", err)
		}
	}
	if order.Total != want {
		t.Fatalf("total after churn = %v, want %v", order.Total, want)
	}

	var sum float64
	for _, it := range order.Items {
		sum += it.Price
	}
	if order.Total != Round2(sum) {
		t.Fatalf("total %v does not match rounded item sum %v", order.Total, Round2(sum))
	}
}

func TestRemoveItemSentToKitchenRejected(t *testing.T) {
	order := newSalaOrder()
	item := line("l1", "burgers", 12.50)
	item.SentToKitchen = true
	if err := AddItem(order, item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	totalBefore := order.Total

	_, err := RemoveItem(order, "l1")
	if !errors.Is(err, ErrItemSentToKitchen) {
		t.Fatalf("err = %v, want ErrItemSentToKitchen", err)
	}
	if len(order.Items) != 1 || order.Total != totalBefore {
		t.Fatalf("order mutated by rejected removal: items=%d total=%v", len(order.Items), order.Total)
	}

	if err := CommentItem(order, "l1", "sin cebolla"); !errors.Is(err, ErrItemSentToKitchen) {
		t.Fatalf("comment on sent item: err = %v, want ErrItemSentToKitchen", err)
	}
}

func TestStageMonotonic(t *testing.T) {
	order := newSalaOrder()

	steps := []struct {
		category string
		want     models.Stage
	}{
		{"bebidas", models.StageDrinks},
		{"entrantes", models.StageStarters},
		{"bebidas", models.StageStarters}, // never reverts
		{"burgers", models.StageBurgers},
		{"postres", models.StageDesserts},
		{"bebidas", models.StageDesserts},
		{"merch", models.StageDesserts}, // unmapped category leaves stage
	}
	for i, step := range steps {
		if err := AddItem(order, line(string(rune('a'+i)), step.category, 1)); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if order.Stage != step.want {
			t.Fatalf("step %d (%s): stage = %s, want %s", i, step.category, order.Stage, step.want)
		}
	}
}

func TestFirstItemLeavesEmptyStage(t *testing.T) {
	// the first item lifts the order out of empty even when its category is
	// unmapped or maps past drinks
	order := newSalaOrder()
	if err := AddItem(order, line("a", "merch", 5)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if order.Stage != models.StageDrinks {
		t.Fatalf("stage = %s, want drinks", order.Stage)
	}

	order = newSalaOrder()
	if err := AddItem(order, line("a", "postres", 5)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if order.Stage != models.StageDesserts {
		t.Fatalf("stage = %s, want desserts", order.Stage)
	}
}

func TestMarkSentToKitchen(t *testing.T) {
	order := newSalaOrder()
	sent := line("l1", "burgers", 12.50)
	sent.SentToKitchen = true
	AddItem(order, sent)
	AddItem(order, line("l2", "bebidas", 2.90))
	AddItem(order, line("l3", "postres", 5.50))

	n, err := MarkSentToKitchen(order)
	if err != nil {
		t.Fatalf("MarkSentToKitchen: %v", err)
	}
	if n != 2 {
		t.Fatalf("sent %d items, want 2", n)
	}
	for _, it := range order.Items {
		if !it.SentToKitchen {
			t.Fatalf("item %s not marked sent", it.LineID)
		}
	}

	if _, err := MarkSentToKitchen(order); !errors.Is(err, ErrNothingToSend) {
		t.Fatalf("second march: err = %v, want ErrNothingToSend", err)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	order := newSalaOrder()
	AddItem(order, line("l1", "burgers", 12.50))

	now := time.Date(2026, 3, 14, 22, 30, 0, 0, time.Local)
	if err := Close(order, "card", now); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if order.Status != models.OrderStatusClosed || order.PaymentMethod != "card" || order.ClosedAt == nil {
		t.Fatalf("close did not record terminal state: %+v", order)
	}

	if err := Close(order, "cash", now); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("re-close: err = %v, want ErrOrderClosed", err)
	}
	if err := AddItem(order, line("l2", "bebidas", 2.30)); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("add after close: err = %v, want ErrOrderClosed", err)
	}
	if _, err := RemoveItem(order, "l1"); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("remove after close: err = %v, want ErrOrderClosed", err)
	}
	if _, err := MarkSentToKitchen(order); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("march after close: err = %v, want ErrOrderClosed", err)
	}
}
