package services

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"612 345 678":   "612345678",
		" 612345678 ":   "612345678",
		"+34 612 345":   "+34612345",
		"612\t345 678":  "612345678",
		"":              "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpsertKeepsExistingFields(t *testing.T) {
	st := newTestStore(t)
	svc := NewCustomerService(st)

	if err := svc.Upsert("600 111 222", "Ana", "ana@example.com"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Empty input must not blank stored fields
	if err := svc.Upsert("600111222", "", ""); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	customer, err := svc.ByPhone("600111222")
	if err != nil {
		t.Fatalf("ByPhone: %v", err)
	}
	if customer.Name != "Ana" || customer.Email != "ana@example.com" {
		t.Errorf("fields lost: %+v", customer)
	}

	if err := svc.Upsert("", "Nadie", ""); err == nil {
		t.Error("expected error for empty phone")
	}
}

func TestRecordOrderCounters(t *testing.T) {
	st := newTestStore(t)
	svc := NewCustomerService(st)

	if err := svc.RecordOrder("600111222", "Ana", ""); err != nil {
		t.Fatalf("first RecordOrder: %v", err)
	}
	customer, err := svc.ByPhone("600111222")
	if err != nil {
		t.Fatalf("ByPhone: %v", err)
	}
	if customer.OrderCount != 1 || customer.FirstOrder == nil || customer.LastOrder == nil {
		t.Fatalf("counters after first order: %+v", customer)
	}
	first := *customer.FirstOrder

	if err := svc.RecordOrder("600 111 222", "", ""); err != nil {
		t.Fatalf("second RecordOrder: %v", err)
	}
	customer, _ = svc.ByPhone("600111222")
	if customer.OrderCount != 2 {
		t.Errorf("order count = %d, want 2", customer.OrderCount)
	}
	if !customer.FirstOrder.Equal(first) {
		t.Errorf("first order timestamp changed: %v -> %v", first, customer.FirstOrder)
	}
	if customer.LastOrder.Before(first) {
		t.Errorf("last order %v before first %v", customer.LastOrder, first)
	}
}
