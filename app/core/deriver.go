package core

import (
	"time"

	"SmilePos/app/models"
)

// TableStatus values produced by the deriver
const (
	TableStatusFree = "free"
)

// TableView is the merged per-table view model that drives the table grid.
// Layout fields are authoritative for identity and position; order fields
// are layered on top when the table is effectively occupied.
type TableView struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	X        float64             `json:"x"`
	Y        float64             `json:"y"`
	Type     models.TableZone    `json:"type"`
	Status   string              `json:"status"`
	Stage    models.Stage        `json:"stage"`
	Total    float64             `json:"total"`
	Items    []models.OrderItem  `json:"items"`
	Comment  string              `json:"comment,omitempty"`
	OrderID  string              `json:"order_id,omitempty"`
	Occupied bool                `json:"occupied"`
	Blocked  bool                `json:"blocked"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
}

// blockBeforeMin/blockAfterMin bound the reservation-blocking window: a table
// shows as reserved from 30 minutes before the booked time until 60 minutes
// after it, so a late guest never locks the table forever.
const (
	blockBeforeMin = 30
	blockAfterMin  = 60
)

// ReservationBlocks reports whether the reservation blocks its table at the
// given instant. Only today's unseated reservations block; the comparison is
// done on wall-clock minutes in now's location.
func ReservationBlocks(res *models.Reservation, now time.Time) bool {
	if res == nil || res.Seated {
		return false
	}
	if res.Date != now.Format("2006-01-02") {
		return false
	}
	t, err := time.Parse("15:04", res.Time)
	if err != nil {
		return false
	}
	resMinutes := t.Hour()*60 + t.Minute()
	nowMinutes := now.Hour()*60 + now.Minute()
	diff := resMinutes - nowMinutes
	return diff > -blockAfterMin && diff <= blockBeforeMin
}

// matchOrder finds the (at most one) live sala order for a layout entry.
// The primary match is by table id; a legacy record that carries only the
// table's display name still matches as a fallback.
func matchOrder(layout *models.TableLayout, orders []models.Order) *models.Order {
	var byName *models.Order
	for i := range orders {
		o := &orders[i]
		if o.Type != models.OrderTypeSala || o.IsClosed() {
			continue
		}
		if o.TableID == layout.ID {
			return o
		}
		if byName == nil && o.TableID == "" && o.Name == layout.Name {
			byName = o
		}
	}
	return byName
}

// matchReservation finds today's unseated reservation assigned to the table
func matchReservation(layout *models.TableLayout, reservations []models.Reservation, now time.Time) *models.Reservation {
	today := now.Format("2006-01-02")
	for i := range reservations {
		r := &reservations[i]
		if r.TableID == layout.ID && r.Date == today && !r.Seated {
			return r
		}
	}
	return nil
}

// effectivelyOccupied reports whether the order actually claims the table.
// A freshly opened order with no items and an empty stage does not: staff can
// peek at a free table's order screen without marking it occupied.
func effectivelyOccupied(o *models.Order) bool {
	if o == nil {
		return false
	}
	return len(o.Items) > 0 || o.Stage != models.StageEmpty || o.Status == models.OrderStatusPayment
}

// DeriveTable produces the merged view for one layout entry
func DeriveTable(layout models.TableLayout, orders []models.Order, reservations []models.Reservation, now time.Time) TableView {
	layout.Sanitize()

	view := TableView{
		ID:     layout.ID,
		Name:   layout.Name,
		X:      layout.X,
		Y:      layout.Y,
		Type:   layout.Type,
		Status: TableStatusFree,
		Stage:  models.StageEmpty,
		Items:  []models.OrderItem{},
	}

	res := matchReservation(&layout, reservations, now)
	view.Reservation = res
	view.Blocked = ReservationBlocks(res, now)

	order := matchOrder(&layout, orders)
	if !effectivelyOccupied(order) {
		return view
	}

	view.Occupied = true
	view.OrderID = order.ID
	view.Stage = order.Stage
	view.Total = order.Total
	view.Items = order.Items
	view.Comment = order.Comment
	if order.Status != "" {
		view.Status = string(order.Status)
	} else {
		view.Status = string(models.OrderStatusOccupied)
	}
	return view
}

// DeriveTables recomputes the full table grid from scratch. It is a pure
// function of (layouts, orders, reservations, now); callers re-run it on
// every collection change and on the periodic clock tick.
func DeriveTables(layouts []models.TableLayout, orders []models.Order, reservations []models.Reservation, now time.Time) []TableView {
	views := make([]TableView, 0, len(layouts))
	for _, layout := range layouts {
		views = append(views, DeriveTable(layout, orders, reservations, now))
	}
	return views
}
