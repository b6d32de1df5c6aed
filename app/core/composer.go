package core

import (
	"errors"
	"time"

	"SmilePos/app/models"
)

// Validation errors rejected locally by the composer. The controlling UI is
// expected to disable the triggering actions, so these are defensive checks
// rather than user-facing messages.
var (
	ErrOrderClosed       = errors.New("order is closed")
	ErrItemNotFound      = errors.New("order item not found")
	ErrItemSentToKitchen = errors.New("item already sent to kitchen")
	ErrNothingToSend     = errors.New("no items pending for kitchen")
)

// AddItem appends a configured line to the order, keeps the running total
// currency-rounded and advances the service stage. Items are append-only:
// insertion order is service order.
func AddItem(order *models.Order, item models.OrderItem) error {
	if order.IsClosed() {
		return ErrOrderClosed
	}
	item.OrderID = order.ID
	order.Items = append(order.Items, item)
	order.Total = Round2(order.Total + item.Price)
	if order.Type == models.OrderTypeSala {
		order.Stage = AdvanceStage(order.Stage, item.Category)
	}
	return nil
}

// RemoveItem deletes the line with the given id and decrements the total.
// Lines already sent to kitchen are immutable until the order closes. The
// stage is deliberately not recomputed downward.
func RemoveItem(order *models.Order, lineID string) (models.OrderItem, error) {
	if order.IsClosed() {
		return models.OrderItem{}, ErrOrderClosed
	}
	idx := order.FindItem(lineID)
	if idx < 0 {
		return models.OrderItem{}, ErrItemNotFound
	}
	item := order.Items[idx]
	if item.SentToKitchen {
		return models.OrderItem{}, ErrItemSentToKitchen
	}
	order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
	order.Total = Round2(order.Total - item.Price)
	return item, nil
}

// CommentItem attaches a note to a line. Sent lines are immutable.
func CommentItem(order *models.Order, lineID, comment string) error {
	if order.IsClosed() {
		return ErrOrderClosed
	}
	idx := order.FindItem(lineID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if order.Items[idx].SentToKitchen {
		return ErrItemSentToKitchen
	}
	order.Items[idx].Comment = comment
	return nil
}

// MarkSentToKitchen flips every unsent line in one pass and returns how many
// were sent. ErrNothingToSend when the order has no pending lines.
func MarkSentToKitchen(order *models.Order) (int, error) {
	if order.IsClosed() {
		return 0, ErrOrderClosed
	}
	sent := 0
	for i := range order.Items {
		if !order.Items[i].SentToKitchen {
			order.Items[i].SentToKitchen = true
			sent++
		}
	}
	if sent == 0 {
		return 0, ErrNothingToSend
	}
	return sent, nil
}

// Close terminates the order: records the payment method and close time and
// moves the status to closed. A closed order rejects all further mutation.
func Close(order *models.Order, paymentMethod string, now time.Time) error {
	if order.IsClosed() {
		return ErrOrderClosed
	}
	order.Status = models.OrderStatusClosed
	order.PaymentMethod = paymentMethod
	order.ClosedAt = &now
	return nil
}
