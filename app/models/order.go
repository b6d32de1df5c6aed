package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// OrderType distinguishes dine-in tabs from delivery-platform orders
type OrderType string

const (
	OrderTypeSala     OrderType = "sala"
	OrderTypeDelivery OrderType = "delivery"
)

// OrderStatus represents the status of an order.
// Delivery orders additionally use free-form platform statuses ("rider", "ready"...),
// so the type is not a closed enum.
type OrderStatus string

const (
	OrderStatusOccupied OrderStatus = "occupied"
	OrderStatusPayment  OrderStatus = "payment"
	OrderStatusClosed   OrderStatus = "closed"
	OrderStatusCocina   OrderStatus = "cocina"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s *OrderStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Stage is the furthest course category a dine-in order has reached.
// It only ever advances (empty -> drinks -> starters -> burgers -> desserts);
// the single sanctioned reset is the explicit unseat action.
type Stage string

const (
	StageEmpty    Stage = "empty"
	StageDrinks   Stage = "drinks"
	StageStarters Stage = "starters"
	StageBurgers  Stage = "burgers"
	StageDesserts Stage = "desserts"
)

func (s *Stage) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = Stage(v)
	case []byte:
		*s = Stage(v)
	default:
		return fmt.Errorf("cannot scan %T into Stage", value)
	}
	return nil
}

func (s Stage) Value() (driver.Value, error) {
	return string(s), nil
}

// Extra is one paid add-on applied to an order line
type Extra struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// ExtraList is stored as a JSON column so an order line stays one row
type ExtraList []Extra

func (e *ExtraList) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ExtraList", value)
	}
	if len(data) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(data, e)
}

func (e ExtraList) Value() (driver.Value, error) {
	if len(e) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Order represents one active or closed tab, either dine-in or delivery
type Order struct {
	ID      string      `gorm:"primaryKey" json:"id"`
	Type    OrderType   `gorm:"index" json:"type"`
	TableID string      `gorm:"index" json:"table_id,omitempty"` // set only for sala orders
	Name    string      `json:"name"`                            // table name or delivery code
	Status  OrderStatus `gorm:"index" json:"status"`
	Stage   Stage       `json:"stage"`
	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Total   float64     `json:"total"`
	Comment string      `json:"comment,omitempty"`

	// Delivery information (only for delivery orders)
	Platform      string `json:"platform,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`

	PaymentMethod string     `json:"payment_method,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsClosed reports whether the order reached its terminal state
func (o *Order) IsClosed() bool {
	return o.Status == OrderStatusClosed
}

// FindItem returns the index of the line with the given id, or -1
func (o *Order) FindItem(lineID string) int {
	for i := range o.Items {
		if o.Items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

// OrderItem is one product instance within an order. LineID identifies the
// line itself (the same product can appear several times); ProductID points
// at the menu entry.
type OrderItem struct {
	LineID        string    `gorm:"primaryKey" json:"line_id"`
	OrderID       string    `gorm:"index" json:"order_id"`
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"` // final price including variant and extras
	VariantName   string    `json:"variant_name,omitempty"`
	PointName     string    `json:"point_name,omitempty"` // doneness, gourmet patties only
	Extras        ExtraList `gorm:"type:text" json:"extras"`
	SentToKitchen bool      `gorm:"default:false" json:"sent_to_kitchen"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
