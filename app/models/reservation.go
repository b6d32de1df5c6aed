package models

import "time"

// Reservation is a booked future seating. Date and Time keep the wall-clock
// strings the booking was made with ("2006-01-02" and "15:04"); the blocking
// window is computed against them in the server's local zone.
type Reservation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"index" json:"phone"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Pax       int       `json:"pax"`
	Date      string    `gorm:"index" json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"`              // HH:MM
	Notes     string    `json:"notes,omitempty"`
	TableID   string    `gorm:"index" json:"table_id,omitempty"`
	Seated    bool      `gorm:"default:false" json:"seated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a denormalized profile keyed by normalized phone number,
// accumulated from reservations and delivery orders.
type Customer struct {
	Phone      string    `gorm:"primaryKey" json:"phone"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	OrderCount int        `json:"order_count"`
	FirstOrder *time.Time `json:"first_order,omitempty"`
	LastOrder  *time.Time `json:"last_order,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
