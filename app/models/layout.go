package models

import (
	"math"
	"time"
)

// TableZone is the physical area a table belongs to
type TableZone string

const (
	ZoneSala    TableZone = "sala"
	ZoneTerraza TableZone = "terraza"
)

// TableLayout represents a physical table's position and identity.
// X and Y are percentage coordinates in [0,100) of the floor-plan canvas.
type TableLayout struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Type      TableZone `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sanitize clamps missing or broken coordinates to the origin. Records left
// at (0,0) are picked up by the startup regrid repair.
func (t *TableLayout) Sanitize() {
	if math.IsNaN(t.X) || math.IsInf(t.X, 0) || t.X < 0 || t.X >= 100 {
		t.X = 0
	}
	if math.IsNaN(t.Y) || math.IsInf(t.Y, 0) || t.Y < 0 || t.Y >= 100 {
		t.Y = 0
	}
	if t.Type != ZoneTerraza {
		t.Type = ZoneSala
	}
}
