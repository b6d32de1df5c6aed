package models

import "time"

// MenuItem is a static catalog entry. Price keeps the raw seeded value,
// which may be locale-formatted ("12,90"); it is normalized on read by the
// menu service, never rewritten in place.
type MenuItem struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Img       string    `json:"img,omitempty"`
	Category  string    `gorm:"index" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Employee is a staff member allowed to unlock the POS clients. The PIN is
// stored as a bcrypt hash.
type Employee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Role      string    `json:"role"` // "admin", "waiter", "kitchen"
	PIN       string    `json:"-"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SheetsConfig holds the Google Sheets daily report settings
type SheetsConfig struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IsEnabled     bool      `gorm:"default:false" json:"is_enabled"`
	SpreadsheetID string    `json:"spreadsheet_id"`
	SheetName     string    `json:"sheet_name"`
	PrivateKey    string    `json:"private_key"` // service account JSON
	SyncTime      string    `json:"sync_time"` // "HH:MM", daily export time
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus string     `json:"last_sync_status"`
	LastSyncError  string     `json:"last_sync_error,omitempty"`
	TotalSyncs     int        `json:"total_syncs"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
