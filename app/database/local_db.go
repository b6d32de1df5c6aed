package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LocalDB manages the local SQLite database used as the offline write queue.
// Every mutation performed while the hosted database is unreachable is queued
// here and replayed by the sync worker when connectivity returns.
type LocalDB struct {
	db     *gorm.DB
	dbPath string
}

var localDB *LocalDB

// InitializeLocalDB initializes the local SQLite database
func InitializeLocalDB(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// CGO-free driver
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		return fmt.Errorf("failed to connect to local database: %w", err)
	}

	localDB = &LocalDB{
		db:     db,
		dbPath: dbPath,
	}

	if err := localDB.runMigrations(); err != nil {
		return fmt.Errorf("failed to run local migrations: %w", err)
	}

	return nil
}

// GetLocalDB returns the local database instance
func GetLocalDB() *LocalDB {
	if localDB == nil {
		InitializeLocalDB("./data/queue.db")
	}
	return localDB
}

func (l *LocalDB) runMigrations() error {
	return l.db.AutoMigrate(
		&QueuedWrite{},
		&SyncStatus{},
		&SyncLog{},
	)
}

// QueuedWrite is one record mutation captured while offline. Payload holds
// the full JSON snapshot of the record; replay is last-writer-wins per id.
type QueuedWrite struct {
	ID           uint      `gorm:"primaryKey"`
	Collection   string    `gorm:"index" json:"collection"`
	RecordID     string    `gorm:"index" json:"record_id"`
	Action       string    `json:"action"` // "upsert", "delete"
	Payload      string    `json:"payload"`
	IsSynced     bool      `gorm:"index" json:"is_synced"`
	SyncAttempts int       `json:"sync_attempts"`
	LastError    string    `json:"last_error"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SyncStatus tracks synchronization status
type SyncStatus struct {
	ID            uint       `gorm:"primaryKey"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
	Status        string     `json:"status"` // "syncing", "completed", "failed"
	PendingWrites int        `json:"pending_writes"`
	LastError     string     `json:"last_error"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SyncLog tracks synchronization history
type SyncLog struct {
	ID         uint      `gorm:"primaryKey"`
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status"` // "success", "failed"
	Error      string    `json:"error"`
	SyncedAt   time.Time `json:"synced_at"`
}

// QueueWrite captures a record mutation for later replay. The record is
// serialized in full so replay does not depend on local schema details.
func (l *LocalDB) QueueWrite(collection, recordID, action string, record interface{}) error {
	payload := ""
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		payload = string(data)
	}

	write := QueuedWrite{
		Collection: collection,
		RecordID:   recordID,
		Action:     action,
		Payload:    payload,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	return l.db.Create(&write).Error
}

// GetPendingWrites returns queued writes that have not been replayed yet,
// oldest first so replay preserves mutation order.
func (l *LocalDB) GetPendingWrites() ([]QueuedWrite, error) {
	var writes []QueuedWrite
	err := l.db.Where("is_synced = ? AND sync_attempts < ?", false, 5).
		Order("created_at ASC").
		Find(&writes).Error
	return writes, err
}

// MarkWriteSynced marks a queued write as replayed
func (l *LocalDB) MarkWriteSynced(id uint) error {
	return l.db.Model(&QueuedWrite{}).Where("id = ?", id).Update("is_synced", true).Error
}

// MarkWriteFailed records a failed replay attempt
func (l *LocalDB) MarkWriteFailed(id uint, errMsg string) error {
	return l.db.Model(&QueuedWrite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"sync_attempts": gorm.Expr("sync_attempts + 1"),
		"last_error":    errMsg,
		"updated_at":    time.Now(),
	}).Error
}

// UpdateSyncStatus updates sync status
func (l *LocalDB) UpdateSyncStatus(status string, errMsg string) error {
	var syncStatus SyncStatus
	l.db.FirstOrCreate(&syncStatus)

	now := time.Now()
	syncStatus.LastSyncAt = &now
	syncStatus.Status = status
	syncStatus.LastError = errMsg
	syncStatus.UpdatedAt = now

	var pending int64
	l.db.Model(&QueuedWrite{}).Where("is_synced = ?", false).Count(&pending)
	syncStatus.PendingWrites = int(pending)

	return l.db.Save(&syncStatus).Error
}

// GetSyncStatus gets current sync status
func (l *LocalDB) GetSyncStatus() (*SyncStatus, error) {
	var status SyncStatus
	err := l.db.FirstOrCreate(&status).Error
	return &status, err
}

// LogSync logs a sync operation
func (l *LocalDB) LogSync(collection, recordID, action, status, errMsg string) {
	entry := SyncLog{
		Collection: collection,
		RecordID:   recordID,
		Action:     action,
		Status:     status,
		Error:      errMsg,
		SyncedAt:   time.Now(),
	}
	l.db.Create(&entry)
}

// ClearSyncedData removes replayed writes and logs older than specified days
func (l *LocalDB) ClearSyncedData(daysOld int) error {
	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	if err := l.db.Where("is_synced = ? AND updated_at < ?", true, cutoffDate).Delete(&QueuedWrite{}).Error; err != nil {
		return err
	}
	return l.db.Where("synced_at < ?", cutoffDate).Delete(&SyncLog{}).Error
}

// GetDB returns the underlying database connection
func (l *LocalDB) GetDB() *gorm.DB {
	return l.db
}

// Close closes the local database connection
func (l *LocalDB) Close() error {
	if l.db != nil {
		sqlDB, err := l.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Transaction executes a function within a database transaction
func (l *LocalDB) Transaction(fn func(*gorm.DB) error) error {
	return l.db.Transaction(fn)
}
