package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"SmilePos/app/config"
	"SmilePos/app/database"
	"SmilePos/app/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SyncWorker replays the offline write queue against the hosted database.
// It only has work to do when the server started against the local fallback
// store; while the hosted database stays unreachable it just retries.
type SyncWorker struct {
	appConfig    *config.AppConfig
	localDB      *database.LocalDB
	remote       *gorm.DB
	isRunning    bool
	stopChan     chan bool
	syncInterval time.Duration
}

// StartSyncWorker initializes and starts the sync worker. Returns nil when
// the server is online and no replay is needed.
func StartSyncWorker(appConfig *config.AppConfig) *SyncWorker {
	if !database.IsOffline() {
		log.Println("Hosted database reachable, sync worker not needed")
		return nil
	}

	worker := &SyncWorker{
		appConfig:    appConfig,
		localDB:      database.GetLocalDB(),
		stopChan:     make(chan bool),
		syncInterval: 1 * time.Minute,
	}

	if worker.localDB == nil {
		log.Println("Local DB is nil. Sync worker will not start.")
		return nil
	}

	go worker.run()
	log.Printf("Sync worker started with interval: %v", worker.syncInterval)
	return worker
}

// run is the main sync loop
func (worker *SyncWorker) run() {
	worker.isRunning = true
	ticker := time.NewTicker(worker.syncInterval)
	defer ticker.Stop()

	// Initial attempt
	worker.performSync()

	for {
		select {
		case <-ticker.C:
			worker.performSync()
		case <-worker.stopChan:
			log.Println("Sync worker stopped")
			worker.isRunning = false
			return
		}
	}
}

// Stop stops the sync worker
func (worker *SyncWorker) Stop() {
	if worker.isRunning {
		worker.stopChan <- true
	}
}

// performSync connects to the hosted database and replays the queue
func (worker *SyncWorker) performSync() {
	startTime := time.Now()

	if err := worker.connectRemote(); err != nil {
		worker.localDB.UpdateSyncStatus("offline", err.Error())
		return
	}

	worker.localDB.UpdateSyncStatus("syncing", "")

	pending, err := worker.localDB.GetPendingWrites()
	if err != nil {
		log.Printf("Error loading pending writes: %v", err)
		worker.localDB.UpdateSyncStatus("failed", err.Error())
		return
	}
	if len(pending) == 0 {
		worker.localDB.UpdateSyncStatus("completed", "")
		return
	}

	log.Printf("Found %d pending writes to replay", len(pending))

	replayed := 0
	for _, write := range pending {
		if err := worker.replayWrite(write); err != nil {
			log.Printf("Failed to replay %s/%s: %v", write.Collection, write.RecordID, err)
			worker.localDB.MarkWriteFailed(write.ID, err.Error())
			worker.localDB.LogSync(write.Collection, write.RecordID, write.Action, "failed", err.Error())
			continue
		}
		worker.localDB.MarkWriteSynced(write.ID)
		worker.localDB.LogSync(write.Collection, write.RecordID, write.Action, "success", "")
		replayed++
	}

	worker.localDB.ClearSyncedData(7)
	worker.localDB.UpdateSyncStatus("completed", "")
	log.Printf("Replayed %d/%d writes in %v", replayed, len(pending), time.Since(startTime))
}

// connectRemote opens (or reuses) the connection to the hosted database
func (worker *SyncWorker) connectRemote() error {
	if worker.remote != nil {
		if sqlDB, err := worker.remote.DB(); err == nil && sqlDB.Ping() == nil {
			return nil
		}
		worker.remote = nil
	}

	if worker.appConfig == nil {
		return fmt.Errorf("no hosted database configuration")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		worker.appConfig.Database.Host,
		worker.appConfig.Database.Port,
		worker.appConfig.Database.Username,
		worker.appConfig.Database.Password,
		worker.appConfig.Database.Database,
		worker.appConfig.Database.SSLMode,
	)

	remote, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("hosted database still unreachable: %w", err)
	}

	worker.remote = remote
	log.Println("Hosted database reachable again, replaying offline queue")
	return nil
}

// replayWrite applies one queued mutation to the hosted database.
// Replay is last-writer-wins per record: each payload is the full snapshot
// that was current when the write happened locally.
func (worker *SyncWorker) replayWrite(write database.QueuedWrite) error {
	switch write.Action {
	case "delete":
		return worker.replayDelete(write)
	case "upsert":
		return worker.replayUpsert(write)
	default:
		return fmt.Errorf("unknown queued action %q", write.Action)
	}
}

func (worker *SyncWorker) replayDelete(write database.QueuedWrite) error {
	switch write.Collection {
	case "orders":
		return worker.remote.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("order_id = ?", write.RecordID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Order{}, "id = ?", write.RecordID).Error
		})
	case "tables_layout":
		return worker.remote.Delete(&models.TableLayout{}, "id = ?", write.RecordID).Error
	case "reservations":
		return worker.remote.Delete(&models.Reservation{}, "id = ?", write.RecordID).Error
	case "menu":
		return worker.remote.Delete(&models.MenuItem{}, "id = ?", write.RecordID).Error
	default:
		return fmt.Errorf("delete not supported for collection %q", write.Collection)
	}
}

func (worker *SyncWorker) replayUpsert(write database.QueuedWrite) error {
	switch write.Collection {
	case "orders":
		var order models.Order
		if err := json.Unmarshal([]byte(write.Payload), &order); err != nil {
			return err
		}
		return worker.remote.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&order).Error; err != nil {
				return err
			}
			for i := range order.Items {
				order.Items[i].OrderID = order.ID
				if err := tx.Save(&order.Items[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	case "tables_layout":
		var layout models.TableLayout
		if err := json.Unmarshal([]byte(write.Payload), &layout); err != nil {
			return err
		}
		return worker.remote.Save(&layout).Error
	case "reservations":
		var res models.Reservation
		if err := json.Unmarshal([]byte(write.Payload), &res); err != nil {
			return err
		}
		return worker.remote.Save(&res).Error
	case "customers":
		var customer models.Customer
		if err := json.Unmarshal([]byte(write.Payload), &customer); err != nil {
			return err
		}
		return worker.remote.Save(&customer).Error
	case "menu":
		var item models.MenuItem
		if err := json.Unmarshal([]byte(write.Payload), &item); err != nil {
			return err
		}
		return worker.remote.Save(&item).Error
	case "employees":
		var employee models.Employee
		if err := json.Unmarshal([]byte(write.Payload), &employee); err != nil {
			return err
		}
		return worker.remote.Save(&employee).Error
	default:
		return fmt.Errorf("upsert not supported for collection %q", write.Collection)
	}
}
