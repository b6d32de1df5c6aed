package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"SmilePos/app/config"
	"SmilePos/app/core"
	"SmilePos/app/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db      *gorm.DB
	offline bool
)

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// IsOffline reports whether the server fell back to the local SQLite store
// because the hosted database was unreachable at startup.
func IsOffline() bool {
	return offline
}

// buildDSN constructs the database connection string from environment variables
// Priority: DATABASE_URL > individual variables (DB_HOST, DB_PORT, etc.) > defaults
func buildDSN() string {
	// Option 1: Check for complete DATABASE_URL first (highest priority)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		log.Printf("Using DATABASE_URL for database connection")
		return dsn
	}

	// Option 2: Build from individual environment variables
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if user == "" {
		user = "postgres"
	}
	if password == "" {
		password = "postgres"
	}
	if dbname == "" {
		dbname = "smilepos"
	}
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	log.Printf("Built database connection from individual variables: host=%s port=%s dbname=%s sslmode=%s",
		host, port, dbname, sslmode)

	return dsn
}

// buildDSNFromConfig builds DSN from AppConfig
func buildDSNFromConfig(cfg *config.AppConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	log.Printf("Built database connection from config.json: host=%s port=%d dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)

	return dsn
}

// Initialize sets up the database connection using environment variables
func Initialize() error {
	return InitializeWithConfig(nil)
}

// InitializeWithConfig sets up the database connection with optional AppConfig.
// If the hosted PostgreSQL database is unreachable the server falls back to
// the local SQLite file so the restaurant keeps running; queued writes are
// replayed by the sync worker once the connection returns.
func InitializeWithConfig(appConfig *config.AppConfig) error {
	var err error
	var dsn string

	if appConfig != nil {
		dsn = buildDSNFromConfig(appConfig)
	} else {
		dsn = buildDSN()
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		log.Printf("Hosted database unreachable, falling back to local store: %v", err)
		db, err = gorm.Open(sqlite.Open(localFallbackPath()), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to open fallback database: %w", err)
		}
		offline = true
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := SeedInitialData(); err != nil {
		log.Printf("Warning: failed to seed initial data: %v", err)
	}

	return nil
}

func localFallbackPath() string {
	if p := os.Getenv("SMILEPOS_LOCAL_DB"); p != "" {
		return p
	}
	return "./data/local.db"
}

// RunMigrations runs database migrations
func RunMigrations() error {
	err := db.AutoMigrate(
		// Floor plan
		&models.TableLayout{},

		// Orders
		&models.Order{},
		&models.OrderItem{},

		// Reservations and customers
		&models.Reservation{},
		&models.Customer{},

		// Catalog
		&models.MenuItem{},

		// Staff
		&models.Employee{},

		// Integrations
		&models.SheetsConfig{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	createIndexes()

	return nil
}

// createIndexes creates database indexes for better query performance
func createIndexes() {
	// Order indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_type ON orders(type)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_table_id ON orders(table_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_closed_at ON orders(closed_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)")

	// Reservation indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reservations_phone ON reservations(phone)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reservations_table_id ON reservations(table_id)")

	// Catalog indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_menu_items_category ON menu_items(category)")
}

// SeedInitialData seeds the floor plan, the menu catalog and a default admin
func SeedInitialData() error {
	if err := seedFloorPlan(); err != nil {
		return err
	}
	if err := seedMenu(); err != nil {
		return err
	}
	return seedDefaultEmployee()
}

// seedFloorPlan inserts any canonical table the store does not know about yet.
// Existing layouts are never touched so staff repositioning survives restarts.
func seedFloorPlan() error {
	var stored []models.TableLayout
	if err := db.Find(&stored).Error; err != nil {
		return err
	}
	missing := core.MissingLayouts(stored)
	for _, layout := range missing {
		if err := db.Create(&layout).Error; err != nil {
			return fmt.Errorf("seed layout %s: %w", layout.ID, err)
		}
	}
	if len(missing) > 0 {
		log.Printf("Seeded %d missing table layouts", len(missing))
	}
	return nil
}

func seedMenu() error {
	var count int64
	db.Model(&models.MenuItem{}).Count(&count)
	if count > 0 {
		return nil
	}

	items := []models.MenuItem{
		// Entrantes
		{ID: "e1", Name: "Croquetas de cocido", Price: "6.90", Category: "entrantes"},
		{ID: "e2", Name: "Patatas Bravas", Price: "6.50", Category: "entrantes"},
		{ID: "e3", Name: "Nachos", Price: "12.90", Category: "entrantes"},
		{ID: "e4", Name: "Tequeños caseros", Price: "9.90", Category: "entrantes"},
		{ID: "e5", Name: "Tiras de Pollo Crunchy", Price: "8.90", Category: "entrantes"},
		{ID: "e6", Name: "Pulled Pork Fries", Price: "8.90", Category: "entrantes"},
		{ID: "e7", Name: "Nachos Veganos", Price: "9.90", Category: "entrantes"},

		// Burgers
		{ID: "b1", Name: "New York", Price: "12.50", Category: "burgers"},
		{ID: "b2", Name: "Paris", Price: "14.90", Category: "burgers"},
		{ID: "b3", Name: "Medellin", Price: "15.90", Category: "burgers"},
		{ID: "b4", Name: "México D.F.", Price: "14.90", Category: "burgers"},
		{ID: "b5", Name: "Tarragona", Price: "14.90", Category: "burgers"},
		{ID: "b6", Name: "Chicago", Price: "14.90", Category: "burgers"},
		{ID: "b7", Name: "Bali", Price: "14.50", Category: "burgers"},
		{ID: "b8", Name: "Kids Menú", Price: "8.90", Category: "burgers"},

		// Postres
		{ID: "p1", Name: "Cheesecake cremoso", Price: "6.50", Category: "postres"},
		{ID: "p2", Name: "Coulant de Chocolate", Price: "5.50", Category: "postres"},
		{ID: "p3", Name: "Tequeños de Kinder", Price: "6.90", Category: "postres"},

		// Bebidas
		{ID: "d1", Name: "Agua", Price: "2.30", Category: "bebidas"},
		{ID: "d2", Name: "Coca-cola", Price: "2.90", Category: "bebidas"},
		{ID: "d3", Name: "Fanta", Price: "2.90", Category: "bebidas"},
		{ID: "d4", Name: "Caña Estrella", Price: "2.80", Category: "bebidas"},
		{ID: "d5", Name: "Copa de Vino", Price: "3.50", Category: "bebidas"},
	}

	for _, item := range items {
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("seed menu item %s: %w", item.ID, err)
		}
	}
	log.Printf("Seeded %d menu items", len(items))
	return nil
}

// seedDefaultEmployee creates the initial admin account with PIN 1234.
// The PIN should be changed on first login.
func seedDefaultEmployee() error {
	var count int64
	db.Model(&models.Employee{}).Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default PIN: %w", err)
	}

	admin := models.Employee{
		Name:     "Admin",
		Role:     "admin",
		PIN:      string(hash),
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed default employee: %w", err)
	}
	log.Println("Seeded default admin employee")
	return nil
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes a function within a database transaction
func Transaction(fn func(*gorm.DB) error) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return db.Transaction(fn)
}
