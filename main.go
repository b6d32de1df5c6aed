package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"SmilePos/app/config"
	"SmilePos/app/database"
	"SmilePos/app/services"
	"SmilePos/app/store"
	"SmilePos/app/websocket"

	"github.com/joho/godotenv"
)

func main() {
	// Initialize logger FIRST to catch all errors
	loggerService := services.NewLoggerService()
	if loggerService == nil {
		fmt.Println("CRITICAL: Logger service failed to initialize")
		os.Exit(1)
	}
	defer loggerService.Close()

	// Recover from any panic and log it
	defer func() {
		if r := recover(); r != nil {
			loggerService.LogPanic(r)
			os.Exit(1)
		}
	}()

	loggerService.LogInfo("Application starting", "SmilePos Server")

	// Load environment variables from .env file in project root (for development)
	if err := godotenv.Load(".env"); err != nil {
		loggerService.LogWarning(".env file not found, will use config.json if available")
	}

	cfg, err := config.LoadOrCreate()
	if err != nil {
		loggerService.LogFatal("Failed to load configuration", err)
	}

	loggerService.LogInfo("Initializing database")
	if err := database.InitializeWithConfig(cfg); err != nil {
		loggerService.LogFatal("Failed to initialize database", err)
	}

	// The offline write queue lives next to the data, always on local disk
	queuePath := filepath.Join("data", "queue.db")
	if cfg.System.DataPath != "" {
		queuePath = filepath.Join(cfg.System.DataPath, "queue.db")
	}
	if err := database.InitializeLocalDB(queuePath); err != nil {
		loggerService.LogWarning("Offline queue unavailable", err.Error())
	}

	st := store.New()

	tableService := services.NewTableService(st)
	orderService := services.NewOrderService(st)
	customerService := services.NewCustomerService(st)
	reservationService := services.NewReservationService(st, cfg)
	menuService := services.NewMenuService(st)
	employeeService := services.NewEmployeeService(st)
	sheetsService := services.NewGoogleSheetsService(database.GetDB())

	// Heal the floor plan before anything renders it
	loggerService.LogInfo("Checking floor plan")
	if err := tableService.RepairOnLoad(); err != nil {
		loggerService.LogWarning("Floor plan repair failed", err.Error())
	}

	wsServer := websocket.NewServer(
		fmt.Sprintf(":%d", cfg.Server.Port),
		st,
		&websocket.Services{
			Tables:       tableService,
			Orders:       orderService,
			Reservations: reservationService,
			Customers:    customerService,
			Menu:         menuService,
			Employees:    employeeService,
			Sheets:       sheetsService,
			Logger:       loggerService,
		},
		cfg.Server.AnnounceMDNS,
	)

	// Periodic re-derivation keeps reservation windows opening and closing
	// on the clock even when no record changes
	scheduler := services.NewSchedulerService(
		sheetsService,
		loggerService,
		cfg.System.DeriveTickSeconds,
		wsServer.BroadcastTableState,
	)
	if err := scheduler.Start(); err != nil {
		loggerService.LogWarning("Scheduler start error", err.Error())
	}

	// Replays the offline queue once the hosted database comes back
	syncWorker := services.StartSyncWorker(cfg)

	go func() {
		defer loggerService.RecoverPanic()
		if err := wsServer.Start(); err != nil {
			loggerService.LogFatal("Server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	loggerService.LogInfo("Shutting down")

	scheduler.Stop()
	if syncWorker != nil {
		syncWorker.Stop()
	}
	wsServer.Stop()

	if err := database.Close(); err != nil {
		loggerService.LogError("Error closing database", err)
	}

	loggerService.LogInfo("Shutdown complete")
}
