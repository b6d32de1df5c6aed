package services

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives the periodic jobs: the table re-derivation tick
// (so reservation blocking windows open and close without any record
// changing), the nightly Google Sheets export, and log cleanup.
type SchedulerService struct {
	cron      *cron.Cron
	sheetsSvc *GoogleSheetsService
	loggerSvc *LoggerService
	onTick    func()
	tickEvery int
	running   bool
}

// NewSchedulerService creates a scheduler. onTick is invoked every tickEvery
// seconds while the scheduler runs.
func NewSchedulerService(sheetsSvc *GoogleSheetsService, loggerSvc *LoggerService, tickEvery int, onTick func()) *SchedulerService {
	if tickEvery <= 0 {
		tickEvery = 30
	}
	return &SchedulerService{
		cron:      cron.New(cron.WithSeconds()),
		sheetsSvc: sheetsSvc,
		loggerSvc: loggerSvc,
		onTick:    onTick,
		tickEvery: tickEvery,
	}
}

// Start registers the jobs and starts the cron loop
func (s *SchedulerService) Start() error {
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if s.onTick != nil {
		spec := fmt.Sprintf("@every %ds", s.tickEvery)
		if _, err := s.cron.AddFunc(spec, func() {
			if s.loggerSvc != nil {
				defer s.loggerSvc.RecoverPanic()
			}
			s.onTick()
		}); err != nil {
			return fmt.Errorf("register derive tick: %w", err)
		}
	}

	if s.sheetsSvc != nil {
		syncTime := "23:30"
		if cfg, err := s.sheetsSvc.GetConfig(); err == nil && cfg.SyncTime != "" {
			if _, err := time.Parse("15:04", cfg.SyncTime); err == nil {
				syncTime = cfg.SyncTime
			}
		}
		t, _ := time.Parse("15:04", syncTime)
		spec := fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour())
		if _, err := s.cron.AddFunc(spec, s.runDailyExport); err != nil {
			return fmt.Errorf("register daily export: %w", err)
		}
		log.Printf("Daily Sheets export scheduled at %s", syncTime)
	}

	if s.loggerSvc != nil {
		// 04:00, quietest hour of a restaurant
		if _, err := s.cron.AddFunc("0 0 4 * * *", func() {
			if err := s.loggerSvc.CleanOldLogs(30); err != nil {
				log.Printf("Log cleanup failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("register log cleanup: %w", err)
		}
	}

	s.cron.Start()
	s.running = true
	log.Println("Scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for running jobs to finish
func (s *SchedulerService) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	log.Println("Scheduler stopped")
}

// runDailyExport sends yesterday's closing report, the last completed day
func (s *SchedulerService) runDailyExport() {
	if s.loggerSvc != nil {
		defer s.loggerSvc.RecoverPanic()
	}

	config, err := s.sheetsSvc.GetConfig()
	if err != nil {
		log.Printf("Daily export: failed to get config: %v", err)
		return
	}
	if !config.IsEnabled {
		return
	}

	yesterday := time.Now().AddDate(0, 0, -1)
	report, err := s.sheetsSvc.GenerateDailyReport(yesterday)
	if err != nil {
		log.Printf("Daily export: failed to generate report: %v", err)
		return
	}
	if err := s.sheetsSvc.SendReport(config, report); err != nil {
		log.Printf("Daily export: failed to send report: %v", err)
		return
	}
	log.Printf("Daily export: sent closing report for %s", report.Fecha)
}

// Running reports whether the scheduler is active
func (s *SchedulerService) Running() bool {
	return s.running
}
