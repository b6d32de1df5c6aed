package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SmilePos/app/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"
)

// GoogleSheetsService exports the daily closing report to a spreadsheet
type GoogleSheetsService struct {
	db *gorm.DB
}

func NewGoogleSheetsService(db *gorm.DB) *GoogleSheetsService {
	return &GoogleSheetsService{db: db}
}

// GetConfig retrieves Google Sheets configuration
func (s *GoogleSheetsService) GetConfig() (*models.SheetsConfig, error) {
	var config models.SheetsConfig
	result := s.db.First(&config)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			// Create default config
			config = models.SheetsConfig{
				IsEnabled:      false,
				SheetName:      "Cierres",
				SyncTime:       "23:30",
				LastSyncStatus: "pending",
			}
			if err := s.db.Create(&config).Error; err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to get config: %w", result.Error)
		}
	}

	return &config, nil
}

// SaveConfig saves Google Sheets configuration
func (s *GoogleSheetsService) SaveConfig(config *models.SheetsConfig) error {
	if config.ID == 0 {
		return s.db.Create(config).Error
	}
	return s.db.Save(config).Error
}

// TestConnection tests the Google Sheets connection
func (s *GoogleSheetsService) TestConnection(config *models.SheetsConfig) error {
	if config.PrivateKey == "" || config.SpreadsheetID == "" {
		return fmt.Errorf("missing credentials or spreadsheet ID")
	}

	ctx := context.Background()

	creds, err := google.CredentialsFromJSON(ctx, []byte(config.PrivateKey), sheets.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("invalid service account credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return fmt.Errorf("unable to create sheets service: %w", err)
	}

	_, err = srv.Spreadsheets.Get(config.SpreadsheetID).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet: %w", err)
	}

	return nil
}

// ProductDetail represents product sales detail
type ProductDetail struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
}

// ReportData represents a daily closing row
type ReportData struct {
	Fecha             string          `json:"fecha"`
	VentasTotales     float64         `json:"ventas_totales"`
	VentasSala        float64         `json:"ventas_sala"`
	VentasDelivery    float64         `json:"ventas_delivery"`
	NumeroOrdenes     int             `json:"numero_ordenes"`
	ProductosVendidos int             `json:"productos_vendidos"`
	TicketPromedio    float64         `json:"ticket_promedio"`
	DetalleProductos  []ProductDetail `json:"detalle_productos"`
}

// GenerateDailyReport generates the closing report for a specific date from
// the orders closed on that day.
func (s *GoogleSheetsService) GenerateDailyReport(date time.Time) (*ReportData, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	report := &ReportData{
		Fecha:            date.Format("2006-01-02"),
		DetalleProductos: []ProductDetail{},
	}

	closedWindow := s.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusClosed).
		Where("closed_at >= ? AND closed_at < ?", startOfDay, endOfDay)

	var totalSales float64
	closedWindow.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalSales)
	report.VentasTotales = totalSales

	var salaSales float64
	closedWindow.Session(&gorm.Session{}).
		Where("type = ?", models.OrderTypeSala).
		Select("COALESCE(SUM(total), 0)").
		Scan(&salaSales)
	report.VentasSala = salaSales
	report.VentasDelivery = totalSales - salaSales

	var numOrders int64
	closedWindow.Session(&gorm.Session{}).Count(&numOrders)
	report.NumeroOrdenes = int(numOrders)

	var totalProducts int64
	s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.OrderStatusClosed).
		Where("orders.closed_at >= ? AND orders.closed_at < ?", startOfDay, endOfDay).
		Count(&totalProducts)
	report.ProductosVendidos = int(totalProducts)

	if report.NumeroOrdenes > 0 {
		report.TicketPromedio = report.VentasTotales / float64(report.NumeroOrdenes)
	}

	type ProductSummary struct {
		ProductName string
		Quantity    int
		Total       float64
	}

	var productSummaries []ProductSummary
	s.db.Table("order_items").
		Select("order_items.name as product_name, COUNT(*) as quantity, SUM(order_items.price) as total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.OrderStatusClosed).
		Where("orders.closed_at >= ? AND orders.closed_at < ?", startOfDay, endOfDay).
		Group("order_items.name").
		Order("SUM(order_items.price) DESC").
		Scan(&productSummaries)

	for _, ps := range productSummaries {
		report.DetalleProductos = append(report.DetalleProductos, ProductDetail{
			ProductName: ps.ProductName,
			Quantity:    ps.Quantity,
			Total:       ps.Total,
		})
	}

	return report, nil
}

// findExistingRowIndex finds the row index for a specific date, returns -1 if not found
func (s *GoogleSheetsService) findExistingRowIndex(srv *sheets.Service, config *models.SheetsConfig, fecha string) (int, error) {
	sheetRange := fmt.Sprintf("%s!A:A", config.SheetName)
	resp, err := srv.Spreadsheets.Values.Get(config.SpreadsheetID, sheetRange).Do()
	if err != nil {
		return -1, err
	}

	for i, row := range resp.Values {
		if len(row) > 0 {
			if dateStr, ok := row[0].(string); ok && dateStr == fecha {
				return i + 1, nil // +1 because sheets are 1-indexed
			}
		}
	}

	return -1, nil
}

// SendReport sends a report to Google Sheets (updates if exists, appends if new)
func (s *GoogleSheetsService) SendReport(config *models.SheetsConfig, report *ReportData) error {
	if !config.IsEnabled {
		return fmt.Errorf("Google Sheets integration is disabled")
	}

	if config.PrivateKey == "" || config.SpreadsheetID == "" {
		return fmt.Errorf("missing credentials or spreadsheet ID")
	}

	ctx := context.Background()

	creds, err := google.CredentialsFromJSON(ctx, []byte(config.PrivateKey), sheets.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return fmt.Errorf("unable to create sheets service: %w", err)
	}

	if err := s.ensureHeaders(srv, config); err != nil {
		return fmt.Errorf("failed to ensure headers: %w", err)
	}

	productsJSON, err := json.Marshal(report.DetalleProductos)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	row := []interface{}{
		report.Fecha,
		report.VentasTotales,
		report.VentasSala,
		report.VentasDelivery,
		report.NumeroOrdenes,
		report.ProductosVendidos,
		report.TicketPromedio,
		string(productsJSON),
	}

	rowIndex, err := s.findExistingRowIndex(srv, config, report.Fecha)
	if err != nil {
		return fmt.Errorf("failed to check existing row: %w", err)
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	if rowIndex > 0 {
		// Update existing row
		sheetRange := fmt.Sprintf("%s!A%d:H%d", config.SheetName, rowIndex, rowIndex)
		_, err = srv.Spreadsheets.Values.Update(config.SpreadsheetID, sheetRange, valueRange).
			ValueInputOption("USER_ENTERED").
			Do()
		if err != nil {
			return fmt.Errorf("unable to update data: %w", err)
		}
	} else {
		// Append new row
		sheetRange := fmt.Sprintf("%s!A:H", config.SheetName)
		_, err = srv.Spreadsheets.Values.Append(config.SpreadsheetID, sheetRange, valueRange).
			ValueInputOption("USER_ENTERED").
			Do()
		if err != nil {
			return fmt.Errorf("unable to append data: %w", err)
		}
	}

	now := time.Now()
	config.LastSyncAt = &now
	config.LastSyncStatus = "success"
	config.LastSyncError = ""
	config.TotalSyncs++
	s.db.Save(config)

	return nil
}

// ensureHeaders ensures the spreadsheet has the correct headers
func (s *GoogleSheetsService) ensureHeaders(srv *sheets.Service, config *models.SheetsConfig) error {
	sheetRange := fmt.Sprintf("%s!A1:H1", config.SheetName)
	resp, err := srv.Spreadsheets.Values.Get(config.SpreadsheetID, sheetRange).Do()
	if err != nil {
		return err
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) < 8 {
		headers := []interface{}{
			"fecha",
			"ventas_totales",
			"ventas_sala",
			"ventas_delivery",
			"ordenes",
			"productos_vendidos",
			"ticket_promedio",
			"detalle_productos",
		}

		valueRange := &sheets.ValueRange{
			Values: [][]interface{}{headers},
		}

		_, err := srv.Spreadsheets.Values.Update(config.SpreadsheetID, sheetRange, valueRange).
			ValueInputOption("USER_ENTERED").
			Do()

		return err
	}

	return nil
}

// SyncNow manually triggers an export of today's closing report
func (s *GoogleSheetsService) SyncNow() error {
	config, err := s.GetConfig()
	if err != nil {
		return err
	}

	if !config.IsEnabled {
		return fmt.Errorf("Google Sheets integration is disabled")
	}

	today := time.Now()
	report, err := s.GenerateDailyReport(today)
	if err != nil {
		config.LastSyncStatus = "error"
		config.LastSyncError = err.Error()
		now := time.Now()
		config.LastSyncAt = &now
		s.db.Save(config)
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if err := s.SendReport(config, report); err != nil {
		config.LastSyncStatus = "error"
		config.LastSyncError = err.Error()
		now := time.Now()
		config.LastSyncAt = &now
		s.db.Save(config)
		return fmt.Errorf("failed to send report: %w", err)
	}

	return nil
}
