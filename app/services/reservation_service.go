package services

import (
	"fmt"
	"log"
	"time"

	"SmilePos/app/config"
	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/store"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ReservationService handles the reservation book: bookings, table
// assignment, seating and SMS confirmations.
type ReservationService struct {
	store       *store.Store
	customerSvc *CustomerService
	orderSvc    *OrderService
	twilioCfg   config.TwilioConfig
	client      *twilio.RestClient
	business    string
}

// NewReservationService creates a new reservation service
func NewReservationService(st *store.Store, cfg *config.AppConfig) *ReservationService {
	s := &ReservationService{
		store:       st,
		customerSvc: NewCustomerService(st),
		orderSvc:    NewOrderService(st),
	}
	if cfg != nil {
		s.twilioCfg = cfg.Twilio
		s.business = cfg.Business.Name
	}
	if s.twilioCfg.Enabled && s.twilioCfg.AccountSID != "" {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: s.twilioCfg.AccountSID,
			Password: s.twilioCfg.AuthToken,
		})
	}
	return s
}

// ReservationRequest describes a new booking
type ReservationRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Pax     int    `json:"pax"`
	Date    string `json:"date"` // YYYY-MM-DD
	Time    string `json:"time"` // HH:MM
	Notes   string `json:"notes,omitempty"`
	TableID string `json:"table_id,omitempty"`
}

// List returns every reservation in the book
func (s *ReservationService) List() ([]models.Reservation, error) {
	return s.store.Reservations()
}

// ForDate returns the bookings of one day
func (s *ReservationService) ForDate(date string) ([]models.Reservation, error) {
	return s.store.ReservationsForDate(date)
}

// Create validates and stores a booking, upserts the customer profile and
// sends the SMS confirmation when Twilio is configured.
func (s *ReservationService) Create(req ReservationRequest) (*models.Reservation, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, fmt.Errorf("reservation requires a name and a phone number")
	}
	if req.Pax <= 0 {
		return nil, fmt.Errorf("reservation requires a party size")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("invalid reservation date %q", req.Date)
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return nil, fmt.Errorf("invalid reservation time %q", req.Time)
	}

	res := &models.Reservation{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Phone:   NormalizePhone(req.Phone),
		Email:   req.Email,
		Pax:     req.Pax,
		Date:    req.Date,
		Time:    req.Time,
		Notes:   req.Notes,
		TableID: req.TableID,
	}
	if err := s.store.SaveReservation(res); err != nil {
		return nil, err
	}

	// A booking counts as a visit: bump the profile's order counters too
	if err := s.customerSvc.RecordOrder(res.Phone, res.Name, res.Email); err != nil {
		log.Printf("Warning: failed to upsert customer for reservation %s: %v", res.ID, err)
	}

	s.sendConfirmation(res)
	log.Printf("Created reservation %s: %s x%d on %s %s", res.ID, res.Name, res.Pax, res.Date, res.Time)
	return res, nil
}

// AssignTable links a booking to a table on the floor plan. Passing an empty
// table id detaches it.
func (s *ReservationService) AssignTable(reservationID, tableID string) (*models.Reservation, error) {
	res, err := s.store.ReservationByID(reservationID)
	if err != nil {
		return nil, err
	}
	if tableID != "" {
		layouts, err := s.store.Layouts()
		if err != nil {
			return nil, err
		}
		known := false
		for _, l := range layouts {
			if l.ID == tableID {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown table %s", tableID)
		}
	}
	res.TableID = tableID
	if err := s.store.SaveReservation(res); err != nil {
		return nil, err
	}
	return res, nil
}

// SetSeated toggles the seated flag. Seating releases the table block;
// un-seating restores it as long as the booking window still applies, and
// rewinds the table's order stage so the table can derive back to free.
func (s *ReservationService) SetSeated(reservationID string, seated bool) (*models.Reservation, error) {
	res, err := s.store.ReservationByID(reservationID)
	if err != nil {
		return nil, err
	}
	res.Seated = seated
	if err := s.store.SaveReservation(res); err != nil {
		return nil, err
	}
	if !seated && res.TableID != "" {
		if err := s.resetOrderStage(res.TableID); err != nil {
			log.Printf("Warning: failed to reset stage for table %s after unseat: %v", res.TableID, err)
		}
	}
	return res, nil
}

// resetOrderStage forces the table's open order back to the empty stage.
// The stage otherwise only ratchets forward; unseating is the one action
// allowed to rewind it.
func (s *ReservationService) resetOrderStage(tableID string) error {
	order, err := s.orderSvc.OrderForTable(tableID)
	if err != nil || order == nil {
		return err
	}
	if order.Stage == models.StageEmpty {
		return nil
	}
	order.Stage = models.StageEmpty
	return s.store.SaveOrder(order)
}

// Cancel removes a booking from the book
func (s *ReservationService) Cancel(reservationID string) error {
	if _, err := s.store.ReservationByID(reservationID); err != nil {
		return err
	}
	return s.store.DeleteReservation(reservationID)
}

// BlockingNow returns today's bookings currently inside their blocking window
func (s *ReservationService) BlockingNow() ([]models.Reservation, error) {
	now := time.Now()
	today, err := s.store.ReservationsForDate(now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	var blocking []models.Reservation
	for i := range today {
		if core.ReservationBlocks(&today[i], now) {
			blocking = append(blocking, today[i])
		}
	}
	return blocking, nil
}

// sendConfirmation sends the booking SMS. Failures are logged, never fatal;
// the reservation stands regardless.
func (s *ReservationService) sendConfirmation(res *models.Reservation) {
	if s.client == nil || s.twilioCfg.FromNumber == "" {
		return
	}

	name := s.business
	if name == "" {
		name = "Smile Burger"
	}
	body := fmt.Sprintf("%s: reserva confirmada para %s, %d pax, el %s a las %s. ¡Te esperamos!",
		name, res.Name, res.Pax, res.Date, res.Time)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(res.Phone)
	params.SetFrom(s.twilioCfg.FromNumber)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		log.Printf("Failed to send reservation SMS to %s: %v", res.Phone, err)
		return
	}
	log.Printf("Sent reservation confirmation SMS to %s", res.Phone)
}
