package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"SmilePos/app/models"
	"SmilePos/app/store"

	"gorm.io/gorm"
)

// CustomerService maintains the denormalized customer directory keyed by
// phone number. Profiles are upserted from reservations and delivery orders.
type CustomerService struct {
	store *store.Store
}

// NewCustomerService creates a new customer service
func NewCustomerService(st *store.Store) *CustomerService {
	return &CustomerService{store: st}
}

// NormalizePhone strips all whitespace from a phone number so the same
// number entered with different spacing maps to one profile.
func NormalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// List returns the customer directory
func (s *CustomerService) List() ([]models.Customer, error) {
	return s.store.Customers()
}

// ByPhone looks a profile up by phone number
func (s *CustomerService) ByPhone(phone string) (*models.Customer, error) {
	key := NormalizePhone(phone)
	if key == "" {
		return nil, fmt.Errorf("empty phone number")
	}
	return s.store.CustomerByPhone(key)
}

// Upsert creates or refreshes a profile without touching order counters.
// Existing non-empty fields are only overwritten by non-empty input.
func (s *CustomerService) Upsert(phone, name, email string) error {
	customer, err := s.load(phone)
	if err != nil {
		return err
	}
	if name != "" {
		customer.Name = name
	}
	if email != "" {
		customer.Email = email
	}
	return s.store.SaveCustomer(customer)
}

// RecordOrder upserts the profile and bumps its order counters
func (s *CustomerService) RecordOrder(phone, name, email string) error {
	customer, err := s.load(phone)
	if err != nil {
		return err
	}
	if name != "" {
		customer.Name = name
	}
	if email != "" {
		customer.Email = email
	}
	now := time.Now()
	if customer.OrderCount == 0 && customer.FirstOrder == nil {
		customer.FirstOrder = &now
	}
	customer.OrderCount++
	customer.LastOrder = &now
	return s.store.SaveCustomer(customer)
}

// load fetches the profile for a phone number, creating a blank one when the
// number is new.
func (s *CustomerService) load(phone string) (*models.Customer, error) {
	key := NormalizePhone(phone)
	if key == "" {
		return nil, fmt.Errorf("empty phone number")
	}
	customer, err := s.store.CustomerByPhone(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Customer{Phone: key}, nil
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}
