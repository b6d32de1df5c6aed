package services

import (
	"fmt"
	"log"

	"SmilePos/app/models"
	"SmilePos/app/store"

	"golang.org/x/crypto/bcrypt"
)

// EmployeeService handles staff accounts and PIN authentication
type EmployeeService struct {
	store *store.Store
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(st *store.Store) *EmployeeService {
	return &EmployeeService{store: st}
}

// List returns active staff accounts
func (s *EmployeeService) List() ([]models.Employee, error) {
	return s.store.Employees()
}

// Authenticate checks a PIN against every active account and returns the
// matching employee. PINs are bcrypt-hashed so each candidate is compared
// individually.
func (s *EmployeeService) Authenticate(pin string) (*models.Employee, error) {
	if pin == "" {
		return nil, fmt.Errorf("empty PIN")
	}
	employees, err := s.store.Employees()
	if err != nil {
		return nil, err
	}
	for i := range employees {
		e := &employees[i]
		if bcrypt.CompareHashAndPassword([]byte(e.PIN), []byte(pin)) == nil {
			log.Printf("Employee %s (%s) authenticated", e.Name, e.Role)
			return e, nil
		}
	}
	return nil, fmt.Errorf("invalid PIN")
}

// Create adds a staff account with a hashed PIN
func (s *EmployeeService) Create(name, role, pin string) (*models.Employee, error) {
	if name == "" || pin == "" {
		return nil, fmt.Errorf("employee requires a name and a PIN")
	}
	if len(pin) < 4 {
		return nil, fmt.Errorf("PIN must be at least 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash PIN: %w", err)
	}
	employee := &models.Employee{
		Name:     name,
		Role:     role,
		PIN:      string(hash),
		IsActive: true,
	}
	if err := s.store.SaveEmployee(employee); err != nil {
		return nil, err
	}
	log.Printf("Created employee %s (%s)", name, role)
	return employee, nil
}

// ChangePIN replaces an employee's PIN
func (s *EmployeeService) ChangePIN(id uint, newPIN string) error {
	if len(newPIN) < 4 {
		return fmt.Errorf("PIN must be at least 4 digits")
	}
	employees, err := s.store.Employees()
	if err != nil {
		return err
	}
	for i := range employees {
		if employees[i].ID == id {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash PIN: %w", err)
			}
			employees[i].PIN = string(hash)
			return s.store.SaveEmployee(&employees[i])
		}
	}
	return fmt.Errorf("unknown employee %d", id)
}

// Deactivate disables an account without deleting its history
func (s *EmployeeService) Deactivate(id uint) error {
	employees, err := s.store.Employees()
	if err != nil {
		return err
	}
	for i := range employees {
		if employees[i].ID == id {
			employees[i].IsActive = false
			return s.store.SaveEmployee(&employees[i])
		}
	}
	return fmt.Errorf("unknown employee %d", id)
}
