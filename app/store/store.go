// Package store is the record store of the POS: typed collection access over
// the shared database plus change subscriptions. Every mutation goes through
// this package so subscribers (the WebSocket hub, the table deriver) always
// see a notification for every committed write.
package store

import (
	"fmt"
	"log"
	"sync"

	"SmilePos/app/database"
	"SmilePos/app/models"

	"gorm.io/gorm"
)

// Collection identifies one record collection
type Collection string

const (
	CollectionLayouts      Collection = "tables_layout"
	CollectionOrders       Collection = "orders"
	CollectionReservations Collection = "reservations"
	CollectionCustomers    Collection = "customers"
	CollectionMenu         Collection = "menu"
	CollectionEmployees    Collection = "employees"
)

// Store wraps the database with per-collection change notification.
// While offline every mutation is additionally captured in the local write
// queue for later replay against the hosted database.
type Store struct {
	db    *gorm.DB
	queue *database.LocalDB

	mu     sync.Mutex
	subs   map[Collection]map[int]chan Collection
	nextID int
}

// New creates a store over the shared database connection
func New() *Store {
	return &Store{
		db:    database.GetDB(),
		queue: database.GetLocalDB(),
		subs:  make(map[Collection]map[int]chan Collection),
	}
}

// NewWithDB creates a store over an explicit connection (useful for testing)
func NewWithDB(db *gorm.DB) *Store {
	return &Store{
		db:   db,
		subs: make(map[Collection]map[int]chan Collection),
	}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Subscribe registers a change listener for a collection. The returned
// channel receives the collection name after every committed write; the
// cancel function must be called to release the subscription.
func (s *Store) Subscribe(col Collection) (<-chan Collection, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan Collection, 16)

	if s.subs[col] == nil {
		s.subs[col] = make(map[int]chan Collection)
	}
	s.subs[col][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[col][id]; ok {
			delete(s.subs[col], id)
			close(sub)
		}
	}
	return ch, cancel
}

// SubscribeAll registers a listener over every collection
func (s *Store) SubscribeAll() (<-chan Collection, func()) {
	out := make(chan Collection, 64)
	cols := []Collection{
		CollectionLayouts, CollectionOrders, CollectionReservations,
		CollectionCustomers, CollectionMenu, CollectionEmployees,
	}

	var cancels []func()
	var wg sync.WaitGroup
	for _, col := range cols {
		ch, cancel := s.Subscribe(col)
		cancels = append(cancels, cancel)
		wg.Add(1)
		go func(ch <-chan Collection) {
			defer wg.Done()
			for c := range ch {
				out <- c
			}
		}(ch)
	}

	cancel := func() {
		for _, c := range cancels {
			c()
		}
		go func() {
			wg.Wait()
			close(out)
		}()
	}
	return out, cancel
}

// notify fans the change out to every subscriber of the collection.
// Slow subscribers drop notifications rather than block the writer; a
// dropped signal only delays a refresh until the next write or tick.
func (s *Store) notify(col Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[col] {
		select {
		case ch <- col:
		default:
		}
	}
}

// queueWrite captures a mutation in the offline queue when the server is
// running against the local fallback store.
func (s *Store) queueWrite(col Collection, recordID, action string, record interface{}) {
	if s.queue == nil || !database.IsOffline() {
		return
	}
	if err := s.queue.QueueWrite(string(col), recordID, action, record); err != nil {
		log.Printf("Failed to queue offline write %s/%s: %v", col, recordID, err)
	}
}

// --- Table layouts ---

// Layouts returns every stored table layout
func (s *Store) Layouts() ([]models.TableLayout, error) {
	var layouts []models.TableLayout
	err := s.db.Order("id").Find(&layouts).Error
	return layouts, err
}

// SaveLayout upserts a table layout and notifies subscribers
func (s *Store) SaveLayout(layout *models.TableLayout) error {
	layout.Sanitize()
	if err := s.db.Save(layout).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionLayouts, layout.ID, "upsert", layout)
	s.notify(CollectionLayouts)
	return nil
}

// SaveLayouts upserts a batch of layouts in one transaction with a single
// notification, used by the repair-on-load step.
func (s *Store) SaveLayouts(layouts []models.TableLayout) error {
	if len(layouts) == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range layouts {
			layouts[i].Sanitize()
			if err := tx.Save(&layouts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range layouts {
		s.queueWrite(CollectionLayouts, layouts[i].ID, "upsert", &layouts[i])
	}
	s.notify(CollectionLayouts)
	return nil
}

// DeleteLayout removes a table from the floor plan
func (s *Store) DeleteLayout(id string) error {
	if err := s.db.Delete(&models.TableLayout{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionLayouts, id, "delete", nil)
	s.notify(CollectionLayouts)
	return nil
}

// --- Orders ---

// Orders returns every order with its items
func (s *Store) Orders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Order("created_at").Find(&orders).Error
	return orders, err
}

// OpenOrders returns orders that have not been closed yet
func (s *Store) OpenOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("status <> ?", models.OrderStatusClosed).
		Order("created_at").
		Find(&orders).Error
	return orders, err
}

// OrderByID loads one order with its items
func (s *Store) OrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrder persists the order and its full item list, then notifies.
// Items removed from the in-memory order are deleted from the store so the
// persisted list always mirrors the composed one.
func (s *Store) SaveOrder(order *models.Order) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		keep := make([]string, 0, len(order.Items))
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
			keep = append(keep, order.Items[i].LineID)
		}
		q := tx.Where("order_id = ?", order.ID)
		if len(keep) > 0 {
			q = q.Where("line_id NOT IN ?", keep)
		}
		return q.Delete(&models.OrderItem{}).Error
	})
	if err != nil {
		return err
	}
	s.queueWrite(CollectionOrders, order.ID, "upsert", order)
	s.notify(CollectionOrders)
	return nil
}

// DeleteOrder removes an order and its items
func (s *Store) DeleteOrder(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.queueWrite(CollectionOrders, id, "delete", nil)
	s.notify(CollectionOrders)
	return nil
}

// --- Reservations ---

// Reservations returns every reservation
func (s *Store) Reservations() ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.Order("date, time").Find(&reservations).Error
	return reservations, err
}

// ReservationsForDate returns reservations booked on a "YYYY-MM-DD" date
func (s *Store) ReservationsForDate(date string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.Where("date = ?", date).Order("time").Find(&reservations).Error
	return reservations, err
}

// ReservationByID loads one reservation
func (s *Store) ReservationByID(id string) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveReservation upserts a reservation and notifies subscribers
func (s *Store) SaveReservation(res *models.Reservation) error {
	if err := s.db.Save(res).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionReservations, res.ID, "upsert", res)
	s.notify(CollectionReservations)
	return nil
}

// DeleteReservation removes a reservation
func (s *Store) DeleteReservation(id string) error {
	if err := s.db.Delete(&models.Reservation{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionReservations, id, "delete", nil)
	s.notify(CollectionReservations)
	return nil
}

// --- Customers ---

// Customers returns the customer directory
func (s *Store) Customers() ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.Order("name").Find(&customers).Error
	return customers, err
}

// CustomerByPhone looks a customer up by the normalized phone key
func (s *Store) CustomerByPhone(phone string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.First(&customer, "phone = ?", phone).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// SaveCustomer upserts a customer record and notifies subscribers
func (s *Store) SaveCustomer(customer *models.Customer) error {
	if err := s.db.Save(customer).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionCustomers, customer.Phone, "upsert", customer)
	s.notify(CollectionCustomers)
	return nil
}

// --- Menu ---

// MenuItems returns the full catalog
func (s *Store) MenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.Order("category, id").Find(&items).Error
	return items, err
}

// MenuItemsByCategory returns the catalog entries of one category
func (s *Store) MenuItemsByCategory(category string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.Where("category = ?", category).Order("id").Find(&items).Error
	return items, err
}

// MenuItemByID loads one catalog entry
func (s *Store) MenuItemByID(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveMenuItem upserts a catalog entry and notifies subscribers
func (s *Store) SaveMenuItem(item *models.MenuItem) error {
	if err := s.db.Save(item).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionMenu, item.ID, "upsert", item)
	s.notify(CollectionMenu)
	return nil
}

// DeleteMenuItem removes a catalog entry
func (s *Store) DeleteMenuItem(id string) error {
	if err := s.db.Delete(&models.MenuItem{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionMenu, id, "delete", nil)
	s.notify(CollectionMenu)
	return nil
}

// --- Employees ---

// Employees returns active staff accounts
func (s *Store) Employees() ([]models.Employee, error) {
	var employees []models.Employee
	err := s.db.Where("is_active = ?", true).Order("name").Find(&employees).Error
	return employees, err
}

// SaveEmployee upserts a staff account and notifies subscribers
func (s *Store) SaveEmployee(employee *models.Employee) error {
	if err := s.db.Save(employee).Error; err != nil {
		return err
	}
	s.queueWrite(CollectionEmployees, fmt.Sprintf("%d", employee.ID), "upsert", employee)
	s.notify(CollectionEmployees)
	return nil
}
