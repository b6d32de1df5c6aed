package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderService handles order composition for both dine-in tables and
// delivery-platform orders.
type OrderService struct {
	store       *store.Store
	customerSvc *CustomerService
}

// NewOrderService creates a new order service
func NewOrderService(st *store.Store) *OrderService {
	return &OrderService{
		store:       st,
		customerSvc: NewCustomerService(st),
	}
}

// ItemRequest describes one configured cart line to add
type ItemRequest struct {
	ProductID string   `json:"product_id"`
	VariantID string   `json:"variant_id,omitempty"`
	PointID   string   `json:"point_id,omitempty"`
	ExtraIDs  []string `json:"extra_ids,omitempty"`
	Comment   string   `json:"comment,omitempty"`
}

// DeliveryRequest describes a new delivery-platform order
type DeliveryRequest struct {
	Platform      string `json:"platform"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// platformCodes maps a delivery platform to its order-code prefix
var platformCodes = map[string]string{
	"Glovo":   "GL",
	"Uber":    "UB",
	"JustEat": "JE",
	"Smile":   "SM",
}

// OrderForTable returns the open sala order claiming the table, or nil when
// the table has none. Closed orders never match.
func (s *OrderService) OrderForTable(tableID string) (*models.Order, error) {
	orders, err := s.store.OpenOrders()
	if err != nil {
		return nil, err
	}
	layouts, err := s.store.Layouts()
	if err != nil {
		return nil, err
	}
	var layout *models.TableLayout
	for i := range layouts {
		if layouts[i].ID == tableID {
			layout = &layouts[i]
			break
		}
	}
	if layout == nil {
		return nil, fmt.Errorf("unknown table %s", tableID)
	}
	for i := range orders {
		o := &orders[i]
		if o.Type != models.OrderTypeSala {
			continue
		}
		if o.TableID == tableID || (o.TableID == "" && o.Name == layout.Name) {
			return o, nil
		}
	}
	return nil, nil
}

// draftOrder builds an unpersisted sala order for a table. The order only
// reaches the store when its first item is added or seating is confirmed.
func (s *OrderService) draftOrder(tableID string) (*models.Order, error) {
	layouts, err := s.store.Layouts()
	if err != nil {
		return nil, err
	}
	for _, layout := range layouts {
		if layout.ID == tableID {
			return &models.Order{
				ID:      uuid.NewString(),
				Type:    models.OrderTypeSala,
				TableID: tableID,
				Name:    layout.Name,
				Status:  models.OrderStatusOccupied,
				Stage:   models.StageEmpty,
			}, nil
		}
	}
	return nil, fmt.Errorf("unknown table %s", tableID)
}

// ConfirmSeating persists the table's order even while it is still empty,
// marking the table occupied, and seats any blocking reservation.
func (s *OrderService) ConfirmSeating(tableID string) (*models.Order, error) {
	order, err := s.OrderForTable(tableID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		order, err = s.draftOrder(tableID)
		if err != nil {
			return nil, err
		}
		// An explicitly seated empty table still has to derive as occupied
		order.Stage = models.StageDrinks
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	s.seatReservation(tableID)
	log.Printf("Seated table %s (order %s)", tableID, order.ID)
	return order, nil
}

// AddItemToTable adds a configured line to the table's order, creating and
// persisting the order on the first item.
func (s *OrderService) AddItemToTable(tableID string, req ItemRequest) (*models.Order, error) {
	order, err := s.OrderForTable(tableID)
	if err != nil {
		return nil, err
	}
	isNew := order == nil
	if isNew {
		order, err = s.draftOrder(tableID)
		if err != nil {
			return nil, err
		}
	}
	if err := s.addItem(order, req); err != nil {
		return nil, err
	}
	if isNew {
		s.seatReservation(tableID)
	}
	return order, nil
}

// AddItemToOrder adds a configured line to an existing order by id
func (s *OrderService) AddItemToOrder(orderID string, req ItemRequest) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.addItem(order, req); err != nil {
		return nil, err
	}
	return order, nil
}

// addItem resolves the catalog entry and configuration, prices the line and
// appends it through the composer.
func (s *OrderService) addItem(order *models.Order, req ItemRequest) error {
	product, err := s.store.MenuItemByID(req.ProductID)
	if err != nil {
		return fmt.Errorf("unknown product %s: %w", req.ProductID, err)
	}
	basePrice, err := core.ParsePrice(product.Price)
	if err != nil {
		return fmt.Errorf("product %s has invalid price: %w", product.ID, err)
	}

	var variant *core.Variant
	variantName := ""
	if req.VariantID != "" {
		variant = core.VariantByID(req.VariantID)
		if variant == nil {
			return fmt.Errorf("unknown variant %s", req.VariantID)
		}
		variantName = variant.Label
	}

	pointName := ""
	if req.PointID != "" {
		point := core.PointByID(req.PointID)
		if point == nil {
			return fmt.Errorf("unknown cooking point %s", req.PointID)
		}
		pointName = point.Label
	}
	if variant != nil && variant.NeedsPoint && pointName == "" {
		return fmt.Errorf("variant %s requires a cooking point", variant.ID)
	}

	lineExtras := core.ExtrasByID(req.ExtraIDs)

	item := models.OrderItem{
		LineID:      uuid.NewString(),
		ProductID:   product.ID,
		Name:        product.Name,
		Category:    product.Category,
		Price:       core.ItemPrice(basePrice, variant, lineExtras),
		VariantName: variantName,
		PointName:   pointName,
		Extras:      models.ExtraList(lineExtras),
		Comment:     req.Comment,
	}

	if err := core.AddItem(order, item); err != nil {
		return err
	}
	return s.store.SaveOrder(order)
}

// RemoveItem removes an unsent line from the order
func (s *OrderService) RemoveItem(orderID, lineID string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if _, err := core.RemoveItem(order, lineID); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CommentItem attaches a note to an unsent line
func (s *OrderService) CommentItem(orderID, lineID, comment string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := core.CommentItem(order, lineID, comment); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// SetOrderComment sets the order-level note
func (s *OrderService) SetOrderComment(orderID, comment string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsClosed() {
		return nil, core.ErrOrderClosed
	}
	order.Comment = comment
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// SendToKitchen marks every pending line as fired
func (s *OrderService) SendToKitchen(orderID string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	sent, err := core.MarkSentToKitchen(order)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	log.Printf("Order %s: sent %d items to kitchen", orderID, sent)
	return order, nil
}

// SetPaymentPending moves the order to the payment step
func (s *OrderService) SetPaymentPending(orderID string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsClosed() {
		return nil, core.ErrOrderClosed
	}
	order.Status = models.OrderStatusPayment
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CloseOrder confirms payment and closes the tab. Delivery orders with a
// customer phone update the customer profile counters.
func (s *OrderService) CloseOrder(orderID, paymentMethod string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := core.Close(order, paymentMethod, time.Now()); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	if order.Type == models.OrderTypeDelivery && order.CustomerPhone != "" {
		if err := s.customerSvc.RecordOrder(order.CustomerPhone, order.CustomerName, order.CustomerEmail); err != nil {
			log.Printf("Warning: failed to update customer profile for %s: %v", order.CustomerPhone, err)
		}
	}
	log.Printf("Closed order %s (%s, %.2f via %s)", order.ID, order.Name, order.Total, paymentMethod)
	return order, nil
}

// CreateDeliveryOrder opens a delivery order with a generated platform code.
// Unlike table orders, delivery orders are persisted immediately.
func (s *OrderService) CreateDeliveryOrder(req DeliveryRequest) (*models.Order, error) {
	code, ok := platformCodes[req.Platform]
	if !ok {
		return nil, fmt.Errorf("unknown delivery platform %s", req.Platform)
	}

	id := uuid.NewString()
	order := &models.Order{
		ID:            id,
		Type:          models.OrderTypeDelivery,
		Name:          fmt.Sprintf("#%s-%s", code, strings.ToUpper(id[:4])),
		Status:        models.OrderStatusCocina,
		Stage:         models.StageEmpty,
		Platform:      req.Platform,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Comment:       req.Comment,
	}
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	if order.CustomerPhone != "" {
		if err := s.customerSvc.Upsert(order.CustomerPhone, order.CustomerName, order.CustomerEmail); err != nil {
			log.Printf("Warning: failed to upsert customer %s: %v", order.CustomerPhone, err)
		}
	}
	log.Printf("Created delivery order %s (%s)", order.Name, req.Platform)
	return order, nil
}

// UpdateDeliveryStatus advances a delivery order through its pipeline.
// The status is free-form ("cocina", "rider", "ready"...); closing goes
// through CloseOrder instead.
func (s *OrderService) UpdateDeliveryStatus(orderID, status string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Type != models.OrderTypeDelivery {
		return nil, fmt.Errorf("order %s is not a delivery order", orderID)
	}
	if order.IsClosed() {
		return nil, core.ErrOrderClosed
	}
	if models.OrderStatus(status) == models.OrderStatusClosed {
		// Closing records the payment method and timestamp; a plain status
		// write would skip both
		return nil, fmt.Errorf("use the close operation to close order %s", orderID)
	}
	order.Status = models.OrderStatus(status)
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateDeliveryCustomer edits the customer fields of a delivery order and
// upserts the customer profile keyed by normalized phone.
func (s *OrderService) UpdateDeliveryCustomer(orderID, name, phone, email string) (*models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Type != models.OrderTypeDelivery {
		return nil, fmt.Errorf("order %s is not a delivery order", orderID)
	}
	if order.IsClosed() {
		return nil, core.ErrOrderClosed
	}
	order.CustomerName = name
	order.CustomerPhone = phone
	order.CustomerEmail = email
	if err := s.store.SaveOrder(order); err != nil {
		return nil, err
	}
	if phone != "" {
		if err := s.customerSvc.Upsert(phone, name, email); err != nil {
			log.Printf("Warning: failed to upsert customer %s: %v", phone, err)
		}
	}
	return order, nil
}

// ActiveDeliveryOrders returns open delivery orders, oldest first
func (s *OrderService) ActiveDeliveryOrders() ([]models.Order, error) {
	orders, err := s.store.OpenOrders()
	if err != nil {
		return nil, err
	}
	var out []models.Order
	for _, o := range orders {
		if o.Type == models.OrderTypeDelivery {
			out = append(out, o)
		}
	}
	return out, nil
}

// ClearOrders removes every order record regardless of status. Used by the
// end-of-service reset.
func (s *OrderService) ClearOrders() (int, error) {
	orders, err := s.store.Orders()
	if err != nil {
		return 0, err
	}
	for _, o := range orders {
		if err := s.store.DeleteOrder(o.ID); err != nil {
			return 0, err
		}
	}
	log.Printf("Cleared %d orders", len(orders))
	return len(orders), nil
}

// seatReservation marks the table's blocking reservation as seated once the
// party has actually sat down and ordered.
func (s *OrderService) seatReservation(tableID string) {
	today := time.Now().Format("2006-01-02")
	reservations, err := s.store.ReservationsForDate(today)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: could not load reservations for %s: %v", today, err)
		}
		return
	}
	for i := range reservations {
		r := &reservations[i]
		if r.TableID == tableID && !r.Seated {
			r.Seated = true
			if err := s.store.SaveReservation(r); err != nil {
				log.Printf("Warning: could not seat reservation %s: %v", r.ID, err)
			}
			return
		}
	}
}
