package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"SmilePos/app/core"
	"SmilePos/app/models"
	"SmilePos/app/services"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// RESTHandlers provides the HTTP API the tablets mutate through. Reads come
// back over the WebSocket as snapshots; these endpoints only need to return
// the direct result of each operation.
type RESTHandlers struct {
	server *Server
	svc    *Services
}

// NewRESTHandlers creates a new REST handlers instance
func NewRESTHandlers(server *Server, svc *Services) *RESTHandlers {
	return &RESTHandlers{
		server: server,
		svc:    svc,
	}
}

// Register wires every endpoint into the default mux
func (h *RESTHandlers) Register() {
	http.HandleFunc("/api/menu", h.HandleMenu)
	http.HandleFunc("/api/menu/options", h.HandleMenuOptions)
	http.HandleFunc("/api/menu/items", h.HandleMenuItems)
	http.HandleFunc("/api/menu/items/", h.HandleMenuItemByID)
	http.HandleFunc("/api/tables", h.HandleTables)
	http.HandleFunc("/api/tables/", h.HandleTableAction)
	http.HandleFunc("/api/layout", h.HandleLayout)
	http.HandleFunc("/api/layout/", h.HandleLayoutByID)
	http.HandleFunc("/api/orders", h.HandleOrders)
	http.HandleFunc("/api/orders/clear", h.HandleClearOrders)
	http.HandleFunc("/api/orders/", h.HandleOrderAction)
	http.HandleFunc("/api/delivery", h.HandleDelivery)
	http.HandleFunc("/api/delivery/", h.HandleDeliveryAction)
	http.HandleFunc("/api/reservations", h.HandleReservations)
	http.HandleFunc("/api/reservations/blocking", h.HandleBlockingReservations)
	http.HandleFunc("/api/reservations/", h.HandleReservationAction)
	http.HandleFunc("/api/customers", h.HandleCustomers)
	http.HandleFunc("/api/customers/", h.HandleCustomerByPhone)
	http.HandleFunc("/api/login", h.HandleLogin)
	http.HandleFunc("/api/connect-qr", h.HandleConnectQR)
	http.HandleFunc("/api/status", h.HandleStatus)
	http.HandleFunc("/api/sheets/config", h.HandleSheetsConfig)
	http.HandleFunc("/api/sheets/sync", h.HandleSheetsSync)
}

// allowCORS sets the CORS headers every tablet-facing endpoint needs and
// answers the preflight. Returns true when the request was a preflight.
func allowCORS(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors onto HTTP statuses: missing records are 404,
// rule violations on the order lifecycle are 409, everything else is treated
// as a bad request.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrOrderClosed),
		errors.Is(err, core.ErrItemSentToKitchen),
		errors.Is(err, core.ErrNothingToSend):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

// Menu

// HandleMenu returns the menu grouped by category
func (h *RESTHandlers) HandleMenu(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	grouped, err := h.svc.Menu.Grouped()
	if err != nil {
		log.Printf("REST API: Error fetching menu: %v", err)
		http.Error(w, "Error fetching menu", http.StatusInternalServerError)
		return
	}
	writeJSON(w, grouped)
}

// HandleMenuOptions returns the burger variants, cooking points and extras
func (h *RESTHandlers) HandleMenuOptions(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	variants, points, extras := h.svc.Menu.Options()
	writeJSON(w, map[string]interface{}{
		"variants": variants,
		"points":   points,
		"extras":   extras,
	})
}

// HandleMenuItems creates or updates a menu item
func (h *RESTHandlers) HandleMenuItems(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "POST") {
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.svc.Menu.Save(item)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("REST API: Menu item saved: %s", saved.ID)
	writeJSON(w, saved)
}

// HandleMenuItemByID deletes a menu item
func (h *RESTHandlers) HandleMenuItemByID(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "DELETE") {
		return
	}
	if r.Method != "DELETE" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/menu/items/")
	if id == "" {
		http.Error(w, "Missing item ID", http.StatusBadRequest)
		return
	}

	if err := h.svc.Menu.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

// Tables

// HandleTables returns the derived table views: layout positions merged with
// open orders and today's blocking reservations.
func (h *RESTHandlers) HandleTables(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views, err := h.svc.Tables.Derived()
	if err != nil {
		log.Printf("REST API: Error deriving tables: %v", err)
		http.Error(w, "Error deriving tables", http.StatusInternalServerError)
		return
	}
	writeJSON(w, views)
}

// HandleTableAction routes /api/tables/{id}/order|seat|items
func (h *RESTHandlers) HandleTableAction(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET, POST") {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/tables/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	tableID := parts[0]

	switch {
	case parts[1] == "order" && r.Method == "GET":
		order, err := h.svc.Orders.OrderForTable(tableID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, order)

	case parts[1] == "seat" && r.Method == "POST":
		order, err := h.svc.Orders.ConfirmSeating(tableID)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Table %s seated, order %s", tableID, order.ID)
		writeJSON(w, order)

	case parts[1] == "items" && r.Method == "POST":
		var req services.ItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.svc.Orders.AddItemToTable(tableID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, order)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// HandleLayout lists layouts and adds new tables
func (h *RESTHandlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET, POST") {
		return
	}

	switch r.Method {
	case "GET":
		layouts, err := h.svc.Tables.Layouts()
		if err != nil {
			http.Error(w, "Error fetching layout", http.StatusInternalServerError)
			return
		}
		writeJSON(w, layouts)

	case "POST":
		var layout models.TableLayout
		if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		saved, err := h.svc.Tables.AddTable(layout)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Table added: %s (%s)", saved.ID, saved.Name)
		writeJSON(w, saved)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleLayoutByID moves, renames or removes one table
func (h *RESTHandlers) HandleLayoutByID(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "PATCH, DELETE") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/layout/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid table ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "PATCH":
		var req struct {
			X    *float64 `json:"x,omitempty"`
			Y    *float64 `json:"y,omitempty"`
			Name *string  `json:"name,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var layout *models.TableLayout
		var err error
		if req.X != nil && req.Y != nil {
			layout, err = h.svc.Tables.MoveTable(id, *req.X, *req.Y)
		} else if req.Name != nil {
			layout, err = h.svc.Tables.RenameTable(id, *req.Name)
		} else {
			http.Error(w, "Nothing to update", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, layout)

	case "DELETE":
		if err := h.svc.Tables.DeleteTable(id); err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Table deleted: %s", id)
		writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Orders

// HandleOrders returns open orders
func (h *RESTHandlers) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orders, err := h.server.store.OpenOrders()
	if err != nil {
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

// HandleClearOrders wipes every order, used at end of service
func (h *RESTHandlers) HandleClearOrders(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "POST") {
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.svc.Orders.ClearOrders()
	if err != nil {
		http.Error(w, "Error clearing orders", http.StatusInternalServerError)
		return
	}
	log.Printf("REST API: Cleared %d orders", count)
	writeJSON(w, map[string]interface{}{"success": true, "cleared": count})
}

// HandleOrderAction routes order lifecycle operations:
//
//	DELETE /api/orders/{id}/items/{line}
//	PATCH  /api/orders/{id}/items/{line}/comment
//	PATCH  /api/orders/{id}/comment
//	POST   /api/orders/{id}/items
//	POST   /api/orders/{id}/send
//	POST   /api/orders/{id}/payment
//	POST   /api/orders/{id}/close
func (h *RESTHandlers) HandleOrderAction(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "POST, PATCH, DELETE") {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	orderID := parts[0]

	var order *models.Order
	var err error

	switch {
	case parts[1] == "items" && len(parts) == 2 && r.Method == "POST":
		var req services.ItemRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err = h.svc.Orders.AddItemToOrder(orderID, req)

	case parts[1] == "items" && len(parts) == 3 && r.Method == "DELETE":
		order, err = h.svc.Orders.RemoveItem(orderID, parts[2])

	case parts[1] == "items" && len(parts) == 4 && parts[3] == "comment" && r.Method == "PATCH":
		var req struct {
			Comment string `json:"comment"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err = h.svc.Orders.CommentItem(orderID, parts[2], req.Comment)

	case parts[1] == "comment" && r.Method == "PATCH":
		var req struct {
			Comment string `json:"comment"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err = h.svc.Orders.SetOrderComment(orderID, req.Comment)

	case parts[1] == "send" && r.Method == "POST":
		order, err = h.svc.Orders.SendToKitchen(orderID)
		if err == nil {
			h.notifyKitchen(order)
		}

	case parts[1] == "payment" && r.Method == "POST":
		order, err = h.svc.Orders.SetPaymentPending(orderID)

	case parts[1] == "close" && r.Method == "POST":
		var req struct {
			PaymentMethod string `json:"payment_method"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err = h.svc.Orders.CloseOrder(orderID, req.PaymentMethod)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, order)
}

// notifyKitchen pushes the fired order to the kitchen displays
func (h *RESTHandlers) notifyKitchen(order *models.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		return
	}
	h.server.BroadcastToKitchen(Message{
		Type:      TypeNotification,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// Delivery

// HandleDelivery lists active delivery orders and creates new ones
func (h *RESTHandlers) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET, POST") {
		return
	}

	switch r.Method {
	case "GET":
		orders, err := h.svc.Orders.ActiveDeliveryOrders()
		if err != nil {
			http.Error(w, "Error fetching delivery orders", http.StatusInternalServerError)
			return
		}
		writeJSON(w, orders)

	case "POST":
		var req services.DeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.svc.Orders.CreateDeliveryOrder(req)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Delivery order created: %s (%s)", order.Name, req.Platform)
		writeJSON(w, order)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDeliveryAction routes /api/delivery/{id}/status|customer
func (h *RESTHandlers) HandleDeliveryAction(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "PATCH") {
		return
	}
	if r.Method != "PATCH" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/delivery/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	orderID := parts[0]

	switch parts[1] {
	case "status":
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.svc.Orders.UpdateDeliveryStatus(orderID, req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, order)

	case "customer":
		var req struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.svc.Orders.UpdateDeliveryCustomer(orderID, req.Name, req.Phone, req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, order)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// Reservations

// HandleReservations lists reservations (optionally by date) and creates them
func (h *RESTHandlers) HandleReservations(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET, POST") {
		return
	}

	switch r.Method {
	case "GET":
		var reservations []models.Reservation
		var err error
		if date := r.URL.Query().Get("date"); date != "" {
			reservations, err = h.svc.Reservations.ForDate(date)
		} else {
			reservations, err = h.svc.Reservations.List()
		}
		if err != nil {
			http.Error(w, "Error fetching reservations", http.StatusInternalServerError)
			return
		}
		writeJSON(w, reservations)

	case "POST":
		var req services.ReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		res, err := h.svc.Reservations.Create(req)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Reservation created: %s (%s %s)", res.ID, res.Date, res.Time)
		writeJSON(w, res)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleBlockingReservations returns the reservations currently holding tables
func (h *RESTHandlers) HandleBlockingReservations(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	blocking, err := h.svc.Reservations.BlockingNow()
	if err != nil {
		http.Error(w, "Error fetching reservations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, blocking)
}

// HandleReservationAction routes /api/reservations/{id}[/table|/seated]
func (h *RESTHandlers) HandleReservationAction(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "PATCH, DELETE") {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/reservations/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	reservationID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == "DELETE":
		if err := h.svc.Reservations.Cancel(reservationID); err != nil {
			writeError(w, err)
			return
		}
		log.Printf("REST API: Reservation cancelled: %s", reservationID)
		writeJSON(w, map[string]interface{}{"success": true})

	case len(parts) == 2 && parts[1] == "table" && r.Method == "PATCH":
		var req struct {
			TableID string `json:"table_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		res, err := h.svc.Reservations.AssignTable(reservationID, req.TableID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)

	case len(parts) == 2 && parts[1] == "seated" && r.Method == "PATCH":
		var req struct {
			Seated bool `json:"seated"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		res, err := h.svc.Reservations.SetSeated(reservationID, req.Seated)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// Customers

// HandleCustomers returns the customer directory
func (h *RESTHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	customers, err := h.svc.Customers.List()
	if err != nil {
		http.Error(w, "Error fetching customers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, customers)
}

// HandleCustomerByPhone looks one customer up by phone
func (h *RESTHandlers) HandleCustomerByPhone(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	phone := strings.TrimPrefix(r.URL.Path, "/api/customers/")
	if phone == "" {
		http.Error(w, "Missing phone", http.StatusBadRequest)
		return
	}

	customer, err := h.svc.Customers.ByPhone(phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, customer)
}

// Auth

// HandleLogin authenticates an employee by PIN. The hash never leaves the
// server; only the identity comes back.
func (h *RESTHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "POST") {
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	employee, err := h.svc.Employees.Authenticate(req.PIN)
	if err != nil {
		http.Error(w, "Invalid PIN", http.StatusUnauthorized)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"employee": map[string]interface{}{
			"id":   employee.ID,
			"name": employee.Name,
			"role": employee.Role,
		},
	})
}

// Pairing and status

// HandleConnectQR returns a QR code PNG with the WebSocket URL so a tablet
// can pair by pointing its camera at the server screen
func (h *RESTHandlers) HandleConnectQR(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ip, err := localIP()
	if err != nil {
		log.Printf("REST API: Cannot determine local IP: %v", err)
		http.Error(w, "Cannot determine local IP", http.StatusInternalServerError)
		return
	}

	wsURL := fmt.Sprintf("ws://%s%s/ws", ip, h.server.GetPort())
	png, err := qrcode.Encode(wsURL, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Error generating QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// HandleStatus returns hub status and connected clients
func (h *RESTHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET") {
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := h.server.GetServerStatus()
	status["connected_clients"] = h.server.GetConnectedClients()
	writeJSON(w, status)
}

// Sheets export

// HandleSheetsConfig reads and updates the daily report configuration. Saving
// verifies the credentials against the spreadsheet first.
func (h *RESTHandlers) HandleSheetsConfig(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "GET, POST") {
		return
	}
	if h.svc.Sheets == nil {
		http.Error(w, "Sheets export not configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case "GET":
		config, err := h.svc.Sheets.GetConfig()
		if err != nil {
			http.Error(w, "Error fetching config", http.StatusInternalServerError)
			return
		}
		// Credentials stay server-side
		config.PrivateKey = ""
		writeJSON(w, config)

	case "POST":
		var config models.SheetsConfig
		if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if config.IsEnabled {
			if err := h.svc.Sheets.TestConnection(&config); err != nil {
				writeError(w, fmt.Errorf("connection test failed: %w", err))
				return
			}
		}
		if err := h.svc.Sheets.SaveConfig(&config); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSheetsSync triggers an immediate export of today's report
func (h *RESTHandlers) HandleSheetsSync(w http.ResponseWriter, r *http.Request) {
	if allowCORS(w, r, "POST") {
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.svc.Sheets == nil {
		http.Error(w, "Sheets export not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.svc.Sheets.SyncNow(); err != nil {
		log.Printf("REST API: Manual sheets sync failed: %v", err)
		writeError(w, err)
		return
	}
	log.Println("REST API: Manual sheets sync completed")
	writeJSON(w, map[string]interface{}{"success": true})
}

// localIP returns the LAN address the server is reachable on
func localIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected address type")
	}
	return addr.IP.String(), nil
}
