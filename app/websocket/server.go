package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"SmilePos/app/services"
	"SmilePos/app/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Server -> client
	TypeSnapshot     MessageType = "snapshot"     // full collection contents
	TypeTableState   MessageType = "table_state"  // derived table views
	TypeNotification MessageType = "notification"
	TypeHeartbeat    MessageType = "heartbeat"
	TypeAuthResponse MessageType = "auth_response"

	// Client -> server
	TypeClientError MessageType = "client_error"
)

// ClientType represents the type of connected client
type ClientType string

const (
	ClientPOS     ClientType = "pos"
	ClientKitchen ClientType = "kitchen"
	ClientWaiter  ClientType = "waiter"
)

// Message represents a WebSocket message
type Message struct {
	Type       MessageType     `json:"type"`
	Collection string          `json:"collection,omitempty"`
	ClientID   string          `json:"client_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	Type        ClientType
	Connection  *websocket.Conn
	Send        chan []byte
	Server      *Server
	ConnectedAt time.Time
	RemoteAddr  string
}

// Services bundles the domain services the server exposes
type Services struct {
	Tables       *services.TableService
	Orders       *services.OrderService
	Reservations *services.ReservationService
	Customers    *services.CustomerService
	Menu         *services.MenuService
	Employees    *services.EmployeeService
	Sheets       *services.GoogleSheetsService
	Logger       *services.LoggerService
}

// Server is the live-sync hub: tablets connect over WebSocket, receive
// collection snapshots on every committed write plus the derived table state,
// and mutate through the REST API.
type Server struct {
	clients      map[string]*Client
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *Client
	upgrader     websocket.Upgrader
	mu           sync.RWMutex
	port         string
	store        *store.Store
	svc          *Services
	restHandlers *RESTHandlers
	announceMDNS bool
	mdnsShutdown chan bool
	done         chan struct{}
	stopOnce     sync.Once
	stopWatch    func()
}

// NewServer creates a new hub over the record store
func NewServer(port string, st *store.Store, svc *Services, announceMDNS bool) *Server {
	s := &Server{
		clients:      make(map[string]*Client),
		broadcast:    make(chan []byte),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		port:         port,
		store:        st,
		svc:          svc,
		announceMDNS: announceMDNS,
		mdnsShutdown: make(chan bool),
		done:         make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Tablets connect from the local network
				return true
			},
		},
	}
	s.restHandlers = NewRESTHandlers(s, svc)
	return s
}

// Start starts the hub, the store watcher and the HTTP server
func (s *Server) Start() error {
	go s.run()
	go s.watchStore()

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)
	s.restHandlers.Register()

	if s.announceMDNS {
		go s.startMDNS()
	}

	log.Printf("Server starting on port %s", s.port)
	return http.ListenAndServe(s.port, nil)
}

// watchStore forwards every committed write to the connected tablets: the
// changed collection as a snapshot, plus the re-derived table state since
// most collections feed the derivation.
func (s *Server) watchStore() {
	changes, cancel := s.store.SubscribeAll()
	s.stopWatch = cancel

	for col := range changes {
		s.broadcastSnapshot(col)
		s.BroadcastTableState()
	}
}

// startMDNS announces the server via mDNS/Zeroconf so tablets find it
// without manual configuration
func (s *Server) startMDNS() {
	portStr := strings.TrimPrefix(s.port, ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Printf("mDNS: Invalid port format %s: %v", s.port, err)
		return
	}

	server, err := zeroconf.Register(
		"SmilePos Server",
		"_smilepos._tcp",
		"local.",
		port,
		[]string{"version=1.0"},
		nil,
	)
	if err != nil {
		log.Printf("mDNS: Failed to register service: %v", err)
		return
	}

	log.Println("mDNS: server announced on _smilepos._tcp.local")

	<-s.mdnsShutdown
	server.Shutdown()
	log.Println("mDNS: Service announcement stopped")
}

// Stop stops the hub
func (s *Server) Stop() {
	if s.announceMDNS {
		select {
		case s.mdnsShutdown <- true:
		default:
		}
	}
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, client := range s.clients {
		close(client.Send)
		client.Connection.Close()
	}
}

// run handles the main hub loop
func (s *Server) run() {
	ticker := time.NewTicker(30 * time.Second) // Heartbeat every 30 seconds
	defer ticker.Stop()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			log.Printf("Client registered: %s (type: %s)", client.ID, client.Type)
			s.sendAuthResponse(client, true, "Connected successfully")
			s.sendInitialState(client)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				s.mu.Unlock()

				go func(c *Client) {
					defer func() {
						if r := recover(); r != nil {
							// Channel already closed, ignore
						}
					}()
					close(c.Send)
				}(client)

				log.Printf("Client unregistered: %s", client.ID)
			} else {
				s.mu.Unlock()
			}

		case message := <-s.broadcast:
			s.mu.Lock()
			for id, client := range s.clients {
				select {
				case client.Send <- message:
				default:
					// Client buffer is full, disconnect
					delete(s.clients, id)
					go func(c *Client) {
						defer func() {
							if r := recover(); r != nil {
								// Channel already closed, ignore
							}
						}()
						close(c.Send)
					}(client)
				}
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.sendHeartbeat()

		case <-s.done:
			return
		}
	}
}

// handleWebSocket handles WebSocket connection upgrades
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientType := ClientType(r.URL.Query().Get("type"))
	if clientType == "" {
		clientType = ClientPOS
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:          uuid.NewString(),
		Type:        clientType,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	response := map[string]interface{}{
		"status":  "healthy",
		"clients": clientCount,
		"time":    time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Client methods

// readPump handles reading messages from the client
func (c *Client) readPump() {
	defer func() {
		c.Server.unregister <- c
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("Error parsing message: %v", err)
			continue
		}

		c.handleMessage(&message)
	}
}

// writePump handles writing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Connection.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages from clients. All record mutation
// goes through the REST API; the socket only carries heartbeats and client
// error reports upstream.
func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case TypeHeartbeat:
		c.sendMessage(Message{
			Type:      TypeHeartbeat,
			Timestamp: time.Now(),
			Data:      json.RawMessage(`{"status":"alive"}`),
		})

	case TypeClientError:
		var report struct {
			Message string `json:"message"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(message.Data, &report); err != nil {
			log.Printf("Error parsing client error report: %v", err)
			return
		}
		if c.Server.svc != nil && c.Server.svc.Logger != nil {
			c.Server.svc.Logger.LogClientError(string(c.Type), report.Message, report.Details)
		}

	default:
		log.Printf("Unknown message type: %s", message.Type)
	}
}

// sendMessage sends a message to the client
func (c *Client) sendMessage(message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}

// Broadcast methods

// sendInitialState pushes every collection snapshot plus the current table
// state to a freshly connected client, so it renders without a fetch round.
func (s *Server) sendInitialState(client *Client) {
	cols := []store.Collection{
		store.CollectionMenu,
		store.CollectionOrders,
		store.CollectionReservations,
		store.CollectionCustomers,
		store.CollectionLayouts,
	}
	for _, col := range cols {
		if msg, ok := s.snapshotMessage(col); ok {
			data, err := json.Marshal(msg)
			if err == nil {
				select {
				case client.Send <- data:
				default:
				}
			}
		}
	}
	if msg, ok := s.tableStateMessage(); ok {
		data, err := json.Marshal(msg)
		if err == nil {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// snapshotMessage builds the full-contents message for one collection
func (s *Server) snapshotMessage(col store.Collection) (Message, bool) {
	var payload interface{}
	var err error

	switch col {
	case store.CollectionLayouts:
		payload, err = s.store.Layouts()
	case store.CollectionOrders:
		payload, err = s.store.OpenOrders()
	case store.CollectionReservations:
		payload, err = s.store.Reservations()
	case store.CollectionCustomers:
		payload, err = s.store.Customers()
	case store.CollectionMenu:
		payload, err = s.store.MenuItems()
	case store.CollectionEmployees:
		// Never pushed to tablets; PIN hashes stay server-side
		return Message{}, false
	default:
		return Message{}, false
	}

	if err != nil {
		log.Printf("Failed to snapshot %s: %v", col, err)
		return Message{}, false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s snapshot: %v", col, err)
		return Message{}, false
	}

	return Message{
		Type:       TypeSnapshot,
		Collection: string(col),
		Timestamp:  time.Now(),
		Data:       data,
	}, true
}

func (s *Server) tableStateMessage() (Message, bool) {
	if s.svc == nil || s.svc.Tables == nil {
		return Message{}, false
	}
	views, err := s.svc.Tables.Derived()
	if err != nil {
		log.Printf("Failed to derive table state: %v", err)
		return Message{}, false
	}
	data, err := json.Marshal(views)
	if err != nil {
		return Message{}, false
	}
	return Message{
		Type:      TypeTableState,
		Timestamp: time.Now(),
		Data:      data,
	}, true
}

// broadcastSnapshot pushes one collection's contents to every client
func (s *Server) broadcastSnapshot(col store.Collection) {
	msg, ok := s.snapshotMessage(col)
	if !ok {
		return
	}
	s.BroadcastMessage(msg)
}

// BroadcastTableState re-derives the table grid and pushes it to every
// client. Called on every store change and on the periodic clock tick so
// reservation windows open and close on time.
func (s *Server) BroadcastTableState() {
	msg, ok := s.tableStateMessage()
	if !ok {
		return
	}
	s.broadcastToAll(&msg)
}

// BroadcastMessage broadcasts a message to all connected clients
func (s *Server) BroadcastMessage(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	s.broadcast <- data
}

// broadcastToAll broadcasts a message to all clients
func (s *Server) broadcastToAll(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("Failed to send to client %s", client.ID)
		}
	}
}

// BroadcastToKitchen broadcasts a message to kitchen clients only, used when
// an order fires its pending items.
func (s *Server) BroadcastToKitchen(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		if client.Type == ClientKitchen {
			select {
			case client.Send <- data:
			default:
				log.Printf("Failed to send to kitchen client %s", client.ID)
			}
		}
	}
}

// sendHeartbeat sends heartbeat to all clients
func (s *Server) sendHeartbeat() {
	message := Message{
		Type:      TypeHeartbeat,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`{"ping":"pong"}`),
	}

	s.broadcastToAll(&message)
}

// sendAuthResponse sends authentication response to a client
func (s *Server) sendAuthResponse(client *Client, success bool, message string) {
	response := map[string]interface{}{
		"success":   success,
		"message":   message,
		"client_id": client.ID,
	}

	data, _ := json.Marshal(response)

	msg := Message{
		Type:      TypeAuthResponse,
		Timestamp: time.Now(),
		Data:      json.RawMessage(data),
	}

	client.sendMessage(msg)
}

// GetConnectedClients returns list of connected clients
func (s *Server) GetConnectedClients() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]map[string]interface{}, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, map[string]interface{}{
			"id":           client.ID,
			"type":         string(client.Type),
			"connected_at": client.ConnectedAt.Format(time.RFC3339),
			"remote_addr":  client.RemoteAddr,
		})
	}
	return clients
}

// GetServerStatus returns current server status
func (s *Server) GetServerStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kitchenCount := 0
	waiterCount := 0
	posCount := 0

	for _, client := range s.clients {
		switch client.Type {
		case ClientKitchen:
			kitchenCount++
		case ClientWaiter:
			waiterCount++
		case ClientPOS:
			posCount++
		}
	}

	return map[string]interface{}{
		"running":         true,
		"port":            s.port,
		"total_clients":   len(s.clients),
		"kitchen_clients": kitchenCount,
		"waiter_clients":  waiterCount,
		"pos_clients":     posCount,
	}
}

// GetPort returns the server port
func (s *Server) GetPort() string {
	return s.port
}

// DisconnectClient disconnects a specific client
func (s *Server) DisconnectClient(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, exists := s.clients[clientID]
	if !exists {
		return fmt.Errorf("client not found: %s", clientID)
	}

	client.Connection.Close()
	delete(s.clients, clientID)

	return nil
}
