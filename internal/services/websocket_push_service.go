package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"seaport-backend/internal/events"
	"seaport-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

// WebSocket Upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS middleware in front of the upgrade route
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// Connection information
type Connection struct {
	ID          string          `json:"id"`
	UserAddress string          `json:"user_address"`
	Conn        *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	LastPing    time.Time       `json:"last_ping"`
}

// Push message base structure
type PushMessage struct {
	Type        string      `json:"type"`
	Timestamp   string      `json:"timestamp"`
	MessageID   string      `json:"message_id"`
	UserAddress string      `json:"user_address,omitempty"`
	Data        interface{} `json:"data"`
}

// SubscriptionMessage represents a client subscription request
type SubscriptionMessage struct {
	Action string           `json:"action"` // "subscribe" or "unsubscribe"
	Type   SubscriptionType `json:"type"`   // "events", "orders" or "accounts"
	Values []string         `json:"values,omitempty"`
}

// WebSocketPushService fans engine events out to subscribed WebSocket clients
type WebSocketPushService struct {
	connections   map[string]*Connection // key: connectionID
	subscriptions *WebSocketSubscriptionManager
	hub           chan events.Envelope
	register      chan *Connection
	unregister    chan *Connection
	done          chan struct{}
	stopOnce      sync.Once
	mutex         sync.RWMutex
}

var _ events.Publisher = (*WebSocketPushService)(nil)

// NewWebSocketPushService creates the push service and starts its hub
func NewWebSocketPushService() *WebSocketPushService {
	service := &WebSocketPushService{
		connections:   make(map[string]*Connection),
		subscriptions: NewWebSocketSubscriptionManager(),
		hub:           make(chan events.Envelope, 256),
		register:      make(chan *Connection),
		unregister:    make(chan *Connection),
		done:          make(chan struct{}),
	}

	go service.run()
	return service
}

// Push service
func (s *WebSocketPushService) run() {
	for {
		select {
		case conn := <-s.register:
			s.handleRegister(conn)

		case conn := <-s.unregister:
			s.handleUnregister(conn)

		case env := <-s.hub:
			s.handleBroadcast(env)

		case <-s.done:
			s.closeAll()
			return
		}
	}
}

// Stop closes every connection and stops the hub
func (s *WebSocketPushService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Publish queues an event for delivery. It implements events.Publisher.
func (s *WebSocketPushService) Publish(ctx context.Context, env events.Envelope) error {
	select {
	case <-s.done:
		return fmt.Errorf("websocket push service stopped")
	default:
	}
	select {
	case s.hub <- env:
		return nil
	case <-s.done:
		return fmt.Errorf("websocket push service stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscriptions exposes the subscription manager
func (s *WebSocketPushService) Subscriptions() *WebSocketSubscriptionManager {
	return s.subscriptions
}

// Handle connection registration
func (s *WebSocketPushService) handleRegister(conn *Connection) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.connections[conn.ID] = conn
	s.subscriptions.RegisterClient(conn.ID, conn.UserAddress)
	// an authenticated client follows its own account until it subscribes otherwise
	if conn.UserAddress != "" {
		s.subscriptions.Subscribe(conn.ID, &SubscriptionFilter{
			Type:      SubscriptionTypeAccounts,
			Values:    []string{conn.UserAddress},
			Timestamp: time.Now().Unix(),
		})
	}
	metrics.WebSocketClients.Set(float64(len(s.connections)))

	log.Printf("📱 WebSocket connection registered: user=%s, connID=%s", conn.UserAddress, conn.ID)

	s.sendToConnection(conn, PushMessage{
		Type:        "connection_established",
		Timestamp:   time.Now().Format(time.RFC3339),
		MessageID:   generateMessageID(),
		UserAddress: conn.UserAddress,
		Data: map[string]interface{}{
			"user_address":  conn.UserAddress,
			"connection_id": conn.ID,
			"message":       "Order event stream connected",
		},
	})
}

// Handle connection unregistration
func (s *WebSocketPushService) handleUnregister(conn *Connection) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.connections[conn.ID]; !ok {
		return
	}
	delete(s.connections, conn.ID)
	s.subscriptions.UnregisterClient(conn.ID)
	metrics.WebSocketClients.Set(float64(len(s.connections)))

	close(conn.Send)
	log.Printf("📱 WebSocket connection unregistered: user=%s, connID=%s", conn.UserAddress, conn.ID)
}

func (s *WebSocketPushService) closeAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, conn := range s.connections {
		delete(s.connections, id)
		s.subscriptions.UnregisterClient(id)
		close(conn.Send)
	}
	metrics.WebSocketClients.Set(0)
}

// handleBroadcast delivers an event to every matching subscriber
func (s *WebSocketPushService) handleBroadcast(env events.Envelope) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	clientIDs := s.subscriptions.ClientsFor(env)
	if len(clientIDs) == 0 {
		return
	}

	data, err := json.Marshal(PushMessage{
		Type:      "order_event",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
		Data:      env,
	})
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	successCount := 0
	failedCount := 0
	for _, id := range clientIDs {
		conn, ok := s.connections[id]
		if !ok {
			continue
		}
		select {
		case conn.Send <- data:
			successCount++
		default:
			// Channel full, skip to avoid blocking the hub
			failedCount++
			log.Printf("⚠️ [WebSocketpush] Failed to send to connection: %s (channel full)", conn.ID)
		}
	}

	log.Printf("📤 [WebSocketpush] Message delivery summary: event=%s, orderHash=%s, sent=%d, failed=%d",
		env.Name, env.OrderHash, successCount, failedCount)
}

// reply queues a message for a connection the hub may have already dropped
func (s *WebSocketPushService) reply(conn *Connection, message PushMessage) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if _, ok := s.connections[conn.ID]; !ok {
		return
	}
	s.sendToConnection(conn, message)
}

// sendToConnection queues a message on one connection. Callers hold s.mutex.
func (s *WebSocketPushService) sendToConnection(conn *Connection, message PushMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	select {
	case conn.Send <- data:
	default:
		log.Printf("⚠️ Failed to send to connection: %s", conn.ID)
	}
}

// HandleWebSocket upgrades the request and serves the connection until it closes
func (s *WebSocketPushService) HandleWebSocket(w http.ResponseWriter, r *http.Request, userAddress string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	connection := &Connection{
		ID:          generateConnectionID(),
		UserAddress: userAddress,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		LastPing:    time.Now(),
	}

	select {
	case s.register <- connection:
	case <-s.done:
		conn.Close()
		return
	}

	go s.handleConnectionWrite(connection)
	go s.handleConnectionRead(connection)
}

// handleConnectionWrite drains the send queue and keeps the connection alive
func (s *WebSocketPushService) handleConnectionWrite(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("❌ Write message failed: %v", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleConnectionRead applies subscription requests until the client goes away
func (s *WebSocketPushService) handleConnectionRead(conn *Connection) {
	defer func() {
		select {
		case s.unregister <- conn:
		case <-s.done:
		}
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(maxMessageSize)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.LastPing = time.Now()
		return nil
	})

	for {
		_, data, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket read error: %v", err)
			}
			return
		}
		s.handleClientMessage(conn, data)
	}
}

func (s *WebSocketPushService) handleClientMessage(conn *Connection, data []byte) {
	var msg SubscriptionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "invalid message format")
		return
	}

	var err error
	switch msg.Action {
	case "subscribe":
		err = s.subscriptions.Subscribe(conn.ID, &SubscriptionFilter{
			Type:      msg.Type,
			Values:    msg.Values,
			Timestamp: time.Now().Unix(),
		})
	case "unsubscribe":
		err = s.subscriptions.Unsubscribe(conn.ID, msg.Type)
	case "ping":
		s.reply(conn, PushMessage{
			Type:      "pong",
			Timestamp: time.Now().Format(time.RFC3339),
			MessageID: generateMessageID(),
		})
		return
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	s.reply(conn, PushMessage{
		Type:      msg.Action + "d",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
		Data: map[string]interface{}{
			"type":   msg.Type,
			"values": msg.Values,
		},
	})
}

func (s *WebSocketPushService) sendError(conn *Connection, message string) {
	s.reply(conn, PushMessage{
		Type:      "error",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
		Data:      map[string]interface{}{"message": message},
	})
}

// GetActiveConnections returns the number of connected clients
func (s *WebSocketPushService) GetActiveConnections() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.connections)
}

// ====================  ====================

func generateConnectionID() string {
	return fmt.Sprintf("conn_%d", time.Now().UnixNano())
}

func generateMessageID() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}
