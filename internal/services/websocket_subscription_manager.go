package services

import (
	"strings"
	"sync"

	"seaport-backend/internal/events"
)

// SubscriptionType defines the type of subscription
type SubscriptionType string

const (
	// Subscription types
	SubscriptionTypeEvents   SubscriptionType = "events"   // by event name
	SubscriptionTypeOrders   SubscriptionType = "orders"   // by order hash
	SubscriptionTypeAccounts SubscriptionType = "accounts" // by offerer, zone or fulfiller
)

// SubscriptionFilter contains filters for a subscription
type SubscriptionFilter struct {
	Type      SubscriptionType `json:"type"`
	Values    []string         `json:"values"`
	Timestamp int64            `json:"timestamp"`
}

// ClientSubscription represents a client's subscriptions
type ClientSubscription struct {
	ClientID      string
	Address       string // User address from JWT
	Subscriptions map[SubscriptionType]*SubscriptionFilter
	mu            sync.RWMutex
}

// Filters returns a copy of the client's active filters
func (c *ClientSubscription) Filters() []SubscriptionFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SubscriptionFilter, 0, len(c.Subscriptions))
	for _, f := range c.Subscriptions {
		out = append(out, *f)
	}
	return out
}

// WebSocketSubscriptionManager manages all active subscriptions
type WebSocketSubscriptionManager struct {
	// Map of connection ID to client subscription
	clients map[string]*ClientSubscription
	mu      sync.RWMutex

	// Subscription indexes for fast lookup
	// Key: subscription type, Value: map of criteria to client IDs
	indexes        map[SubscriptionType]map[string]map[string]bool
	subscriptionMu sync.RWMutex
}

// NewWebSocketSubscriptionManager creates a new subscription manager
func NewWebSocketSubscriptionManager() *WebSocketSubscriptionManager {
	return &WebSocketSubscriptionManager{
		clients: make(map[string]*ClientSubscription),
		indexes: map[SubscriptionType]map[string]map[string]bool{
			SubscriptionTypeEvents:   make(map[string]map[string]bool),
			SubscriptionTypeOrders:   make(map[string]map[string]bool),
			SubscriptionTypeAccounts: make(map[string]map[string]bool),
		},
	}
}

func indexKey(subType SubscriptionType, value string) string {
	if subType == SubscriptionTypeEvents {
		return value
	}
	// hashes and addresses compare case-insensitively
	return strings.ToLower(value)
}

// RegisterClient registers a new client connection
func (m *WebSocketSubscriptionManager) RegisterClient(clientID, address string) *ClientSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	client := &ClientSubscription{
		ClientID:      clientID,
		Address:       address,
		Subscriptions: make(map[SubscriptionType]*SubscriptionFilter),
	}
	m.clients[clientID] = client
	return client
}

// UnregisterClient removes a client and all its subscriptions
func (m *WebSocketSubscriptionManager) UnregisterClient(clientID string) {
	m.mu.Lock()
	_, exists := m.clients[clientID]
	delete(m.clients, clientID)
	m.mu.Unlock()

	if !exists {
		return
	}

	m.subscriptionMu.Lock()
	defer m.subscriptionMu.Unlock()
	for _, index := range m.indexes {
		for key, set := range index {
			delete(set, clientID)
			if len(set) == 0 {
				delete(index, key)
			}
		}
	}
}

// Subscribe adds a subscription for a client, replacing an earlier one of the same type
func (m *WebSocketSubscriptionManager) Subscribe(clientID string, filter *SubscriptionFilter) error {
	m.mu.RLock()
	client, exists := m.clients[clientID]
	m.mu.RUnlock()

	if !exists {
		return ErrClientNotFound
	}
	index, ok := m.indexes[filter.Type]
	if !ok {
		return ErrUnknownSubscriptionType
	}
	if len(filter.Values) == 0 {
		return ErrEmptySubscription
	}

	client.mu.Lock()
	previous := client.Subscriptions[filter.Type]
	client.Subscriptions[filter.Type] = filter
	client.mu.Unlock()

	m.subscriptionMu.Lock()
	defer m.subscriptionMu.Unlock()

	if previous != nil {
		for _, v := range previous.Values {
			delete(index[indexKey(filter.Type, v)], clientID)
		}
	}
	for _, v := range filter.Values {
		key := indexKey(filter.Type, v)
		if index[key] == nil {
			index[key] = make(map[string]bool)
		}
		index[key][clientID] = true
	}
	return nil
}

// Unsubscribe removes a subscription for a client
func (m *WebSocketSubscriptionManager) Unsubscribe(clientID string, subType SubscriptionType) error {
	m.mu.RLock()
	client, exists := m.clients[clientID]
	m.mu.RUnlock()

	if !exists {
		return ErrClientNotFound
	}

	client.mu.Lock()
	filter, exists := client.Subscriptions[subType]
	delete(client.Subscriptions, subType)
	client.mu.Unlock()

	if !exists {
		return ErrSubscriptionNotFound
	}

	m.subscriptionMu.Lock()
	defer m.subscriptionMu.Unlock()
	for _, v := range filter.Values {
		delete(m.indexes[subType][indexKey(subType, v)], clientID)
	}
	return nil
}

// ClientsFor returns the clients an event should be delivered to. A client
// with several subscriptions receives the event once if any of them match.
func (m *WebSocketSubscriptionManager) ClientsFor(env events.Envelope) []string {
	m.subscriptionMu.RLock()
	defer m.subscriptionMu.RUnlock()

	seen := make(map[string]bool)
	var clientIDs []string
	add := func(subType SubscriptionType, value string) {
		for clientID := range m.indexes[subType][indexKey(subType, value)] {
			if !seen[clientID] {
				seen[clientID] = true
				clientIDs = append(clientIDs, clientID)
			}
		}
	}

	add(SubscriptionTypeEvents, env.Name)
	if env.OrderHash != "" {
		add(SubscriptionTypeOrders, env.OrderHash)
	}
	for _, party := range env.Parties {
		add(SubscriptionTypeAccounts, party)
	}
	return clientIDs
}

// GetClient returns a client by ID
func (m *WebSocketSubscriptionManager) GetClient(clientID string) (*ClientSubscription, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, exists := m.clients[clientID]
	return client, exists
}

// Error types
var (
	ErrClientNotFound          = NewError("client not found")
	ErrSubscriptionNotFound    = NewError("subscription not found")
	ErrUnknownSubscriptionType = NewError("unknown subscription type")
	ErrEmptySubscription       = NewError("subscription has no values")
)

// Error helper
type Error struct {
	Message string
}

func NewError(msg string) Error {
	return Error{Message: msg}
}

func (e Error) Error() string {
	return e.Message
}
