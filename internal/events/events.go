// Package events encodes engine events and fans them out to publishers
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Envelope is the wire format of an engine event on every transport
type Envelope struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	OrderHash string          `json:"orderHash,omitempty"`
	// Parties are the accounts the event concerns (offerer, zone, fulfiller)
	Parties   []string        `json:"parties,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Encode wraps an engine event in an envelope
func Encode(ev engine.Event) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s: %w", ev.EventName(), err)
	}
	env := Envelope{
		ID:        uuid.New().String(),
		Name:      ev.EventName(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	switch e := ev.(type) {
	case engine.OrderFulfilled:
		env.OrderHash = e.OrderHash.Hex()
		env.Parties = parties(e.Offerer, e.Zone, e.Fulfiller)
	case engine.OrderCancelled:
		env.OrderHash = e.OrderHash.Hex()
		env.Parties = parties(e.Offerer, e.Zone)
	case engine.OrderValidated:
		env.OrderHash = e.OrderHash.Hex()
		env.Parties = parties(e.Offerer, e.Zone)
	case engine.NonceIncremented:
		env.Parties = parties(e.Offerer)
	}
	return env, nil
}

func parties(accounts ...common.Address) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a == (common.Address{}) {
			continue
		}
		out = append(out, a.Hex())
	}
	return out
}

// Concerns reports whether account is one of the event's parties
func (env Envelope) Concerns(account string) bool {
	for _, p := range env.Parties {
		if strings.EqualFold(p, account) {
			return true
		}
	}
	return false
}

// Subject returns the NATS subject an event is published on
func Subject(prefix, name string) string {
	return prefix + "." + name
}

// Publisher delivers encoded events to one transport
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type namedPublisher struct {
	name      string
	publisher Publisher
}

// Dispatcher is the engine's event sink. It encodes each event once and
// hands it to every registered publisher; publisher failures are logged.
type Dispatcher struct {
	mu         sync.RWMutex
	publishers []namedPublisher
	logger     *logrus.Logger
}

var _ engine.EventSink = (*Dispatcher)(nil)

// NewDispatcher creates a new Dispatcher instance
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{logger: logger}
}

// Register adds a publisher
func (d *Dispatcher) Register(name string, p Publisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publishers = append(d.publishers, namedPublisher{name: name, publisher: p})
}

// Emit implements engine.EventSink
func (d *Dispatcher) Emit(ctx context.Context, ev engine.Event) {
	env, err := Encode(ev)
	if err != nil {
		d.logger.WithError(err).Error("❌ Failed to encode event")
		return
	}
	metrics.EventsEmitted.WithLabelValues(env.Name).Inc()

	d.mu.RLock()
	publishers := d.publishers
	d.mu.RUnlock()
	for _, p := range publishers {
		if err := p.publisher.Publish(ctx, env); err != nil {
			d.logger.WithFields(logrus.Fields{
				"publisher": p.name,
				"event":     env.Name,
				"orderHash": env.OrderHash,
			}).WithError(err).Warn("⚠️ Failed to publish event")
		}
	}
}

// Buffer keeps the most recent events in memory
type Buffer struct {
	mu     sync.RWMutex
	events []Envelope
	size   int
}

// NewBuffer creates a buffer holding at most size events
func NewBuffer(size int) *Buffer {
	return &Buffer{size: size}
}

func (b *Buffer) Publish(_ context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, env)
	if len(b.events) > b.size {
		b.events = b.events[len(b.events)-b.size:]
	}
	return nil
}

// Filter selects events from history; empty fields match everything
type Filter struct {
	Name      string
	OrderHash string
	Account   string
}

// Match reports whether env passes the filter
func (f Filter) Match(env Envelope) bool {
	if f.Name != "" && env.Name != f.Name {
		return false
	}
	if f.OrderHash != "" && env.OrderHash != f.OrderHash {
		return false
	}
	return f.Account == "" || env.Concerns(f.Account)
}

// Recent returns up to limit events matching filter, newest first
func (b *Buffer) Recent(_ context.Context, filter Filter, limit int) ([]Envelope, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Envelope
	for i := len(b.events) - 1; i >= 0 && len(out) < limit; i-- {
		if env := b.events[i]; filter.Match(env) {
			out = append(out, env)
		}
	}
	return out, nil
}
