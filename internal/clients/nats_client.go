package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"seaport-backend/internal/config"
	"seaport-backend/internal/events"
	"seaport-backend/internal/metrics"

	"github.com/nats-io/nats.go"
)

// NATSClient publishes engine events to NATS and lets tools subscribe to them
type NATSClient struct {
	conn   *nats.Conn
	prefix string
}

var _ events.Publisher = (*NATSClient)(nil)

// NewNATSClient Create NATS client
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects != 0 {
		maxReconnects = cfg.MaxReconnects
	}
	log.Printf("🔌 Connecting to NATS %s (timeout %v)", cfg.URL, connectTimeout)

	conn, err := nats.Connect(cfg.URL,
		nats.Name("seaport-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.NATSConnectionStatus.Set(1)

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "seaport.events"
	}
	return &NATSClient{conn: conn, prefix: prefix}, nil
}

// Publish sends an event to <prefix>.<EventName>
func (c *NATSClient) Publish(_ context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if err := c.conn.Publish(events.Subject(c.prefix, env.Name), data); err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(env.Name).Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	metrics.NATSMessagesPublished.WithLabelValues(env.Name).Inc()
	return nil
}

// Subscribe delivers events whose name matches eventName ("*" for all) to handler
func (c *NATSClient) Subscribe(eventName string, handler func(events.Envelope)) (*nats.Subscription, error) {
	subject := events.Subject(c.prefix, eventName)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var env events.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Printf("⚠️ [NATS] Dropping malformed event on %s: %v", msg.Subject, err)
			return
		}
		handler(env)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	log.Printf("✅ NATS subscription success: %s", subject)
	return sub, nil
}

// Flush waits until the server processed every published message
func (c *NATSClient) Flush() error {
	return c.conn.Flush()
}

func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsConnected reports whether the connection is currently usable
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
