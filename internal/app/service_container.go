package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"seaport-backend/internal/clients"
	"seaport-backend/internal/config"
	"seaport-backend/internal/db"
	"seaport-backend/internal/engine"
	"seaport-backend/internal/events"
	"seaport-backend/internal/handlers"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/repository"
	"seaport-backend/internal/router"
	"seaport-backend/internal/services"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer owns every long-lived component of the server
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Database (nil in memory mode)
	DB *gorm.DB

	// Order state
	Store   engine.Store
	History services.History

	// Settlement
	Ledger   *ledger.Ledger
	Conduits *ledger.ConduitRegistry
	Zones    *ledger.Zones
	Wallets  *ledger.SmartAccounts // nil when smart accounts are checked on chain
	Accounts interface {
		engine.AccountInspector
		engine.SignatureValidator
	}
	ethClient *ethclient.Client

	// Events
	Dispatcher           *events.Dispatcher
	EventHistory         services.EventHistory
	NATSClient           *clients.NATSClient
	WebSocketPushService *services.WebSocketPushService

	// Core
	Engine            *engine.Engine
	ExchangeService   *services.ExchangeService
	MonitoringService *services.MonitoringService

	cleanupOnce sync.Once
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the global container once
func InitializeContainer(cfg *config.Config, logger *logrus.Logger) (*ServiceContainer, error) {
	var initErr error
	containerOnce.Do(func() {
		Container, initErr = NewServiceContainer(cfg, logger)
	})
	return Container, initErr
}

// NewServiceContainer wires storage, settlement, events and the engine from configuration
func NewServiceContainer(cfg *config.Config, logger *logrus.Logger) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log.Println("🚀 Initializing Service Container...")

	c := &ServiceContainer{Config: cfg, Logger: logger}

	// 1. Order state storage
	if err := c.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 2. Settlement ledger and account checks
	if err := c.initSettlement(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to initialize settlement: %w", err)
	}

	// 3. Event fan-out; NATS is optional
	c.initEventServices()

	// 4. Engine and exchange service
	if err := c.initCoreServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to initialize core services: %w", err)
	}

	// 5. Monitoring
	var nats services.ConnectionChecker
	if c.NATSClient != nil {
		nats = c.NATSClient
	}
	c.MonitoringService = services.NewMonitoringService(c.DB, nats, 10*time.Second)
	c.MonitoringService.Start()

	log.Println("✅ Service Container initialized successfully")
	return c, nil
}

// initStorage selects the postgres repositories or the in-memory store
func (c *ServiceContainer) initStorage() error {
	switch c.Config.Database.Driver {
	case "postgres":
		conn, err := db.Open(c.Config.Database.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		db.DB = conn
		c.DB = conn

		repo := repository.NewOrderStateRepository(conn)
		c.Store = repo
		c.History = repo
		c.EventHistory = services.NewEventRecorder(repository.NewEventRepository(conn))
		log.Println("📦 Order state stored in postgres")
	case "memory", "":
		store := engine.NewMemoryStore()
		c.Store = store
		c.History = store
		c.EventHistory = events.NewBuffer(1000)
		log.Println("📦 Order state kept in memory")
	default:
		return fmt.Errorf("unknown database driver %q", c.Config.Database.Driver)
	}
	return nil
}

// initSettlement creates the simulated asset ledger and picks the smart account resolver
func (c *ServiceContainer) initSettlement() error {
	c.Ledger = ledger.New(c.Logger)
	c.Conduits = ledger.NewConduitRegistry()
	c.Zones = ledger.NewZones()

	if rpcURL := c.Config.Blockchain.RPCURL; rpcURL != "" {
		timeout := time.Duration(c.Config.Blockchain.Timeout) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		accounts, client, err := clients.DialChainAccounts(ctx, rpcURL, timeout)
		if err != nil {
			return err
		}
		c.Accounts = accounts
		c.ethClient = client
		log.Printf("🔗 Smart account signatures checked on chain via %s", rpcURL)
		return nil
	}

	c.Wallets = ledger.NewSmartAccounts()
	c.Accounts = c.Wallets
	return nil
}

// initEventServices registers every event consumer on the dispatcher
func (c *ServiceContainer) initEventServices() {
	c.Dispatcher = events.NewDispatcher(c.Logger)

	switch h := c.EventHistory.(type) {
	case *services.EventRecorder:
		c.Dispatcher.Register("postgres", h)
	case *events.Buffer:
		c.Dispatcher.Register("buffer", h)
	}

	c.WebSocketPushService = services.NewWebSocketPushService()
	c.Dispatcher.Register("websocket", c.WebSocketPushService)

	if !c.Config.NATS.Enabled || c.Config.NATS.URL == "" {
		log.Println("📡 NATS disabled, events stay in-process")
		return
	}
	natsClient, err := clients.NewNATSClient(c.Config.NATS)
	if err != nil {
		log.Printf("⚠️ NATS unavailable, continuing without it: %v", err)
		return
	}
	c.NATSClient = natsClient
	c.Dispatcher.Register("nats", natsClient)
	log.Printf("✅ NATS client connected: %s", c.Config.NATS.URL)
}

func (c *ServiceContainer) initCoreServices() error {
	seaport := c.Config.Seaport
	address, err := config.ParseAddress(seaport.Address)
	if err != nil {
		return fmt.Errorf("seaport.address: %w", err)
	}
	controller, err := config.ParseAddress(seaport.ConduitController)
	if err != nil {
		return fmt.Errorf("seaport.conduitController: %w", err)
	}

	c.Engine = engine.New(engine.Config{
		Name:              seaport.Name,
		Version:           seaport.Version,
		ChainID:           seaport.ChainIDBig(),
		Address:           address,
		ConduitController: controller,
	}, c.Store, c.Ledger,
		engine.WithConduits(c.Conduits),
		engine.WithZones(c.Zones),
		engine.WithOffererZones(c.Zones),
		engine.WithAccountInspector(c.Accounts),
		engine.WithSignatureValidator(c.Accounts),
		engine.WithEventSink(c.Dispatcher),
		engine.WithLogger(c.Logger),
	)

	c.ExchangeService = services.NewExchangeService(services.ExchangeServiceConfig{
		Engine:   c.Engine,
		History:  c.History,
		Events:   c.EventHistory,
		Ledger:   c.Ledger,
		Conduits: c.Conduits,
		Zones:    c.Zones,
		Wallets:  c.Wallets,
		Logger:   c.Logger,
	})
	return c.ExchangeService.Seed(c.Config.Ledger, c.Config.Zones)
}

// RouterHandlers builds the HTTP handlers served by the router
func (c *ServiceContainer) RouterHandlers() router.Handlers {
	ttl := time.Duration(c.Config.Auth.TokenTTLHours) * time.Hour
	return router.Handlers{
		Orders:    handlers.NewOrderHandler(c.ExchangeService, c.Logger),
		Auth:      handlers.NewAuthHandler(ttl, c.Config.Seaport.ChainID, c.Logger),
		AdminAuth: handlers.NewAdminAuthHandler(c.Config.Admin, c.Logger),
		Admin:     handlers.NewAdminHandler(c.ExchangeService, c.Logger),
		WebSocket: handlers.NewWebSocketHandler(c.WebSocketPushService, c.Logger),
		Health:    handlers.NewHealthHandler(c.DB, c.ExchangeService, c.WebSocketPushService),
	}
}

// Cleanup stops background work and closes connections
func (c *ServiceContainer) Cleanup() {
	c.cleanupOnce.Do(func() {
		log.Println("🧹 Cleaning up Service Container...")

		if c.MonitoringService != nil {
			c.MonitoringService.Stop()
		}
		if c.WebSocketPushService != nil {
			c.WebSocketPushService.Stop()
		}
		if c.NATSClient != nil {
			if err := c.NATSClient.Flush(); err != nil {
				log.Printf("⚠️ NATS flush failed: %v", err)
			}
			c.NATSClient.Close()
		}
		if c.ethClient != nil {
			c.ethClient.Close()
		}
		if c.DB != nil {
			if err := db.Close(); err != nil {
				log.Printf("⚠️ Database close failed: %v", err)
			}
		}

		log.Println("✅ Service Container cleaned up")
	})
}
