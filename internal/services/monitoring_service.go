package services

import (
	"log"
	"sync"
	"time"

	"seaport-backend/internal/metrics"

	"gorm.io/gorm"
)

// ConnectionChecker is anything that can report its connection health, e.g. the NATS client
type ConnectionChecker interface {
	IsConnected() bool
}

// MonitoringService periodically refreshes infrastructure gauges
type MonitoringService struct {
	db       *gorm.DB
	nats     ConnectionChecker
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMonitoringService creates a monitoring service; db and nats may be nil
func NewMonitoringService(db *gorm.DB, nats ConnectionChecker, interval time.Duration) *MonitoringService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &MonitoringService{
		db:       db,
		nats:     nats,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the refresh loop
func (m *MonitoringService) Start() {
	log.Println("🚀 Starting monitoring service...")
	m.wg.Add(1)
	go m.run()
}

// Stop terminates the refresh loop and waits for it
func (m *MonitoringService) Stop() {
	m.stopOnce.Do(func() {
		log.Println("🛑 Stopping monitoring service...")
		close(m.stopCh)
		m.wg.Wait()
	})
}

func (m *MonitoringService) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.refresh()
		}
	}
}

func (m *MonitoringService) refresh() {
	m.updateDatabaseMetrics()
	if m.nats != nil {
		if m.nats.IsConnected() {
			metrics.NATSConnectionStatus.Set(1)
		} else {
			metrics.NATSConnectionStatus.Set(0)
		}
	}
}

// updateDatabaseMetrics records pool statistics and a ping result
func (m *MonitoringService) updateDatabaseMetrics() {
	if m.db == nil {
		return
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return
	}

	stats := sqlDB.Stats()
	metrics.DBConnectionPoolSize.Set(float64(stats.MaxOpenConnections))
	metrics.DBConnectionActive.Set(float64(stats.InUse))
	metrics.DBConnectionIdle.Set(float64(stats.Idle))

	if err := sqlDB.Ping(); err != nil {
		metrics.DBConnectionStatus.Set(0)
	} else {
		metrics.DBConnectionStatus.Set(1)
	}
}
