package handlers

import (
	"context"
	"net/http"
	"time"

	"seaport-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports liveness of the API and its backing store
type HealthHandler struct {
	database    *gorm.DB
	exchange    *services.ExchangeService
	pushService *services.WebSocketPushService
}

// NewHealthHandler creates a health handler; database is nil in memory mode
func NewHealthHandler(database *gorm.DB, exchange *services.ExchangeService, pushService *services.WebSocketPushService) *HealthHandler {
	return &HealthHandler{database: database, exchange: exchange, pushService: pushService}
}

// HealthCheckHandler GET /api/health
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	status := http.StatusOK
	store := "memory"
	if h.database != nil {
		store = "ok"
		if err := h.ping(c.Request.Context()); err != nil {
			status, store = http.StatusServiceUnavailable, err.Error()
		}
	}

	body := gin.H{
		"status":   "ok",
		"service":  "seaport-backend",
		"database": store,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.exchange != nil {
		info := h.exchange.Information()
		body["version"] = info.Version
		body["domainSeparator"] = info.DomainSeparator
	}
	if h.pushService != nil {
		body["websocketClients"] = h.pushService.GetActiveConnections()
	}
	c.JSON(status, body)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.database.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
