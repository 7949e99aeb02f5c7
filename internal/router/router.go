package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"seaport-backend/internal/config"
	"seaport-backend/internal/handlers"
	"seaport-backend/internal/metrics"
	"seaport-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Orders    *handlers.OrderHandler
	Auth      *handlers.AuthHandler
	AdminAuth *handlers.AdminAuthHandler
	Admin     *handlers.AdminHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

// corsMiddleware CORS middleware; an empty origin list allows all origins
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowAll := len(cfg.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSpace(o)] = true
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 3600
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		case origin != "":
			logrus.WithFields(logrus.Fields{
				"request_origin": origin,
				"path":           c.Request.URL.Path,
				"method":         c.Request.Method,
			}).Warn("🚫 CORS: Origin not in whitelist")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept, X-Request-ID")
		if cfg.AllowCredentials && !allowAll {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")
		c.Next()
	}
}

// requestMiddleware tags each request with an ID, logs it and records HTTP metrics
func requestMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Debug("HTTP request")
	}
}

// SetupRouter mounts the public, authenticated and admin APIs
func SetupRouter(h Handlers, cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := gin.New()
	r.Use(gin.Recovery())

	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		if err := r.SetTrustedProxies(strings.Split(proxies, ",")); err != nil {
			logger.WithError(err).Warn("Invalid TRUSTED_PROXIES, ignoring")
		}
	}

	var corsCfg config.CORSConfig
	var allowedIPs []string
	if cfg != nil {
		corsCfg = cfg.CORS
		allowedIPs = cfg.Admin.AllowedIPs
	}
	if len(allowedIPs) > 0 {
		logger.WithFields(logrus.Fields{
			"allowed_ips": allowedIPs,
			"count":       len(allowedIPs),
		}).Info("Admin API IP whitelist configured")
	} else {
		logger.Info("No admin.allowedIPs configured, using localhost-only mode")
	}

	r.Use(requestMiddleware(logger))
	r.Use(corsMiddleware(corsCfg))

	authMiddleware := middleware.NewAuthMiddleware(logger)
	adminAuthMiddleware := middleware.NewAdminAuthMiddleware(logger)
	localhostOnly := middleware.NewLocalhostOnly(logger, allowedIPs)

	// ============ Health & Metrics ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", h.Health.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", h.Health.HealthCheckHandler)

	// ============ Wallet Auth ============
	auth := api.Group("/auth")
	{
		auth.GET("/nonce", h.Auth.GenerateNonceHandler)
		auth.POST("/login", h.Auth.AuthenticateHandler)
	}

	// ============ Public Reads ============
	api.GET("/information", h.Orders.InformationHandler)
	api.POST("/orders/hash", h.Orders.OrderHashHandler)
	api.GET("/orders/:orderHash/status", h.Orders.GetOrderStatusHandler)
	api.GET("/orders/:orderHash/fulfillments", h.Orders.OrderFulfillmentsHandler)
	api.GET("/nonce/:offerer", h.Orders.GetNonceHandler)
	api.GET("/fulfillers/:address/fulfillments", h.Orders.FulfillerHistoryHandler)
	api.GET("/balances/:address", h.Orders.BalancesHandler)
	api.GET("/events", h.Orders.RecentEventsHandler)
	api.GET("/ws", h.WebSocket.HandleWebSocket)

	// ============ Fulfillment & Matching (wallet JWT) ============
	orders := api.Group("/orders")
	orders.Use(authMiddleware.RequireAuth())
	{
		orders.POST("/fulfill", h.Orders.FulfillOrderHandler)
		orders.POST("/fulfill-advanced", h.Orders.FulfillAdvancedOrderHandler)
		orders.POST("/fulfill-basic", h.Orders.FulfillBasicOrderHandler)
		orders.POST("/fulfill-available", h.Orders.FulfillAvailableOrdersHandler)
		orders.POST("/fulfill-available-advanced", h.Orders.FulfillAvailableAdvancedOrdersHandler)
		orders.POST("/match", h.Orders.MatchOrdersHandler)
		orders.POST("/match-advanced", h.Orders.MatchAdvancedOrdersHandler)
		orders.POST("/match-advanced/simulate", h.Orders.SimulateMatchAdvancedOrdersHandler)
		orders.POST("/validate", h.Orders.ValidateOrdersHandler)
		orders.POST("/cancel", h.Orders.CancelOrdersHandler)
	}
	api.POST("/nonce/increment", authMiddleware.RequireAuth(), h.Orders.IncrementNonceHandler)

	// ============ Admin (IP allowlist + admin JWT) ============
	admin := api.Group("/admin")
	admin.Use(localhostOnly.Restrict())
	{
		admin.POST("/login", h.AdminAuth.AdminLoginHandler)
		admin.POST("/totp/generate", h.AdminAuth.GenerateTOTPSecretHandler)

		secured := admin.Group("")
		secured.Use(adminAuthMiddleware.RequireAdminAuth())
		{
			secured.POST("/ledger/mint", h.Admin.MintHandler)
			secured.POST("/ledger/approvals", h.Admin.SetApprovalHandler)
			secured.GET("/conduits", h.Admin.ListConduitsHandler)
			secured.POST("/conduits", h.Admin.CreateConduitHandler)
			secured.PUT("/conduits/:conduitKey/channels", h.Admin.UpdateChannelHandler)
			secured.POST("/zones", h.Admin.RegisterZoneHandler)
			secured.POST("/smart-accounts", h.Admin.RegisterSmartAccountHandler)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Endpoint not found",
			"code":    "NOT_FOUND",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
