package handlers

import (
	"net/http"
	"strings"

	"seaport-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler authenticates event stream connections and hands them to the push service
type WebSocketHandler struct {
	pushService *services.WebSocketPushService
	logger      *logrus.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(pushService *services.WebSocketPushService, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHandler{pushService: pushService, logger: logger}
}

// HandleWebSocket GET /api/ws
//
// A token (query "token" or Bearer header) makes the connection follow the wallet's own orders.
// Without one the client only receives what it subscribes to.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userAddress := ""
	if token := extractToken(c); token != "" {
		claims, err := ValidateJWTToken(token)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"ip":    c.ClientIP(),
				"error": err.Error(),
			}).Warn("🔌 WebSocket rejected: invalid token")
			respondWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		userAddress = claims.UserAddress
	}
	h.pushService.HandleWebSocket(c.Writer, c.Request, userAddress)
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}
