package middleware

import (
	"net/http"
	"strings"

	"seaport-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware JWT authentication for wallet callers
type AuthMiddleware struct {
	logger *logrus.Logger
}

// NewAuthMiddleware creates a JWT middleware
func NewAuthMiddleware(logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		logger: logger,
	}
}

// bearerToken extracts the token of an Authorization header, or reports why it cannot
func bearerToken(c *gin.Context) (token, code, message string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "MISSING_AUTH_HEADER", "Authentication required"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be in format: Bearer <token>"
	}
	token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "EMPTY_TOKEN", "Token cannot be empty"
	}
	return token, "", ""
}

func (a *AuthMiddleware) reject(c *gin.Context, code, message string) {
	a.logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   code,
	}).Warn("JWT authentication failed")

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// RequireAuth rejects requests without a valid wallet JWT and stores the caller in the context
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, code, message := bearerToken(c)
		if code != "" {
			a.reject(c, code, message)
			return
		}

		claims, err := handlers.ValidateJWTToken(tokenString)
		if err != nil {
			a.reject(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_address", claims.UserAddress)
		c.Set("chain_id", claims.ChainID)

		a.logger.WithFields(logrus.Fields{
			"path":         c.Request.URL.Path,
			"method":       c.Request.Method,
			"user_address": claims.UserAddress,
		}).Debug("JWT authentication succeeded")

		c.Next()
	}
}
