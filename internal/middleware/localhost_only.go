package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocalhostOnly restricts a route group to loopback clients plus a configured IP/CIDR allowlist
type LocalhostOnly struct {
	logger   *logrus.Logger
	networks []*net.IPNet
}

// NewLocalhostOnly parses allowedIPs; invalid entries are logged and skipped
func NewLocalhostOnly(logger *logrus.Logger, allowedIPs []string) *LocalhostOnly {
	l := &LocalhostOnly{logger: logger}
	for _, allowed := range allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if !strings.Contains(allowed, "/") {
			if ip := net.ParseIP(allowed); ip != nil && ip.To4() != nil {
				allowed += "/32"
			} else {
				allowed += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(allowed)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"allowed": allowed,
				"error":   err.Error(),
			}).Warn("Invalid entry in admin.allowedIPs")
			continue
		}
		l.networks = append(l.networks, ipNet)
	}
	return l
}

// Restrict rejects clients outside the allowlist with 403 IP_NOT_ALLOWED
func (l *LocalhostOnly) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if l.isAllowedIP(clientIP) {
			c.Next()
			return
		}

		// a direct loopback connection is allowed even when a forwarded header says otherwise
		remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
		if remoteIP != clientIP && isLocalhost(remoteIP) {
			c.Next()
			return
		}

		l.logger.WithFields(logrus.Fields{
			"client_ip":  clientIP,
			"remote_ip":  remoteIP,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"user_agent": c.GetHeader("User-Agent"),
		}).Warn("❌ Reject non-whitelisted access to admin API")

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "This API is only accessible from allowed IP addresses",
			"code":    "IP_NOT_ALLOWED",
		})
	}
}

func isLocalhost(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func (l *LocalhostOnly) isAllowedIP(ip string) bool {
	if isLocalhost(ip) {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range l.networks {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
