package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"seaport-backend/internal/config"
	"seaport-backend/internal/engine"
	"seaport-backend/internal/router"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
seaport:
  chainId: 31337
ledger:
  genesis:
    - account: "0x000000000000000000000000000000000000b0b0"
      itemType: 0
      amount: "1000"
zones:
  - address: "0x0000000000000000000000000000000000000a11"
    allowAll: true
    offerers:
      - "0x000000000000000000000000000000000000b0b0"
`

func newTestContainer(t *testing.T) *ServiceContainer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := NewServiceContainer(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(c.Cleanup)
	return c
}

func TestNewServiceContainerMemoryMode(t *testing.T) {
	c := newTestContainer(t)

	assert.Nil(t, c.DB)
	assert.Nil(t, c.NATSClient)
	assert.NotNil(t, c.Wallets, "smart accounts are tracked locally without an RPC endpoint")

	balances, err := c.ExchangeService.Balances(common.HexToAddress("0x000000000000000000000000000000000000b0b0"))
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "1000", balances[0].Amount)
}

func TestSeededZoneIncrementsAssignedNonces(t *testing.T) {
	c := newTestContainer(t)
	zone := common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob := common.HexToAddress("0x000000000000000000000000000000000000b0b0")

	nonce, err := c.ExchangeService.IncrementNonce(context.Background(), zone, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nonce.Int64())

	_, err = c.ExchangeService.IncrementNonce(context.Background(), zone, common.HexToAddress("0x000000000000000000000000000000000000c0c0"))
	assert.ErrorIs(t, err, engine.ErrInvalidNonceIncrementor)
}

func TestNewServiceContainerRejectsUnknownDriver(t *testing.T) {
	cfg, err := config.Parse([]byte("database:\n  driver: sqlite\n"))
	require.NoError(t, err)
	_, err = NewServiceContainer(cfg, nil)
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestRouterSmoke(t *testing.T) {
	c := newTestContainer(t)
	r := router.SetupRouter(c.RouterHandlers(), c.Config, c.Logger)

	tests := []struct {
		method string
		path   string
		remote string
		want   int
		body   string
	}{
		{http.MethodGet, "/ping", "", http.StatusOK, "pong"},
		{http.MethodGet, "/health", "", http.StatusOK, `"database":"memory"`},
		{http.MethodGet, "/api/information", "", http.StatusOK, `"version":"1.1"`},
		{http.MethodGet, "/api/nonce/0x000000000000000000000000000000000000b0b0", "", http.StatusOK, `"nonce":"0"`},
		{http.MethodGet, "/api/auth/nonce", "", http.StatusOK, "Seaport Authentication"},
		{http.MethodPost, "/api/orders/fulfill", "", http.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{http.MethodPost, "/api/nonce/increment", "", http.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{http.MethodGet, "/api/admin/conduits", "192.0.2.1:4000", http.StatusForbidden, "IP_NOT_ALLOWED"},
		{http.MethodGet, "/api/admin/conduits", "127.0.0.1:4000", http.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/metrics", "", http.StatusOK, "seaport"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.True(t, strings.Contains(w.Body.String(), tt.body), w.Body.String())
		})
	}
}
