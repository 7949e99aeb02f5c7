package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"seaport-backend/internal/config"
	"seaport-backend/internal/engine"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// ============ Unified utility functions ============

// respondWithError unified error response
func respondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondWithEngineError maps an engine or service failure to its HTTP status and condition code
func respondWithEngineError(c *gin.Context, err error) {
	code := engine.Code(err)
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, services.ErrLedgerUnavailable), errors.Is(err, services.ErrSmartAccountsUnavailable):
		status, code = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	case errors.Is(err, ledger.ErrConduitExists):
		status, code = http.StatusConflict, "CONDUIT_EXISTS"
	case errors.Is(err, engine.ErrNoReentrantCalls):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidCanceller), errors.Is(err, engine.ErrInvalidNonceIncrementor):
		status = http.StatusForbidden
	case code == "Unknown":
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	respondWithError(c, status, code, err.Error())
}

// callerFrom returns the authenticated wallet stored by the auth middleware
func callerFrom(c *gin.Context) (common.Address, bool) {
	address := c.GetString("user_address")
	if !common.IsHexAddress(address) {
		respondWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authenticated wallet address required")
		return common.Address{}, false
	}
	return common.HexToAddress(address), true
}

// parseValue parses the native value attached to a call; empty means none
func parseValue(c *gin.Context, value string) (*big.Int, bool) {
	if value == "" {
		return nil, true
	}
	amount, err := config.ParseAmount(value)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_VALUE", err.Error())
		return nil, false
	}
	return amount, true
}

func addressParam(c *gin.Context, name string) (common.Address, bool) {
	value := c.Param(name)
	address, err := config.ParseAddress(value)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
		return common.Address{}, false
	}
	return address, true
}

func hashParam(c *gin.Context, name string) (common.Hash, bool) {
	hash, err := config.ParseHash(c.Param(name))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_HASH", err.Error())
		return common.Hash{}, false
	}
	return hash, true
}

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}
	return true
}
