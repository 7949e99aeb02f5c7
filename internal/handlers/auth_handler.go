package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"seaport-backend/internal/config"
	"seaport-backend/internal/dto"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const nonceTTL = 5 * time.Minute

var (
	errUnknownNonce     = errors.New("nonce unknown, expired or already used")
	errSignatureInvalid = errors.New("signature does not match user address")
	nonceLine           = regexp.MustCompile(`(?m)^Nonce: ([0-9a-f]{32})$`)
)

// AuthHandler issues wallet login challenges and JWTs
type AuthHandler struct {
	mu       sync.Mutex
	nonces   map[string]time.Time // nonce -> expiry
	tokenTTL time.Duration
	chainID  int64
	logger   *logrus.Logger
	now      func() time.Time
}

type JWTClaims = dto.JWTClaims

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(tokenTTL time.Duration, chainID int64, logger *logrus.Logger) *AuthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthHandler{
		nonces:   make(map[string]time.Time),
		tokenTTL: tokenTTL,
		chainID:  chainID,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateNonceHandler GET /api/auth/nonce
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		respondWithError(c, http.StatusInternalServerError, "NONCE_FAILED", "failed to generate nonce")
		return
	}
	nonceStr := hex.EncodeToString(nonce)
	now := h.now()

	h.mu.Lock()
	for n, expiry := range h.nonces {
		if now.After(expiry) {
			delete(h.nonces, n)
		}
	}
	h.nonces[nonceStr] = now.Add(nonceTTL)
	h.mu.Unlock()

	message := fmt.Sprintf("Seaport Authentication\nNonce: %s\nTimestamp: %d", nonceStr, now.Unix())
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"nonce":     nonceStr,
		"message":   message,
		"timestamp": now.Unix(),
	})
}

// AuthenticateHandler POST /api/auth/login
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{
			Success: false,
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}
	if !common.IsHexAddress(req.UserAddress) {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Message: "invalid user address"})
		return
	}
	user := common.HexToAddress(req.UserAddress)

	if err := h.consumeNonce(req.Message); err != nil {
		h.logger.WithField("user", user.Hex()).Warn("🔐 Login rejected: " + err.Error())
		c.JSON(http.StatusUnauthorized, dto.AuthResponse{Success: false, Message: err.Error()})
		return
	}
	if err := VerifyWalletSignature(user, req.Message, req.Signature); err != nil {
		h.logger.WithField("user", user.Hex()).Warn("🔐 Login rejected: " + err.Error())
		c.JSON(http.StatusUnauthorized, dto.AuthResponse{Success: false, Message: err.Error()})
		return
	}

	token, expiresAt, err := h.generateJWTToken(user)
	if err != nil {
		h.logger.WithError(err).Error("❌ Failed to sign JWT")
		c.JSON(http.StatusInternalServerError, dto.AuthResponse{Success: false, Message: "failed to generate token"})
		return
	}

	h.logger.WithField("user", user.Hex()).Info("✅ Wallet authenticated")
	c.JSON(http.StatusOK, dto.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Message:   "authenticated",
	})
}

// consumeNonce checks that message carries a live nonce issued by this handler and retires it
func (h *AuthHandler) consumeNonce(message string) error {
	m := nonceLine.FindStringSubmatch(message)
	if m == nil {
		return errUnknownNonce
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	expiry, ok := h.nonces[m[1]]
	if !ok {
		return errUnknownNonce
	}
	delete(h.nonces, m[1])
	if h.now().After(expiry) {
		return errUnknownNonce
	}
	return nil
}

// VerifyWalletSignature checks a personal_sign signature of message by user
func VerifyWalletSignature(user common.Address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return errSignatureInvalid
	}
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return errSignatureInvalid
	}
	if crypto.PubkeyToAddress(*pub) != user {
		return errSignatureInvalid
	}
	return nil
}

func (h *AuthHandler) generateJWTToken(user common.Address) (string, time.Time, error) {
	now := h.now()
	expiresAt := now.Add(h.tokenTTL)
	claims := JWTClaims{
		UserAddress: user.Hex(),
		ChainID:     h.chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "seaport-backend",
			Subject:   user.Hex(),
		},
	}
	token, err := GenerateJWTToken(claims)
	return token, expiresAt, err
}

// GenerateJWTToken signs claims with the configured JWT secret
func GenerateJWTToken(claims JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.GetJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWTToken verifies a wallet JWT and returns its claims
func ValidateJWTToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.GetJWTSecret()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if !common.IsHexAddress(claims.UserAddress) {
			return nil, fmt.Errorf("token carries invalid user address")
		}
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
