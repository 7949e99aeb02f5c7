package handlers

import (
	"net/http"
	"testing"
	"time"

	"seaport-backend/internal/dto"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(h *AuthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/auth/nonce", h.GenerateNonceHandler)
	r.POST("/auth/login", h.AuthenticateHandler)
	return r
}

func personalSign(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestWalletLoginFlow(t *testing.T) {
	h := NewAuthHandler(time.Hour, 1, quietLogger())
	r := authRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/auth/nonce", nil)
	require.Equal(t, http.StatusOK, w.Code)
	message := body["message"].(string)
	assert.Contains(t, message, "Nonce: "+body["nonce"].(string))

	user, sig := personalSign(t, message)
	login := dto.AuthRequest{UserAddress: user, Message: message, Signature: sig}
	w, body = doJSON(t, r, http.MethodPost, "/auth/login", login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	claims, err := ValidateJWTToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user, claims.UserAddress)
	assert.Equal(t, int64(1), claims.ChainID)

	// nonces are single use
	w, _ = doJSON(t, r, http.MethodPost, "/auth/login", login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletLoginRejectsWrongSigner(t *testing.T) {
	h := NewAuthHandler(time.Hour, 1, quietLogger())
	r := authRouter(h)

	_, body := doJSON(t, r, http.MethodGet, "/auth/nonce", nil)
	message := body["message"].(string)
	_, sig := personalSign(t, message)
	other, _ := personalSign(t, message)

	w, body := doJSON(t, r, http.MethodPost, "/auth/login", dto.AuthRequest{UserAddress: other, Message: message, Signature: sig})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errSignatureInvalid.Error(), body["message"])
}

func TestWalletLoginRejectsUnknownAndExpiredNonce(t *testing.T) {
	h := NewAuthHandler(time.Hour, 1, quietLogger())
	now := time.Now()
	h.now = func() time.Time { return now }
	r := authRouter(h)

	user, sig := personalSign(t, "Seaport Authentication\nNonce: 00000000000000000000000000000000\nTimestamp: 1")
	w, _ := doJSON(t, r, http.MethodPost, "/auth/login", dto.AuthRequest{
		UserAddress: user,
		Message:     "Seaport Authentication\nNonce: 00000000000000000000000000000000\nTimestamp: 1",
		Signature:   sig,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, body := doJSON(t, r, http.MethodGet, "/auth/nonce", nil)
	message := body["message"].(string)
	now = now.Add(nonceTTL + time.Second)
	user, sig = personalSign(t, message)
	w, body = doJSON(t, r, http.MethodPost, "/auth/login", dto.AuthRequest{UserAddress: user, Message: message, Signature: sig})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errUnknownNonce.Error(), body["message"])
}

func TestValidateJWTTokenRejectsTampering(t *testing.T) {
	h := NewAuthHandler(time.Hour, 1, quietLogger())
	user, _ := personalSign(t, "x")
	token, _, err := h.generateJWTToken(common.HexToAddress(user))
	require.NoError(t, err)

	_, err = ValidateJWTToken(token + "x")
	assert.Error(t, err)

	_, err = ValidateAdminJWTToken(token)
	assert.Error(t, err, "wallet tokens are not admin tokens")
}
