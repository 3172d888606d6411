package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chirpnet/chirp-auth/core"
	"github.com/chirpnet/chirp-auth/service"
)

// WalletHandlers contains HTTP handlers for the wallet auth endpoints
type WalletHandlers struct {
	authService *service.WalletAuthService
}

// NewWalletHandlers creates new wallet auth handlers
func NewWalletHandlers(authService *service.WalletAuthService) *WalletHandlers {
	return &WalletHandlers{authService: authService}
}

// RequestNonce handles POST /auth/wallet/request-nonce
func (h *WalletHandlers) RequestNonce(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	nonce, err := h.authService.RequestNonce(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, core.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Connect handles POST /auth/wallet/connect
func (h *WalletHandlers) Connect(c *gin.Context) {
	var req struct {
		Address   string         `json:"address" binding:"required"`
		Signature core.Signature `json:"signature"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.authService.ConnectWallet(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoValidNonce):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No valid nonce"})
		case errors.Is(err, core.ErrInvalidSignature), errors.Is(err, core.ErrMalformedSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		case errors.Is(err, core.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Disconnect handles POST /auth/wallet/disconnect
func (h *WalletHandlers) Disconnect(c *gin.Context) {
	var req struct {
		Address string `json:"address"`
	}

	// An empty body means demote-all; only reject malformed JSON.
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetString("user_id")

	if err := h.authService.Disconnect(c.Request.Context(), userID, req.Address); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect wallet"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Status handles GET /auth/wallet/status
func (h *WalletHandlers) Status(c *gin.Context) {
	userID := c.GetString("user_id")

	status, err := h.authService.Status(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   status,
	})
}

// Me handles GET /auth/me
func (h *WalletHandlers) Me(c *gin.Context) {
	userID := c.GetString("user_id")

	user, wallets, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"wallets":  addresses,
	})
}

// Healthz handles GET /healthz
func (h *WalletHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
