package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chirpnet/chirp-auth/core"
	"github.com/chirpnet/chirp-auth/service"
)

// AuthMiddleware creates middleware that validates bearer tokens. The
// revocation ledger is consulted before the token's own claims.
func AuthMiddleware(authService *service.WalletAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrTokenRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token revoked"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set("user_id", session.UserID)
		c.Set("wallet_address", session.Address)

		c.Next()
	}
}
