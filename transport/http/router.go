package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chirpnet/chirp-auth/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.WalletAuthService) *gin.Engine {
	router := gin.Default()

	handlers := NewWalletHandlers(authService)

	router.GET("/healthz", handlers.Healthz)

	wallet := router.Group("/auth/wallet")
	{
		wallet.POST("/request-nonce", handlers.RequestNonce)
		wallet.POST("/connect", handlers.Connect)
	}

	guarded := router.Group("/auth")
	guarded.Use(AuthMiddleware(authService))
	{
		guarded.POST("/wallet/disconnect", handlers.Disconnect)
		guarded.GET("/wallet/status", handlers.Status)
		guarded.GET("/me", handlers.Me)
	}

	return router
}
