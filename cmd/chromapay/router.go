package main

import (
	"net/http"

	identityhandler "github.com/GoldenTiger720/chroma-money-link-44/internal/identity/handler"
	ledgerhandler "github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/handler"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/middleware"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
)

type routerDeps struct {
	tokens   *middleware.TokenManager
	sessions session.Store
	identity *identityhandler.IdentityHandler
	wallet   *ledgerhandler.WalletHandler
	admin    *ledgerhandler.AdminHandler
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "chromapay"})
	})

	authenticated := middleware.AuthMiddleware(d.tokens)
	withSession := middleware.SessionMiddleware(d.sessions)

	auth := router.Group("/v1/auth")
	{
		auth.POST("/login", d.identity.Login)
		auth.POST("/register", d.identity.Register)
		auth.POST("/logout", authenticated, middleware.OptionalSessionMiddleware(d.sessions), d.identity.Logout)
		auth.POST("/verify", authenticated, withSession, d.identity.VerifyAccount)
		auth.GET("/me", authenticated, withSession, d.identity.Me)
	}

	wallet := router.Group("/v1/wallet", authenticated, withSession)
	{
		wallet.GET("", d.wallet.GetWallet)
		wallet.POST("/topup", d.wallet.TopUp)
		wallet.POST("/transfer", d.wallet.Transfer)
		wallet.GET("/transactions", d.wallet.ListTransactions)
		wallet.POST("/connect", d.wallet.ConnectWallet)
		wallet.DELETE("/connect", d.wallet.DisconnectWallet)
	}

	admin := router.Group("/v1/admin", authenticated, withSession, middleware.AdminOnly())
	{
		admin.GET("/users", d.admin.ListUsers)
		admin.GET("/transactions", d.admin.ListTransactions)
		admin.GET("/stats", d.admin.Stats)
		admin.GET("/activity", d.admin.RecentActivity)
	}

	return router
}
