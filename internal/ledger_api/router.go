package ledger_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiny-ledger/internal/ledger_api/handler"
	"github.com/tiny-ledger/internal/ledger_api/middleware"
)

// APIInfo is served at the root of the versioned API
type APIInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	info APIInfo,
	transactionHandler *handler.TransactionHandler,
	balanceHandler *handler.BalanceHandler,
	healthCheck func() gin.H,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	v1 := r.Group("/api/v1")
	{
		v1.GET("", func(c *gin.Context) {
			handler.RespondOK(c, info)
		})

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
		}

		v1.GET("/balance", balanceHandler.Get)
	}

	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "timestamp": time.Now().UTC()}
		for k, v := range healthCheck() {
			status[k] = v
		}
		c.JSON(http.StatusOK, status)
	})

	r.NoRoute(func(c *gin.Context) {
		handler.RespondNotFound(c, "")
	})
}
