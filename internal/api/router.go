package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds routing configuration
type RouterConfig struct {
	WebhookPath string // Telegram webhook mount point
	ReceiptDir  string // local receipt store served under /receipts
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(handlers *Handlers, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	router.GET("/health", handlers.HealthCheck)
	router.POST("/api/ingest", handlers.HandleIngest)
	router.POST(cfg.WebhookPath, handlers.HandleTelegramWebhook)

	expenses := router.Group("/api/expenses")
	{
		expenses.GET("", handlers.HandleListExpenses)
		expenses.PATCH("", handlers.HandleMutateExpenses)
		expenses.GET("/export", handlers.HandleExportExpenses)
	}

	// Uploaded receipts resolve publicly under /receipts/<key>
	if cfg.ReceiptDir != "" {
		router.Static("/receipts", cfg.ReceiptDir)
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
