package routes

import (
	"net/http"

	"github.com/01moynul/sweetshop-golang/internal/handlers"
	"github.com/01moynul/sweetshop-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	CORSOrigin string
	UploadDir  string
	Metrics    http.Handler
	Logger     *zap.Logger
}

// CORSMiddleware lets the configured frontend origin call the API.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		// Preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	handlers.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(CORSMiddleware(opts.CORSOrigin))

	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Sweet Shop API is running"})
		})

		// --- Auth Routes (Public) ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		authed := api.Group("/")
		authed.Use(middleware.AuthMiddleware(h.Tokens, h.Users))
		{
			authed.GET("/auth/me", h.Me)

			authed.GET("/sweets", h.GetSweets)
			authed.GET("/sweets/search", h.SearchSweets)
			authed.GET("/sweets/:id", h.GetSweet)
			authed.POST("/sweets/:id/purchase", h.PurchaseSweet)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/")
		admin.Use(middleware.AuthMiddleware(h.Tokens, h.Users))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/sweets/stats", h.GetStockStats)
			admin.POST("/sweets", h.CreateSweet)
			admin.PUT("/sweets/:id", h.UpdateSweet)
			admin.DELETE("/sweets/:id", h.DeleteSweet)
			admin.POST("/sweets/:id/restock", h.RestockSweet)
			admin.POST("/uploads", h.UploadImage)
		}
	}

	return router
}
