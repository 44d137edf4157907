package main

import (
	"github.com/gin-gonic/gin"

	"bookexchange-backend/internal/shared/middleware"
	"bookexchange-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupBookRoutes(v1, c)
		setupOfferRoutes(v1, c)
		setupTransactionRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		users.GET("/me", c.UserHandler.GetProfile)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.Config.JWT.Secret)

	books := v1.Group("/books")
	{
		// Public catalog
		books.GET("", c.BookHandler.ListAvailable)
		books.GET("/:id", c.BookHandler.GetBook)
		books.GET("/:id/transactions", c.TxnHandler.ListByBook)

		// Owner operations
		books.POST("", auth, c.BookHandler.CreateBook)
		books.GET("/mine", auth, c.BookHandler.ListMine)
		books.PUT("/:id", auth, c.BookHandler.UpdateBook)
		books.DELETE("/:id", auth, c.BookHandler.WithdrawBook)
		books.POST("/:id/cover", auth, c.BookHandler.UploadCover)

		// Offers scoped theo book
		books.GET("/:id/offers", auth, c.ExchangeHandler.ListOffersForBook)
		books.POST("/:id/offers/:offerId/accept", auth, c.ExchangeHandler.AcceptOffer)
	}
}

// ========================================
// OFFER ROUTES
// ========================================
func setupOfferRoutes(v1 *gin.RouterGroup, c *container.Container) {
	offers := v1.Group("/offers")
	offers.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		offers.POST("", c.ExchangeHandler.CreateOffer)
		offers.GET("", c.ExchangeHandler.ListMyOffers)
		offers.GET("/:id", c.ExchangeHandler.GetOffer)
		offers.POST("/:id/reject", c.ExchangeHandler.RejectOffer)
	}
}

// ========================================
// TRANSACTION ROUTES
// ========================================
func setupTransactionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	transactions := v1.Group("/transactions")
	transactions.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		transactions.GET("", c.TxnHandler.ListMine)
		transactions.GET("/:id", c.TxnHandler.GetTransaction)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		admin.GET("/offers", c.ExchangeHandler.ListOffersByStatus)
		admin.GET("/transactions", c.TxnHandler.ListAll)
		admin.GET("/transactions/stats", c.TxnHandler.GetStats)
		admin.GET("/transactions/export", c.TxnHandler.ExportLedger)
	}
}
