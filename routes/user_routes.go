package routes

import (
	"github.com/teshager21/gotravel/controllers"
	"github.com/teshager21/gotravel/middleware"

	"github.com/gin-gonic/gin"
)

// initUserRoutes initializes all user-facing routes
func initUserRoutes(router *gin.RouterGroup) {
	// Public routes (no authentication required)
	router.POST("/register", controllers.RegisterUser)
	router.POST("/login", controllers.LoginUser)

	// Listing routes
	router.GET("/listings", controllers.GetListings)
	router.GET("/listings/:id", controllers.GetListingDetails)
	router.GET("/listings/:id/reviews", controllers.GetListingReviews)

	// Gateway webhook target: no auth, protected by reference
	// unguessability and idempotent verification
	router.GET("/payments/verify", controllers.VerifyPayment)
	router.POST("/payments/verify", controllers.VerifyPayment)

	// Protected routes (require authentication)
	protected := router.Group("/user")
	protected.Use(middleware.AuthMiddleware())
	{
		// Bookings
		protected.POST("/bookings", controllers.CreateBooking)
		protected.GET("/bookings", controllers.ListBookings)
		protected.GET("/bookings/:id", controllers.GetBookingDetails)
		protected.GET("/bookings/:id/receipt", controllers.DownloadBookingReceipt)

		// Payments
		protected.POST("/payments/initiate", controllers.InitiatePayment)

		// Reviews
		protected.POST("/listings/:id/reviews", controllers.AddReview)
	}
}
