package routes

import (
	"github.com/teshager21/gotravel/controllers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.Default()

	// Setup session middleware with a secure key
	store := cookie.NewStore([]byte("your-secret-key"))
	store.Options(sessions.Options{
		MaxAge:   60 * 60 * 24, // 1 day
		Path:     "/",
		Secure:   false, // Set to true in production with HTTPS
		HttpOnly: true,
	})
	router.Use(sessions.Sessions("gotravel", store))

	// Auth routes (for OAuth)
	auth := router.Group("/auth")
	{
		auth.GET("/google/login", controllers.GoogleLogin)
		auth.GET("/google/callback", controllers.GoogleCallback)
	}

	// API version group
	api := router.Group("/v1")
	{
		initUserRoutes(api)
		initAdminRoutes(api)
	}

	return router
}
