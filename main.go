package main

import (
	"log"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/controllers"
	"github.com/teshager21/gotravel/gateway"
	"github.com/teshager21/gotravel/routes"
	"github.com/teshager21/gotravel/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Initialize Google OAuth
	config.InitGoogleOAuth()

	// Wire the payment gateway client into the payment handlers
	chapa := gateway.NewClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey)
	controllers.InitPaymentModule(chapa, cfg.AppBaseURL)

	// Background worker for booking confirmation emails
	utils.StartNotificationWorker()

	// Set up router
	router := routes.SetupRouter()

	// Add middleware
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	utils.LogInfo("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
