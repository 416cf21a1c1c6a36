package routes

import (
	"github.com/teshager21/gotravel/controllers"
	"github.com/teshager21/gotravel/middleware"

	"github.com/gin-gonic/gin"
)

// initAdminRoutes initializes all admin routes
func initAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/listings", controllers.CreateListing)
		admin.GET("/payments/report", controllers.GetPaymentsReport)
		admin.GET("/payments/report/excel", controllers.DownloadPaymentsReportExcel)
	}
}
