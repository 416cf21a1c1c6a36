package controllers

import (
	"strconv"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GET /listings
func GetListings(c *gin.Context) {
	db := config.DB.Where("is_active = ?", true)

	if location := c.Query("location"); location != "" {
		db = db.Where("location ILIKE ?", "%"+location+"%")
	}

	var listings []models.Listing
	if err := db.Order("created_at DESC").Find(&listings).Error; err != nil {
		utils.LogError("Failed to fetch listings: %v", err)
		utils.InternalServerError(c, "Failed to fetch listings", err.Error())
		return
	}

	utils.Success(c, "Listings retrieved successfully", gin.H{"listings": listings})
}

// GET /listings/:id
func GetListingDetails(c *gin.Context) {
	listingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid listing ID", nil)
		return
	}

	var listing models.Listing
	if err := config.DB.Preload("Reviews.User").Where("id = ? AND is_active = ?", listingID, true).First(&listing).Error; err != nil {
		utils.NotFound(c, "Listing not found")
		return
	}

	utils.Success(c, "Listing retrieved successfully", gin.H{"listing": listing})
}

// POST /admin/listings
func CreateListing(c *gin.Context) {
	utils.LogInfo("CreateListing called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		Title         string `json:"title" binding:"required"`
		Description   string `json:"description"`
		Location      string `json:"location" binding:"required"`
		PricePerNight string `json:"price_per_night" binding:"required"`
		Currency      string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	price, err := decimal.NewFromString(req.PricePerNight)
	if err != nil || price.IsNegative() {
		utils.BadRequest(c, "price_per_night must be a non-negative decimal", nil)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "ETB"
	}
	if len(currency) != 3 {
		utils.BadRequest(c, "currency must be a 3-letter code", nil)
		return
	}

	listing := models.Listing{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		PricePerNight: price,
		Currency:      currency,
		OwnerID:       user.ID,
		IsActive:      true,
	}
	if err := config.DB.Create(&listing).Error; err != nil {
		utils.LogError("Failed to create listing: %v", err)
		utils.InternalServerError(c, "Failed to create listing", err.Error())
		return
	}

	utils.Created(c, "Listing created successfully", gin.H{"listing": listing})
}
