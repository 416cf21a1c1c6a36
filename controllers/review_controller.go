package controllers

import (
	"strconv"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
)

// POST /user/listings/:id/reviews
func AddReview(c *gin.Context) {
	utils.LogInfo("AddReview called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	listingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid listing ID", nil)
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. rating must be between 1 and 5", err.Error())
		return
	}

	db := config.DB
	var listing models.Listing
	if err := db.Where("id = ? AND is_active = ?", listingID, true).First(&listing).Error; err != nil {
		utils.NotFound(c, "Listing not found")
		return
	}

	// One review per user per listing
	var existing models.Review
	if err := db.Where("listing_id = ? AND user_id = ?", listing.ID, user.ID).First(&existing).Error; err == nil {
		utils.Conflict(c, "You have already reviewed this listing", nil)
		return
	}

	review := models.Review{
		ListingID: listing.ID,
		UserID:    user.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := db.Create(&review).Error; err != nil {
		utils.LogError("Failed to create review for listing %d: %v", listing.ID, err)
		utils.InternalServerError(c, "Failed to create review", err.Error())
		return
	}

	// Refresh the listing's cached aggregates
	var stats struct {
		Avg   float64
		Count int
	}
	if err := db.Model(&models.Review{}).Select("AVG(rating) as avg, COUNT(*) as count").
		Where("listing_id = ?", listing.ID).Scan(&stats).Error; err == nil {
		db.Model(&listing).Updates(map[string]interface{}{
			"average_rating": stats.Avg,
			"total_reviews":  stats.Count,
		})
	}

	utils.Created(c, "Review added successfully", gin.H{"review": review})
}

// GET /listings/:id/reviews
func GetListingReviews(c *gin.Context) {
	listingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid listing ID", nil)
		return
	}

	var reviews []models.Review
	if err := config.DB.Preload("User").Where("listing_id = ?", listingID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		utils.LogError("Failed to fetch reviews for listing %d: %v", listingID, err)
		utils.InternalServerError(c, "Failed to fetch reviews", err.Error())
		return
	}

	utils.Success(c, "Reviews retrieved successfully", gin.H{"reviews": reviews})
}
