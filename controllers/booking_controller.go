package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// POST /user/bookings
func CreateBooking(c *gin.Context) {
	utils.LogInfo("CreateBooking called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		ListingID uint   `json:"listing_id" binding:"required"`
		CheckIn   string `json:"check_in" binding:"required"`
		CheckOut  string `json:"check_out" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. listing_id, check_in and check_out are required", err.Error())
		return
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		utils.BadRequest(c, "Invalid check_in date, expected YYYY-MM-DD", err.Error())
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		utils.BadRequest(c, "Invalid check_out date, expected YYYY-MM-DD", err.Error())
		return
	}
	if !checkIn.Before(checkOut) {
		utils.BadRequest(c, "check_in must be before check_out", nil)
		return
	}

	db := config.DB
	var listing models.Listing
	if err := db.Where("id = ? AND is_active = ?", req.ListingID, true).First(&listing).Error; err != nil {
		utils.NotFound(c, "Listing not found")
		return
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	amount := listing.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

	booking := models.Booking{
		BookingReference: uuid.New().String(),
		UserID:           user.ID,
		ListingID:        listing.ID,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Amount:           amount,
		Currency:         listing.Currency,
	}
	if err := db.Create(&booking).Error; err != nil {
		utils.LogError("Failed to create booking for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create booking", err.Error())
		return
	}

	utils.LogInfo("Created booking %s for user %d", booking.BookingReference, user.ID)
	utils.Created(c, "Booking created successfully", gin.H{
		"id":                booking.ID,
		"booking_reference": booking.BookingReference,
		"listing_id":        listing.ID,
		"check_in":          booking.CheckIn.Format("2006-01-02"),
		"check_out":         booking.CheckOut.Format("2006-01-02"),
		"nights":            nights,
		"amount":            booking.Amount.StringFixed(2),
		"currency":          booking.Currency,
		"is_paid":           booking.IsPaid,
	})
}

// GET /user/bookings
func ListBookings(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var bookings []models.Booking
	if err := config.DB.Preload("Listing").Preload("Payment").
		Where("user_id = ?", user.ID).Order("created_at DESC").Find(&bookings).Error; err != nil {
		utils.LogError("Failed to fetch bookings for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to fetch bookings", err.Error())
		return
	}

	utils.Success(c, "Bookings retrieved successfully", gin.H{"bookings": bookings})
}

// GET /user/bookings/:id
func GetBookingDetails(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid booking ID", nil)
		return
	}

	var booking models.Booking
	if err := config.DB.Preload("Listing").Preload("Payment").
		Where("id = ? AND user_id = ?", bookingID, user.ID).First(&booking).Error; err != nil {
		utils.NotFound(c, "Booking not found")
		return
	}

	utils.Success(c, "Booking retrieved successfully", gin.H{"booking": booking})
}

// GET /user/bookings/:id/receipt
//
// Generates a PDF receipt for the booking, including the payment outcome
func DownloadBookingReceipt(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid booking ID", nil)
		return
	}

	var booking models.Booking
	if err := config.DB.Preload("Listing").Preload("Payment").
		Where("id = ? AND user_id = ?", bookingID, user.ID).First(&booking).Error; err != nil {
		utils.NotFound(c, "Booking not found")
		return
	}

	paymentStatus := "Unpaid"
	if booking.Payment != nil {
		paymentStatus = string(booking.Payment.Status)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Receipt")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(40, 10, "Reference: "+booking.BookingReference)
	pdf.Ln(8)
	pdf.Cell(40, 10, "Guest: "+user.FirstName+" "+user.LastName)
	pdf.Ln(8)
	pdf.Cell(40, 10, "Listing: "+booking.Listing.Title)
	pdf.Ln(8)
	pdf.Cell(40, 10, "Check-in: "+booking.CheckIn.Format("2006-01-02"))
	pdf.Ln(8)
	pdf.Cell(40, 10, "Check-out: "+booking.CheckOut.Format("2006-01-02"))
	pdf.Ln(8)
	pdf.Cell(40, 10, "Nights: "+strconv.Itoa(booking.Nights()))
	pdf.Ln(8)
	pdf.Cell(40, 10, "Amount: "+booking.Amount.StringFixed(2)+" "+booking.Currency)
	pdf.Ln(8)
	pdf.Cell(40, 10, "Payment status: "+paymentStatus)
	if booking.Payment != nil && booking.Payment.TransactionRef != "" {
		pdf.Ln(8)
		pdf.Cell(40, 10, "Transaction: "+booking.Payment.TransactionRef)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.LogError("Failed to render receipt for booking %d: %v", booking.ID, err)
		utils.InternalServerError(c, "Failed to generate receipt", err.Error())
		return
	}
	c.Header("Content-Disposition", "attachment; filename=receipt.pdf")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
