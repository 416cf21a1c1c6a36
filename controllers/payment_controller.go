package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/gateway"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	// PaymentGateway is the Chapa client used by the payment handlers,
	// injected at startup
	PaymentGateway gateway.PaymentGateway

	// AppBaseURL is the publicly reachable base URL of this service,
	// used to build the callback URL the gateway will invoke
	AppBaseURL string
)

// InitPaymentModule wires the gateway client and callback base URL into the
// payment handlers
func InitPaymentModule(g gateway.PaymentGateway, appBaseURL string) {
	PaymentGateway = g
	AppBaseURL = appBaseURL
}

// NewTransactionRef composes a reference unique per attempt from the
// booking reference and the current time with sub-second precision, so
// repeated initiations on the same booking never collide at the gateway
func NewTransactionRef(bookingRef string) string {
	seconds := float64(time.Now().UnixMilli()) / 1000.0
	return bookingRef + "-" + strconv.FormatFloat(seconds, 'f', 3, 64)
}

// POST /user/payments/initiate
func InitiatePayment(c *gin.Context) {
	utils.LogInfo("InitiatePayment called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		BookingID uint   `json:"booking_id" binding:"required"`
		ReturnURL string `json:"return_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. booking_id is required", err.Error())
		return
	}

	db := config.DB
	var booking models.Booking
	if err := db.Preload("Listing").Where("id = ? AND user_id = ?", req.BookingID, user.ID).First(&booking).Error; err != nil {
		utils.LogError("Booking not found for ID: %d, user ID: %d", req.BookingID, user.ID)
		utils.AppErrorResponse(c, utils.NotFoundError("Booking not found or not owned by user", err))
		return
	}

	// Idempotent short-circuit: never touch the gateway for a paid booking
	if booking.IsPaid {
		utils.LogInfo("Initiation attempted on paid booking %s", booking.BookingReference)
		utils.AppErrorResponse(c, utils.AlreadyPaidError())
		return
	}

	txRef := NewTransactionRef(booking.BookingReference)

	firstName := user.FirstName
	if firstName == "" {
		firstName = "Guest"
	}
	lastName := user.LastName
	if lastName == "" {
		lastName = "User"
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = AppBaseURL + "/payment-success/"
	}

	result, err := PaymentGateway.Initialize(c.Request.Context(), gateway.InitializeRequest{
		Amount:      booking.Amount.StringFixed(2),
		Currency:    booking.Currency,
		Email:       user.Email,
		FirstName:   firstName,
		LastName:    lastName,
		TxRef:       txRef,
		CallbackURL: AppBaseURL + "/v1/payments/verify",
		ReturnURL:   returnURL,
		Title:       "Travel Booking Payment",
		Description: fmt.Sprintf("Payment for booking %s", booking.BookingReference),
	})
	if err != nil {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			utils.LogError("Gateway rejected initialization for %s: %s", txRef, rejected.Message)
			utils.BadRequest(c, "Payment initialization failed", rejected.Message)
			return
		}
		// Money may have moved on the provider side even though our call
		// failed, so log enough to reconcile by hand
		utils.LogError("Gateway unreachable during initialization, tx_ref: %s: %v", txRef, err)
		utils.InternalServerError(c, "Failed to connect to payment gateway", err.Error())
		return
	}

	// One payment row per booking: a repeat initiation refreshes the
	// existing attempt with the new reference instead of stacking rows
	var payment models.Payment
	var supersededRef string
	err = db.Where("booking_id = ?", booking.ID).First(&payment).Error
	switch {
	case err == nil:
		supersededRef = payment.TransactionRef
		if err := db.Model(&payment).Updates(map[string]interface{}{
			"transaction_ref":  txRef,
			"amount":           booking.Amount,
			"currency":         booking.Currency,
			"status":           models.PaymentStatusPending,
			"checkout_url":     result.CheckoutURL,
			"gateway_response": result.Raw,
		}).Error; err != nil {
			utils.LogError("Failed to refresh payment for booking %d: %v", booking.ID, err)
			utils.InternalServerError(c, "Failed to record payment", err.Error())
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		payment = models.Payment{
			BookingID:       booking.ID,
			TransactionRef:  txRef,
			Amount:          booking.Amount,
			Currency:        booking.Currency,
			Status:          models.PaymentStatusPending,
			CheckoutURL:     result.CheckoutURL,
			GatewayResponse: result.Raw,
		}
		if err := db.Create(&payment).Error; err != nil {
			utils.LogError("Failed to create payment for booking %d: %v", booking.ID, err)
			utils.InternalServerError(c, "Failed to record payment", err.Error())
			return
		}
	default:
		utils.LogError("Failed to look up payment for booking %d: %v", booking.ID, err)
		utils.InternalServerError(c, "Failed to record payment", err.Error())
		return
	}

	data := gin.H{
		"checkout_url":          result.CheckoutURL,
		"transaction_reference": txRef,
	}
	message := "Payment initiated successfully"
	if supersededRef != "" {
		// only the latest reference verifies; the earlier one is dead
		data["superseded_reference"] = supersededRef
		message = "Payment initiated successfully, previous transaction reference superseded"
	}

	utils.LogInfo("Payment initiated for booking %s, tx_ref: %s", booking.BookingReference, txRef)
	utils.Success(c, message, data)
}

// GET|POST /payments/verify
//
// Invoked by the gateway webhook after checkout or manually by reference.
// No auth: the endpoint is protected by reference unguessability and
// idempotency, and gateways retry callbacks.
func VerifyPayment(c *gin.Context) {
	utils.LogInfo("VerifyPayment called")

	txRef := c.Query("tx_ref")
	if txRef == "" {
		var body struct {
			TxRef string `json:"tx_ref"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			txRef = body.TxRef
		}
	}
	if txRef == "" {
		utils.AppErrorResponse(c, utils.MissingReferenceError())
		return
	}

	db := config.DB
	var payment models.Payment
	if err := db.Preload("Booking.Listing").Preload("Booking.User").
		Where("transaction_ref = ?", txRef).First(&payment).Error; err != nil {
		utils.LogError("Payment record not found for tx_ref: %s", txRef)
		utils.AppErrorResponse(c, utils.NotFoundError(
			fmt.Sprintf("Payment record not found for transaction reference %s", txRef), err))
		return
	}

	// Gateways retry callbacks; a completed payment is terminal
	if payment.Status == models.PaymentStatusCompleted {
		utils.Success(c, fmt.Sprintf("Payment for %s already completed.", txRef), nil)
		return
	}

	result, err := PaymentGateway.Verify(c.Request.Context(), txRef)
	if err != nil {
		// Record left untouched so a later attempt can re-run from scratch
		utils.LogError("Gateway unreachable during verification, tx_ref: %s: %v", txRef, err)
		utils.InternalServerError(c, "Failed to connect to payment gateway for verification", err.Error())
		return
	}

	if result.Status == "success" && result.InnerStatus == "success" {
		if err := completePayment(db, &payment, result.Raw); err != nil {
			utils.LogError("Failed to complete payment %s: %v", txRef, err)
			utils.AppErrorResponse(c, utils.UnexpectedError("Failed to update payment status", err))
			return
		}

		utils.EnqueueBookingConfirmation(utils.BookingConfirmation{
			Email:            payment.Booking.User.Email,
			BookingReference: payment.Booking.BookingReference,
			ListingTitle:     payment.Booking.Listing.Title,
			Amount:           payment.Amount.StringFixed(2) + " " + payment.Currency,
		})

		utils.LogInfo("Payment %s verified, booking %s is now paid", txRef, payment.Booking.BookingReference)
		utils.Success(c, fmt.Sprintf("Payment %s verified successfully and status updated.", txRef), nil)
		return
	}

	var newStatus models.PaymentStatus
	var message string
	switch result.InnerStatus {
	case "failed":
		newStatus = models.PaymentStatusFailed
		message = fmt.Sprintf("Payment %s verification failed: %s", txRef, result.Message)
	case "pending":
		newStatus = models.PaymentStatusPending
		message = fmt.Sprintf("Payment %s is still pending.", txRef)
	default:
		// An unrecognized gateway status must never be treated as success
		newStatus = models.PaymentStatusFailed
		message = fmt.Sprintf("Payment %s verification status unknown: %s", txRef, result.Message)
	}

	if err := updatePaymentStatus(db, &payment, newStatus, result.Raw); err != nil {
		utils.LogError("Failed to update payment %s: %v", txRef, err)
		utils.InternalServerError(c, "Failed to update payment status", err.Error())
		return
	}

	utils.LogInfo("%s", message)
	utils.BadRequest(c, message, nil)
}

// completePayment marks the payment COMPLETED and the booking paid as one
// unit. The status write is compare-and-set so a stale racing verification
// can never downgrade a terminal success.
func completePayment(db *gorm.DB, payment *models.Payment, raw json.RawMessage) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).
			Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusCompleted).
			Updates(map[string]interface{}{
				"status":           models.PaymentStatusCompleted,
				"gateway_response": raw,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).
			Where("id = ? AND is_paid = ?", payment.BookingID, false).
			Update("is_paid", true).Error; err != nil {
			return err
		}
		return nil
	})
}

// updatePaymentStatus persists a non-terminal verification outcome without
// ever overwriting a COMPLETED payment
func updatePaymentStatus(db *gorm.DB, payment *models.Payment, status models.PaymentStatus, raw json.RawMessage) error {
	return db.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusCompleted).
		Updates(map[string]interface{}{
			"status":           status,
			"gateway_response": raw,
		}).Error
}
