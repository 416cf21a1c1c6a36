package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/controllers"
	"github.com/teshager21/gotravel/gateway"
	"github.com/teshager21/gotravel/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubGateway stands in for the Chapa client
type stubGateway struct {
	initResult   *gateway.InitializeResult
	initErr      error
	verifyResult *gateway.VerifyResult
	verifyErr    error
	initCalls    int
	verifyCalls  int
}

func (s *stubGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	s.initCalls++
	if s.initErr != nil {
		return nil, s.initErr
	}
	return s.initResult, nil
}

func (s *stubGateway) Verify(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResult, nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.MigrateModels(db))
	config.DB = db
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, amount string, paid bool) (models.User, models.Booking) {
	t.Helper()
	user := models.User{
		Email:     "guest@example.com",
		Password:  "not-used",
		FirstName: "Abel",
		LastName:  "Tesfaye",
	}
	require.NoError(t, db.Create(&user).Error)

	listing := models.Listing{
		Title:         "Lakeside Cottage",
		Location:      "Bahir Dar",
		PricePerNight: decimal.RequireFromString("250.00"),
		Currency:      "ETB",
		OwnerID:       user.ID,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&listing).Error)

	booking := models.Booking{
		BookingReference: "BK123",
		UserID:           user.ID,
		ListingID:        listing.ID,
		CheckIn:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		Amount:           decimal.RequireFromString(amount),
		Currency:         "ETB",
		IsPaid:           paid,
	}
	require.NoError(t, db.Create(&booking).Error)
	return user, booking
}

func newPaymentRouter(user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/user/payments/initiate", func(c *gin.Context) { c.Set("user", user) }, controllers.InitiatePayment)
	r.GET("/v1/payments/verify", controllers.VerifyPayment)
	r.POST("/v1/payments/verify", controllers.VerifyPayment)
	return r
}

type envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestInitiatePaymentCreatesPendingPayment(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)

	stub := &stubGateway{initResult: &gateway.InitializeResult{
		CheckoutURL: "https://pay/abc",
		Raw:         json.RawMessage(`{"status":"success","data":{"checkout_url":"https://pay/abc"}}`),
	}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")

	r := newPaymentRouter(user)
	w, env := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://pay/abc", env.Data["checkout_url"])
	txRef, _ := env.Data["transaction_reference"].(string)
	assert.Contains(t, txRef, "BK123-")

	var payment models.Payment
	require.NoError(t, db.Where("booking_id = ?", booking.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "https://pay/abc", payment.CheckoutURL)
	assert.Equal(t, txRef, payment.TransactionRef)
	assert.Equal(t, "500.00", payment.Amount.StringFixed(2))
	assert.NotEmpty(t, payment.GatewayResponse)
	assert.Equal(t, 1, stub.initCalls)
}

func TestInitiateTwiceProducesDistinctReferences(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)

	stub := &stubGateway{initResult: &gateway.InitializeResult{CheckoutURL: "https://pay/abc"}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w1, env1 := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})
	require.Equal(t, http.StatusOK, w1.Code)
	time.Sleep(5 * time.Millisecond) // sub-second precision separates the refs
	w2, env2 := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})
	require.Equal(t, http.StatusOK, w2.Code)

	ref1 := env1.Data["transaction_reference"].(string)
	ref2 := env2.Data["transaction_reference"].(string)
	assert.NotEqual(t, ref1, ref2)

	// the repeat explicitly names the reference it replaced
	assert.NotContains(t, env1.Data, "superseded_reference")
	assert.Equal(t, ref1, env2.Data["superseded_reference"])
	assert.Contains(t, env2.Message, "superseded")

	// one payment row per booking, refreshed with the latest attempt
	var count int64
	db.Model(&models.Payment{}).Where("booking_id = ?", booking.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var payment models.Payment
	require.NoError(t, db.Where("booking_id = ?", booking.ID).First(&payment).Error)
	assert.Equal(t, ref2, payment.TransactionRef)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestInitiateAlreadyPaidNeverCallsGateway(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", true)

	stub := &stubGateway{}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Booking is already paid", env.Message)
	assert.Equal(t, 0, stub.initCalls)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestInitiateBookingNotOwned(t *testing.T) {
	db := setupDB(t)
	_, booking := seedBooking(t, db, "500.00", false)

	other := models.User{Email: "other@example.com", Password: "not-used"}
	require.NoError(t, db.Create(&other).Error)

	stub := &stubGateway{}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(other)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, stub.initCalls)
}

func TestInitiateGatewayRejectedPersistsNothing(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)

	stub := &stubGateway{initErr: &gateway.RejectedError{Message: "Invalid currency"}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Payment initialization failed", env.Message)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestInitiateGatewayUnreachablePersistsNothing(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)

	stub := &stubGateway{initErr: &gateway.UnreachableError{Op: "initialize", TxRef: "x"}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/user/payments/initiate", gin.H{"booking_id": booking.ID})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func seedPendingPayment(t *testing.T, db *gorm.DB, booking models.Booking, txRef string) models.Payment {
	t.Helper()
	payment := models.Payment{
		BookingID:      booking.ID,
		TransactionRef: txRef,
		Amount:         booking.Amount,
		Currency:       booking.Currency,
		Status:         models.PaymentStatusPending,
		CheckoutURL:    "https://pay/abc",
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func TestVerifyMissingReference(t *testing.T) {
	setupDB(t)

	stub := &stubGateway{}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(models.User{})

	w, env := doJSON(t, r, http.MethodGet, "/v1/payments/verify", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transaction reference (tx_ref) is required", env.Message)
	assert.Equal(t, 0, stub.verifyCalls)
}

func TestVerifyUnknownReference(t *testing.T) {
	setupDB(t)

	stub := &stubGateway{}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(models.User{})

	w, _ := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, stub.verifyCalls)
}

func TestVerifySuccessCompletesPaymentAndBooking(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")

	stub := &stubGateway{verifyResult: &gateway.VerifyResult{
		Status:      "success",
		InnerStatus: "success",
		Raw:         json.RawMessage(`{"status":"success","data":{"status":"success"}}`),
	}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=BK123-1700000000.123", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, env.Message, "verified successfully")

	var gotPayment models.Payment
	require.NoError(t, db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, gotPayment.Status)
	assert.NotEmpty(t, gotPayment.GatewayResponse)

	var gotBooking models.Booking
	require.NoError(t, db.First(&gotBooking, booking.ID).Error)
	assert.True(t, gotBooking.IsPaid)
}

func TestVerifyAlreadyCompletedIsNoOp(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", true)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")
	require.NoError(t, db.Model(&payment).Update("status", models.PaymentStatusCompleted).Error)

	var before models.Payment
	require.NoError(t, db.First(&before, payment.ID).Error)

	stub := &stubGateway{}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{"tx_ref": "BK123-1700000000.123"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, env.Message, "already completed")
	assert.Equal(t, 0, stub.verifyCalls)

	var after models.Payment
	require.NoError(t, db.First(&after, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, after.Status)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))

	var gotBooking models.Booking
	require.NoError(t, db.First(&gotBooking, booking.ID).Error)
	assert.True(t, gotBooking.IsPaid)
}

func TestVerifyFailedStatus(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")

	stub := &stubGateway{verifyResult: &gateway.VerifyResult{
		Status:      "failed",
		InnerStatus: "failed",
		Message:     "Insufficient funds",
		Raw:         json.RawMessage(`{"status":"failed","message":"Insufficient funds","data":{"status":"failed"}}`),
	}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=BK123-1700000000.123", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "Insufficient funds")

	var gotPayment models.Payment
	require.NoError(t, db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, gotPayment.Status)

	var gotBooking models.Booking
	require.NoError(t, db.First(&gotBooking, booking.ID).Error)
	assert.False(t, gotBooking.IsPaid)
}

func TestVerifyPendingStaysPending(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")

	stub := &stubGateway{verifyResult: &gateway.VerifyResult{
		Status:      "success",
		InnerStatus: "pending",
		Raw:         json.RawMessage(`{"status":"success","data":{"status":"pending"}}`),
	}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, env := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=BK123-1700000000.123", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "still pending")

	var gotPayment models.Payment
	require.NoError(t, db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, gotPayment.Status)
}

func TestVerifyUnknownStatusDefaultsToFailed(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")

	stub := &stubGateway{verifyResult: &gateway.VerifyResult{
		Status:      "success",
		InnerStatus: "weird",
		Raw:         json.RawMessage(`{"status":"success","data":{"status":"weird"}}`),
	}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, _ := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=BK123-1700000000.123", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var gotPayment models.Payment
	require.NoError(t, db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, gotPayment.Status)
	assert.NotEqual(t, models.PaymentStatusCompleted, gotPayment.Status)

	var gotBooking models.Booking
	require.NoError(t, db.First(&gotBooking, booking.ID).Error)
	assert.False(t, gotBooking.IsPaid)
}

func TestVerifyGatewayUnreachableLeavesRecordUntouched(t *testing.T) {
	db := setupDB(t)
	user, booking := seedBooking(t, db, "500.00", false)
	payment := seedPendingPayment(t, db, booking, "BK123-1700000000.123")

	stub := &stubGateway{verifyErr: &gateway.UnreachableError{Op: "verify", TxRef: "BK123-1700000000.123"}}
	controllers.InitPaymentModule(stub, "http://localhost:8080")
	r := newPaymentRouter(user)

	w, _ := doJSON(t, r, http.MethodGet, "/v1/payments/verify?tx_ref=BK123-1700000000.123", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var gotPayment models.Payment
	require.NoError(t, db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, gotPayment.Status)

	var gotBooking models.Booking
	require.NoError(t, db.First(&gotBooking, booking.ID).Error)
	assert.False(t, gotBooking.IsPaid)
}

func TestTransactionRefEmbedsBookingReference(t *testing.T) {
	ref1 := controllers.NewTransactionRef("BK123")
	time.Sleep(2 * time.Millisecond)
	ref2 := controllers.NewTransactionRef("BK123")

	assert.Contains(t, ref1, "BK123-")
	assert.NotEqual(t, ref1, ref2)
}
