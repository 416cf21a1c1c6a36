package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the local lifecycle of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment tracks one payment attempt against the gateway. At most one
// payment row exists per booking (unique index on BookingID); COMPLETED is
// terminal and a verification never downgrades it. Rows are never deleted,
// they are the audit trail.
type Payment struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	BookingID       uint            `json:"booking_id" gorm:"uniqueIndex;not null"`
	Booking         Booking         `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	TransactionRef  string          `json:"transaction_ref" gorm:"size:255;uniqueIndex"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(10,2)"`
	Currency        string          `json:"currency" gorm:"size:3;default:'ETB'"`
	Status          PaymentStatus   `json:"status" gorm:"size:20;default:'PENDING'"`
	CheckoutURL     string          `json:"checkout_url" gorm:"size:500"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
