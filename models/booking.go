package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking represents a reservation request for a listing. A booking is
// immutable once created except for the paid flag, which flips false->true
// exactly once when a matching payment completes.
type Booking struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	BookingReference string          `json:"booking_reference" gorm:"size:100;uniqueIndex;not null"`
	UserID           uint            `json:"user_id"`
	User             User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ListingID        uint            `json:"listing_id"`
	Listing          Listing         `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	CheckIn          time.Time       `json:"check_in"`
	CheckOut         time.Time       `json:"check_out"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(10,2)"`
	Currency         string          `json:"currency" gorm:"size:3;default:'ETB'"`
	IsPaid           bool            `json:"is_paid" gorm:"default:false"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Payment *Payment `json:"payment,omitempty" gorm:"foreignKey:BookingID"`
}

// Nights returns the length of stay used to price the booking
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}
