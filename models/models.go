package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a regular user in the system
type User struct {
	gorm.Model
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `json:"-"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	IsBlocked   bool      `json:"is_blocked"`
	IsAdmin     bool      `json:"is_admin" gorm:"default:false"`
	LastLoginAt time.Time `json:"last_login_at"`
	GoogleID    string    `gorm:"default:null" json:"google_id"`

	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:UserID"`
}

// Listing represents a property available for booking
type Listing struct {
	gorm.Model
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PricePerNight decimal.Decimal `json:"price_per_night" gorm:"type:numeric(10,2)"`
	Currency      string          `json:"currency" gorm:"size:3;default:'ETB'"`
	OwnerID       uint            `json:"owner_id"`
	Owner         User            `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	Reviews       []Review        `json:"reviews,omitempty" gorm:"foreignKey:ListingID"`
	AverageRating float64         `json:"average_rating" gorm:"default:0"`
	TotalReviews  int             `json:"total_reviews" gorm:"default:0"`
}

// Review represents a guest review on a listing, one per user per listing
type Review struct {
	gorm.Model
	ListingID uint   `json:"listing_id" gorm:"uniqueIndex:idx_listing_user"`
	UserID    uint   `json:"user_id" gorm:"uniqueIndex:idx_listing_user"`
	User      User   `json:"user" gorm:"foreignKey:UserID"`
	Rating    int    `json:"rating" gorm:"check:rating >= 1 AND rating <= 5"`
	Comment   string `json:"comment"`
}
