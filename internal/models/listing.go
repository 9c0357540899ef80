package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListingCategory classifies what a listing sells
type ListingCategory string

const (
	CategorySignals  ListingCategory = "signals"
	CategoryResearch ListingCategory = "research"
	CategoryData     ListingCategory = "data"
	CategoryTools    ListingCategory = "tools"
	CategoryBots     ListingCategory = "bots"
	CategoryAPI      ListingCategory = "api"
)

var listingCategories = map[ListingCategory]bool{
	CategorySignals:  true,
	CategoryResearch: true,
	CategoryData:     true,
	CategoryTools:    true,
	CategoryBots:     true,
	CategoryAPI:      true,
}

// IsValid reports whether the category is one of the known listing categories
func (c ListingCategory) IsValid() bool {
	return listingCategories[c]
}

// Listing represents a digital product offered for sale
type Listing struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	Category         ListingCategory `gorm:"size:50;not null;index" json:"category"`
	Features         FeatureList     `gorm:"type:text" json:"features"`
	PriceUSD         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price_usd"`
	PaymentToken     PaymentToken    `gorm:"size:10;not null" json:"payment_token"`
	Seller           string          `gorm:"size:255;not null" json:"seller"`
	SellerWallet     string          `gorm:"size:255;not null;index" json:"seller_wallet"`
	TotalSales       int64           `gorm:"not null;default:0" json:"total_sales"`
	Verified         bool            `gorm:"not null;default:false" json:"verified"`
	AccessInfo       string          `gorm:"type:text" json:"-"`
	PaymentSignature *string         `gorm:"size:255" json:"payment_signature,omitempty"`
	CreatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate assigns the listing ID so SQLite and Postgres behave the same
func (l *Listing) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// CreateListingRequest is the payload for POST /api/listings
type CreateListingRequest struct {
	Title        string          `json:"title" binding:"required"`
	Description  string          `json:"description"`
	Category     ListingCategory `json:"category" binding:"required"`
	Features     []string        `json:"features" binding:"required,min=3"`
	PriceUSD     decimal.Decimal `json:"price_usd" binding:"required"`
	PaymentToken PaymentToken    `json:"payment_token" binding:"required"`
	Seller       string          `json:"seller" binding:"required"`
	SellerWallet string          `json:"seller_wallet" binding:"required"`
	AccessInfo   string          `json:"access_info"`
}

// UpdateListingRequest is the payload for PATCH /api/listings/:id.
// SellerWallet identifies the caller; only non-nil fields are applied.
type UpdateListingRequest struct {
	SellerWallet string           `json:"seller_wallet" binding:"required"`
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Category     *ListingCategory `json:"category"`
	Features     []string         `json:"features"`
	PriceUSD     *decimal.Decimal `json:"price_usd"`
	PaymentToken *PaymentToken    `json:"payment_token"`
	AccessInfo   *string          `json:"access_info"`
}

// SellerStats aggregates a seller's marketplace activity
type SellerStats struct {
	SellerWallet   string          `json:"seller_wallet"`
	TotalListings  int64           `json:"total_listings"`
	TotalSales     int64           `json:"total_sales"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	ActiveListings int64           `json:"active_listings"`
}
