package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStatus tracks the lifecycle of a purchase record
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase is the record created when a payment proof is accepted.
// The composite unique index backs the one-completed-purchase-per-buyer
// invariant; the service additionally serializes check-then-write.
type Purchase struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID            uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_purchases_listing_buyer" json:"listing_id"`
	BuyerWallet          string          `gorm:"size:255;not null;index;uniqueIndex:idx_purchases_listing_buyer" json:"buyer_wallet"`
	SellerWallet         string          `gorm:"size:255;not null;index" json:"seller_wallet"`
	AmountUSD            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_usd"`
	AmountToken          decimal.Decimal `gorm:"type:decimal(30,10);not null" json:"amount_token"`
	PaymentToken         PaymentToken    `gorm:"size:10;not null" json:"payment_token"`
	TransactionSignature string          `gorm:"size:255;not null" json:"transaction_signature"`
	Status               PurchaseStatus  `gorm:"size:20;not null;default:pending" json:"status"`
	AccessGranted        bool            `gorm:"not null;default:false" json:"access_granted"`
	AccessKey            string          `gorm:"size:255" json:"access_key"`
	AccessURL            string          `gorm:"type:text" json:"access_url"`
	PurchasedAt          time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"purchased_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchaseRequest is the payload for POST /api/purchases
type PurchaseRequest struct {
	ListingID   string `json:"listing_id"`
	BuyerWallet string `json:"buyer_wallet"`
}

// PurchaseWithListing pairs a purchase with the listing it bought
type PurchaseWithListing struct {
	Purchase
	Listing *Listing `json:"listing"`
}

// Order is a seller-side view of a completed purchase
type Order struct {
	PurchaseID   uuid.UUID       `json:"purchase_id"`
	ListingID    uuid.UUID       `json:"listing_id"`
	ListingTitle string          `json:"listing_title"`
	BuyerWallet  string          `json:"buyer_wallet"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
	AmountToken  decimal.Decimal `json:"amount_token"`
	PaymentToken PaymentToken    `json:"payment_token"`
	PurchasedAt  time.Time       `json:"purchased_at"`
}
