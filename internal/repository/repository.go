package repository

import (
	"context"
	"errors"

	"x402-marketplace/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateListing creates a new listing
func (r *Repository) CreateListing(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetListingByID retrieves a listing by ID
func (r *Repository) GetListingByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", listingID).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListListings retrieves listings, optionally filtered by category and/or
// seller wallet
func (r *Repository) ListListings(ctx context.Context, category models.ListingCategory, sellerWallet string) ([]*models.Listing, error) {
	var listings []*models.Listing
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	if sellerWallet != "" {
		query = query.Where("seller_wallet = ?", sellerWallet)
	}

	if err := query.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// SaveListing persists listing changes
func (r *Repository) SaveListing(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// DeleteListing removes a listing
func (r *Repository) DeleteListing(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Listing{}, "id = ?", listingID).Error
}

// FindCompletedPurchase returns the completed purchase for a
// (listing, buyer) pair, or nil when none exists
func (r *Repository) FindCompletedPurchase(ctx context.Context, listingID uuid.UUID, buyerWallet string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_wallet = ? AND status = ?",
			listingID, buyerWallet, models.PurchaseStatusCompleted).
		First(&purchase).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CreatePurchase writes the purchase and bumps the listing's sales counter in
// one transaction. The duplicate check is re-run inside the transaction so
// concurrent proofs for the same (listing, buyer) cannot both commit; the
// composite unique index on purchases is the final backstop.
func (r *Repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Purchase{}).
			Where("listing_id = ? AND buyer_wallet = ? AND status = ?",
				purchase.ListingID, purchase.BuyerWallet, models.PurchaseStatusCompleted).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Create(purchase).Error; err != nil {
			return err
		}

		return tx.Model(&models.Listing{}).
			Where("id = ?", purchase.ListingID).
			UpdateColumn("total_sales", gorm.Expr("total_sales + ?", 1)).Error
	})
}

// GetPurchasesByBuyer retrieves all purchases made by a buyer
func (r *Repository) GetPurchasesByBuyer(ctx context.Context, buyerWallet string) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	err := r.db.WithContext(ctx).
		Where("buyer_wallet = ?", buyerWallet).
		Order("purchased_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// GetPurchasesBySeller retrieves all sales received by a seller
func (r *Repository) GetPurchasesBySeller(ctx context.Context, sellerWallet string) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	err := r.db.WithContext(ctx).
		Where("seller_wallet = ?", sellerWallet).
		Order("purchased_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// activeSalesThreshold mirrors the dashboard's notion of an "active" listing
const activeSalesThreshold = 1000

// GetSellerStats aggregates listing and sales totals for a seller
func (r *Repository) GetSellerStats(ctx context.Context, sellerWallet string) (*models.SellerStats, error) {
	stats := &models.SellerStats{
		SellerWallet: sellerWallet,
		TotalRevenue: decimal.Zero,
	}

	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Listing{}).
		Where("seller_wallet = ?", sellerWallet).
		Count(&stats.TotalListings).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Listing{}).
		Where("seller_wallet = ? AND total_sales < ?", sellerWallet, activeSalesThreshold).
		Count(&stats.ActiveListings).Error; err != nil {
		return nil, err
	}

	sales, err := r.GetPurchasesBySeller(ctx, sellerWallet)
	if err != nil {
		return nil, err
	}
	stats.TotalSales = int64(len(sales))
	for _, sale := range sales {
		stats.TotalRevenue = stats.TotalRevenue.Add(sale.AmountUSD)
	}

	return stats, nil
}
