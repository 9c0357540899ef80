package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/repository"
	"x402-marketplace/internal/x402"
)

// AddressValidator checks wallet address format before a listing is accepted
type AddressValidator interface {
	ValidateWalletAddress(address string) bool
}

// ListingFeePolicy configures whether creating a listing is itself
// payment-gated, collapsing the fee/no-fee endpoint variants into one flow
type ListingFeePolicy struct {
	Enabled     bool
	FeeLamports uint64
	FeeWallet   string
}

// MarketplaceService owns listing CRUD and seller-side views
type MarketplaceService struct {
	repo      *repository.Repository
	verifier  PaymentVerifier
	validator AddressValidator
	network   string
	feePolicy ListingFeePolicy
}

func NewMarketplaceService(
	repo *repository.Repository,
	verifier PaymentVerifier,
	validator AddressValidator,
	network string,
	feePolicy ListingFeePolicy,
) *MarketplaceService {
	return &MarketplaceService{
		repo:      repo,
		verifier:  verifier,
		validator: validator,
		network:   network,
		feePolicy: feePolicy,
	}
}

// ListingFeeRequired reports whether POST /api/listings is payment-gated
func (s *MarketplaceService) ListingFeeRequired() bool {
	return s.feePolicy.Enabled
}

// ListingFeeRequirements builds the 402 body for the listing-creation fee.
// The fee is always charged in native SOL to the platform fee wallet.
func (s *MarketplaceService) ListingFeeRequirements(req *models.CreateListingRequest) *x402.PaymentRequired {
	solConfig := models.TokenConfigs[models.TokenSOL]

	return &x402.PaymentRequired{
		PaymentRequirements: []x402.PaymentRequirement{
			{
				Scheme:  x402.SchemeSolanaTransfer,
				Network: s.network,
				Price: x402.Price{
					Amount: fmt.Sprintf("%d", s.feePolicy.FeeLamports),
					Asset: x402.Asset{
						Address:  solConfig.Mint,
						Decimals: solConfig.Decimals,
						Symbol:   string(models.TokenSOL),
					},
				},
				PayTo:             s.feePolicy.FeeWallet,
				MaxTimeoutSeconds: x402.MaxTimeoutSeconds,
				Config: x402.RequirementConfig{
					Description: "Marketplace listing fee",
					Resource:    "/api/listings",
					Metadata: map[string]interface{}{
						"listingTitle": req.Title,
						"category":     string(req.Category),
					},
				},
			},
		},
	}
}

// CreateListing validates and stores a new listing. When the listing fee is
// enabled, payload carries the fee payment proof and is verified before the
// listing is created.
func (s *MarketplaceService) CreateListing(ctx context.Context, req *models.CreateListingRequest, payload *x402.PaymentPayload) (*models.Listing, error) {
	if !req.Category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}
	if !req.PaymentToken.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment token %q", ErrValidation, req.PaymentToken)
	}
	if !req.PriceUSD.IsPositive() {
		return nil, fmt.Errorf("%w: price_usd must be positive", ErrValidation)
	}
	if len(req.Features) < 3 {
		return nil, fmt.Errorf("%w: at least 3 features required", ErrValidation)
	}
	if s.validator != nil && !s.validator.ValidateWalletAddress(req.SellerWallet) {
		return nil, fmt.Errorf("%w: invalid seller wallet address", ErrValidation)
	}

	listing := &models.Listing{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Features:     req.Features,
		PriceUSD:     req.PriceUSD,
		PaymentToken: req.PaymentToken,
		Seller:       req.Seller,
		SellerWallet: req.SellerWallet,
		AccessInfo:   req.AccessInfo,
	}

	if s.feePolicy.Enabled {
		if payload == nil {
			return nil, fmt.Errorf("%w: listing fee payment proof required", ErrValidation)
		}
		if s.verifier != nil {
			if err := s.verifier.VerifyPayment(ctx, payload.Signature, s.feePolicy.FeeWallet, "", s.feePolicy.FeeLamports); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrPaymentVerification, err)
			}
		}
		listing.PaymentSignature = &payload.Signature
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// GetListing fetches a single listing by its string ID
func (s *MarketplaceService) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing id", ErrValidation)
	}

	listing, err := s.repo.GetListingByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ListListings returns listings filtered by category and/or seller wallet
func (s *MarketplaceService) ListListings(ctx context.Context, category models.ListingCategory, sellerWallet string) ([]*models.Listing, error) {
	if category != "" && category != "all" && !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	return s.repo.ListListings(ctx, category, sellerWallet)
}

// UpdateListing applies a partial update after confirming the caller owns
// the listing
func (s *MarketplaceService) UpdateListing(ctx context.Context, listingID string, req *models.UpdateListingRequest) (*models.Listing, error) {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerWallet != req.SellerWallet {
		return nil, ErrUnauthorized
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Category != nil {
		if !req.Category.IsValid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *req.Category)
		}
		listing.Category = *req.Category
	}
	if req.Features != nil {
		if len(req.Features) < 3 {
			return nil, fmt.Errorf("%w: at least 3 features required", ErrValidation)
		}
		listing.Features = req.Features
	}
	if req.PriceUSD != nil {
		if !req.PriceUSD.IsPositive() {
			return nil, fmt.Errorf("%w: price_usd must be positive", ErrValidation)
		}
		listing.PriceUSD = *req.PriceUSD
	}
	if req.PaymentToken != nil {
		if !req.PaymentToken.IsValid() {
			return nil, fmt.Errorf("%w: unknown payment token %q", ErrValidation, *req.PaymentToken)
		}
		listing.PaymentToken = *req.PaymentToken
	}
	if req.AccessInfo != nil {
		listing.AccessInfo = *req.AccessInfo
	}
	listing.UpdatedAt = time.Now()

	if err := s.repo.SaveListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteListing removes a listing after confirming ownership
func (s *MarketplaceService) DeleteListing(ctx context.Context, listingID, sellerWallet string) error {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	if listing.SellerWallet != sellerWallet {
		return ErrUnauthorized
	}

	return s.repo.DeleteListing(ctx, listing.ID)
}

// SellerStats aggregates a seller's marketplace activity
func (s *MarketplaceService) SellerStats(ctx context.Context, sellerWallet string) (*models.SellerStats, error) {
	return s.repo.GetSellerStats(ctx, sellerWallet)
}

// SellerOrders returns a seller's sales enriched with listing titles
func (s *MarketplaceService) SellerOrders(ctx context.Context, sellerWallet string) ([]models.Order, error) {
	sales, err := s.repo.GetPurchasesBySeller(ctx, sellerWallet)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(sales))
	for _, sale := range sales {
		order := models.Order{
			PurchaseID:   sale.ID,
			ListingID:    sale.ListingID,
			BuyerWallet:  sale.BuyerWallet,
			AmountUSD:    sale.AmountUSD,
			AmountToken:  sale.AmountToken,
			PaymentToken: sale.PaymentToken,
			PurchasedAt:  sale.PurchasedAt,
		}
		if listing, err := s.repo.GetListingByID(ctx, sale.ListingID); err == nil {
			order.ListingTitle = listing.Title
		}
		orders = append(orders, order)
	}
	return orders, nil
}
