package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/pricing"
	"x402-marketplace/internal/repository"
	"x402-marketplace/internal/utils"
	"x402-marketplace/internal/x402"
)

// PaymentVerifier checks a claimed payment against the chain. expectedAmount
// is in the token's smallest unit; an empty mint means native SOL.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, signature, recipient, mint string, expectedAmount uint64) error
}

// RateSource supplies live exchange rates; the static table is used when it
// declines
type RateSource interface {
	Rate(token models.PaymentToken) (decimal.Decimal, bool)
}

// purchaseResource is the resource path advertised in payment requirements
const purchaseResource = "/api/purchases"

// PurchaseService implements the two-phase x402 purchase flow
type PurchaseService struct {
	repo     *repository.Repository
	verifier PaymentVerifier // nil disables on-chain verification
	rates    RateSource      // nil pins conversion to the static table
	network  string

	// purchaseMux serializes the duplicate check and the purchase write so
	// two simultaneous proofs can't both pass the check
	purchaseMux sync.Mutex
}

func NewPurchaseService(repo *repository.Repository, verifier PaymentVerifier, rates RateSource, network string) *PurchaseService {
	return &PurchaseService{
		repo:     repo,
		verifier: verifier,
		rates:    rates,
		network:  network,
	}
}

// tokenRate returns the live rate when available, the static rate otherwise
func (s *PurchaseService) tokenRate(token models.PaymentToken) (decimal.Decimal, error) {
	if s.rates != nil {
		if rate, ok := s.rates.Rate(token); ok {
			return rate, nil
		}
	}
	return pricing.ExchangeRate(token)
}

// quote computes the token amount and smallest-unit amount for a listing
func (s *PurchaseService) quote(listing *models.Listing) (decimal.Decimal, uint64, models.TokenConfig, error) {
	tokenConfig, ok := listing.PaymentToken.Config()
	if !ok {
		return decimal.Zero, 0, models.TokenConfig{}, fmt.Errorf("%w: unknown payment token %q", ErrValidation, listing.PaymentToken)
	}

	rate, err := s.tokenRate(listing.PaymentToken)
	if err != nil {
		return decimal.Zero, 0, models.TokenConfig{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tokenAmount := pricing.USDToTokenAt(listing.PriceUSD, rate, listing.PaymentToken)
	baseUnits, err := strconv.ParseUint(pricing.BaseUnits(tokenAmount, tokenConfig.Decimals), 10, 64)
	if err != nil {
		return decimal.Zero, 0, models.TokenConfig{}, fmt.Errorf("token amount overflows base units: %w", err)
	}

	return tokenAmount, baseUnits, tokenConfig, nil
}

// PaymentRequirementsFor builds the 402 response body for a listing. It is
// idempotent and has no side effects.
func (s *PurchaseService) PaymentRequirementsFor(ctx context.Context, listingID string) (*x402.PaymentRequired, error) {
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	_, baseUnits, tokenConfig, err := s.quote(listing)
	if err != nil {
		return nil, err
	}

	return &x402.PaymentRequired{
		PaymentRequirements: []x402.PaymentRequirement{
			{
				Scheme:  x402.SchemeSolanaTransfer,
				Network: s.network,
				Price: x402.Price{
					Amount: strconv.FormatUint(baseUnits, 10),
					Asset: x402.Asset{
						Address:  tokenConfig.Mint,
						Decimals: tokenConfig.Decimals,
						Symbol:   string(listing.PaymentToken),
					},
				},
				PayTo:             listing.SellerWallet,
				MaxTimeoutSeconds: x402.MaxTimeoutSeconds,
				Config: x402.RequirementConfig{
					Description: fmt.Sprintf("Marketplace: %s", listing.Title),
					Resource:    purchaseResource,
					Metadata: map[string]interface{}{
						"listingId": listing.ID.String(),
						"priceUSD":  listing.PriceUSD,
						"seller":    listing.Seller,
					},
				},
			},
		},
	}, nil
}

// SubmitPurchase completes the flow once a payment proof arrives: validates
// the request, verifies the payment on-chain, and records exactly one
// completed purchase.
func (s *PurchaseService) SubmitPurchase(ctx context.Context, req *models.PurchaseRequest, payload *x402.PaymentPayload) (*models.Purchase, *x402.Settlement, error) {
	if req.ListingID == "" || req.BuyerWallet == "" {
		return nil, nil, fmt.Errorf("%w: listing_id and buyer_wallet required", ErrValidation)
	}

	listing, err := s.findListing(ctx, req.ListingID)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.repo.FindCompletedPurchase(ctx, listing.ID, req.BuyerWallet)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrDuplicatePurchase
	}

	tokenAmount, baseUnits, tokenConfig, err := s.quote(listing)
	if err != nil {
		return nil, nil, err
	}

	// Network I/O stays outside the critical section.
	if s.verifier != nil {
		if err := s.verifier.VerifyPayment(ctx, payload.Signature, listing.SellerWallet, tokenConfig.Mint, baseUnits); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrPaymentVerification, err)
		}
	}

	accessKey, err := utils.GenerateAccessKey()
	if err != nil {
		return nil, nil, err
	}

	accessURL := listing.AccessInfo
	if accessURL == "" {
		accessURL = "Contact seller for access"
	}

	purchase := &models.Purchase{
		ListingID:            listing.ID,
		BuyerWallet:          req.BuyerWallet,
		SellerWallet:         listing.SellerWallet,
		AmountUSD:            listing.PriceUSD,
		AmountToken:          tokenAmount,
		PaymentToken:         listing.PaymentToken,
		TransactionSignature: payload.Signature,
		Status:               models.PurchaseStatusCompleted,
		AccessGranted:        true,
		AccessKey:            accessKey,
		AccessURL:            accessURL,
		PurchasedAt:          time.Now(),
	}

	s.purchaseMux.Lock()
	err = s.repo.CreatePurchase(ctx, purchase)
	s.purchaseMux.Unlock()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, nil, ErrDuplicatePurchase
	}
	if err != nil {
		return nil, nil, err
	}

	settlement := &x402.Settlement{
		Status:        "settled",
		TransactionID: payload.Signature,
		Timestamp:     time.Now().UnixMilli(),
		Amount:        tokenAmount.String(),
		Token:         string(listing.PaymentToken),
		Resource:      purchaseResource,
		Metadata: map[string]interface{}{
			"accessKey":    purchase.AccessKey,
			"listingTitle": listing.Title,
		},
	}

	return purchase, settlement, nil
}

// BuyerPurchases returns a buyer's purchases enriched with their listings
func (s *PurchaseService) BuyerPurchases(ctx context.Context, buyerWallet string) ([]models.PurchaseWithListing, error) {
	purchases, err := s.repo.GetPurchasesByBuyer(ctx, buyerWallet)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.PurchaseWithListing, 0, len(purchases))
	for _, purchase := range purchases {
		entry := models.PurchaseWithListing{Purchase: *purchase}
		if listing, err := s.repo.GetListingByID(ctx, purchase.ListingID); err == nil {
			entry.Listing = listing
		}
		enriched = append(enriched, entry)
	}
	return enriched, nil
}

func (s *PurchaseService) findListing(ctx context.Context, listingID string) (*models.Listing, error) {
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
