package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/services"
	"x402-marketplace/internal/x402"
)

type ListingHandler struct {
	marketplaceService *services.MarketplaceService
}

func NewListingHandler(marketplaceService *services.MarketplaceService) *ListingHandler {
	return &ListingHandler{marketplaceService: marketplaceService}
}

// CreateListing creates a listing. When the listing fee is enabled this is
// itself an x402 flow: no X-Payment header earns a 402 with the fee
// requirements.
// POST /api/listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req models.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload *x402.PaymentPayload
	paymentHeader := c.GetHeader(x402.PaymentHeader)

	if h.marketplaceService.ListingFeeRequired() {
		if paymentHeader == "" {
			c.Header(x402.PaymentRequiredHeader, "true")
			c.JSON(http.StatusPaymentRequired, h.marketplaceService.ListingFeeRequirements(&req))
			return
		}

		decoded, err := x402.DecodePaymentHeader(paymentHeader)
		if err != nil {
			respondError(c, err)
			return
		}
		payload = decoded
	}

	listing, err := h.marketplaceService.CreateListing(c.Request.Context(), &req, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"listing": listing,
		"message": "Listing created successfully",
	})
}

// GetListings returns listings with optional category/seller filters.
// GET /api/listings?category=...&seller_wallet=...
func (h *ListingHandler) GetListings(c *gin.Context) {
	category := models.ListingCategory(c.Query("category"))
	sellerWallet := c.Query("seller_wallet")

	listings, err := h.marketplaceService.ListListings(c.Request.Context(), category, sellerWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"total":    len(listings),
	})
}

// GetListing returns one listing.
// GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.marketplaceService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": listing,
	})
}

// UpdateListing applies a partial update, owner only.
// PATCH /api/listings/:id
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req models.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.marketplaceService.UpdateListing(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": listing,
		"message": "Listing updated successfully",
	})
}

// DeleteListing removes a listing, owner only.
// DELETE /api/listings/:id?seller_wallet=...
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	sellerWallet := c.Query("seller_wallet")
	if sellerWallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seller_wallet required"})
		return
	}

	if err := h.marketplaceService.DeleteListing(c.Request.Context(), c.Param("id"), sellerWallet); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing deleted successfully",
	})
}

// GetSellerStats aggregates a seller's marketplace activity.
// GET /api/sellers/:wallet/stats
func (h *ListingHandler) GetSellerStats(c *gin.Context) {
	stats, err := h.marketplaceService.SellerStats(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// GetOrders returns a seller's sales.
// GET /api/orders?seller_wallet=...
func (h *ListingHandler) GetOrders(c *gin.Context) {
	sellerWallet := c.Query("seller_wallet")
	if sellerWallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seller_wallet required"})
		return
	}

	orders, err := h.marketplaceService.SellerOrders(c.Request.Context(), sellerWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}
