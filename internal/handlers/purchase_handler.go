package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/services"
	"x402-marketplace/internal/x402"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// CreatePurchase implements the x402 purchase flow.
// POST /api/purchases
//
// Without an X-Payment header the response is 402 with the payment
// requirements for the listing. With one, the proof is validated and
// verified, and exactly one completed purchase is recorded.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentHeader := c.GetHeader(x402.PaymentHeader)

	// Phase 1: no proof yet, answer with payment requirements
	if paymentHeader == "" {
		if req.ListingID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "listing_id required in request body"})
			return
		}

		requirements, err := h.purchaseService.PaymentRequirementsFor(c.Request.Context(), req.ListingID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header(x402.PaymentRequiredHeader, "true")
		c.JSON(http.StatusPaymentRequired, requirements)
		return
	}

	// Phase 2: proof submitted. Malformed proofs are a 400, never a second
	// 402 - the payment was attempted, not absent.
	payload, err := x402.DecodePaymentHeader(paymentHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	purchase, settlement, err := h.purchaseService.SubmitPurchase(c.Request.Context(), &req, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	settlementHeader, err := x402.EncodeSettlementHeader(settlement)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(x402.PaymentResponseHeader, settlementHeader)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"purchase": purchase,
		"message":  "Purchase completed successfully",
	})
}

// GetPurchases returns a buyer's purchases with their listings.
// GET /api/purchases?buyer_wallet=...
func (h *PurchaseHandler) GetPurchases(c *gin.Context) {
	buyerWallet := c.Query("buyer_wallet")
	if buyerWallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buyer_wallet required"})
		return
	}

	purchases, err := h.purchaseService.BuyerPurchases(c.Request.Context(), buyerWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"total":     len(purchases),
	})
}
