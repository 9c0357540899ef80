package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"x402-marketplace/internal/blockchain"
	"x402-marketplace/internal/services"
	"x402-marketplace/internal/x402"
)

// respondError translates the service error taxonomy into HTTP statuses.
// Transport-level details are logged but never echoed to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, blockchain.ErrTransport):
		log.Printf("[API] Blockchain RPC failure on %s: %v", c.FullPath(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment verification temporarily unavailable - please try again"})
	case errors.Is(err, services.ErrPaymentVerification):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment verification failed"})
	case errors.Is(err, services.ErrDuplicatePurchase):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You already purchased this product"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized - you can only modify your own listings"})
	case errors.Is(err, services.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, x402.ErrMalformedHeader),
		errors.Is(err, x402.ErrMissingFields),
		errors.Is(err, x402.ErrBadSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] Unexpected error on %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
