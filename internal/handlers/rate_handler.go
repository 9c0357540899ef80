package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/pricing"
	"x402-marketplace/internal/services"
)

type RateHandler struct {
	rateService *services.RateService // nil when live rates are disabled
}

func NewRateHandler(rateService *services.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// GetRates returns the USD exchange rate per supported payment token.
// GET /api/rates
func (h *RateHandler) GetRates(c *gin.Context) {
	var rates map[models.PaymentToken]decimal.Decimal
	if h.rateService != nil {
		rates = h.rateService.Snapshot()
	} else {
		rates = pricing.DefaultRates()
	}

	c.JSON(http.StatusOK, gin.H{
		"rates": rates,
	})
}
