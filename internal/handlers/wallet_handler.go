package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"x402-marketplace/internal/blockchain"
	"x402-marketplace/internal/models"
)

type WalletHandler struct {
	solanaClient *blockchain.SolanaClient
}

func NewWalletHandler(solanaClient *blockchain.SolanaClient) *WalletHandler {
	return &WalletHandler{solanaClient: solanaClient}
}

// GetBalance returns a wallet's SOL balance, or its balance for a specific
// payment token when ?token= is given.
// GET /api/wallet/:address/balance?token=USDC
func (h *WalletHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if !h.solanaClient.ValidateWalletAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	token := models.PaymentToken(c.DefaultQuery("token", string(models.TokenSOL)))
	tokenConfig, ok := token.Config()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown token"})
		return
	}

	if token == models.TokenSOL {
		balance, err := h.solanaClient.GetSOLBalance(c.Request.Context(), address)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"address": address,
			"token":   token,
			"balance": balance,
		})
		return
	}

	raw, err := h.solanaClient.GetTokenAccountBalance(c.Request.Context(), address, tokenConfig.Mint)
	if err != nil {
		respondError(c, err)
		return
	}

	balance := decimal.NewFromInt(int64(raw)).Shift(-tokenConfig.Decimals)
	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"token":   token,
		"balance": balance,
	})
}
