package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/repository"
	"x402-marketplace/internal/services"
	"x402-marketplace/internal/x402"
)

var handlerTestDBCounter int64

func setupPurchaseRouter(t *testing.T, verifier services.PaymentVerifier) (*gin.Engine, *models.Listing) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared",
		atomic.AddInt64(&handlerTestDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Listing{}, &models.Purchase{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	listing := &models.Listing{
		Title:        "Arb Bot License",
		Category:     models.CategoryBots,
		Features:     models.FeatureList{"dex arbitrage", "auto rebalance", "support"},
		PriceUSD:     decimal.NewFromInt(5),
		PaymentToken: models.TokenUSDC,
		Seller:       "botshop",
		SellerWallet: "SeLLerWaLLet1111111111111111111111111111111",
		AccessInfo:   "https://example.com/download",
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}

	repo := repository.NewRepository(db)
	service := services.NewPurchaseService(repo, verifier, nil, "devnet")
	handler := NewPurchaseHandler(service)

	router := gin.New()
	router.POST("/api/purchases", handler.CreatePurchase)
	router.GET("/api/purchases", handler.GetPurchases)
	return router, listing
}

type allowAllVerifier struct{}

func (allowAllVerifier) VerifyPayment(context.Context, string, string, string, uint64) error {
	return nil
}

func purchaseBody(t *testing.T, listingID, buyer string) *bytes.Buffer {
	body, err := json.Marshal(models.PurchaseRequest{ListingID: listingID, BuyerWallet: buyer})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func validPaymentHeader(t *testing.T) string {
	header, err := x402.EncodePaymentHeader(&x402.PaymentPayload{
		Scheme:      x402.SchemeSolanaTransfer,
		Network:     "devnet",
		Signature:   base58.Encode(bytes.Repeat([]byte{3}, 64)),
		Transaction: "serialized-tx",
		Timestamp:   1700000000000,
	})
	if err != nil {
		t.Fatalf("failed to encode payment header: %v", err)
	}
	return header
}

func TestCreatePurchaseWithoutProofReturns402(t *testing.T) {
	router, listing := setupPurchaseRouter(t, allowAllVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/purchases",
		purchaseBody(t, listing.ID.String(), "BuyerWaLLet11111111111111111111111111111111"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(x402.PaymentRequiredHeader) != "true" {
		t.Error("expected X-Payment-Required: true header")
	}

	var required x402.PaymentRequired
	if err := json.Unmarshal(w.Body.Bytes(), &required); err != nil {
		t.Fatalf("402 body is not payment requirements: %v", err)
	}
	if len(required.PaymentRequirements) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(required.PaymentRequirements))
	}
	if required.PaymentRequirements[0].PayTo != listing.SellerWallet {
		t.Errorf("payTo must be the seller wallet, got %s", required.PaymentRequirements[0].PayTo)
	}
}

func TestCreatePurchaseWithProofSettles(t *testing.T) {
	router, listing := setupPurchaseRouter(t, allowAllVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/purchases",
		purchaseBody(t, listing.ID.String(), "BuyerWaLLet11111111111111111111111111111111"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(x402.PaymentHeader, validPaymentHeader(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	settlementHeader := w.Header().Get(x402.PaymentResponseHeader)
	if settlementHeader == "" {
		t.Fatal("expected X-Payment-Response header")
	}
	settlement, err := x402.DecodeSettlementHeader(settlementHeader)
	if err != nil {
		t.Fatalf("failed to decode settlement header: %v", err)
	}
	if settlement.Status != "settled" {
		t.Errorf("expected settled, got %s", settlement.Status)
	}

	var resp struct {
		Success  bool             `json:"success"`
		Purchase *models.Purchase `json:"purchase"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Purchase == nil {
		t.Fatalf("unexpected response body: %s", w.Body.String())
	}
	if resp.Purchase.AccessKey == "" {
		t.Error("expected access key in purchase response")
	}
}

func TestCreatePurchaseMalformedProofIs400Not402(t *testing.T) {
	router, listing := setupPurchaseRouter(t, allowAllVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/purchases",
		purchaseBody(t, listing.ID.String(), "BuyerWaLLet11111111111111111111111111111111"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(x402.PaymentHeader, "%%% not base64 %%%")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed proof, got %d", w.Code)
	}
	if w.Header().Get(x402.PaymentRequiredHeader) != "" {
		t.Error("malformed proof must not re-trigger the 402 challenge")
	}
}

func TestCreatePurchaseDuplicateIs400(t *testing.T) {
	router, listing := setupPurchaseRouter(t, allowAllVerifier{})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/purchases",
			purchaseBody(t, listing.ID.String(), "BuyerWaLLet11111111111111111111111111111111"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(x402.PaymentHeader, validPaymentHeader(t))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if i == 0 && w.Code != http.StatusOK {
			t.Fatalf("first purchase expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if i == 1 && w.Code != http.StatusBadRequest {
			t.Fatalf("duplicate purchase expected 400, got %d: %s", w.Code, w.Body.String())
		}
	}
}

func TestCreatePurchaseUnknownListingIs404(t *testing.T) {
	router, _ := setupPurchaseRouter(t, allowAllVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/purchases",
		purchaseBody(t, "3f6f3a52-8a7a-4a8e-9a6e-000000000000", "BuyerWaLLet11111111111111111111111111111111"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetPurchasesRequiresBuyerWallet(t *testing.T) {
	router, _ := setupPurchaseRouter(t, allowAllVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without buyer_wallet, got %d", w.Code)
	}
}
