package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"x402-marketplace/internal/models"
)

func TestUSDToTokenStablecoin(t *testing.T) {
	// $5.00 in USDC must be exactly 5.00 USDC, no rounding drift
	amount, err := USDToToken(decimal.NewFromInt(5), models.TokenUSDC)
	if err != nil {
		t.Fatalf("USDToToken failed: %v", err)
	}
	if amount.StringFixed(2) != "5.00" {
		t.Errorf("expected 5.00 USDC, got %s", amount)
	}
}

func TestUSDToTokenSOL(t *testing.T) {
	// $5.00 at 180.50 USD/SOL is 0.0277008..., rounded up to 5 decimals
	amount, err := USDToToken(decimal.NewFromInt(5), models.TokenSOL)
	if err != nil {
		t.Fatalf("USDToToken failed: %v", err)
	}
	if amount.StringFixed(5) != "0.02771" {
		t.Errorf("expected 0.02771 SOL, got %s", amount)
	}
}

func TestUSDToTokenBONKWholeUnits(t *testing.T) {
	amount, err := USDToToken(decimal.NewFromInt(5), models.TokenBONK)
	if err != nil {
		t.Fatalf("USDToToken failed: %v", err)
	}
	if amount.StringFixed(0) != "250000" {
		t.Errorf("expected 250000 BONK, got %s", amount)
	}
}

func TestUSDToTokenUnknownToken(t *testing.T) {
	_, err := USDToToken(decimal.NewFromInt(5), models.PaymentToken("DOGE"))
	if !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken, got %v", err)
	}
}

func TestCeilingRoundingNeverUnderpays(t *testing.T) {
	// Converting USD to a token and back must never come out below the
	// original price, for every supported token.
	prices := []string{"0.01", "0.99", "5.00", "19.99", "250.00", "1234.56"}

	for token := range defaultRates {
		for _, price := range prices {
			usd, err := decimal.NewFromString(price)
			if err != nil {
				t.Fatalf("bad test price %s: %v", price, err)
			}

			tokenAmount, err := USDToToken(usd, token)
			if err != nil {
				t.Fatalf("USDToToken(%s, %s) failed: %v", price, token, err)
			}

			back, err := TokenToUSD(tokenAmount, token)
			if err != nil {
				t.Fatalf("TokenToUSD(%s, %s) failed: %v", tokenAmount, token, err)
			}

			if back.LessThan(usd) {
				t.Errorf("%s %s: $%s converted to %s and back to $%s, seller underpaid",
					token, price, usd, tokenAmount, back)
			}
		}
	}
}

func TestBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int32
		want     string
	}{
		{"0.02771", 9, "27710000"},
		{"5.00", 6, "5000000"},
		{"250000", 5, "25000000000"},
		{"1", 9, "1000000000"},
		{"0.000000001", 9, "1"},
		{"0.0000000001", 9, "0"}, // dust below one unit truncates
	}

	for _, tt := range tests {
		amount, err := decimal.NewFromString(tt.amount)
		if err != nil {
			t.Fatalf("bad test amount %s: %v", tt.amount, err)
		}
		got := BaseUnits(amount, tt.decimals)
		if got != tt.want {
			t.Errorf("BaseUnits(%s, %d) = %s, want %s", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestFormatPriceDisplay(t *testing.T) {
	display, err := FormatPriceDisplay(decimal.NewFromInt(5), models.TokenSOL)
	if err != nil {
		t.Fatalf("FormatPriceDisplay failed: %v", err)
	}
	if display != "$5.00 (0.02771 SOL)" {
		t.Errorf("unexpected display string: %s", display)
	}
}

func TestDefaultRatesIsACopy(t *testing.T) {
	rates := DefaultRates()
	rates[models.TokenSOL] = decimal.NewFromInt(1)

	original, err := ExchangeRate(models.TokenSOL)
	if err != nil {
		t.Fatalf("ExchangeRate failed: %v", err)
	}
	if original.Equal(decimal.NewFromInt(1)) {
		t.Error("mutating the DefaultRates copy changed the static table")
	}
}
