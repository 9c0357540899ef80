package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"x402-marketplace/internal/models"
)

// ErrUnknownToken is returned when a token symbol has no exchange rate.
// Callers should have rejected the symbol at the request boundary already.
var ErrUnknownToken = errors.New("unknown payment token")

// defaultRates holds the static USD exchange rates used when live rates are
// disabled or unavailable.
var defaultRates = map[models.PaymentToken]decimal.Decimal{
	models.TokenSOL:  decimal.NewFromFloat(180.50),
	models.TokenUSDC: decimal.NewFromInt(1),
	models.TokenUSDT: decimal.NewFromInt(1),
	models.TokenBONK: decimal.NewFromFloat(0.00002),
	models.TokenRAY:  decimal.NewFromFloat(3.25),
	models.TokenORCA: decimal.NewFromFloat(1.85),
}

// DefaultRates returns a copy of the static rate table
func DefaultRates() map[models.PaymentToken]decimal.Decimal {
	rates := make(map[models.PaymentToken]decimal.Decimal, len(defaultRates))
	for token, rate := range defaultRates {
		rates[token] = rate
	}
	return rates
}

// displayPrecision returns the number of decimals a token amount is rounded
// to. SOL keeps 5, ultra-low-value tokens trade in whole units, the rest get
// cent-like precision.
func displayPrecision(token models.PaymentToken) int32 {
	switch token {
	case models.TokenSOL:
		return 5
	case models.TokenBONK:
		return 0
	default:
		return 2
	}
}

// USDToToken converts a USD amount to a token amount using the static rates.
func USDToToken(usdAmount decimal.Decimal, token models.PaymentToken) (decimal.Decimal, error) {
	rate, ok := defaultRates[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return USDToTokenAt(usdAmount, rate, token), nil
}

// USDToTokenAt converts a USD amount to a token amount at an explicit rate.
// Rounding is always upward so the seller is never under-paid.
func USDToTokenAt(usdAmount, rate decimal.Decimal, token models.PaymentToken) decimal.Decimal {
	return usdAmount.Div(rate).RoundCeil(displayPrecision(token))
}

// TokenToUSD converts a token amount back to USD, rounded to cents.
func TokenToUSD(tokenAmount decimal.Decimal, token models.PaymentToken) (decimal.Decimal, error) {
	rate, ok := defaultRates[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return TokenToUSDAt(tokenAmount, rate), nil
}

// TokenToUSDAt converts a token amount to USD at an explicit rate.
func TokenToUSDAt(tokenAmount, rate decimal.Decimal) decimal.Decimal {
	return tokenAmount.Mul(rate).Round(2)
}

// ExchangeRate returns the static USD rate for a token.
func ExchangeRate(token models.PaymentToken) (decimal.Decimal, error) {
	rate, ok := defaultRates[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return rate, nil
}

// BaseUnits converts a token amount into the chain's smallest integer unit
// (lamports for SOL, raw units for SPL tokens), truncating any dust below one
// unit.
func BaseUnits(tokenAmount decimal.Decimal, decimals int32) string {
	return tokenAmount.Shift(decimals).Floor().String()
}

// FormatPriceDisplay renders "$5.00 (0.02771 SOL)" style price strings.
func FormatPriceDisplay(usdAmount decimal.Decimal, token models.PaymentToken) (string, error) {
	tokenAmount, err := USDToToken(usdAmount, token)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("$%s (%s %s)",
		usdAmount.StringFixed(2),
		tokenAmount.StringFixed(displayPrecision(token)),
		token,
	), nil
}
