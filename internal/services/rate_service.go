package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"x402-marketplace/internal/models"
	"x402-marketplace/internal/pricing"
)

// RateService caches live USD exchange rates for the supported payment
// tokens. Uses the CoinGecko simple-price API; when a token has no fresh
// quote the static table is the fallback, so price conversion always works.
type RateService struct {
	ratesMux  sync.RWMutex
	rates     map[models.PaymentToken]decimal.Decimal
	lastFetch time.Time

	client *http.Client
}

// coinGeckoIDs maps payment tokens to CoinGecko asset identifiers
var coinGeckoIDs = map[models.PaymentToken]string{
	models.TokenSOL:  "solana",
	models.TokenUSDC: "usd-coin",
	models.TokenUSDT: "tether",
	models.TokenBONK: "bonk",
	models.TokenRAY:  "raydium",
	models.TokenORCA: "orca",
}

// rateMaxAge bounds how stale a cached live rate may be before the static
// fallback takes over
const rateMaxAge = 10 * time.Minute

func NewRateService() *RateService {
	rs := &RateService{
		rates:  make(map[models.PaymentToken]decimal.Decimal),
		client: &http.Client{Timeout: 10 * time.Second},
	}

	go rs.Refresh()

	return rs
}

// Rate returns the live rate for a token when the cache is fresh. The second
// return reports whether the caller should trust it.
func (rs *RateService) Rate(token models.PaymentToken) (decimal.Decimal, bool) {
	rs.ratesMux.RLock()
	defer rs.ratesMux.RUnlock()

	if time.Since(rs.lastFetch) > rateMaxAge {
		return decimal.Zero, false
	}
	rate, ok := rs.rates[token]
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return rate, true
}

// Snapshot returns the effective rate for every supported token, live where
// available, static otherwise
func (rs *RateService) Snapshot() map[models.PaymentToken]decimal.Decimal {
	snapshot := pricing.DefaultRates()
	for token := range snapshot {
		if live, ok := rs.Rate(token); ok {
			snapshot[token] = live
		}
	}
	return snapshot
}

// Refresh fetches fresh rates for all supported tokens from CoinGecko.
// Example: GET /api/v3/simple/price?ids=solana,bonk&vs_currencies=usd
// Response: {"solana":{"usd":195.83},"bonk":{"usd":0.00002}}
func (rs *RateService) Refresh() {
	ids := make([]string, 0, len(coinGeckoIDs))
	for _, id := range coinGeckoIDs {
		ids = append(ids, id)
	}
	url := fmt.Sprintf(
		"https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd",
		strings.Join(ids, ","),
	)

	resp, err := rs.client.Get(url)
	if err != nil {
		log.Printf("[RateService] CoinGecko request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[RateService] CoinGecko returned %d: %s", resp.StatusCode, string(body))
		return
	}

	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[RateService] CoinGecko parse error: %v", err)
		return
	}

	rs.ratesMux.Lock()
	defer rs.ratesMux.Unlock()

	updated := 0
	for token, id := range coinGeckoIDs {
		data, ok := result[id]
		if !ok {
			continue
		}
		usd, ok := data["usd"]
		if !ok || usd == 0 {
			continue
		}
		rs.rates[token] = decimal.NewFromFloat(usd)
		updated++
	}

	if updated > 0 {
		rs.lastFetch = time.Now()
		log.Printf("[RateService] Refreshed %d/%d token rates from CoinGecko", updated, len(coinGeckoIDs))
	}
}
