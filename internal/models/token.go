package models

// PaymentToken is a currency a listing can be priced in
type PaymentToken string

const (
	TokenSOL  PaymentToken = "SOL"
	TokenUSDC PaymentToken = "USDC"
	TokenUSDT PaymentToken = "USDT"
	TokenBONK PaymentToken = "BONK"
	TokenRAY  PaymentToken = "RAY"
	TokenORCA PaymentToken = "ORCA"
)

// TokenConfig describes an SPL token (or wrapped SOL) used for payments
type TokenConfig struct {
	Symbol   PaymentToken `json:"symbol"`
	Name     string       `json:"name"`
	Mint     string       `json:"mint"`
	Decimals int32        `json:"decimals"`
}

// TokenConfigs maps each supported payment token to its mainnet mint address
var TokenConfigs = map[PaymentToken]TokenConfig{
	TokenSOL: {
		Symbol:   TokenSOL,
		Name:     "Solana",
		Mint:     "So11111111111111111111111111111111111111112", // wrapped SOL
		Decimals: 9,
	},
	TokenUSDC: {
		Symbol:   TokenUSDC,
		Name:     "USD Coin",
		Mint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals: 6,
	},
	TokenUSDT: {
		Symbol:   TokenUSDT,
		Name:     "Tether USD",
		Mint:     "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		Decimals: 6,
	},
	TokenBONK: {
		Symbol:   TokenBONK,
		Name:     "Bonk",
		Mint:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		Decimals: 5,
	},
	TokenRAY: {
		Symbol:   TokenRAY,
		Name:     "Raydium",
		Mint:     "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
		Decimals: 6,
	},
	TokenORCA: {
		Symbol:   TokenORCA,
		Name:     "Orca",
		Mint:     "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE",
		Decimals: 6,
	},
}

// IsValid reports whether the token is one of the supported payment tokens
func (t PaymentToken) IsValid() bool {
	_, ok := TokenConfigs[t]
	return ok
}

// Config returns the token's mint configuration
func (t PaymentToken) Config() (TokenConfig, bool) {
	cfg, ok := TokenConfigs[t]
	return cfg, ok
}
