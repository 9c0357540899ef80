// Package x402 carries the wire types for the informal "HTTP 402 Payment
// Required" convention: machine-readable payment instructions in a 402
// response body, proof of payment in a request header on retry, and a
// settlement descriptor in a response header on success.
package x402

// Header names used by the protocol
const (
	PaymentHeader         = "X-Payment"
	PaymentResponseHeader = "X-Payment-Response"
	PaymentRequiredHeader = "X-Payment-Required"
)

// SchemeSolanaTransfer is the only payment scheme this service issues
const SchemeSolanaTransfer = "solana-transfer"

// MaxTimeoutSeconds is the advisory window a buyer has to complete the
// on-chain payment. The server does not enforce it.
const MaxTimeoutSeconds = 300

// Asset identifies the token a payment must be made in
type Asset struct {
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Price is the required amount in the token's smallest integer unit
type Price struct {
	Amount string `json:"amount"`
	Asset  Asset  `json:"asset"`
}

// RequirementConfig carries human-readable context for the payment
type RequirementConfig struct {
	Description string                 `json:"description"`
	Resource    string                 `json:"resource"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PaymentRequirement describes one acceptable way to pay for a resource
type PaymentRequirement struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	Price             Price             `json:"price"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Config            RequirementConfig `json:"config"`
}

// PaymentRequired is the body of a 402 response
type PaymentRequired struct {
	PaymentRequirements []PaymentRequirement `json:"paymentRequirements"`
}

// PaymentPayload is the decoded proof-of-payment a client attaches to a
// retried request via the X-Payment header
type PaymentPayload struct {
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Signature   string `json:"signature"`
	Transaction string `json:"transaction"`
	Timestamp   int64  `json:"timestamp"`
}

// Settlement mirrors the request-side descriptor and confirms a payment was
// accepted; it rides the X-Payment-Response header base64-encoded
type Settlement struct {
	Status        string                 `json:"status"`
	TransactionID string                 `json:"transactionId"`
	Timestamp     int64                  `json:"timestamp"`
	Amount        string                 `json:"amount"`
	Token         string                 `json:"token"`
	Resource      string                 `json:"resource"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
