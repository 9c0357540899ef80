package x402

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

var (
	// ErrMalformedHeader means the X-Payment header was not base64 JSON
	ErrMalformedHeader = errors.New("malformed payment header")
	// ErrMissingFields means the decoded payload lacks required proof fields
	ErrMissingFields = errors.New("payment payload missing signature or transaction")
	// ErrBadSignature means the signature is not a plausible Solana signature
	ErrBadSignature = errors.New("payment signature is not valid base58")
)

// solanaSignatureLen is the byte length of an ed25519 transaction signature
const solanaSignatureLen = 64

// DecodePaymentHeader decodes and structurally validates an X-Payment header
// value. It does not touch the chain; on-chain verification is a separate
// step.
func DecodePaymentHeader(value string) (*PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	if payload.Signature == "" || payload.Transaction == "" {
		return nil, ErrMissingFields
	}

	sig, err := base58.Decode(payload.Signature)
	if err != nil || len(sig) != solanaSignatureLen {
		return nil, ErrBadSignature
	}

	return &payload, nil
}

// EncodePaymentHeader renders a payload into an X-Payment header value.
// Used by tests and by Go clients of the purchase endpoint.
func EncodePaymentHeader(payload *PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeSettlementHeader renders a settlement descriptor into an
// X-Payment-Response header value
func EncodeSettlementHeader(settlement *Settlement) (string, error) {
	raw, err := json.Marshal(settlement)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeSettlementHeader parses an X-Payment-Response header value
func DecodeSettlementHeader(value string) (*Settlement, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	var settlement Settlement
	if err := json.Unmarshal(raw, &settlement); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	return &settlement, nil
}
