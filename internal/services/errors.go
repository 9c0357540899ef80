package services

import "errors"

// Error taxonomy shared by the marketplace and purchase services. Handlers
// translate these into HTTP statuses with errors.Is.
var (
	// ErrValidation covers missing or malformed request fields
	ErrValidation = errors.New("validation failed")
	// ErrListingNotFound means the referenced listing does not exist
	ErrListingNotFound = errors.New("listing not found")
	// ErrUnauthorized means the caller's wallet does not own the listing
	ErrUnauthorized = errors.New("wallet does not own this listing")
	// ErrDuplicatePurchase means the buyer already completed this purchase
	ErrDuplicatePurchase = errors.New("listing already purchased by this buyer")
	// ErrPaymentVerification subsumes every on-chain verification failure
	ErrPaymentVerification = errors.New("payment verification failed")
)
