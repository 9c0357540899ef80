package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// accessKeyBytes sizes the random portion of an access key (192 bits)
const accessKeyBytes = 24

// GenerateAccessKey creates an unguessable access token handed to a buyer
// after a completed purchase, in the format "AK_<base58>"
func GenerateAccessKey() (string, error) {
	buf := make([]byte, accessKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access key: %w", err)
	}
	return fmt.Sprintf("AK_%s", base58.Encode(buf)), nil
}
