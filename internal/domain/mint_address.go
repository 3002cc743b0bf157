package domain

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

const mintAddressBytes = 32

// NewMintAddress returns a base58 encoded 32-byte random identifier, shaped like a Solana mint.
func NewMintAddress() (string, error) {
	buf := make([]byte, mintAddressBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read mint entropy: %w", err)
	}
	return base58.Encode(buf), nil
}
