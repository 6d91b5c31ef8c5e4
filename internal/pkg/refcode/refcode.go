// Package refcode generates referral and coupon codes.
package refcode

import (
	"crypto/rand"
	"fmt"

	xerrors "referral-service/internal/pkg/errors"
)

// Charset excludes ambiguous glyphs (0/O, 1/I) so codes survive being read
// aloud or copied from a printed receipt.
const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// DefaultLength is the standard code length issued to customers.
	DefaultLength = 8

	// maxAttempts bounds retries against the collision oracle before the
	// generator reports code-space exhaustion.
	maxAttempts = 10
)

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(code string) (bool, error)

// Generate produces a random code of the given length that the oracle does
// not know. It retries on collision up to maxAttempts times and then fails
// with ErrGenerationExhausted.
func Generate(length int, exists ExistsFunc) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := random(length)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", xerrors.ErrGenerationExhausted
}

func random(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return string(buf), nil
}
