// internal/domain/customer/phone.go
package customer

import (
	"fmt"
	"strings"

	xerrors "referral-service/internal/pkg/errors"
)

// NormalizePhone strips formatting and validates the digits. Accepts an
// optional leading +; everything else must be numeric, 7 to 15 digits.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	digits := cleaned
	if strings.HasPrefix(cleaned, "+") {
		digits = cleaned[1:]
	}

	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: phone number must have 7-15 digits", xerrors.ErrInvalidInput)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone number contains invalid characters", xerrors.ErrInvalidInput)
		}
	}

	return cleaned, nil
}
