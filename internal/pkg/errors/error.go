package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict: resource already exists")
	ErrInternal     = errors.New("internal server error")
	ErrRateLimited  = errors.New("too many requests")

	// Coupon and redemption state conflicts
	ErrCouponInactive      = errors.New("coupon is inactive")
	ErrLimitExceeded       = errors.New("coupon usage limit exceeded")
	ErrDuplicateRedemption = errors.New("code already redeemed for this customer")

	// Point accrual
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientPoints = errors.New("insufficient points balance")

	// Bill verification
	ErrAlreadyVerified = errors.New("bill submission already verified")

	// Infrastructure
	ErrContention          = errors.New("operation aborted due to contention")
	ErrGenerationExhausted = errors.New("code generation attempts exhausted")
	ErrNotifierFailure     = errors.New("notifier delivery failed")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
