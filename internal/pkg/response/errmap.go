// internal/pkg/response/errmap.go
package response

import (
	"errors"
	"net/http"

	xerrors "referral-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// FromError maps the service error taxonomy onto HTTP statuses and sends the
// standard envelope.
func FromError(c *gin.Context, err error, message string) {
	Error(c, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrInvalidInput),
		errors.Is(err, xerrors.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, xerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerrors.ErrCouponInactive),
		errors.Is(err, xerrors.ErrLimitExceeded),
		errors.Is(err, xerrors.ErrDuplicateRedemption),
		errors.Is(err, xerrors.ErrAlreadyVerified),
		errors.Is(err, xerrors.ErrInsufficientPoints),
		errors.Is(err, xerrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, xerrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, xerrors.ErrContention),
		errors.Is(err, xerrors.ErrGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
