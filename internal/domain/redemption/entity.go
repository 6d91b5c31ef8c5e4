// internal/domain/redemption/entity.go
package redemption

import (
	"database/sql"
	"time"
)

// Status tracks the workflow state of a redemption attempt. Awarded and
// Notified rows are immutable audit records; Rejected rows record why an
// attempt failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusAwarded   Status = "awarded"
	StatusNotified  Status = "notified"
	StatusRejected  Status = "rejected"
)

type Redemption struct {
	ID                  int64  `json:"id" db:"id"`
	RedemptionReference string `json:"redemption_reference" db:"redemption_reference"`
	MerchantID          int64  `json:"merchant_id" db:"merchant_id"`

	// Coupon side
	CouponID   int64  `json:"coupon_id" db:"coupon_id"`
	CouponCode string `json:"coupon_code" db:"coupon_code"`

	// Referrer (the customer whose code was used) and referred party
	ReferrerCustomerID int64  `json:"referrer_customer_id" db:"referrer_customer_id"`
	ReferredName       string `json:"referred_name" db:"referred_name"`
	ReferredPhone      string `json:"referred_phone" db:"referred_phone"`

	// Outcome
	PointsAwarded int64          `json:"points_awarded" db:"points_awarded"`
	Status        Status         `json:"status" db:"status"`
	FailureReason sql.NullString `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
