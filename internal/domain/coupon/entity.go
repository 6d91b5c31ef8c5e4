// internal/domain/coupon/entity.go
package coupon

import (
	"database/sql"
	"time"
)

type Coupon struct {
	ID         int64  `json:"id" db:"id"`
	MerchantID int64  `json:"merchant_id" db:"merchant_id"`
	Code       string `json:"code" db:"code"`

	// Optional campaign linkage
	CampaignID sql.NullInt64 `json:"campaign_id,omitempty" db:"campaign_id"`

	// The customer credited when this code is redeemed. Personal referral
	// coupons always carry an owner; a coupon without one cannot go through
	// the referral workflow.
	ReferrerCustomerID sql.NullInt64 `json:"referrer_customer_id,omitempty" db:"referrer_customer_id"`

	// Value awarded to the referrer on each redemption, in points.
	Value int64 `json:"value" db:"value"`

	// Usage accounting. usage_count never exceeds usage_limit; the coupon
	// is deactivated in the same write that reaches the limit.
	UsageLimit int64 `json:"usage_limit" db:"usage_limit"`
	UsageCount int64 `json:"usage_count" db:"usage_count"`
	IsActive   bool  `json:"is_active" db:"is_active"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Remaining returns how many redemptions are left.
func (c *Coupon) Remaining() int64 {
	if c.UsageCount >= c.UsageLimit {
		return 0
	}
	return c.UsageLimit - c.UsageCount
}

// Snapshot is the post-redeem view handed back to callers.
type Snapshot struct {
	ID                 int64         `json:"id"`
	Code               string        `json:"code"`
	MerchantID         int64         `json:"merchant_id"`
	CampaignID         sql.NullInt64 `json:"campaign_id,omitempty"`
	ReferrerCustomerID sql.NullInt64 `json:"referrer_customer_id,omitempty"`
	Value              int64         `json:"value"`
	UsageCount         int64         `json:"usage_count"`
	UsageLimit         int64         `json:"usage_limit"`
	IsActive           bool          `json:"is_active"`
}
