// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Customer struct {
	ID                int64  `json:"id" db:"id"`
	MerchantID        int64  `json:"merchant_id" db:"merchant_id"`
	CustomerReference string `json:"customer_reference" db:"customer_reference"`

	// Customer details
	FullName    string         `json:"full_name" db:"full_name"`
	PhoneNumber string         `json:"phone_number" db:"phone_number"`
	Email       sql.NullString `json:"email,omitempty" db:"email"`

	// Referral identity. One code per customer, unique, never recycled.
	ReferralCode string `json:"referral_code" db:"referral_code"`

	// Loyalty balances. Mutated only through the point accrual engine.
	Points         int64 `json:"points" db:"points"`
	PointsEarned   int64 `json:"points_earned" db:"points_earned"`
	PointsRedeemed int64 `json:"points_redeemed" db:"points_redeemed"`
	TotalReferrals int64 `json:"total_referrals" db:"total_referrals"`

	// Status and extras
	IsActive bool           `json:"is_active" db:"is_active"`
	Tags     pq.StringArray `json:"tags,omitempty" db:"tags"`
	Notes    sql.NullString `json:"notes,omitempty" db:"notes"`

	// Timestamps
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt sql.NullTime `json:"deleted_at,omitempty" db:"deleted_at"`
}

type CustomerStats struct {
	TotalCustomers  int64 `json:"total_customers"`
	ActiveCustomers int64 `json:"active_customers"`
	TotalPoints     int64 `json:"total_points"`
	NewThisMonth    int64 `json:"new_this_month"`
}
