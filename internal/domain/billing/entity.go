// internal/domain/billing/entity.go
package billing

import (
	"database/sql"
	"time"
)

// VerificationStatus is the bill submission state machine. A submission
// leaves pending at most once; approved and rejected are terminal.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

type BillSubmission struct {
	ID         int64         `json:"id" db:"id"`
	MerchantID int64         `json:"merchant_id" db:"merchant_id"`
	CustomerID int64         `json:"customer_id" db:"customer_id"`
	CampaignID sql.NullInt64 `json:"campaign_id,omitempty" db:"campaign_id"`

	TotalAmount float64 `json:"total_amount" db:"total_amount"`

	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`

	// Set only on approval.
	PointsAwarded sql.NullInt64  `json:"points_awarded,omitempty" db:"points_awarded"`
	VerifiedBy    sql.NullString `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt    sql.NullTime   `json:"verified_at,omitempty" db:"verified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
