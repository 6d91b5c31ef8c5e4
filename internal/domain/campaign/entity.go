// internal/domain/campaign/entity.go
package campaign

import (
	"database/sql"
	"time"
)

// RewardRule determines how points are computed for a campaign event.
type RewardRule string

const (
	// RewardRuleFixed awards the campaign's reward value verbatim.
	RewardRuleFixed RewardRule = "fixed"
	// RewardRulePercentage awards floor(amount * value / 100).
	RewardRulePercentage RewardRule = "percentage"
	// RewardRulePerAmount awards floor(amount / 10): one point per ten
	// currency units, the documented default.
	RewardRulePerAmount RewardRule = "per_amount"
)

func (r RewardRule) Valid() bool {
	switch r {
	case RewardRuleFixed, RewardRulePercentage, RewardRulePerAmount:
		return true
	}
	return false
}

type Campaign struct {
	ID          int64          `json:"id" db:"id"`
	MerchantID  int64          `json:"merchant_id" db:"merchant_id"`
	Name        string         `json:"name" db:"name"`
	Description sql.NullString `json:"description,omitempty" db:"description"`

	// Reward configuration
	RewardRule  RewardRule `json:"reward_rule" db:"reward_rule"`
	RewardValue int64      `json:"reward_value" db:"reward_value"`

	// Goals and counters
	GoalCount        int64 `json:"goal_count" db:"goal_count"`
	ParticipantCount int64 `json:"participant_count" db:"participant_count"`
	ReferralsCount   int64 `json:"referrals_count" db:"referrals_count"`

	// Validity window
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	IsActive  bool      `json:"is_active" db:"is_active"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Running reports whether the campaign accepts events at the given time.
func (c *Campaign) Running(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

type CampaignStats struct {
	CampaignID       int64   `json:"campaign_id"`
	ReferralsCount   int64   `json:"referrals_count"`
	ParticipantCount int64   `json:"participant_count"`
	GoalCount        int64   `json:"goal_count"`
	GoalProgress     float64 `json:"goal_progress"`
	PointsAwarded    int64   `json:"points_awarded"`
}
