// internal/repository/postgres/campaign_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/campaign"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CampaignRepository struct {
	db *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `
	id, merchant_id, name, description, reward_rule, reward_value,
	goal_count, participant_count, referrals_count,
	start_date, end_date, is_active, created_at, updated_at
`

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.Name, &c.Description, &c.RewardRule, &c.RewardValue,
		&c.GoalCount, &c.ParticipantCount, &c.ReferralsCount,
		&c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	return &c, nil
}

// Create persists a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	query := `
		INSERT INTO campaigns (
			merchant_id, name, description, reward_rule, reward_value,
			goal_count, start_date, end_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, participant_count, referrals_count, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.MerchantID, c.Name, c.Description, c.RewardRule, c.RewardValue,
		c.GoalCount, c.StartDate, c.EndDate, c.IsActive,
	).Scan(&c.ID, &c.ParticipantCount, &c.ReferralsCount, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// FindByID retrieves a campaign scoped to a merchant.
func (r *CampaignRepository) FindByID(ctx context.Context, merchantID, id int64) (*campaign.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE merchant_id = $1 AND id = $2`, campaignColumns)
	return scanCampaign(r.db.QueryRow(ctx, query, merchantID, id))
}

// Update applies a partial update to campaign configuration.
func (r *CampaignRepository) Update(ctx context.Context, merchantID, id int64, req *campaign.UpdateCampaignRequest) (*campaign.Campaign, error) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now()}
	argPos := 2

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.RewardRule != nil {
		add("reward_rule", *req.RewardRule)
	}
	if req.RewardValue != nil {
		add("reward_value", *req.RewardValue)
	}
	if req.GoalCount != nil {
		add("goal_count", *req.GoalCount)
	}
	if req.StartDate != nil {
		add("start_date", *req.StartDate)
	}
	if req.EndDate != nil {
		add("end_date", *req.EndDate)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}

	query := fmt.Sprintf(`
		UPDATE campaigns SET %s
		WHERE merchant_id = $%d AND id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, argPos+1, campaignColumns)
	args = append(args, merchantID, id)

	return scanCampaign(r.db.QueryRow(ctx, query, args...))
}

// IncrementReferralsWithTx bumps campaign counters when a campaign-bound
// coupon is redeemed.
func (r *CampaignRepository) IncrementReferralsWithTx(ctx context.Context, tx pgx.Tx, campaignID int64, newParticipant bool) error {
	query := `
		UPDATE campaigns
		SET referrals_count = referrals_count + 1,
		    participant_count = participant_count + $1,
		    updated_at = $2
		WHERE id = $3
	`
	delta := 0
	if newParticipant {
		delta = 1
	}
	result, err := tx.Exec(ctx, query, delta, time.Now(), campaignID)
	if err != nil {
		return fmt.Errorf("failed to increment campaign counters: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves campaigns with filters and pagination.
func (r *CampaignRepository) List(ctx context.Context, merchantID int64, filters *campaign.ListFilters) ([]campaign.Campaign, int64, error) {
	conditions := []string{"merchant_id = $1"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.ActiveOnly {
		conditions = append(conditions, fmt.Sprintf("is_active AND start_date <= $%d AND end_date >= $%d", argPos, argPos))
		args = append(args, time.Now())
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM campaigns WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	sortBy := "created_at"
	switch filters.SortBy {
	case "name", "start_date", "end_date", "referrals_count", "created_at":
		sortBy = filters.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM campaigns
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, campaignColumns, whereClause, sortBy, sortOrder, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []campaign.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}

	return campaigns, total, nil
}

// GetStats aggregates campaign progress, joining awarded redemptions for the
// points total.
func (r *CampaignRepository) GetStats(ctx context.Context, merchantID, campaignID int64) (*campaign.CampaignStats, error) {
	query := `
		SELECT c.id, c.referrals_count, c.participant_count, c.goal_count,
		       COALESCE((
		         SELECT SUM(r.points_awarded)
		         FROM redemptions r
		         JOIN coupons cp ON cp.id = r.coupon_id
		         WHERE cp.campaign_id = c.id AND r.status IN ('awarded', 'notified')
		       ), 0)
		FROM campaigns c
		WHERE c.merchant_id = $1 AND c.id = $2
	`

	var stats campaign.CampaignStats
	err := r.db.QueryRow(ctx, query, merchantID, campaignID).Scan(
		&stats.CampaignID, &stats.ReferralsCount, &stats.ParticipantCount,
		&stats.GoalCount, &stats.PointsAwarded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	if stats.GoalCount > 0 {
		stats.GoalProgress = float64(stats.ReferralsCount) / float64(stats.GoalCount)
	}

	return &stats, nil
}
