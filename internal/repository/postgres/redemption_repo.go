// internal/repository/postgres/redemption_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-service/internal/domain/redemption"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RedemptionRepository struct {
	db *pgxpool.Pool
}

func NewRedemptionRepository(db *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

const redemptionColumns = `
	id, redemption_reference, merchant_id, coupon_id, coupon_code,
	referrer_customer_id, referred_name, referred_phone,
	points_awarded, status, failure_reason, created_at
`

func scanRedemption(row pgx.Row) (*redemption.Redemption, error) {
	var r redemption.Redemption
	err := row.Scan(
		&r.ID, &r.RedemptionReference, &r.MerchantID, &r.CouponID, &r.CouponCode,
		&r.ReferrerCustomerID, &r.ReferredName, &r.ReferredPhone,
		&r.PointsAwarded, &r.Status, &r.FailureReason, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan redemption: %w", err)
	}
	return &r, nil
}

// CreateWithTx inserts the immutable audit row inside the award transaction.
func (r *RedemptionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, rec *redemption.Redemption) error {
	query := `
		INSERT INTO redemptions (
			redemption_reference, merchant_id, coupon_id, coupon_code,
			referrer_customer_id, referred_name, referred_phone,
			points_awarded, status, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx, query,
		rec.RedemptionReference, rec.MerchantID, rec.CouponID, rec.CouponCode,
		rec.ReferrerCustomerID, rec.ReferredName, rec.ReferredPhone,
		rec.PointsAwarded, rec.Status, rec.FailureReason,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return xerrors.ErrDuplicateRedemption
		}
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

// AwardedExists reports whether (code, phone) has already gone through
// Awarded. Backed by the partial unique index on awarded rows.
func (r *RedemptionRepository) AwardedExists(ctx context.Context, couponCode, referredPhone string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM redemptions
			WHERE coupon_code = $1 AND referred_phone = $2 AND status IN ('awarded', 'notified')
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, couponCode, referredPhone).Scan(&exists)
	return exists, err
}

// MarkNotified records the post-commit notification outcome.
func (r *RedemptionRepository) MarkNotified(ctx context.Context, id int64) error {
	query := `UPDATE redemptions SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.Exec(ctx, query, redemption.StatusNotified, id, redemption.StatusAwarded)
	if err != nil {
		return fmt.Errorf("failed to mark redemption notified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// FindByReference retrieves an audit row by its reference.
func (r *RedemptionRepository) FindByReference(ctx context.Context, merchantID int64, reference string) (*redemption.Redemption, error) {
	query := fmt.Sprintf(`SELECT %s FROM redemptions WHERE merchant_id = $1 AND redemption_reference = $2`, redemptionColumns)
	return scanRedemption(r.db.QueryRow(ctx, query, merchantID, reference))
}

// List retrieves audit rows with filters.
func (r *RedemptionRepository) List(ctx context.Context, merchantID int64, filters *redemption.ListFilters) ([]redemption.Redemption, int64, error) {
	conditions := []string{"merchant_id = $1"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.CouponCode != "" {
		conditions = append(conditions, fmt.Sprintf("coupon_code = $%d", argPos))
		args = append(args, filters.CouponCode)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Phone != "" {
		conditions = append(conditions, fmt.Sprintf("referred_phone = $%d", argPos))
		args = append(args, filters.Phone)
		argPos++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *filters.DateFrom)
		argPos++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *filters.DateTo)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM redemptions WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM redemptions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, redemptionColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := []redemption.Redemption{}
	for rows.Next() {
		rec, err := scanRedemption(rows)
		if err != nil {
			return nil, 0, err
		}
		redemptions = append(redemptions, *rec)
	}

	return redemptions, total, nil
}
