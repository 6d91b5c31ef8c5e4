// internal/repository/postgres/coupon_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/coupon"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CouponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `
	id, merchant_id, code, campaign_id, referrer_customer_id, value,
	usage_limit, usage_count, is_active, created_at, updated_at
`

func scanCoupon(row pgx.Row) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.Code, &c.CampaignID, &c.ReferrerCustomerID,
		&c.Value, &c.UsageLimit, &c.UsageCount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	return &c, nil
}

// Create persists a newly issued coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	return r.create(ctx, r.db, c)
}

// CreateWithTx persists a coupon inside an open transaction.
func (r *CouponRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, c *coupon.Coupon) error {
	return r.create(ctx, tx, c)
}

func (r *CouponRepository) create(ctx context.Context, q queryRower, c *coupon.Coupon) error {
	query := `
		INSERT INTO coupons (merchant_id, code, campaign_id, referrer_customer_id, value, usage_limit, usage_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, 0, true)
		RETURNING id, usage_count, is_active, created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		c.MerchantID, c.Code, c.CampaignID, c.ReferrerCustomerID, c.Value, c.UsageLimit,
	).Scan(&c.ID, &c.UsageCount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// FindByID retrieves a coupon by ID scoped to a merchant.
func (r *CouponRepository) FindByID(ctx context.Context, merchantID, id int64) (*coupon.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE merchant_id = $1 AND id = $2`, couponColumns)
	return scanCoupon(r.db.QueryRow(ctx, query, merchantID, id))
}

// FindByCode retrieves a coupon by its globally unique code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE code = $1`, couponColumns)
	return scanCoupon(r.db.QueryRow(ctx, query, code))
}

// CodeExists is the collision oracle for the code generator.
func (r *CouponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM coupons WHERE code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, code).Scan(&exists)
	return exists, err
}

// RedeemWithTx performs the conditional increment that enforces the usage
// limit. The coupon is deactivated in the same statement when the increment
// reaches the limit, so two concurrent redeemers cannot both pass it.
func (r *CouponRepository) RedeemWithTx(ctx context.Context, tx pgx.Tx, code string) (*coupon.Snapshot, error) {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1,
		    is_active = (usage_count + 1 < usage_limit),
		    updated_at = $1
		WHERE code = $2 AND is_active AND usage_count < usage_limit
		RETURNING id, code, merchant_id, campaign_id, referrer_customer_id, value, usage_count, usage_limit, is_active
	`

	var snap coupon.Snapshot
	err := tx.QueryRow(ctx, query, time.Now(), code).Scan(
		&snap.ID, &snap.Code, &snap.MerchantID, &snap.CampaignID, &snap.ReferrerCustomerID,
		&snap.Value, &snap.UsageCount, &snap.UsageLimit, &snap.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// The guard failed; read the row to report why.
		existing, findErr := r.FindByCode(ctx, code)
		if findErr != nil {
			return nil, findErr
		}
		if existing.UsageCount >= existing.UsageLimit {
			return nil, xerrors.ErrLimitExceeded
		}
		return nil, xerrors.ErrCouponInactive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem coupon: %w", err)
	}

	return &snap, nil
}

// Deactivate manually disables a coupon.
func (r *CouponRepository) Deactivate(ctx context.Context, merchantID, id int64) error {
	query := `UPDATE coupons SET is_active = false, updated_at = $1 WHERE merchant_id = $2 AND id = $3`
	result, err := r.db.Exec(ctx, query, time.Now(), merchantID, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves coupons with filters and pagination.
func (r *CouponRepository) List(ctx context.Context, merchantID int64, filters *coupon.ListFilters) ([]coupon.Coupon, int64, error) {
	conditions := []string{"merchant_id = $1"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.CampaignID != nil {
		conditions = append(conditions, fmt.Sprintf("campaign_id = $%d", argPos))
		args = append(args, *filters.CampaignID)
		argPos++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM coupons WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM coupons
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, couponColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []coupon.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, *c)
	}

	return coupons, total, nil
}
