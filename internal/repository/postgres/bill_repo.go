// internal/repository/postgres/bill_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/billing"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BillRepository struct {
	db *pgxpool.Pool
}

func NewBillRepository(db *pgxpool.Pool) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `
	id, merchant_id, customer_id, campaign_id, total_amount,
	verification_status, points_awarded, verified_by, verified_at,
	created_at, updated_at
`

func scanBill(row pgx.Row) (*billing.BillSubmission, error) {
	var b billing.BillSubmission
	err := row.Scan(
		&b.ID, &b.MerchantID, &b.CustomerID, &b.CampaignID, &b.TotalAmount,
		&b.VerificationStatus, &b.PointsAwarded, &b.VerifiedBy, &b.VerifiedAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bill submission: %w", err)
	}
	return &b, nil
}

// Create persists a pending bill submission.
func (r *BillRepository) Create(ctx context.Context, b *billing.BillSubmission) error {
	query := `
		INSERT INTO bill_submissions (merchant_id, customer_id, campaign_id, total_amount, verification_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		b.MerchantID, b.CustomerID, b.CampaignID, b.TotalAmount, billing.StatusPending,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bill submission: %w", err)
	}

	b.VerificationStatus = billing.StatusPending
	return nil
}

// FindByID retrieves a submission scoped to a merchant.
func (r *BillRepository) FindByID(ctx context.Context, merchantID, id int64) (*billing.BillSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM bill_submissions WHERE merchant_id = $1 AND id = $2`, billColumns)
	return scanBill(r.db.QueryRow(ctx, query, merchantID, id))
}

// VerifyWithTx flips a pending submission into a terminal state. The status
// guard in the WHERE clause makes the pending -> terminal transition happen
// at most once even under concurrent verifiers.
func (r *BillRepository) VerifyWithTx(ctx context.Context, tx pgx.Tx, merchantID, id int64, status billing.VerificationStatus, pointsAwarded int64, verifiedBy string) error {
	query := `
		UPDATE bill_submissions
		SET verification_status = $1, points_awarded = $2, verified_by = $3, verified_at = $4, updated_at = $4
		WHERE merchant_id = $5 AND id = $6 AND verification_status = $7
	`

	result, err := tx.Exec(ctx, query, status, pointsAwarded, verifiedBy, time.Now(), merchantID, id, billing.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to verify bill submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either missing or already out of pending; let the caller decide
		// after a read.
		return xerrors.ErrAlreadyVerified
	}

	return nil
}

// List retrieves submissions with filters.
func (r *BillRepository) List(ctx context.Context, merchantID int64, filters *billing.ListFilters) ([]billing.BillSubmission, int64, error) {
	conditions := []string{"merchant_id = $1"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filters.CustomerID)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("verification_status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bill_submissions WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bill submissions: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM bill_submissions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, billColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bill submissions: %w", err)
	}
	defer rows.Close()

	bills := []billing.BillSubmission{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, *b)
	}

	return bills, total, nil
}
