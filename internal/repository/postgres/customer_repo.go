// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `
	id, merchant_id, customer_reference, full_name, phone_number, email,
	referral_code, points, points_earned, points_redeemed, total_referrals,
	is_active, tags, notes, created_at, updated_at, deleted_at
`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.CustomerReference, &c.FullName, &c.PhoneNumber, &c.Email,
		&c.ReferralCode, &c.Points, &c.PointsEarned, &c.PointsRedeemed, &c.TotalReferrals,
		&c.IsActive, &c.Tags, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &c, nil
}

// Create persists a new customer row.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return r.create(ctx, r.db, c)
}

// CreateWithTx persists a new customer row inside an open transaction.
func (r *CustomerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	return r.create(ctx, tx, c)
}

func (r *CustomerRepository) create(ctx context.Context, q queryRower, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			merchant_id, customer_reference, full_name, phone_number, email,
			referral_code, is_active, tags, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, points, points_earned, points_redeemed, total_referrals, created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		c.MerchantID, c.CustomerReference, c.FullName, c.PhoneNumber, c.Email,
		c.ReferralCode, c.IsActive, c.Tags, c.Notes,
	).Scan(&c.ID, &c.Points, &c.PointsEarned, &c.PointsRedeemed, &c.TotalReferrals, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// FindByID retrieves a customer by ID scoped to a merchant.
func (r *CustomerRepository) FindByID(ctx context.Context, merchantID, id int64) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE merchant_id = $1 AND id = $2 AND deleted_at IS NULL`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, merchantID, id))
}

// FindByPhone retrieves a customer by phone number scoped to a merchant.
func (r *CustomerRepository) FindByPhone(ctx context.Context, merchantID int64, phone string) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE merchant_id = $1 AND phone_number = $2 AND deleted_at IS NULL`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, merchantID, phone))
}

// FindByReferralCode retrieves a customer by referral code. Codes are
// globally unique so no merchant scope is needed.
func (r *CustomerRepository) FindByReferralCode(ctx context.Context, code string) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE referral_code = $1 AND deleted_at IS NULL`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, code))
}

// ExistsByPhone checks merchant-scoped phone uniqueness.
func (r *CustomerRepository) ExistsByPhone(ctx context.Context, merchantID int64, phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE merchant_id = $1 AND phone_number = $2 AND deleted_at IS NULL)`
	var exists bool
	err := r.db.QueryRow(ctx, query, merchantID, phone).Scan(&exists)
	return exists, err
}

// ReferralCodeExists is the collision oracle for the code generator.
func (r *CustomerRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE referral_code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, code).Scan(&exists)
	return exists, err
}

// Update applies a partial update to mutable customer fields.
func (r *CustomerRepository) Update(ctx context.Context, merchantID, id int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now()}
	argPos := 2

	if req.FullName != nil {
		sets = append(sets, fmt.Sprintf("full_name = $%d", argPos))
		args = append(args, *req.FullName)
		argPos++
	}
	if req.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argPos))
		args = append(args, *req.Email)
		argPos++
	}
	if req.Tags != nil {
		sets = append(sets, fmt.Sprintf("tags = $%d", argPos))
		args = append(args, *req.Tags)
		argPos++
	}
	if req.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", argPos))
		args = append(args, *req.Notes)
		argPos++
	}
	if req.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}

	query := fmt.Sprintf(`
		UPDATE customers SET %s
		WHERE merchant_id = $%d AND id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, argPos+1, customerColumns)
	args = append(args, merchantID, id)

	return scanCustomer(r.db.QueryRow(ctx, query, args...))
}

// SoftDelete marks a customer deleted. Balances and audit rows stay intact.
func (r *CustomerRepository) SoftDelete(ctx context.Context, merchantID, id int64) error {
	query := `
		UPDATE customers SET deleted_at = $1, updated_at = $1
		WHERE merchant_id = $2 AND id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(ctx, query, time.Now(), merchantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ApplyPoints atomically adjusts a customer balance. The WHERE guard keeps
// the balance non-negative; zero rows with an existing customer means the
// debit exceeded the balance.
func (r *CustomerRepository) ApplyPoints(ctx context.Context, customerID, delta int64) (int64, error) {
	return applyPoints(ctx, r.db, customerID, delta)
}

// ApplyPointsWithTx is ApplyPoints inside a caller-owned transaction.
func (r *CustomerRepository) ApplyPointsWithTx(ctx context.Context, tx pgx.Tx, customerID, delta int64) (int64, error) {
	return applyPoints(ctx, tx, customerID, delta)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func applyPoints(ctx context.Context, q queryRower, customerID, delta int64) (int64, error) {
	query := `
		UPDATE customers
		SET points = points + $1,
		    points_earned = points_earned + GREATEST($1, 0),
		    points_redeemed = points_redeemed + GREATEST(-$1, 0),
		    updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND points + $1 >= 0
		RETURNING points
	`

	var balance int64
	err := q.QueryRow(ctx, query, delta, time.Now(), customerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing customer from an over-debit.
		var exists bool
		checkErr := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)`, customerID).Scan(&exists)
		if checkErr != nil {
			return 0, fmt.Errorf("failed to check customer existence: %w", checkErr)
		}
		if !exists {
			return 0, xerrors.ErrNotFound
		}
		return 0, xerrors.ErrInsufficientPoints
	}
	if err != nil {
		return 0, fmt.Errorf("failed to apply points: %w", err)
	}

	return balance, nil
}

// IncrementReferralsWithTx bumps the referrer's lifetime referral counter.
func (r *CustomerRepository) IncrementReferralsWithTx(ctx context.Context, tx pgx.Tx, customerID int64) error {
	query := `UPDATE customers SET total_referrals = total_referrals + 1, updated_at = $1 WHERE id = $2`
	result, err := tx.Exec(ctx, query, time.Now(), customerID)
	if err != nil {
		return fmt.Errorf("failed to increment referrals: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves customers with filters and pagination.
func (r *CustomerRepository) List(ctx context.Context, merchantID int64, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	conditions := []string{"merchant_id = $1", "deleted_at IS NULL"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone_number ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	sortBy := "created_at"
	switch filters.SortBy {
	case "full_name", "points", "total_referrals", "created_at":
		sortBy = filters.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, sortBy, sortOrder, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}

	return customers, total, nil
}

// GetStats aggregates merchant-level customer figures.
func (r *CustomerRepository) GetStats(ctx context.Context, merchantID int64) (*customer.CustomerStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COALESCE(SUM(points), 0),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('month', now()))
		FROM customers
		WHERE merchant_id = $1 AND deleted_at IS NULL
	`

	var stats customer.CustomerStats
	err := r.db.QueryRow(ctx, query, merchantID).Scan(
		&stats.TotalCustomers, &stats.ActiveCustomers, &stats.TotalPoints, &stats.NewThisMonth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer stats: %w", err)
	}

	return &stats, nil
}
