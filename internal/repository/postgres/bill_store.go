// internal/repository/postgres/bill_store.go
package postgres

import (
	"context"
	"fmt"

	"referral-service/internal/domain/billing"
	xerrors "referral-service/internal/pkg/errors"
	billsvc "referral-service/internal/service/billing"
)

// BillStore is the transactional backend of the bill verification workflow.
// Approve commits the status flip and the balance credit in one transaction.
type BillStore struct {
	db        *DB
	bills     *BillRepository
	customers *CustomerRepository
}

func NewBillStore(db *DB, bills *BillRepository, customers *CustomerRepository) *BillStore {
	return &BillStore{db: db, bills: bills, customers: customers}
}

func (s *BillStore) Create(ctx context.Context, b *billing.BillSubmission) error {
	return s.bills.Create(ctx, b)
}

func (s *BillStore) FindByID(ctx context.Context, merchantID, id int64) (*billing.BillSubmission, error) {
	return s.bills.FindByID(ctx, merchantID, id)
}

func (s *BillStore) List(ctx context.Context, merchantID int64, filters *billing.ListFilters) ([]billing.BillSubmission, int64, error) {
	return s.bills.List(ctx, merchantID, filters)
}

func (s *BillStore) Approve(ctx context.Context, merchantID, billID, pointsAwarded int64, verifiedBy string) (*billsvc.ApproveResult, error) {
	var result *billsvc.ApproveResult

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		var err error
		result, err = s.approve(ctx, merchantID, billID, pointsAwarded, verifiedBy)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
	}

	return nil, xerrors.ErrContention
}

func (s *BillStore) approve(ctx context.Context, merchantID, billID, pointsAwarded int64, verifiedBy string) (*billsvc.ApproveResult, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The pending-status guard inside the update makes concurrent verifiers
	// lose with ErrAlreadyVerified instead of double-crediting.
	if err := s.bills.VerifyWithTx(ctx, tx, merchantID, billID, billing.StatusApproved, pointsAwarded, verifiedBy); err != nil {
		return nil, err
	}

	var customerID int64
	var customerName, customerPhone string
	err = tx.QueryRow(ctx,
		`SELECT c.id, c.full_name, c.phone_number
		 FROM bill_submissions b
		 JOIN customers c ON c.id = b.customer_id
		 WHERE b.id = $1`,
		billID,
	).Scan(&customerID, &customerName, &customerPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to load bill customer: %w", err)
	}

	newBalance, err := s.customers.ApplyPointsWithTx(ctx, tx, customerID, pointsAwarded)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return &billsvc.ApproveResult{
		NewBalance:    newBalance,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
	}, nil
}

func (s *BillStore) Reject(ctx context.Context, merchantID, billID int64, verifiedBy string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.bills.VerifyWithTx(ctx, tx, merchantID, billID, billing.StatusRejected, 0, verifiedBy); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rejection: %w", err)
	}

	return nil
}
