// internal/repository/postgres/customer_store.go
package postgres

import (
	"context"
	"fmt"

	"referral-service/internal/domain/coupon"
	"referral-service/internal/domain/customer"
)

// CustomerStore is the customer service's persistence backend. Enrollment is
// transactional: the customer row and their personal referral coupon commit
// together, so a referral code never exists in one table without the other.
type CustomerStore struct {
	db        *DB
	customers *CustomerRepository
	coupons   *CouponRepository
}

func NewCustomerStore(db *DB, customers *CustomerRepository, coupons *CouponRepository) *CustomerStore {
	return &CustomerStore{db: db, customers: customers, coupons: coupons}
}

// Enroll inserts the customer and their personal coupon in one transaction.
// A duplicate-key race on either row rolls back both.
func (s *CustomerStore) Enroll(ctx context.Context, c *customer.Customer, personal *coupon.Coupon) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.customers.CreateWithTx(ctx, tx, c); err != nil {
		return err
	}

	personal.ReferrerCustomerID.Int64 = c.ID
	personal.ReferrerCustomerID.Valid = true
	if err := s.coupons.CreateWithTx(ctx, tx, personal); err != nil {
		return fmt.Errorf("failed to issue referral coupon: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit enrollment: %w", err)
	}

	return nil
}

func (s *CustomerStore) ExistsByPhone(ctx context.Context, merchantID int64, phone string) (bool, error) {
	return s.customers.ExistsByPhone(ctx, merchantID, phone)
}

func (s *CustomerStore) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	return s.customers.ReferralCodeExists(ctx, code)
}

func (s *CustomerStore) CouponCodeExists(ctx context.Context, code string) (bool, error) {
	return s.coupons.CodeExists(ctx, code)
}

func (s *CustomerStore) FindByID(ctx context.Context, merchantID, id int64) (*customer.Customer, error) {
	return s.customers.FindByID(ctx, merchantID, id)
}

func (s *CustomerStore) FindByPhone(ctx context.Context, merchantID int64, phone string) (*customer.Customer, error) {
	return s.customers.FindByPhone(ctx, merchantID, phone)
}

func (s *CustomerStore) Update(ctx context.Context, merchantID, id int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	return s.customers.Update(ctx, merchantID, id, req)
}

func (s *CustomerStore) SoftDelete(ctx context.Context, merchantID, id int64) error {
	return s.customers.SoftDelete(ctx, merchantID, id)
}

func (s *CustomerStore) List(ctx context.Context, merchantID int64, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	return s.customers.List(ctx, merchantID, filters)
}

func (s *CustomerStore) GetStats(ctx context.Context, merchantID int64) (*customer.CustomerStats, error) {
	return s.customers.GetStats(ctx, merchantID)
}
