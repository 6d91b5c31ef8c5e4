// internal/repository/postgres/redemption_store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"referral-service/internal/domain/redemption"
	xerrors "referral-service/internal/pkg/errors"
	workflow "referral-service/internal/service/redemption"

	"github.com/jackc/pgx/v5/pgconn"
)

// RedemptionStore is the transactional backend of the redemption workflow.
// The whole award executes in one database transaction: the conditional
// coupon increment, the balance credit, the audit insert and the campaign
// counters commit together or not at all.
type RedemptionStore struct {
	db          *DB
	coupons     *CouponRepository
	customers   *CustomerRepository
	redemptions *RedemptionRepository
	campaigns   *CampaignRepository
}

func NewRedemptionStore(
	db *DB,
	coupons *CouponRepository,
	customers *CustomerRepository,
	redemptions *RedemptionRepository,
	campaigns *CampaignRepository,
) *RedemptionStore {
	return &RedemptionStore{
		db:          db,
		coupons:     coupons,
		customers:   customers,
		redemptions: redemptions,
		campaigns:   campaigns,
	}
}

// maxTxAttempts bounds retries on serialization failures before the store
// reports contention.
const maxTxAttempts = 3

func (s *RedemptionStore) AwardedExists(ctx context.Context, couponCode, referredPhone string) (bool, error) {
	return s.redemptions.AwardedExists(ctx, couponCode, referredPhone)
}

func (s *RedemptionStore) MarkNotified(ctx context.Context, redemptionID int64) error {
	return s.redemptions.MarkNotified(ctx, redemptionID)
}

func (s *RedemptionStore) Award(ctx context.Context, in *workflow.AwardInput) (*workflow.AwardResult, error) {
	var result *workflow.AwardResult

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		var err error
		result, err = s.award(ctx, in)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
	}

	return nil, xerrors.ErrContention
}

func (s *RedemptionStore) award(ctx context.Context, in *workflow.AwardInput) (*workflow.AwardResult, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conditional increment; rejects inactive or exhausted coupons and
	// deactivates the coupon when this use reaches the limit.
	snap, err := s.coupons.RedeemWithTx(ctx, tx, in.Code)
	if err != nil {
		return nil, err
	}

	if !snap.ReferrerCustomerID.Valid {
		return nil, fmt.Errorf("%w: code is not bound to a referrer", xerrors.ErrInvalidInput)
	}
	referrerID := snap.ReferrerCustomerID.Int64

	var referrerName, referrerPhone string
	err = tx.QueryRow(ctx,
		`SELECT full_name, phone_number FROM customers WHERE id = $1 AND deleted_at IS NULL`,
		referrerID,
	).Scan(&referrerName, &referrerPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to load referrer: %w", err)
	}

	newBalance, err := s.customers.ApplyPointsWithTx(ctx, tx, referrerID, snap.Value)
	if err != nil {
		return nil, err
	}

	if err := s.customers.IncrementReferralsWithTx(ctx, tx, referrerID); err != nil {
		return nil, err
	}

	rec := &redemption.Redemption{
		RedemptionReference: in.Reference,
		MerchantID:          snap.MerchantID,
		CouponID:            snap.ID,
		CouponCode:          snap.Code,
		ReferrerCustomerID:  referrerID,
		ReferredName:        in.ReferredName,
		ReferredPhone:       in.ReferredPhone,
		PointsAwarded:       snap.Value,
		Status:              redemption.StatusAwarded,
	}
	if err := s.redemptions.CreateWithTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if snap.CampaignID.Valid {
		// The coupon's first use also counts its owner as a participant.
		newParticipant := snap.UsageCount == 1
		if err := s.campaigns.IncrementReferralsWithTx(ctx, tx, snap.CampaignID.Int64, newParticipant); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit award: %w", err)
	}

	return &workflow.AwardResult{
		RedemptionID:  rec.ID,
		MerchantID:    snap.MerchantID,
		ReferrerID:    referrerID,
		ReferrerName:  referrerName,
		ReferrerPhone: referrerPhone,
		PointsAwarded: snap.Value,
		NewBalance:    newBalance,
		CampaignID:    snap.CampaignID,
	}, nil
}

// retryable reports whether the transaction hit a serialization failure or
// deadlock worth retrying.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
