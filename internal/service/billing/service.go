// internal/service/billing/service.go
package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"referral-service/internal/domain/billing"
	"referral-service/internal/domain/campaign"
	"referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/service/points"

	"go.uber.org/zap"
)

// Store is the bill workflow's persistence port. Approve is transactional:
// the status flip and the balance credit commit together.
type Store interface {
	Create(ctx context.Context, b *billing.BillSubmission) error
	FindByID(ctx context.Context, merchantID, id int64) (*billing.BillSubmission, error)
	List(ctx context.Context, merchantID int64, filters *billing.ListFilters) ([]billing.BillSubmission, int64, error)
	Approve(ctx context.Context, merchantID, billID, pointsAwarded int64, verifiedBy string) (*ApproveResult, error)
	Reject(ctx context.Context, merchantID, billID int64, verifiedBy string) error
}

type ApproveResult struct {
	NewBalance    int64
	CustomerName  string
	CustomerPhone string
}

type CampaignFinder interface {
	FindByID(ctx context.Context, merchantID, id int64) (*campaign.Campaign, error)
}

type CustomerFinder interface {
	FindByID(ctx context.Context, merchantID, id int64) (*customer.Customer, error)
}

// Notifier delivers one best-effort message after approval.
type Notifier interface {
	Send(ctx context.Context, merchantID int64, phone, body string) error
}

// EventSink receives approved bills for live merchant dashboards.
type EventSink interface {
	BillApproved(merchantID int64, bill *billing.BillSubmission)
}

const notifyTimeout = 5 * time.Second

// Service runs the bill submission state machine:
// pending -> approved | rejected, each transition at most once.
type Service struct {
	store     Store
	campaigns CampaignFinder
	customers CustomerFinder
	notifier  Notifier
	events    EventSink
	logger    *zap.Logger
}

func NewService(
	store Store,
	campaigns CampaignFinder,
	customers CustomerFinder,
	notifier Notifier,
	events EventSink,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		campaigns: campaigns,
		customers: customers,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
}

// Submit records a pending bill for later verification.
func (s *Service) Submit(ctx context.Context, merchantID int64, req *billing.SubmitBillRequest) (*billing.BillSubmission, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", xerrors.ErrInvalidAmount)
	}

	if _, err := s.customers.FindByID(ctx, merchantID, req.CustomerID); err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}

	b := &billing.BillSubmission{
		MerchantID:         merchantID,
		CustomerID:         req.CustomerID,
		TotalAmount:        req.TotalAmount,
		VerificationStatus: billing.StatusPending,
	}

	if req.CampaignID != nil {
		cmp, err := s.campaigns.FindByID(ctx, merchantID, *req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("campaign lookup failed: %w", err)
		}
		if !cmp.Running(time.Now()) {
			return nil, fmt.Errorf("%w: campaign is not running", xerrors.ErrInvalidInput)
		}
		b.CampaignID = sql.NullInt64{Int64: cmp.ID, Valid: true}
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("bill submitted",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("bill_id", b.ID),
		zap.Float64("amount", b.TotalAmount),
	)

	return b, nil
}

// Approve verifies a pending bill, computes the reward under the bound
// campaign's rule and credits the customer. Campaign-less bills fall back
// to the per-amount default of one point per ten currency units.
func (s *Service) Approve(ctx context.Context, merchantID, billID int64, verifiedBy string) (*billing.BillSubmission, error) {
	bill, err := s.store.FindByID(ctx, merchantID, billID)
	if err != nil {
		return nil, err
	}
	if bill.VerificationStatus != billing.StatusPending {
		return nil, xerrors.ErrAlreadyVerified
	}

	rule := campaign.RewardRulePerAmount
	var ruleValue int64
	if bill.CampaignID.Valid {
		cmp, err := s.campaigns.FindByID(ctx, merchantID, bill.CampaignID.Int64)
		if err != nil {
			return nil, fmt.Errorf("campaign lookup failed: %w", err)
		}
		rule = cmp.RewardRule
		ruleValue = cmp.RewardValue
	}

	pointsAwarded, err := points.ComputePoints(rule, bill.TotalAmount, ruleValue)
	if err != nil {
		return nil, err
	}

	result, err := s.store.Approve(ctx, merchantID, billID, pointsAwarded, verifiedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	bill.VerificationStatus = billing.StatusApproved
	bill.PointsAwarded = sql.NullInt64{Int64: pointsAwarded, Valid: true}
	bill.VerifiedBy = sql.NullString{String: verifiedBy, Valid: true}
	bill.VerifiedAt = sql.NullTime{Time: now, Valid: true}

	s.logger.Info("bill approved",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("bill_id", billID),
		zap.Int64("points", pointsAwarded),
		zap.String("verified_by", verifiedBy),
	)

	if s.events != nil {
		s.events.BillApproved(merchantID, bill)
	}

	s.notifyCustomer(ctx, merchantID, result, pointsAwarded)

	return bill, nil
}

// Reject closes a pending bill without awarding points.
func (s *Service) Reject(ctx context.Context, merchantID, billID int64, verifiedBy string) (*billing.BillSubmission, error) {
	bill, err := s.store.FindByID(ctx, merchantID, billID)
	if err != nil {
		return nil, err
	}
	if bill.VerificationStatus != billing.StatusPending {
		return nil, xerrors.ErrAlreadyVerified
	}

	if err := s.store.Reject(ctx, merchantID, billID, verifiedBy); err != nil {
		return nil, err
	}

	bill.VerificationStatus = billing.StatusRejected
	bill.VerifiedBy = sql.NullString{String: verifiedBy, Valid: true}
	bill.VerifiedAt = sql.NullTime{Time: time.Now(), Valid: true}

	s.logger.Info("bill rejected",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("bill_id", billID),
		zap.String("verified_by", verifiedBy),
	)

	return bill, nil
}

// Get retrieves one submission.
func (s *Service) Get(ctx context.Context, merchantID, billID int64) (*billing.BillSubmission, error) {
	return s.store.FindByID(ctx, merchantID, billID)
}

// List retrieves submissions with pagination.
func (s *Service) List(ctx context.Context, merchantID int64, filters *billing.ListFilters) (*billing.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	bills, total, err := s.store.List(ctx, merchantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bill submissions: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &billing.ListResponse{
		Bills:      bills,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) notifyCustomer(ctx context.Context, merchantID int64, result *ApproveResult, pointsAwarded int64) {
	if s.notifier == nil || result.CustomerPhone == "" {
		return
	}

	body := fmt.Sprintf(
		"Hi %s! Your bill was approved and you earned %d points. New balance: %d points.",
		result.CustomerName, pointsAwarded, result.NewBalance,
	)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.Send(notifyCtx, merchantID, result.CustomerPhone, body); err != nil {
		s.logger.Warn("bill approval notification failed",
			zap.Int64("merchant_id", merchantID),
			zap.Error(err),
		)
	}
}
