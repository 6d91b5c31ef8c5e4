// internal/service/coupon/service.go
package coupon

import (
	"context"
	"database/sql"
	"fmt"

	"referral-service/internal/domain/campaign"
	"referral-service/internal/domain/coupon"
	"referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/pkg/refcode"

	"go.uber.org/zap"
)

// Store is the coupon ledger's persistence port.
type Store interface {
	Create(ctx context.Context, c *coupon.Coupon) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByID(ctx context.Context, merchantID, id int64) (*coupon.Coupon, error)
	Deactivate(ctx context.Context, merchantID, id int64) error
	List(ctx context.Context, merchantID int64, filters *coupon.ListFilters) ([]coupon.Coupon, int64, error)
}

type CampaignFinder interface {
	FindByID(ctx context.Context, merchantID, id int64) (*campaign.Campaign, error)
}

type CustomerFinder interface {
	FindByID(ctx context.Context, merchantID, id int64) (*customer.Customer, error)
}

// Service issues and manages coupons. Redemption-side mutation lives in the
// redemption workflow's transactional store, not here.
type Service struct {
	store     Store
	campaigns CampaignFinder
	customers CustomerFinder
	logger    *zap.Logger
}

func NewService(store Store, campaigns CampaignFinder, customers CustomerFinder, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		campaigns: campaigns,
		customers: customers,
		logger:    logger,
	}
}

// Issue allocates a fresh unique code and persists the coupon.
func (s *Service) Issue(ctx context.Context, merchantID int64, req *coupon.IssueCouponRequest) (*coupon.Coupon, error) {
	if req.UsageLimit <= 0 {
		return nil, fmt.Errorf("%w: usage limit must be positive", xerrors.ErrInvalidInput)
	}
	if req.Value < 0 {
		return nil, fmt.Errorf("%w: coupon value must not be negative", xerrors.ErrInvalidInput)
	}

	c := &coupon.Coupon{
		MerchantID: merchantID,
		Value:      req.Value,
		UsageLimit: req.UsageLimit,
		IsActive:   true,
	}

	if req.CampaignID != nil {
		cmp, err := s.campaigns.FindByID(ctx, merchantID, *req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("campaign lookup failed: %w", err)
		}
		c.CampaignID = sql.NullInt64{Int64: cmp.ID, Valid: true}
	}

	if req.ReferrerCustomerID != nil {
		ref, err := s.customers.FindByID(ctx, merchantID, *req.ReferrerCustomerID)
		if err != nil {
			return nil, fmt.Errorf("referrer lookup failed: %w", err)
		}
		c.ReferrerCustomerID = sql.NullInt64{Int64: ref.ID, Valid: true}
	}

	code, err := refcode.Generate(refcode.DefaultLength, func(candidate string) (bool, error) {
		return s.store.CodeExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}
	c.Code = code

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("coupon issued",
		zap.Int64("merchant_id", merchantID),
		zap.String("code", c.Code),
		zap.Int64("value", c.Value),
		zap.Int64("usage_limit", c.UsageLimit),
	)

	return c, nil
}

// Get retrieves one coupon.
func (s *Service) Get(ctx context.Context, merchantID, id int64) (*coupon.Coupon, error) {
	return s.store.FindByID(ctx, merchantID, id)
}

// Deactivate manually disables a coupon. Already-inactive coupons are a
// no-op rather than an error.
func (s *Service) Deactivate(ctx context.Context, merchantID, id int64) error {
	if err := s.store.Deactivate(ctx, merchantID, id); err != nil {
		return err
	}

	s.logger.Info("coupon deactivated",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("coupon_id", id),
	)
	return nil
}

// List retrieves coupons with pagination.
func (s *Service) List(ctx context.Context, merchantID int64, filters *coupon.ListFilters) (*coupon.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	coupons, total, err := s.store.List(ctx, merchantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &coupon.ListResponse{
		Coupons:    coupons,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}
