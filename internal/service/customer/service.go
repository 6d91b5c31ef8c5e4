// internal/service/customer/service.go
package customer

import (
	"context"
	"database/sql"
	"fmt"

	"referral-service/internal/domain/coupon"
	"referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/pkg/refcode"
	"referral-service/internal/service/points"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Defaults for the personal referral coupon issued with every customer.
const (
	defaultReferralValue      = 50
	defaultReferralUsageLimit = 100
)

// Store is the customer service's persistence port. Enroll commits the
// customer and their personal coupon atomically: either both rows exist
// afterwards or neither does.
type Store interface {
	Enroll(ctx context.Context, c *customer.Customer, personal *coupon.Coupon) error
	ExistsByPhone(ctx context.Context, merchantID int64, phone string) (bool, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	CouponCodeExists(ctx context.Context, code string) (bool, error)
	FindByID(ctx context.Context, merchantID, id int64) (*customer.Customer, error)
	FindByPhone(ctx context.Context, merchantID int64, phone string) (*customer.Customer, error)
	Update(ctx context.Context, merchantID, id int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error)
	SoftDelete(ctx context.Context, merchantID, id int64) error
	List(ctx context.Context, merchantID int64, filters *customer.ListFilters) ([]customer.Customer, int64, error)
	GetStats(ctx context.Context, merchantID int64) (*customer.CustomerStats, error)
}

type Service struct {
	store  Store
	points *points.Engine
	logger *zap.Logger
}

func NewService(store Store, pointsEngine *points.Engine, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		points: pointsEngine,
		logger: logger,
	}
}

// CreateCustomer registers a customer and issues their personal referral
// coupon. The referral code doubles as the coupon code.
func (s *Service) CreateCustomer(ctx context.Context, merchantID int64, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	phone, err := customer.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByPhone(ctx, merchantID, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: customer with phone number %s already exists", xerrors.ErrConflict, phone)
	}

	// One code, two tables: the referral code must be free in both.
	referralCode, err := refcode.Generate(refcode.DefaultLength, func(candidate string) (bool, error) {
		taken, err := s.store.ReferralCodeExists(ctx, candidate)
		if err != nil || taken {
			return taken, err
		}
		return s.store.CouponCodeExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}

	c := &customer.Customer{
		MerchantID:        merchantID,
		CustomerReference: "CUS-" + ulid.Make().String(),
		FullName:          req.FullName,
		PhoneNumber:       phone,
		Email:             sql.NullString{String: req.Email, Valid: req.Email != ""},
		ReferralCode:      referralCode,
		IsActive:          true,
		Tags:              pq.StringArray(req.Tags),
		Notes:             sql.NullString{String: req.Notes, Valid: req.Notes != ""},
	}

	personal := &coupon.Coupon{
		MerchantID: merchantID,
		Code:       referralCode,
		Value:      defaultReferralValue,
		UsageLimit: defaultReferralUsageLimit,
		IsActive:   true,
	}

	if err := s.store.Enroll(ctx, c, personal); err != nil {
		return nil, err
	}

	s.logger.Info("customer created",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("customer_id", c.ID),
		zap.String("referral_code", referralCode),
	)

	return c, nil
}

// GetCustomer retrieves a customer by ID.
func (s *Service) GetCustomer(ctx context.Context, merchantID, customerID int64) (*customer.Customer, error) {
	return s.store.FindByID(ctx, merchantID, customerID)
}

// GetCustomerByPhone retrieves a customer by phone number.
func (s *Service) GetCustomerByPhone(ctx context.Context, merchantID int64, rawPhone string) (*customer.Customer, error) {
	phone, err := customer.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	return s.store.FindByPhone(ctx, merchantID, phone)
}

// AdjustPoints applies a manual balance change through the accrual engine.
// Debits beyond the current balance fail with ErrInsufficientPoints.
func (s *Service) AdjustPoints(ctx context.Context, merchantID, customerID int64, req *customer.AdjustPointsRequest) (*customer.AdjustPointsResponse, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", xerrors.ErrInvalidInput)
	}

	if _, err := s.store.FindByID(ctx, merchantID, customerID); err != nil {
		return nil, err
	}

	balance, err := s.points.ApplyPoints(ctx, customerID, req.Delta)
	if err != nil {
		return nil, err
	}

	return &customer.AdjustPointsResponse{
		CustomerID: customerID,
		Delta:      req.Delta,
		Balance:    balance,
	}, nil
}

// UpdateCustomer applies a partial update.
func (s *Service) UpdateCustomer(ctx context.Context, merchantID, customerID int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	return s.store.Update(ctx, merchantID, customerID, req)
}

// DeleteCustomer soft-deletes a customer. Audit rows referencing them
// remain valid.
func (s *Service) DeleteCustomer(ctx context.Context, merchantID, customerID int64) error {
	if err := s.store.SoftDelete(ctx, merchantID, customerID); err != nil {
		return err
	}
	s.logger.Info("customer deleted",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("customer_id", customerID),
	)
	return nil
}

// ListCustomers retrieves customers with pagination.
func (s *Service) ListCustomers(ctx context.Context, merchantID int64, filters *customer.ListFilters) (*customer.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	customers, total, err := s.store.List(ctx, merchantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &customer.ListResponse{
		Customers:  customers,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetStats aggregates merchant-level customer figures.
func (s *Service) GetStats(ctx context.Context, merchantID int64) (*customer.CustomerStats, error) {
	return s.store.GetStats(ctx, merchantID)
}
