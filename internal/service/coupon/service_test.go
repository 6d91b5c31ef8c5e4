package coupon_test

import (
	"context"
	"testing"

	campaigndomain "referral-service/internal/domain/campaign"
	domain "referral-service/internal/domain/coupon"
	customerdomain "referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/service/coupon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCouponStore struct {
	byCode map[string]*domain.Coupon
	byID   map[int64]*domain.Coupon
	nextID int64
}

func newMemCouponStore() *memCouponStore {
	return &memCouponStore{
		byCode: make(map[string]*domain.Coupon),
		byID:   make(map[int64]*domain.Coupon),
	}
}

func (s *memCouponStore) Create(_ context.Context, c *domain.Coupon) error {
	if _, ok := s.byCode[c.Code]; ok {
		return xerrors.ErrConflict
	}
	s.nextID++
	c.ID = s.nextID
	s.byCode[c.Code] = c
	s.byID[c.ID] = c
	return nil
}

func (s *memCouponStore) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := s.byCode[code]
	return ok, nil
}

func (s *memCouponStore) FindByID(_ context.Context, merchantID, id int64) (*domain.Coupon, error) {
	c, ok := s.byID[id]
	if !ok || c.MerchantID != merchantID {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (s *memCouponStore) Deactivate(_ context.Context, merchantID, id int64) error {
	c, ok := s.byID[id]
	if !ok || c.MerchantID != merchantID {
		return xerrors.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (s *memCouponStore) List(_ context.Context, merchantID int64, _ *domain.ListFilters) ([]domain.Coupon, int64, error) {
	out := []domain.Coupon{}
	for _, c := range s.byID {
		if c.MerchantID == merchantID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

type stubCampaigns struct {
	campaigns map[int64]*campaigndomain.Campaign
}

func (s *stubCampaigns) FindByID(_ context.Context, merchantID, id int64) (*campaigndomain.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok || c.MerchantID != merchantID {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

type stubCustomers struct {
	customers map[int64]*customerdomain.Customer
}

func (s *stubCustomers) FindByID(_ context.Context, merchantID, id int64) (*customerdomain.Customer, error) {
	c, ok := s.customers[id]
	if !ok || c.MerchantID != merchantID {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func newService(store *memCouponStore) *coupon.Service {
	campaigns := &stubCampaigns{campaigns: map[int64]*campaigndomain.Campaign{
		3: {ID: 3, MerchantID: 7, Name: "Launch"},
	}}
	customers := &stubCustomers{customers: map[int64]*customerdomain.Customer{
		1: {ID: 1, MerchantID: 7, FullName: "Asha"},
	}}
	return coupon.NewService(store, campaigns, customers, zap.NewNop())
}

func TestIssue_AllocatesUniqueCode(t *testing.T) {
	store := newMemCouponStore()
	svc := newService(store)

	c, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: 25, UsageLimit: 10})

	require.NoError(t, err)
	assert.Len(t, c.Code, 8)
	assert.Equal(t, int64(0), c.UsageCount)
	assert.True(t, c.IsActive)

	// Every subsequent issue gets a distinct code.
	seen := map[string]bool{c.Code: true}
	for i := 0; i < 50; i++ {
		next, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: 5, UsageLimit: 1})
		require.NoError(t, err)
		require.False(t, seen[next.Code])
		seen[next.Code] = true
	}
}

func TestIssue_RejectsInvalidConfiguration(t *testing.T) {
	svc := newService(newMemCouponStore())

	_, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: 10, UsageLimit: 0})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: 10, UsageLimit: -1})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: -5, UsageLimit: 1})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestIssue_BindsCampaignAndReferrer(t *testing.T) {
	svc := newService(newMemCouponStore())
	campaignID := int64(3)
	referrerID := int64(1)

	c, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{
		CampaignID:         &campaignID,
		ReferrerCustomerID: &referrerID,
		Value:              25,
		UsageLimit:         10,
	})

	require.NoError(t, err)
	assert.True(t, c.CampaignID.Valid)
	assert.Equal(t, campaignID, c.CampaignID.Int64)
	assert.True(t, c.ReferrerCustomerID.Valid)
	assert.Equal(t, referrerID, c.ReferrerCustomerID.Int64)
}

func TestIssue_UnknownCampaign(t *testing.T) {
	svc := newService(newMemCouponStore())
	campaignID := int64(999)

	_, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{
		CampaignID: &campaignID,
		Value:      25,
		UsageLimit: 10,
	})

	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	store := newMemCouponStore()
	svc := newService(store)

	c, err := svc.Issue(context.Background(), 7, &domain.IssueCouponRequest{Value: 25, UsageLimit: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), 7, c.ID))
	assert.False(t, store.byID[c.ID].IsActive)

	// Wrong merchant cannot touch it.
	assert.ErrorIs(t, svc.Deactivate(context.Background(), 8, c.ID), xerrors.ErrNotFound)
}
