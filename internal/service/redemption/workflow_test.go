package redemption_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	domain "referral-service/internal/domain/redemption"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/service/redemption"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore implements redemption.Store with the same atomicity the postgres
// store gets from its transaction: the coupon increment, balance credit and
// audit insert happen under one lock.
type memCoupon struct {
	id         int64
	merchantID int64
	code       string
	referrerID int64
	value      int64
	usageLimit int64
	usageCount int64
	isActive   bool
}

type memCustomer struct {
	id      int64
	name    string
	phone   string
	balance int64
}

type memStore struct {
	mu        sync.Mutex
	coupons   map[string]*memCoupon
	customers map[int64]*memCustomer
	audit     []*domain.Redemption
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		coupons:   make(map[string]*memCoupon),
		customers: make(map[int64]*memCustomer),
	}
}

func (s *memStore) addCoupon(c *memCoupon) { s.coupons[c.code] = c }

func (s *memStore) addCustomer(c *memCustomer) { s.customers[c.id] = c }

func (s *memStore) AwardedExists(_ context.Context, code, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.audit {
		if rec.CouponCode == code && rec.ReferredPhone == phone &&
			(rec.Status == domain.StatusAwarded || rec.Status == domain.StatusNotified) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Award(_ context.Context, in *redemption.AwardInput) (*redemption.AwardResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[in.Code]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	if c.usageCount >= c.usageLimit {
		return nil, xerrors.ErrLimitExceeded
	}
	if !c.isActive {
		return nil, xerrors.ErrCouponInactive
	}

	referrer, ok := s.customers[c.referrerID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}

	// Same-lock duplicate recheck, mirroring the partial unique index.
	for _, rec := range s.audit {
		if rec.CouponCode == in.Code && rec.ReferredPhone == in.ReferredPhone {
			return nil, xerrors.ErrDuplicateRedemption
		}
	}

	c.usageCount++
	if c.usageCount >= c.usageLimit {
		c.isActive = false
	}
	referrer.balance += c.value

	s.nextID++
	rec := &domain.Redemption{
		ID:                  s.nextID,
		RedemptionReference: in.Reference,
		MerchantID:          c.merchantID,
		CouponID:            c.id,
		CouponCode:          in.Code,
		ReferrerCustomerID:  referrer.id,
		ReferredName:        in.ReferredName,
		ReferredPhone:       in.ReferredPhone,
		PointsAwarded:       c.value,
		Status:              domain.StatusAwarded,
	}
	s.audit = append(s.audit, rec)

	return &redemption.AwardResult{
		RedemptionID:  rec.ID,
		MerchantID:    c.merchantID,
		ReferrerID:    referrer.id,
		ReferrerName:  referrer.name,
		ReferrerPhone: referrer.phone,
		PointsAwarded: c.value,
		NewBalance:    referrer.balance,
		CampaignID:    sql.NullInt64{},
	}, nil
}

func (s *memStore) MarkNotified(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.audit {
		if rec.ID == id && rec.Status == domain.StatusAwarded {
			rec.Status = domain.StatusNotified
			return nil
		}
	}
	return xerrors.ErrNotFound
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, _ int64, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return xerrors.ErrNotifierFailure
	}
	f.sent = append(f.sent, phone+": "+body)
	return nil
}

func newWorkflow(store *memStore, notifier *fakeNotifier) *redemption.Workflow {
	return redemption.NewWorkflow(store, notifier, nil, zap.NewNop())
}

func seed(store *memStore) {
	store.addCustomer(&memCustomer{id: 1, name: "Asha", phone: "+254700000001", balance: 0})
	store.addCoupon(&memCoupon{
		id: 10, merchantID: 7, code: "REFZX42Q", referrerID: 1,
		value: 25, usageLimit: 5, isActive: true,
	})
}

func redeemReq(code, name, phone string) *domain.RedeemRequest {
	return &domain.RedeemRequest{
		Code:                  code,
		ReferredCustomerName:  name,
		ReferredCustomerPhone: phone,
	}
}

func TestRedeem_AwardsAndNotifies(t *testing.T) {
	store := newMemStore()
	seed(store)
	notifier := &fakeNotifier{}
	wf := newWorkflow(store, notifier)

	resp, err := wf.Redeem(context.Background(), redeemReq("REFZX42Q", "Brian", "+254700000002"))

	require.NoError(t, err)
	assert.Equal(t, int64(25), resp.PointsEarned)
	assert.Equal(t, int64(25), resp.TotalPoints)
	assert.NotEmpty(t, resp.Reference)

	require.Len(t, store.audit, 1)
	assert.Equal(t, domain.StatusNotified, store.audit[0].Status)
	assert.Equal(t, int64(25), store.audit[0].PointsAwarded)
	assert.Len(t, notifier.sent, 1)
}

func TestRedeem_NotifierFailureDoesNotRollBackAward(t *testing.T) {
	store := newMemStore()
	seed(store)
	notifier := &fakeNotifier{fail: true}
	wf := newWorkflow(store, notifier)

	resp, err := wf.Redeem(context.Background(), redeemReq("REFZX42Q", "Brian", "+254700000002"))

	require.NoError(t, err, "notification failure must not fail the redemption")
	assert.Equal(t, int64(25), resp.PointsEarned)
	require.Len(t, store.audit, 1)
	assert.Equal(t, domain.StatusAwarded, store.audit[0].Status)
	assert.Equal(t, int64(25), store.customers[1].balance)
}

func TestRedeem_UnknownCode(t *testing.T) {
	store := newMemStore()
	seed(store)
	wf := newWorkflow(store, &fakeNotifier{})

	_, err := wf.Redeem(context.Background(), redeemReq("NOPE9999", "Brian", "+254700000002"))

	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Empty(t, store.audit)
}

func TestRedeem_InvalidInput(t *testing.T) {
	store := newMemStore()
	seed(store)
	wf := newWorkflow(store, &fakeNotifier{})

	_, err := wf.Redeem(context.Background(), redeemReq("  ", "Brian", "+254700000002"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = wf.Redeem(context.Background(), redeemReq("REFZX42Q", "Brian", "not-a-phone"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = wf.Redeem(context.Background(), redeemReq("REFZX42Q", "   ", "+254700000002"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestRedeem_DuplicatePairRejectedAndBalanceUnchanged(t *testing.T) {
	store := newMemStore()
	seed(store)
	wf := newWorkflow(store, &fakeNotifier{})
	ctx := context.Background()

	_, err := wf.Redeem(ctx, redeemReq("REFZX42Q", "Brian", "+254700000002"))
	require.NoError(t, err)
	balanceAfterFirst := store.customers[1].balance

	_, err = wf.Redeem(ctx, redeemReq("REFZX42Q", "Brian", "+254700000002"))

	assert.ErrorIs(t, err, xerrors.ErrDuplicateRedemption)
	assert.Equal(t, balanceAfterFirst, store.customers[1].balance)
	assert.Len(t, store.audit, 1)

	// A different referred phone is still fine.
	_, err = wf.Redeem(ctx, redeemReq("REFZX42Q", "Cynthia", "+254700000003"))
	assert.NoError(t, err)
}

func TestRedeem_SingleUseCouponConcurrently(t *testing.T) {
	store := newMemStore()
	store.addCustomer(&memCustomer{id: 1, name: "Asha", phone: "+254700000001"})
	store.addCoupon(&memCoupon{
		id: 11, merchantID: 7, code: "ONCE4USE", referrerID: 1,
		value: 10, usageLimit: 1, isActive: true,
	})
	wf := newWorkflow(store, &fakeNotifier{})

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wf.Redeem(context.Background(),
				redeemReq("ONCE4USE", "Guest", fmt.Sprintf("+2547000001%02d", i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, xerrors.ErrLimitExceeded) && !errors.Is(err, xerrors.ErrContention) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one concurrent redemption must win")
	assert.Equal(t, int64(1), store.coupons["ONCE4USE"].usageCount)
	assert.False(t, store.coupons["ONCE4USE"].isActive)
	assert.Equal(t, int64(10), store.customers[1].balance)
	assert.Len(t, store.audit, 1)
}

func TestRedeem_UsageNeverExceedsLimitUnderConcurrency(t *testing.T) {
	store := newMemStore()
	store.addCustomer(&memCustomer{id: 1, name: "Asha", phone: "+254700000001"})
	store.addCoupon(&memCoupon{
		id: 12, merchantID: 7, code: "CAPPED7X", referrerID: 1,
		value: 5, usageLimit: 7, isActive: true,
	})
	wf := newWorkflow(store, &fakeNotifier{})

	const attempts = 50
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = wf.Redeem(context.Background(),
				redeemReq("CAPPED7X", "Guest", fmt.Sprintf("+2547009%05d", i)))
		}(i)
	}
	wg.Wait()

	c := store.coupons["CAPPED7X"]
	assert.LessOrEqual(t, c.usageCount, c.usageLimit)
	assert.Equal(t, c.usageLimit, c.usageCount, "all seven slots should be consumed")

	// Award and audit entry correspond one to one.
	awarded := 0
	var totalPoints int64
	for _, rec := range store.audit {
		if rec.Status == domain.StatusAwarded || rec.Status == domain.StatusNotified {
			awarded++
			totalPoints += rec.PointsAwarded
		}
	}
	assert.Equal(t, int(c.usageLimit), awarded)
	assert.Equal(t, totalPoints, store.customers[1].balance)
}

func TestRedeem_InactiveCoupon(t *testing.T) {
	store := newMemStore()
	store.addCustomer(&memCustomer{id: 1, name: "Asha", phone: "+254700000001"})
	store.addCoupon(&memCoupon{
		id: 13, merchantID: 7, code: "DISABLED", referrerID: 1,
		value: 5, usageLimit: 10, isActive: false,
	})
	wf := newWorkflow(store, &fakeNotifier{})

	_, err := wf.Redeem(context.Background(), redeemReq("DISABLED", "Brian", "+254700000002"))

	assert.ErrorIs(t, err, xerrors.ErrCouponInactive)
	assert.Empty(t, store.audit)
}
