// internal/service/billing/service_test.go
package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"referral-service/internal/domain/billing"
	"referral-service/internal/domain/campaign"
	"referral-service/internal/domain/customer"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBillStore mirrors the database semantics: Approve and Reject flip the
// status and credit the balance atomically under one lock, and only when the
// submission is still pending.
type memBillStore struct {
	mu       sync.Mutex
	nextID   int64
	bills    map[int64]*billing.BillSubmission
	balances map[int64]int64
	names    map[int64]string
	phones   map[int64]string
}

func newMemBillStore() *memBillStore {
	return &memBillStore{
		nextID:   1,
		bills:    make(map[int64]*billing.BillSubmission),
		balances: make(map[int64]int64),
		names:    make(map[int64]string),
		phones:   make(map[int64]string),
	}
}

func (m *memBillStore) Create(_ context.Context, b *billing.BillSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *memBillStore) FindByID(_ context.Context, merchantID, id int64) (*billing.BillSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok || b.MerchantID != merchantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBillStore) List(_ context.Context, merchantID int64, _ *billing.ListFilters) ([]billing.BillSubmission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []billing.BillSubmission{}
	for _, b := range m.bills {
		if b.MerchantID == merchantID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memBillStore) Approve(_ context.Context, merchantID, billID, pointsAwarded int64, verifiedBy string) (*ApproveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.MerchantID != merchantID {
		return nil, xerrors.ErrNotFound
	}
	if b.VerificationStatus != billing.StatusPending {
		return nil, xerrors.ErrAlreadyVerified
	}
	b.VerificationStatus = billing.StatusApproved
	m.balances[b.CustomerID] += pointsAwarded
	return &ApproveResult{
		NewBalance:    m.balances[b.CustomerID],
		CustomerName:  m.names[b.CustomerID],
		CustomerPhone: m.phones[b.CustomerID],
	}, nil
}

func (m *memBillStore) Reject(_ context.Context, merchantID, billID int64, verifiedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.MerchantID != merchantID {
		return xerrors.ErrNotFound
	}
	if b.VerificationStatus != billing.StatusPending {
		return xerrors.ErrAlreadyVerified
	}
	b.VerificationStatus = billing.StatusRejected
	return nil
}

type stubCampaignFinder struct {
	campaigns map[int64]*campaign.Campaign
}

func (s *stubCampaignFinder) FindByID(_ context.Context, _, id int64) (*campaign.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

type stubCustomerFinder struct {
	ids map[int64]bool
}

func (s *stubCustomerFinder) FindByID(_ context.Context, merchantID, id int64) (*customer.Customer, error) {
	if !s.ids[id] {
		return nil, xerrors.ErrNotFound
	}
	return &customer.Customer{ID: id, MerchantID: merchantID}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (n *recordingNotifier) Send(_ context.Context, _ int64, phone, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, phone)
	return nil
}

func newTestService(store *memBillStore, campaigns map[int64]*campaign.Campaign, notifier *recordingNotifier) *Service {
	customers := &stubCustomerFinder{ids: map[int64]bool{1: true}}
	store.names[1] = "Jane Referrer"
	store.phones[1] = "+254700000001"
	return NewService(store, &stubCampaignFinder{campaigns: campaigns}, customers, notifier, nil, zap.NewNop())
}

func runningCampaign(id int64, rule campaign.RewardRule, value int64) *campaign.Campaign {
	now := time.Now()
	return &campaign.Campaign{
		ID:          id,
		MerchantID:  10,
		RewardRule:  rule,
		RewardValue: value,
		StartDate:   now.Add(-24 * time.Hour),
		EndDate:     now.Add(24 * time.Hour),
		IsActive:    true,
	}
}

func TestSubmitCreatesPendingBill(t *testing.T) {
	store := newMemBillStore()
	svc := newTestService(store, nil, &recordingNotifier{})

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 250,
	})
	require.NoError(t, err)

	assert.Equal(t, billing.StatusPending, b.VerificationStatus)
	assert.False(t, b.CampaignID.Valid)
	assert.NotZero(t, b.ID)
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newMemBillStore(), nil, &recordingNotifier{})

	_, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 0,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}

func TestSubmitRejectsUnknownCustomer(t *testing.T) {
	svc := newTestService(newMemBillStore(), nil, &recordingNotifier{})

	_, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  99,
		TotalAmount: 100,
	})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSubmitRejectsExpiredCampaign(t *testing.T) {
	expired := runningCampaign(5, campaign.RewardRuleFixed, 20)
	expired.EndDate = time.Now().Add(-time.Hour)
	svc := newTestService(newMemBillStore(), map[int64]*campaign.Campaign{5: expired}, &recordingNotifier{})

	campaignID := int64(5)
	_, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		CampaignID:  &campaignID,
		TotalAmount: 100,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestApproveUsesCampaignRule(t *testing.T) {
	store := newMemBillStore()
	notifier := &recordingNotifier{}
	svc := newTestService(store, map[int64]*campaign.Campaign{5: runningCampaign(5, campaign.RewardRulePercentage, 10)}, notifier)

	campaignID := int64(5)
	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		CampaignID:  &campaignID,
		TotalAmount: 200,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), 10, b.ID, "admin")
	require.NoError(t, err)

	assert.Equal(t, billing.StatusApproved, approved.VerificationStatus)
	require.True(t, approved.PointsAwarded.Valid)
	assert.Equal(t, int64(20), approved.PointsAwarded.Int64)
	assert.Equal(t, int64(20), store.balances[1])
	assert.Equal(t, []string{"+254700000001"}, notifier.sent)
}

func TestApproveDefaultsToPerAmount(t *testing.T) {
	store := newMemBillStore()
	svc := newTestService(store, nil, &recordingNotifier{})

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 97,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), 10, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(9), approved.PointsAwarded.Int64)
	assert.Equal(t, int64(9), store.balances[1])
}

func TestApproveTwiceFails(t *testing.T) {
	store := newMemBillStore()
	svc := newTestService(store, nil, &recordingNotifier{})

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 100,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), 10, b.ID, "admin")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), 10, b.ID, "admin")
	assert.ErrorIs(t, err, xerrors.ErrAlreadyVerified)
	assert.Equal(t, int64(10), store.balances[1], "balance credited exactly once")
}

func TestApproveAfterRejectFails(t *testing.T) {
	store := newMemBillStore()
	svc := newTestService(store, nil, &recordingNotifier{})

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 100,
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), 10, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusRejected, rejected.VerificationStatus)

	_, err = svc.Approve(context.Background(), 10, b.ID, "admin")
	assert.ErrorIs(t, err, xerrors.ErrAlreadyVerified)
	assert.Zero(t, store.balances[1])
}

func TestConcurrentApprovalsCreditOnce(t *testing.T) {
	store := newMemBillStore()
	svc := newTestService(store, nil, &recordingNotifier{})

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 300,
	})
	require.NoError(t, err)

	const verifiers = 8
	var wg sync.WaitGroup
	errs := make(chan error, verifiers)
	for i := 0; i < verifiers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(context.Background(), 10, b.ID, "admin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, xerrors.ErrAlreadyVerified)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(30), store.balances[1])
}

func TestApproveNotificationFailureKeepsApproval(t *testing.T) {
	store := newMemBillStore()
	notifier := &recordingNotifier{fail: errors.New("gateway down")}
	svc := newTestService(store, nil, notifier)

	b, err := svc.Submit(context.Background(), 10, &billing.SubmitBillRequest{
		CustomerID:  1,
		TotalAmount: 100,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), 10, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusApproved, approved.VerificationStatus)
	assert.Equal(t, int64(10), store.balances[1])
}
