package points_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"referral-service/internal/domain/campaign"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/service/points"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComputePoints(t *testing.T) {
	tests := []struct {
		name      string
		rule      campaign.RewardRule
		amount    float64
		ruleValue int64
		want      int64
	}{
		{"fixed returns rule value verbatim", campaign.RewardRuleFixed, 100, 25, 25},
		{"fixed ignores amount", campaign.RewardRuleFixed, 0, 10, 10},
		{"percentage floors", campaign.RewardRulePercentage, 200, 10, 20},
		{"percentage never rounds up", campaign.RewardRulePercentage, 99, 10, 9},
		{"percentage of zero", campaign.RewardRulePercentage, 0, 50, 0},
		{"per amount default", campaign.RewardRulePerAmount, 97, 0, 9},
		{"per amount exact", campaign.RewardRulePerAmount, 100, 0, 10},
		{"per amount below unit", campaign.RewardRulePerAmount, 9.99, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := points.ComputePoints(tt.rule, tt.amount, tt.ruleValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePoints_RejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := points.ComputePoints(campaign.RewardRulePerAmount, amount, 0)
		assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
	}
}

func TestComputePoints_RejectsUnknownRule(t *testing.T) {
	_, err := points.ComputePoints("bananas", 100, 10)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestComputePoints_RejectsNegativeRuleValue(t *testing.T) {
	_, err := points.ComputePoints(campaign.RewardRuleFixed, 100, -5)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = points.ComputePoints(campaign.RewardRulePercentage, 100, -5)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

// fakeBalances mirrors the conditional-update semantics of the postgres
// repository: a debit below zero is rejected without mutating the balance.
type fakeBalances struct {
	mu       sync.Mutex
	balances map[int64]int64
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{balances: make(map[int64]int64)}
}

func (f *fakeBalances) ApplyPoints(_ context.Context, customerID, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.balances[customerID]
	if !ok {
		return 0, xerrors.ErrNotFound
	}
	if current+delta < 0 {
		return 0, xerrors.ErrInsufficientPoints
	}
	f.balances[customerID] = current + delta
	return current + delta, nil
}

func TestApplyPoints_Credit(t *testing.T) {
	balances := newFakeBalances()
	balances.balances[1] = 10
	engine := points.NewEngine(balances, zap.NewNop())

	newBalance, err := engine.ApplyPoints(context.Background(), 1, 40)

	require.NoError(t, err)
	assert.Equal(t, int64(50), newBalance)
}

func TestApplyPoints_DebitBeyondBalance(t *testing.T) {
	balances := newFakeBalances()
	balances.balances[1] = 30
	engine := points.NewEngine(balances, zap.NewNop())

	_, err := engine.ApplyPoints(context.Background(), 1, -50)

	assert.ErrorIs(t, err, xerrors.ErrInsufficientPoints)
	assert.Equal(t, int64(30), balances.balances[1], "failed debit must not change the balance")
}

func TestApplyPoints_UnknownCustomer(t *testing.T) {
	engine := points.NewEngine(newFakeBalances(), zap.NewNop())

	_, err := engine.ApplyPoints(context.Background(), 99, 10)

	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
