// internal/service/points/engine.go
package points

import (
	"context"
	"fmt"
	"math"

	"referral-service/internal/domain/campaign"
	xerrors "referral-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// BalanceStore adjusts a customer's point balance atomically.
type BalanceStore interface {
	ApplyPoints(ctx context.Context, customerID, delta int64) (int64, error)
}

// Engine owns all point arithmetic. Every balance mutation in the system
// goes through ApplyPoints so the non-negative balance invariant is enforced
// in one place.
type Engine struct {
	balances BalanceStore
	logger   *zap.Logger
}

func NewEngine(balances BalanceStore, logger *zap.Logger) *Engine {
	return &Engine{
		balances: balances,
		logger:   logger,
	}
}

// ComputePoints evaluates a reward rule against a bill amount. All division
// uses floor semantics so rounding never over-awards.
func ComputePoints(rule campaign.RewardRule, amount float64, ruleValue int64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, xerrors.ErrInvalidAmount
	}

	switch rule {
	case campaign.RewardRuleFixed:
		if ruleValue < 0 {
			return 0, fmt.Errorf("%w: fixed reward must not be negative", xerrors.ErrInvalidInput)
		}
		return ruleValue, nil

	case campaign.RewardRulePercentage:
		if ruleValue < 0 {
			return 0, fmt.Errorf("%w: percentage must not be negative", xerrors.ErrInvalidInput)
		}
		return int64(math.Floor(amount * float64(ruleValue) / 100)), nil

	case campaign.RewardRulePerAmount:
		// One point per ten currency units.
		return int64(math.Floor(amount / 10)), nil

	default:
		return 0, fmt.Errorf("%w: unknown reward rule %q", xerrors.ErrInvalidInput, rule)
	}
}

// ApplyPoints adds delta to a customer balance and returns the new balance.
// Debits that would push the balance negative fail with
// ErrInsufficientPoints and leave the balance untouched.
func (e *Engine) ApplyPoints(ctx context.Context, customerID, delta int64) (int64, error) {
	balance, err := e.balances.ApplyPoints(ctx, customerID, delta)
	if err != nil {
		return 0, err
	}

	e.logger.Info("points applied",
		zap.Int64("customer_id", customerID),
		zap.Int64("delta", delta),
		zap.Int64("balance", balance),
	)

	return balance, nil
}
