// internal/service/redemption/workflow.go
package redemption

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/customer"
	"referral-service/internal/domain/redemption"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the transactional port behind the workflow. Award executes the
// whole critical section (coupon increment, balance credit, audit insert,
// campaign counters) as one atomic unit: either everything commits or
// nothing does.
type Store interface {
	AwardedExists(ctx context.Context, couponCode, referredPhone string) (bool, error)
	Award(ctx context.Context, in *AwardInput) (*AwardResult, error)
	MarkNotified(ctx context.Context, redemptionID int64) error
}

type AwardInput struct {
	Reference     string
	Code          string
	ReferredName  string
	ReferredPhone string
}

type AwardResult struct {
	RedemptionID  int64
	MerchantID    int64
	ReferrerID    int64
	ReferrerName  string
	ReferrerPhone string
	PointsAwarded int64
	NewBalance    int64
	CampaignID    sql.NullInt64
}

// Notifier delivers one best-effort message. A single attempt; errors are
// the caller's to log, never to escalate.
type Notifier interface {
	Send(ctx context.Context, merchantID int64, phone, body string) error
}

// EventSink receives awarded redemptions for live merchant dashboards.
type EventSink interface {
	RedemptionAwarded(merchantID int64, rec *redemption.Redemption)
}

const notifyTimeout = 5 * time.Second

// Workflow drives a redemption attempt through
// pending -> validated -> awarded -> notified, or to rejected.
type Workflow struct {
	store    Store
	notifier Notifier
	events   EventSink
	logger   *zap.Logger
}

func NewWorkflow(store Store, notifier Notifier, events EventSink, logger *zap.Logger) *Workflow {
	return &Workflow{
		store:    store,
		notifier: notifier,
		events:   events,
		logger:   logger,
	}
}

// Redeem validates the presented code, awards points to the referrer and
// notifies them. The award is durable once this returns successfully;
// notification failures do not undo it.
func (w *Workflow) Redeem(ctx context.Context, req *redemption.RedeemRequest) (*redemption.RedeemResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", xerrors.ErrInvalidInput)
	}

	phone, err := customer.NormalizePhone(req.ReferredCustomerPhone)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.ReferredCustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: referred customer name is required", xerrors.ErrInvalidInput)
	}

	// Duplicate guard: the same (code, phone) pair goes through Awarded at
	// most once. The partial unique index backs this check up under races.
	exists, err := w.store.AwardedExists(ctx, code, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate redemption: %w", err)
	}
	if exists {
		return nil, xerrors.ErrDuplicateRedemption
	}

	reference := ulid.Make().String()

	result, err := w.store.Award(ctx, &AwardInput{
		Reference:     reference,
		Code:          code,
		ReferredName:  name,
		ReferredPhone: phone,
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("redemption awarded",
		zap.String("reference", reference),
		zap.String("code", code),
		zap.Int64("merchant_id", result.MerchantID),
		zap.Int64("referrer_id", result.ReferrerID),
		zap.Int64("points", result.PointsAwarded),
	)

	if w.events != nil {
		w.events.RedemptionAwarded(result.MerchantID, &redemption.Redemption{
			ID:                  result.RedemptionID,
			RedemptionReference: reference,
			MerchantID:          result.MerchantID,
			CouponCode:          code,
			ReferrerCustomerID:  result.ReferrerID,
			ReferredName:        name,
			ReferredPhone:       phone,
			PointsAwarded:       result.PointsAwarded,
			Status:              redemption.StatusAwarded,
		})
	}

	w.notifyReferrer(ctx, reference, result, name)

	return &redemption.RedeemResponse{
		Reference:    reference,
		PointsEarned: result.PointsAwarded,
		TotalPoints:  result.NewBalance,
	}, nil
}

// notifyReferrer is the awarded -> notified transition. Best effort: one
// attempt with a short timeout, failures logged only.
func (w *Workflow) notifyReferrer(ctx context.Context, reference string, result *AwardResult, referredName string) {
	if w.notifier == nil || result.ReferrerPhone == "" {
		return
	}

	body := fmt.Sprintf(
		"Hi %s! %s just used your referral code. You earned %d points. New balance: %d points.",
		result.ReferrerName, referredName, result.PointsAwarded, result.NewBalance,
	)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := w.notifier.Send(notifyCtx, result.MerchantID, result.ReferrerPhone, body); err != nil {
		w.logger.Warn("referrer notification failed",
			zap.String("reference", reference),
			zap.Int64("referrer_id", result.ReferrerID),
			zap.Error(err),
		)
		return
	}

	if err := w.store.MarkNotified(notifyCtx, result.RedemptionID); err != nil {
		w.logger.Warn("failed to mark redemption notified",
			zap.String("reference", reference),
			zap.Error(err),
		)
	}
}
