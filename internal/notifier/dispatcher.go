// internal/notifier/dispatcher.go
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"referral-service/internal/clock"
	"referral-service/internal/domain/notification"
	xerrors "referral-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type job struct {
	merchantID int64
	phone      string
	body       string
	done       chan Result
}

// Dispatcher fans messages out to a small worker pool. Each message gets
// exactly one delivery attempt and a log row; failures are recorded, never
// retried.
type Dispatcher struct {
	session Session
	log     Log
	clock   clock.Clock
	logger  *zap.Logger

	delay       time.Duration
	sendTimeout time.Duration

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(
	session Session,
	log Log,
	clk clock.Clock,
	logger *zap.Logger,
	workers int,
	delay time.Duration,
	sendTimeout time.Duration,
) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		session:     session,
		log:         log,
		clock:       clk,
		logger:      logger,
		delay:       delay,
		sendTimeout: sendTimeout,
		jobs:        make(chan job, workers*4),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Enqueue queues one message and returns a channel that yields the delivery
// result. The channel is buffered so an uninterested caller can walk away.
func (d *Dispatcher) Enqueue(merchantID int64, phone, body string) (<-chan Result, error) {
	j := job{
		merchantID: merchantID,
		phone:      phone,
		body:       body,
		done:       make(chan Result, 1),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("%w: dispatcher is closed", xerrors.ErrNotifierFailure)
	}
	d.jobs <- j
	return j.done, nil
}

// Send queues a message and waits for its result, so the dispatcher can sit
// behind the workflows' notifier ports.
func (d *Dispatcher) Send(ctx context.Context, merchantID int64, phone, body string) error {
	done, err := d.Enqueue(merchantID, phone, body)
	if err != nil {
		return err
	}

	select {
	case res := <-done:
		if !res.Success {
			return fmt.Errorf("%w: %s", xerrors.ErrNotifierFailure, res.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for j := range d.jobs {
		res := d.deliver(j)
		j.done <- res

		// Pace outbound traffic so the gateway is not hammered.
		if d.delay > 0 {
			<-d.clock.After(d.delay)
		}
	}
}

func (d *Dispatcher) deliver(j job) Result {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	entry := &notification.Notification{
		MerchantID:  j.merchantID,
		PhoneNumber: j.phone,
		Body:        j.body,
	}
	if err := d.log.Create(ctx, entry); err != nil {
		// Delivery still proceeds; the log is advisory.
		d.logger.Warn("failed to record notification", zap.Error(err))
	}

	res, err := d.session.Send(ctx, j.phone, j.body)
	if err != nil {
		res = &Result{Success: false, Error: err.Error()}
	}

	if entry.ID != 0 {
		if res.Success {
			if err := d.log.MarkSent(ctx, entry.ID, res.MessageID); err != nil {
				d.logger.Warn("failed to mark notification sent", zap.Error(err))
			}
		} else {
			if err := d.log.MarkFailed(ctx, entry.ID, res.Error); err != nil {
				d.logger.Warn("failed to mark notification failed", zap.Error(err))
			}
		}
	}

	if res.Success {
		d.logger.Debug("notification delivered",
			zap.Int64("merchant_id", j.merchantID),
			zap.String("provider_message_id", res.MessageID),
		)
	} else {
		d.logger.Warn("notification delivery failed",
			zap.Int64("merchant_id", j.merchantID),
			zap.String("error", res.Error),
		)
	}

	return *res
}
