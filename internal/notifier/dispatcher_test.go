// internal/notifier/dispatcher_test.go
package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"referral-service/internal/domain/notification"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock fires timers immediately and records the requested delays.
type fakeClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, 0) }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Unix(0, 0)
	return ch
}

func (c *fakeClock) requested() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

type fakeSession struct {
	mu   sync.Mutex
	sent []string
	fail bool
	err  error
}

func (s *fakeSession) Connect(context.Context) error { return nil }
func (s *fakeSession) Disconnect() error             { return nil }

func (s *fakeSession) Send(_ context.Context, phone, _ string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.fail {
		return &Result{Success: false, Error: "rejected"}, nil
	}
	s.sent = append(s.sent, phone)
	return &Result{Success: true, MessageID: "msg-1"}, nil
}

type fakeLog struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*notification.Notification
}

func newFakeLog() *fakeLog {
	return &fakeLog{nextID: 1, entries: make(map[int64]*notification.Notification)}
}

func (l *fakeLog) Create(_ context.Context, n *notification.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	n.ID = l.nextID
	l.nextID++
	n.Status = notification.StatusQueued
	cp := *n
	l.entries[n.ID] = &cp
	return nil
}

func (l *fakeLog) MarkSent(_ context.Context, id int64, messageID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	e.Status = notification.StatusSent
	e.ProviderMessageID.String = messageID
	e.ProviderMessageID.Valid = true
	return nil
}

func (l *fakeLog) MarkFailed(_ context.Context, id int64, sendErr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	e.Status = notification.StatusFailed
	e.Error.String = sendErr
	e.Error.Valid = true
	return nil
}

func (l *fakeLog) statuses() map[notification.Status]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[notification.Status]int{}
	for _, e := range l.entries {
		out[e.Status]++
	}
	return out
}

func TestDispatcherDeliversAndLogs(t *testing.T) {
	session := &fakeSession{}
	log := newFakeLog()
	d := NewDispatcher(session, log, &fakeClock{}, zap.NewNop(), 2, 0, time.Second)
	defer d.Close()

	err := d.Send(context.Background(), 10, "+254700000001", "hello")
	require.NoError(t, err)

	assert.Equal(t, []string{"+254700000001"}, session.sent)
	assert.Equal(t, 1, log.statuses()[notification.StatusSent])
}

func TestDispatcherRecordsFailureWithoutRetry(t *testing.T) {
	session := &fakeSession{fail: true}
	log := newFakeLog()
	d := NewDispatcher(session, log, &fakeClock{}, zap.NewNop(), 1, 0, time.Second)
	defer d.Close()

	err := d.Send(context.Background(), 10, "+254700000001", "hello")
	require.ErrorIs(t, err, xerrors.ErrNotifierFailure)

	assert.Empty(t, session.sent)
	assert.Equal(t, 1, log.statuses()[notification.StatusFailed])
}

func TestDispatcherTransportErrorIsFailure(t *testing.T) {
	session := &fakeSession{err: errors.New("connection refused")}
	log := newFakeLog()
	d := NewDispatcher(session, log, &fakeClock{}, zap.NewNop(), 1, 0, time.Second)
	defer d.Close()

	err := d.Send(context.Background(), 10, "+254700000001", "hello")
	require.ErrorIs(t, err, xerrors.ErrNotifierFailure)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDispatcherPacesWithInjectedClock(t *testing.T) {
	session := &fakeSession{}
	clk := &fakeClock{}
	d := NewDispatcher(session, newFakeLog(), clk, zap.NewNop(), 1, 500*time.Millisecond, time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Send(context.Background(), 10, "+254700000001", "hi"))
	}
	d.Close()

	delays := clk.requested()
	require.Len(t, delays, 3)
	for _, delay := range delays {
		assert.Equal(t, 500*time.Millisecond, delay)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(&fakeSession{}, newFakeLog(), &fakeClock{}, zap.NewNop(), 1, 0, time.Second)
	d.Close()

	_, err := d.Enqueue(10, "+254700000001", "hi")
	assert.ErrorIs(t, err, xerrors.ErrNotifierFailure)
}

func TestDispatcherFanOut(t *testing.T) {
	session := &fakeSession{}
	log := newFakeLog()
	d := NewDispatcher(session, log, &fakeClock{}, zap.NewNop(), 4, 0, time.Second)
	defer d.Close()

	const messages = 20
	var wg sync.WaitGroup
	for i := 0; i < messages; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Send(context.Background(), 10, "+254700000001", "hi"))
		}()
	}
	wg.Wait()

	assert.Len(t, session.sent, messages)
	assert.Equal(t, messages, log.statuses()[notification.StatusSent])
}
