// internal/notifier/notifier.go
package notifier

import (
	"context"

	"referral-service/internal/domain/notification"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Session is a connection to the outbound message provider. Implementations
// are owned by the composition root; the dispatcher only borrows one.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Send(ctx context.Context, phone, body string) (*Result, error)
}

// Log records every outbound message and its final state.
type Log interface {
	Create(ctx context.Context, n *notification.Notification) error
	MarkSent(ctx context.Context, id int64, providerMessageID string) error
	MarkFailed(ctx context.Context, id int64, sendErr string) error
}
