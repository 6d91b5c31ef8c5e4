// internal/domain/notification/entity.go
package notification

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification is one entry in the outbound message log. Delivery is best
// effort; failed rows stay in the log for operator review.
type Notification struct {
	ID          int64  `json:"id" db:"id"`
	MerchantID  int64  `json:"merchant_id" db:"merchant_id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Body        string `json:"body" db:"body"`

	Status            Status         `json:"status" db:"status"`
	ProviderMessageID sql.NullString `json:"provider_message_id,omitempty" db:"provider_message_id"`
	Error             sql.NullString `json:"error,omitempty" db:"error"`
	SentAt            sql.NullTime   `json:"sent_at,omitempty" db:"sent_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ListFilters struct {
	Status   *Status `form:"status"`
	Phone    string  `form:"phone"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
}
