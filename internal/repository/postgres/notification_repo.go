// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/notification"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a queued message-log entry.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (merchant_id, phone_number, body, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, n.MerchantID, n.PhoneNumber, n.Body, notification.StatusQueued).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.Status = notification.StatusQueued
	return nil
}

// MarkSent records a successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, providerMessageID string) error {
	query := `
		UPDATE notifications
		SET status = $1, provider_message_id = $2, sent_at = $3
		WHERE id = $4
	`
	result, err := r.db.Exec(ctx, query, notification.StatusSent,
		sql.NullString{String: providerMessageID, Valid: providerMessageID != ""}, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// MarkFailed records a delivery failure. The row stays for operator review.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, sendErr string) error {
	query := `UPDATE notifications SET status = $1, error = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, notification.StatusFailed,
		sql.NullString{String: sendErr, Valid: sendErr != ""}, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves the message log for a merchant.
func (r *NotificationRepository) List(ctx context.Context, merchantID int64, filters *notification.ListFilters) ([]notification.Notification, int64, error) {
	conditions := []string{"merchant_id = $1"}
	args := []interface{}{merchantID}
	argPos := 2

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Phone != "" {
		conditions = append(conditions, fmt.Sprintf("phone_number = $%d", argPos))
		args = append(args, filters.Phone)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notifications WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT id, merchant_id, phone_number, body, status, provider_message_id, error, sent_at, created_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		err := rows.Scan(&n.ID, &n.MerchantID, &n.PhoneNumber, &n.Body, &n.Status,
			&n.ProviderMessageID, &n.Error, &n.SentAt, &n.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, total, nil
}
