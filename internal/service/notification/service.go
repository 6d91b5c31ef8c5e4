// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"

	"referral-service/internal/domain/notification"
	"referral-service/internal/repository/postgres"

	"go.uber.org/zap"
)

// Service exposes the outbound message log to operators.
type Service struct {
	repo   *postgres.NotificationRepository
	logger *zap.Logger
}

func NewService(repo *postgres.NotificationRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List retrieves message-log entries with pagination.
func (s *Service) List(ctx context.Context, merchantID int64, filters *notification.ListFilters) (*notification.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	notifications, total, err := s.repo.List(ctx, merchantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &notification.ListResponse{
		Notifications: notifications,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    totalPages,
	}, nil
}
