// internal/service/campaign/service.go
package campaign

import (
	"context"
	"database/sql"
	"fmt"

	"referral-service/internal/domain/campaign"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/repository/postgres"

	"go.uber.org/zap"
)

type Service struct {
	campaignRepo *postgres.CampaignRepository
	logger       *zap.Logger
}

func NewService(campaignRepo *postgres.CampaignRepository, logger *zap.Logger) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

// CreateCampaign validates and persists a new campaign.
func (s *Service) CreateCampaign(ctx context.Context, merchantID int64, req *campaign.CreateCampaignRequest) (*campaign.Campaign, error) {
	if !req.RewardRule.Valid() {
		return nil, fmt.Errorf("%w: unknown reward rule %q", xerrors.ErrInvalidInput, req.RewardRule)
	}
	if req.RewardValue < 0 {
		return nil, fmt.Errorf("%w: reward value must not be negative", xerrors.ErrInvalidInput)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", xerrors.ErrInvalidInput)
	}

	c := &campaign.Campaign{
		MerchantID:  merchantID,
		Name:        req.Name,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
		RewardRule:  req.RewardRule,
		RewardValue: req.RewardValue,
		GoalCount:   req.GoalCount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
	}

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.Int64("merchant_id", merchantID),
		zap.Int64("campaign_id", c.ID),
		zap.String("reward_rule", string(c.RewardRule)),
	)

	return c, nil
}

// GetCampaign retrieves a campaign by ID.
func (s *Service) GetCampaign(ctx context.Context, merchantID, campaignID int64) (*campaign.Campaign, error) {
	return s.campaignRepo.FindByID(ctx, merchantID, campaignID)
}

// UpdateCampaign applies a partial update.
func (s *Service) UpdateCampaign(ctx context.Context, merchantID, campaignID int64, req *campaign.UpdateCampaignRequest) (*campaign.Campaign, error) {
	if req.RewardRule != nil && !req.RewardRule.Valid() {
		return nil, fmt.Errorf("%w: unknown reward rule %q", xerrors.ErrInvalidInput, *req.RewardRule)
	}
	if req.RewardValue != nil && *req.RewardValue < 0 {
		return nil, fmt.Errorf("%w: reward value must not be negative", xerrors.ErrInvalidInput)
	}
	return s.campaignRepo.Update(ctx, merchantID, campaignID, req)
}

// ListCampaigns retrieves campaigns with pagination.
func (s *Service) ListCampaigns(ctx context.Context, merchantID int64, filters *campaign.ListFilters) (*campaign.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	campaigns, total, err := s.campaignRepo.List(ctx, merchantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &campaign.ListResponse{
		Campaigns:  campaigns,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetStats aggregates campaign progress.
func (s *Service) GetStats(ctx context.Context, merchantID, campaignID int64) (*campaign.CampaignStats, error) {
	return s.campaignRepo.GetStats(ctx, merchantID, campaignID)
}
