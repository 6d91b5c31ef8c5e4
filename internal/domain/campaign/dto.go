// internal/domain/campaign/dto.go
package campaign

import "time"

type CreateCampaignRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description,omitempty"`
	RewardRule  RewardRule `json:"reward_rule" binding:"required"`
	RewardValue int64      `json:"reward_value"`
	GoalCount   int64      `json:"goal_count"`
	StartDate   time.Time  `json:"start_date" binding:"required"`
	EndDate     time.Time  `json:"end_date" binding:"required"`
}

type UpdateCampaignRequest struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	RewardRule  *RewardRule `json:"reward_rule,omitempty"`
	RewardValue *int64      `json:"reward_value,omitempty"`
	GoalCount   *int64      `json:"goal_count,omitempty"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	IsActive    *bool       `json:"is_active,omitempty"`
}

type ListFilters struct {
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`
}

type ListResponse struct {
	Campaigns  []Campaign `json:"campaigns"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
