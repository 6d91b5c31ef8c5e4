// internal/domain/coupon/dto.go
package coupon

type IssueCouponRequest struct {
	CampaignID         *int64 `json:"campaign_id,omitempty"`
	ReferrerCustomerID *int64 `json:"referrer_customer_id,omitempty"`
	Value              int64  `json:"value"`
	UsageLimit         int64  `json:"usage_limit"`
}

type ListFilters struct {
	CampaignID *int64 `form:"campaign_id"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type ListResponse struct {
	Coupons    []Coupon `json:"coupons"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}
