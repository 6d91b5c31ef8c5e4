// internal/domain/redemption/dto.go
package redemption

import "time"

// RedeemRequest is the public redemption payload. Unknown fields are
// rejected at the boundary.
type RedeemRequest struct {
	Code                  string `json:"code" binding:"required"`
	ReferredCustomerName  string `json:"referred_customer_name" binding:"required"`
	ReferredCustomerPhone string `json:"referred_customer_phone" binding:"required"`
}

type RedeemResponse struct {
	Reference    string `json:"reference"`
	PointsEarned int64  `json:"points_earned"`
	TotalPoints  int64  `json:"total_points"`
}

type ListFilters struct {
	CouponCode string     `form:"coupon_code"`
	Status     *Status    `form:"status"`
	Phone      string     `form:"phone"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

type ListResponse struct {
	Redemptions []Redemption `json:"redemptions"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
}
