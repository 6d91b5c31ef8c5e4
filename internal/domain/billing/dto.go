// internal/domain/billing/dto.go
package billing

type SubmitBillRequest struct {
	CustomerID  int64   `json:"customer_id" binding:"required"`
	CampaignID  *int64  `json:"campaign_id,omitempty"`
	TotalAmount float64 `json:"total_amount" binding:"required"`
}

type VerifyBillRequest struct {
	VerifiedBy string `json:"verified_by" binding:"required"`
}

type ListFilters struct {
	CustomerID *int64              `form:"customer_id"`
	Status     *VerificationStatus `form:"status"`
	Page       int                 `form:"page"`
	PageSize   int                 `form:"page_size"`
}

type ListResponse struct {
	Bills      []BillSubmission `json:"bills"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
