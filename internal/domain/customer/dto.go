// internal/domain/customer/dto.go
package customer

type CreateCustomerRequest struct {
	FullName    string   `json:"full_name" binding:"required"`
	PhoneNumber string   `json:"phone_number" binding:"required"`
	Email       string   `json:"email,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// AdjustPointsRequest applies a manual balance change: positive for a
// goodwill credit, negative when points are spent at the counter.
type AdjustPointsRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

type AdjustPointsResponse struct {
	CustomerID int64 `json:"customer_id"`
	Delta      int64 `json:"delta"`
	Balance    int64 `json:"balance"`
}

type UpdateCustomerRequest struct {
	FullName *string   `json:"full_name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

type ListFilters struct {
	Search    string `form:"search"`
	IsActive  *bool  `form:"is_active"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

type ListResponse struct {
	Customers  []Customer `json:"customers"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
