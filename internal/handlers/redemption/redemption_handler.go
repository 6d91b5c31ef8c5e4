// internal/handlers/redemption/redemption_handler.go
package redemption

import (
	"net/http"

	"referral-service/internal/domain/redemption"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	"referral-service/internal/repository/postgres"
	service "referral-service/internal/service/redemption"

	"github.com/gin-gonic/gin"
)

type RedemptionHandler struct {
	workflow *service.Workflow
	audit    *postgres.RedemptionRepository
}

func NewRedemptionHandler(workflow *service.Workflow, audit *postgres.RedemptionRepository) *RedemptionHandler {
	return &RedemptionHandler{workflow: workflow, audit: audit}
}

// Redeem is the public endpoint: a referred customer submits a code.
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req redemption.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.workflow.Redeem(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "redemption failed")
		return
	}

	response.Success(c, http.StatusOK, "code redeemed successfully", result)
}

// ListRedemptions lists the merchant's redemption audit trail
func (h *RedemptionHandler) ListRedemptions(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters redemption.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	redemptions, total, err := h.audit.List(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list redemptions")
		return
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	response.Success(c, http.StatusOK, "redemptions retrieved", redemption.ListResponse{
		Redemptions: redemptions,
		Total:       total,
		Page:        filters.Page,
		PageSize:    filters.PageSize,
		TotalPages:  totalPages,
	})
}

// GetRedemption retrieves one audit row by its reference
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	reference := c.Param("reference")
	if reference == "" {
		response.Error(c, http.StatusBadRequest, "redemption reference is required", nil)
		return
	}

	rec, err := h.audit.FindByReference(c.Request.Context(), merchantID, reference)
	if err != nil {
		response.FromError(c, err, "redemption not found")
		return
	}

	response.Success(c, http.StatusOK, "redemption retrieved", rec)
}
