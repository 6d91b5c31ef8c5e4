// internal/handlers/campaign/campaign_handler.go
package campaign

import (
	"net/http"
	"strconv"

	"referral-service/internal/domain/campaign"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	service "referral-service/internal/service/campaign"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignService *service.Service
}

func NewCampaignHandler(campaignService *service.Service) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// CreateCampaign creates a new referral campaign
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var req campaign.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.campaignService.CreateCampaign(c.Request.Context(), merchantID, &req)
	if err != nil {
		response.FromError(c, err, "failed to create campaign")
		return
	}

	response.Success(c, http.StatusCreated, "campaign created successfully", result)
}

// GetCampaign retrieves a campaign by ID
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid campaign ID", err)
		return
	}

	result, err := h.campaignService.GetCampaign(c.Request.Context(), merchantID, campaignID)
	if err != nil {
		response.FromError(c, err, "campaign not found")
		return
	}

	response.Success(c, http.StatusOK, "campaign retrieved", result)
}

// UpdateCampaign updates campaign configuration
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid campaign ID", err)
		return
	}

	var req campaign.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.campaignService.UpdateCampaign(c.Request.Context(), merchantID, campaignID, &req)
	if err != nil {
		response.FromError(c, err, "failed to update campaign")
		return
	}

	response.Success(c, http.StatusOK, "campaign updated successfully", result)
}

// ListCampaigns lists campaigns with filters and pagination
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters campaign.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.campaignService.ListCampaigns(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list campaigns")
		return
	}

	response.Success(c, http.StatusOK, "campaigns retrieved", result)
}

// GetStats returns campaign progress statistics
func (h *CampaignHandler) GetStats(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid campaign ID", err)
		return
	}

	stats, err := h.campaignService.GetStats(c.Request.Context(), merchantID, campaignID)
	if err != nil {
		response.FromError(c, err, "failed to get campaign stats")
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}
