// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"
	"strconv"

	"referral-service/internal/domain/billing"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	service "referral-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService *service.Service
}

func NewBillingHandler(billingService *service.Service) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// SubmitBill records a bill for verification
func (h *BillingHandler) SubmitBill(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var req billing.SubmitBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.billingService.Submit(c.Request.Context(), merchantID, &req)
	if err != nil {
		response.FromError(c, err, "failed to submit bill")
		return
	}

	response.Success(c, http.StatusCreated, "bill submitted successfully", result)
}

// GetBill retrieves a bill submission by ID
func (h *BillingHandler) GetBill(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	billID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid bill ID", err)
		return
	}

	result, err := h.billingService.Get(c.Request.Context(), merchantID, billID)
	if err != nil {
		response.FromError(c, err, "bill not found")
		return
	}

	response.Success(c, http.StatusOK, "bill retrieved", result)
}

// ApproveBill verifies a pending bill and awards points
func (h *BillingHandler) ApproveBill(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	billID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid bill ID", err)
		return
	}

	var req billing.VerifyBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.billingService.Approve(c.Request.Context(), merchantID, billID, req.VerifiedBy)
	if err != nil {
		response.FromError(c, err, "failed to approve bill")
		return
	}

	response.Success(c, http.StatusOK, "bill approved successfully", result)
}

// RejectBill closes a pending bill without awarding points
func (h *BillingHandler) RejectBill(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	billID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid bill ID", err)
		return
	}

	var req billing.VerifyBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.billingService.Reject(c.Request.Context(), merchantID, billID, req.VerifiedBy)
	if err != nil {
		response.FromError(c, err, "failed to reject bill")
		return
	}

	response.Success(c, http.StatusOK, "bill rejected", result)
}

// ListBills lists bill submissions with filters and pagination
func (h *BillingHandler) ListBills(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters billing.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.billingService.List(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list bills")
		return
	}

	response.Success(c, http.StatusOK, "bills retrieved", result)
}
