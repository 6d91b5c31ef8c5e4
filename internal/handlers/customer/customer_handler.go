// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"
	"strconv"

	"referral-service/internal/domain/customer"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	service "referral-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *service.Service
}

func NewCustomerHandler(customerService *service.Service) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomer creates a new customer with an auto-issued referral code
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.CreateCustomer(c.Request.Context(), merchantID, &req)
	if err != nil {
		response.FromError(c, err, "failed to create customer")
		return
	}

	response.Success(c, http.StatusCreated, "customer created successfully", result)
}

// GetCustomer retrieves a customer by ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	result, err := h.customerService.GetCustomer(c.Request.Context(), merchantID, customerID)
	if err != nil {
		response.FromError(c, err, "customer not found")
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// UpdateCustomer updates customer details
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.UpdateCustomer(c.Request.Context(), merchantID, customerID, &req)
	if err != nil {
		response.FromError(c, err, "failed to update customer")
		return
	}

	response.Success(c, http.StatusOK, "customer updated successfully", result)
}

// DeleteCustomer soft-deletes a customer
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), merchantID, customerID); err != nil {
		response.FromError(c, err, "failed to delete customer")
		return
	}

	response.Success(c, http.StatusOK, "customer deleted successfully", nil)
}

// AdjustPoints applies a manual point credit or debit to a customer
func (h *CustomerHandler) AdjustPoints(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	var req customer.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.AdjustPoints(c.Request.Context(), merchantID, customerID, &req)
	if err != nil {
		response.FromError(c, err, "failed to adjust points")
		return
	}

	response.Success(c, http.StatusOK, "points adjusted", result)
}

// ListCustomers lists customers with filters and pagination
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list customers")
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// GetStats returns aggregate customer statistics for the merchant
func (h *CustomerHandler) GetStats(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	stats, err := h.customerService.GetStats(c.Request.Context(), merchantID)
	if err != nil {
		response.FromError(c, err, "failed to get customer stats")
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}
