// internal/handlers/coupon/coupon_handler.go
package coupon

import (
	"net/http"
	"strconv"

	"referral-service/internal/domain/coupon"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	service "referral-service/internal/service/coupon"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	couponService *service.Service
}

func NewCouponHandler(couponService *service.Service) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// IssueCoupon issues a new coupon with a generated code
func (h *CouponHandler) IssueCoupon(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var req coupon.IssueCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.couponService.Issue(c.Request.Context(), merchantID, &req)
	if err != nil {
		response.FromError(c, err, "failed to issue coupon")
		return
	}

	response.Success(c, http.StatusCreated, "coupon issued successfully", result)
}

// GetCoupon retrieves a coupon by ID
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	couponID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid coupon ID", err)
		return
	}

	result, err := h.couponService.Get(c.Request.Context(), merchantID, couponID)
	if err != nil {
		response.FromError(c, err, "coupon not found")
		return
	}

	response.Success(c, http.StatusOK, "coupon retrieved", result)
}

// DeactivateCoupon turns a coupon off ahead of its usage limit
func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	couponID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid coupon ID", err)
		return
	}

	if err := h.couponService.Deactivate(c.Request.Context(), merchantID, couponID); err != nil {
		response.FromError(c, err, "failed to deactivate coupon")
		return
	}

	response.Success(c, http.StatusOK, "coupon deactivated", nil)
}

// ListCoupons lists coupons with filters and pagination
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters coupon.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.couponService.List(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list coupons")
		return
	}

	response.Success(c, http.StatusOK, "coupons retrieved", result)
}
