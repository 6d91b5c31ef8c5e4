// internal/app/router.go
package app

import (
	billingHandler "referral-service/internal/handlers/billing"
	campaignHandler "referral-service/internal/handlers/campaign"
	couponHandler "referral-service/internal/handlers/coupon"
	customerHandler "referral-service/internal/handlers/customer"
	notifyHandler "referral-service/internal/handlers/notification"
	redemptionHandler "referral-service/internal/handlers/redemption"
	wsHandler "referral-service/internal/handlers/ws"
	"referral-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	CustomerHandler   *customerHandler.CustomerHandler
	CampaignHandler   *campaignHandler.CampaignHandler
	CouponHandler     *couponHandler.CouponHandler
	RedemptionHandler *redemptionHandler.RedemptionHandler
	BillingHandler    *billingHandler.BillingHandler
	NotifHandler      *notifyHandler.NotificationHandler
	WSHandler         *wsHandler.WSHandler
	AuthMiddleware    *middleware.AuthMiddleware
	RedeemRateLimit   gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Redemption ====================
	api.POST("/redemptions", h.RedeemRateLimit, h.RedemptionHandler.Redeem)

	// ==================== Merchant Routes ====================
	merchant := api.Group("")
	merchant.Use(h.AuthMiddleware.Auth())
	{
		customers := merchant.Group("/customers")
		{
			customers.POST("", h.CustomerHandler.CreateCustomer)
			customers.GET("", h.CustomerHandler.ListCustomers)
			customers.GET("/stats", h.CustomerHandler.GetStats)
			customers.GET("/:id", h.CustomerHandler.GetCustomer)
			customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
			customers.DELETE("/:id", h.CustomerHandler.DeleteCustomer)
			customers.POST("/:id/points", h.CustomerHandler.AdjustPoints)
		}

		campaigns := merchant.Group("/campaigns")
		{
			campaigns.POST("", h.CampaignHandler.CreateCampaign)
			campaigns.GET("", h.CampaignHandler.ListCampaigns)
			campaigns.GET("/:id", h.CampaignHandler.GetCampaign)
			campaigns.PUT("/:id", h.CampaignHandler.UpdateCampaign)
			campaigns.GET("/:id/stats", h.CampaignHandler.GetStats)
		}

		coupons := merchant.Group("/coupons")
		{
			coupons.POST("", h.CouponHandler.IssueCoupon)
			coupons.GET("", h.CouponHandler.ListCoupons)
			coupons.GET("/:id", h.CouponHandler.GetCoupon)
			coupons.POST("/:id/deactivate", h.CouponHandler.DeactivateCoupon)
		}

		redemptions := merchant.Group("/redemptions")
		{
			redemptions.GET("", h.RedemptionHandler.ListRedemptions)
			redemptions.GET("/:reference", h.RedemptionHandler.GetRedemption)
		}

		bills := merchant.Group("/bills")
		{
			bills.POST("", h.BillingHandler.SubmitBill)
			bills.GET("", h.BillingHandler.ListBills)
			bills.GET("/:id", h.BillingHandler.GetBill)
			bills.POST("/:id/approve", h.BillingHandler.ApproveBill)
			bills.POST("/:id/reject", h.BillingHandler.RejectBill)
		}

		merchant.GET("/notifications", h.NotifHandler.ListNotifications)

		// Live event feed; token may arrive as a query param here.
		merchant.GET("/ws", h.WSHandler.Connect)
	}
}
