// internal/handlers/notification/notification_handler.go
package notification

import (
	"net/http"

	"referral-service/internal/domain/notification"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	service "referral-service/internal/service/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.Service
}

func NewNotificationHandler(notificationService *service.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications lists the merchant's outbound message log
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	var filters notification.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.notificationService.List(c.Request.Context(), merchantID, &filters)
	if err != nil {
		response.FromError(c, err, "failed to list notifications")
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", result)
}
