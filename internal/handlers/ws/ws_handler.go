// internal/handlers/ws/ws_handler.go
package ws

import (
	"net/http"

	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	"referral-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard origins are enforced upstream.
		return true
	},
}

type WSHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWSHandler(hub *ws.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Connect upgrades an authenticated merchant connection onto the event feed.
func (h *WSHandler) Connect(c *gin.Context) {
	merchantID := middleware.MustGetMerchantID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "websocket upgrade failed", err)
		return
	}

	client := ws.NewClient(h.hub, conn, merchantID, h.logger)
	go client.Serve()
}
