package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"doodle_web/internal/middleware"
	"doodle_web/internal/service"
)

// WebSocketHandler upgrades HTTP requests into game connections.
type WebSocketHandler struct {
	wsService *service.WebSocketService
	upgrader  websocket.Upgrader
}

func NewWebSocketHandler(wsService *service.WebSocketService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsService: wsService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// HandleWebSocket serves one connection until the client goes away.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	h.wsService.HandleConnection(conn)
}
