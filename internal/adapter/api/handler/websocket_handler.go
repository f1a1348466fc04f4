package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
)

// WebSocketHandler upgrades the connection and hands it to the hub. The
// connection starts unauthenticated; the client must send an authenticate
// event within the auth window or the hub closes it.
type WebSocketHandler struct {
	hub *ws.Hub
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict this in production
	},
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	h.hub.Connect(conn)
	return nil
}
