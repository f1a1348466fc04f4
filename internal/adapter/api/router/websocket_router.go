package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"skillswap/internal/adapter/api/handler"
	"skillswap/internal/adapter/api/middleware"
)

// SetupWebSocketRouter wires the realtime endpoint. No HTTP-level auth here;
// the client authenticates in-band within the hub's auth window.
func SetupWebSocketRouter(e *echo.Echo, websocketHandler *handler.WebSocketHandler) {
	connectLimiter := middleware.NewIPRateLimiter(30, time.Minute)

	e.GET("/ws", websocketHandler.HandleWebSocket, connectLimiter.Middleware())
}
