package router

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/adapter/api/handler"
	"skillswap/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	healthHandler *handler.HealthHandler,
	negotiationHandler *handler.NegotiationHandler,
	notificationHandler *handler.NotificationHandler,
	messageHandler *handler.MessageHandler,
	websocketHandler *handler.WebSocketHandler,
) {
	SetupHealthRouter(e, healthHandler)
	SetupNegotiationRouter(e, negotiationHandler, authMiddleware)
	SetupNotificationRouter(e, notificationHandler, authMiddleware)
	SetupMessageRouter(e, messageHandler, authMiddleware)
	SetupWebSocketRouter(e, websocketHandler)
}
