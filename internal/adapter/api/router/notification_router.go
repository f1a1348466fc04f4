package router

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/adapter/api/handler"
	"skillswap/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/notifications")
	group.Use(authMiddleware.Authenticate)

	group.GET("", notificationHandler.ListMyNotifications)
	group.PUT("/:id/read", notificationHandler.MarkNotificationRead)
}
