package router

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/adapter/api/handler"
	"skillswap/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/messages")
	group.Use(authMiddleware.Authenticate)

	group.GET("", messageHandler.GetHistory)
}
