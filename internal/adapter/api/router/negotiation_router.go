package router

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/adapter/api/handler"
	"skillswap/internal/adapter/api/middleware"
)

// SetupNegotiationRouter exposes the read-only negotiation endpoints. State
// changes happen over the realtime connection.
func SetupNegotiationRouter(e *echo.Echo, negotiationHandler *handler.NegotiationHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/negotiations")
	group.Use(authMiddleware.Authenticate)

	group.GET("", negotiationHandler.ListMyNegotiations)
	group.GET("/:id", negotiationHandler.GetNegotiation)
}
