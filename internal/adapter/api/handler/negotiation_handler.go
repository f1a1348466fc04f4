package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"skillswap/internal/usecase"
	"skillswap/pkg/response"
)

// NegotiationHandler exposes a read-only REST view of trade negotiations.
// Mutations go through the realtime connection so fan-out and state checks
// stay in one place.
type NegotiationHandler struct {
	negotiationUseCase *usecase.NegotiationUseCase
}

func NewNegotiationHandler(negotiationUseCase *usecase.NegotiationUseCase) *NegotiationHandler {
	return &NegotiationHandler{
		negotiationUseCase: negotiationUseCase,
	}
}

func (h *NegotiationHandler) ListMyNegotiations(c echo.Context) error {
	userID := c.Get("uid").(string)
	limit, offset := parsePagination(c)

	negotiations, total, err := h.negotiationUseCase.ListForUser(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, negotiations, total, limit, offset)
}

func (h *NegotiationHandler) GetNegotiation(c echo.Context) error {
	userID := c.Get("uid").(string)
	negotiationID := c.Param("id")

	negotiation, err := h.negotiationUseCase.GetForUser(c.Request().Context(), negotiationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, negotiation)
}

func parsePagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
