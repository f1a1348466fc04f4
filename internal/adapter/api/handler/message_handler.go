package handler

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/usecase"
	"skillswap/pkg/errors"
	"skillswap/pkg/response"
)

// MessageHandler serves conversation history. Sending goes through the
// realtime connection.
type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

func (h *MessageHandler) GetHistory(c echo.Context) error {
	userID := c.Get("uid").(string)
	target := c.QueryParam("target")
	if target == "" {
		return response.Error(c, errors.BadRequest("target query parameter is required", nil))
	}
	limit, offset := parsePagination(c)

	messages, total, err := h.messageUseCase.History(c.Request().Context(), userID, target, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, limit, offset)
}
