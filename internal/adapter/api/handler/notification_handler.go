package handler

import (
	"github.com/labstack/echo/v4"

	"skillswap/internal/usecase"
	"skillswap/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListMyNotifications(c echo.Context) error {
	userID := c.Get("uid").(string)
	limit, offset := parsePagination(c)
	unreadOnly := c.QueryParam("unread") == "true"

	notifications, total, err := h.notificationUseCase.ListForUser(c.Request().Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, notifications, total, limit, offset)
}

func (h *NotificationHandler) MarkNotificationRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	notificationID := c.Param("id")

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), userID, notificationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"notification_id": notificationID, "status": "read"})
}
