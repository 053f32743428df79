package handler

import (
	"net/http"

	"tem-backend/internal/middleware"
	"tem-backend/internal/service"
	"tem-backend/pkg/pagination"
	"tem-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	notifs := router.Group("/api/notifications")
	notifs.Use(authed)
	{
		notifs.GET("", h.ListNotifications)
		notifs.PUT("/:id/read", h.MarkRead)
		notifs.PUT("/read-all", h.MarkAllRead)
	}
}

// ListNotifications returns the caller's notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	params := pagination.Parse(c)
	notifs, unread, err := h.notificationService.List(c.Request.Context(), user.ID, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"notifications": notifs,
		"unread_count":  unread,
	}))
}

// MarkRead marks one of the caller's notifications as read
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response{data=model.Notification}
// @Failure      404  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	notif, err := h.notificationService.MarkRead(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, notif))
}

// MarkAllRead marks every unread notification of the caller as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "All notifications marked as read"}))
}
