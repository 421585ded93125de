package notification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hackhub/server/internal/module/team"
	"github.com/hackhub/server/internal/utils/middleware"
	"github.com/hackhub/server/internal/utils/pagination"
)

// Handler handles HTTP requests for notifications.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers notification routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/:id/respond", h.Respond)
	}
}

// List handles listing the caller's notifications.
//
//	@Summary		List notifications
//	@Description	List the caller's notifications, most recent first
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Limit"		default(20)
//	@Param			offset	query		int	false	"Offset"	default(0)
//	@Success		200		{object}	ListNotificationsResponse
//	@Failure		401		{object}	map[string]string
//	@Router			/notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	page := pagination.FromQuery(c)

	notifications, total, err := h.service.List(c.Request.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := &ListNotificationsResponse{
		Notifications: make([]*NotificationResponse, 0, len(notifications)),
		Total:         total,
		Limit:         page.Limit,
		Offset:        page.Offset,
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, n.ToResponse())
	}
	c.JSON(http.StatusOK, resp)
}

// UnreadCount handles reporting the unread counter.
//
//	@Summary		Unread count
//	@Description	Count the caller's unread notifications
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	UnreadCountResponse
//	@Failure		401	{object}	map[string]string
//	@Router			/notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead handles marking one notification as read.
//
//	@Summary		Mark read
//	@Description	Mark one notification as read
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	map[string]string
//	@Router			/notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead handles marking all the caller's notifications as read.
//
//	@Summary		Mark all read
//	@Description	Mark all the caller's notifications as read
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	map[string]string
//	@Router			/notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Respond handles resolving an actionable notification.
//
//	@Summary		Respond to notification
//	@Description	Accept or reject the join request linked to an actionable notification
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Notification ID"
//	@Param			request	body		RespondActionableRequest	true	"Decision"
//	@Success		200		{object}	NotificationResponse
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		410		{object}	map[string]string
//	@Router			/notifications/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req RespondActionableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.service.RespondToActionable(c.Request.Context(), id, userID, req.Decision)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification.ToResponse())
}

// ========== Helpers ==========

func (h *Handler) getUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification_not_found"})
	case errors.Is(err, ErrNotActionable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "notification_not_actionable"})
	case errors.Is(err, ErrAlreadyProcessed):
		c.JSON(http.StatusGone, gin.H{"error": "notification_already_processed"})
	case errors.Is(err, team.ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "team_not_found"})
	case errors.Is(err, team.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request_not_found"})
	case errors.Is(err, team.ErrTeamFull):
		c.JSON(http.StatusConflict, gin.H{"error": "team_full"})
	case errors.Is(err, team.ErrAlreadyInTeam):
		c.JSON(http.StatusConflict, gin.H{"error": "already_in_team"})
	case errors.Is(err, team.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_allowed"})
	case errors.Is(err, team.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "request_already_resolved"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
