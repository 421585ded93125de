package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackhub/server/internal/module/team"
)

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID             uuid.UUID      `json:"id"`
	Type           Type           `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message,omitempty"`
	TeamID         *uuid.UUID     `json:"team_id,omitempty"`
	HackathonID    *uuid.UUID     `json:"hackathon_id,omitempty"`
	ActorID        *uuid.UUID     `json:"actor_id,omitempty"`
	RequestID      *uuid.UUID     `json:"request_id,omitempty"`
	WorkflowStatus WorkflowStatus `json:"workflow_status"`
	Read           bool           `json:"read"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ToResponse converts a Notification to NotificationResponse.
func (n *Notification) ToResponse() *NotificationResponse {
	return &NotificationResponse{
		ID:             n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		TeamID:         n.TeamID,
		HackathonID:    n.HackathonID,
		ActorID:        n.ActorID,
		RequestID:      n.RequestID,
		WorkflowStatus: n.WorkflowStatus,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt,
	}
}

// ListNotificationsResponse represents a page of notifications.
type ListNotificationsResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
}

// UnreadCountResponse represents the unread counter.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// RespondActionableRequest represents a decision on an actionable
// notification.
type RespondActionableRequest struct {
	Decision team.Decision `json:"decision" binding:"required,oneof=accept reject"`
}
