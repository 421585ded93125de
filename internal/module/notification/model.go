package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what a notification is about.
type Type string

const (
	TypeJoinRequest        Type = "TEAM_JOIN_REQUEST"
	TypeInvitation         Type = "TEAM_INVITATION"
	TypeRequestAccepted    Type = "TEAM_REQUEST_ACCEPTED"
	TypeRequestRejected    Type = "TEAM_REQUEST_REJECTED"
	TypeInvitationAccepted Type = "TEAM_INVITATION_ACCEPTED"
	TypeInvitationRejected Type = "TEAM_INVITATION_REJECTED"
	TypeTeamDisbanded      Type = "TEAM_DISBANDED"
)

// IsActionable reports whether notifications of this type carry a workflow
// the recipient must resolve.
func (t Type) IsActionable() bool {
	return t == TypeJoinRequest || t == TypeInvitation
}

// WorkflowStatus tracks the resolution state of an actionable notification.
// It mirrors the status of the join request the notification represents and
// transitions out of pending exactly once.
type WorkflowStatus string

const (
	WorkflowNone     WorkflowStatus = "none"
	WorkflowPending  WorkflowStatus = "pending"
	WorkflowAccepted WorkflowStatus = "accepted"
	WorkflowRejected WorkflowStatus = "rejected"
)

// Notification is a durable per-recipient message. The persisted record is
// the source of truth; the live push is a latency optimization only.
type Notification struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RecipientID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_recipient" json:"recipient_id"`
	Type           Type           `gorm:"type:varchar(40);not null" json:"type"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Message        string         `gorm:"type:text" json:"message"`
	TeamID         *uuid.UUID     `gorm:"type:uuid;index" json:"team_id,omitempty"`
	HackathonID    *uuid.UUID     `gorm:"type:uuid" json:"hackathon_id,omitempty"`
	ActorID        *uuid.UUID     `gorm:"type:uuid" json:"actor_id,omitempty"`
	RequestID      *uuid.UUID     `gorm:"type:uuid;index" json:"request_id,omitempty"`
	WorkflowStatus WorkflowStatus `gorm:"type:varchar(20);not null;default:'none'" json:"workflow_status"`
	Read           bool           `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName specifies the table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}

// IsPending reports whether this notification still awaits a decision.
func (n *Notification) IsPending() bool {
	return n.WorkflowStatus == WorkflowPending
}
