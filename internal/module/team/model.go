package team

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TeamStatus represents the lifecycle status of a team.
type TeamStatus string

const (
	TeamStatusActive    TeamStatus = "active"
	TeamStatusDisbanded TeamStatus = "disbanded"
)

// MemberRole represents a team member's role.
type MemberRole string

const (
	RoleLeader MemberRole = "leader"
	RoleMember MemberRole = "member"
)

// RequestDirection distinguishes who initiated a pending request.
type RequestDirection string

const (
	// DirectionIncoming is a user asking to join a team.
	DirectionIncoming RequestDirection = "incoming_request"
	// DirectionInvitation is a leader inviting a user.
	DirectionInvitation RequestDirection = "invitation"
)

// RequestStatus represents the status of a pending request.
// A request transitions pending -> accepted or pending -> rejected exactly
// once and is immutable afterwards.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// Decision is a response to a pending request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParticipationStatus represents a user's registration status for a hackathon.
type ParticipationStatus string

const (
	ParticipationPending  ParticipationStatus = "pending"
	ParticipationApproved ParticipationStatus = "approved"
	ParticipationRejected ParticipationStatus = "rejected"
)

// Team is the authoritative record of a team's roster, capacity, and
// pending requests. Capacity is copied from the hackathon at creation time.
// Version is a monotonic counter guarding every mutation of the aggregate.
type Team struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	HackathonID uuid.UUID      `json:"hackathon_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description,omitempty"`
	LookingFor  pq.StringArray `json:"looking_for_roles,omitempty" gorm:"type:text[]"`
	TechStack   pq.StringArray `json:"tech_stack,omitempty" gorm:"type:text[]"`
	Capacity    int            `json:"capacity" gorm:"not null"`
	Version     int64          `json:"version" gorm:"not null;default:1"`
	Status      TeamStatus     `json:"status" gorm:"not null;default:active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations (not loaded by default)
	Members  []TeamMember  `json:"members,omitempty" gorm:"foreignKey:TeamID"`
	Requests []JoinRequest `json:"pending_requests,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the database table name.
func (Team) TableName() string {
	return "teams"
}

// IsActive returns true if the team has not been disbanded.
func (t *Team) IsActive() bool {
	return t.Status == TeamStatusActive
}

// Leader returns the leader entry from a loaded member list.
func (t *Team) Leader() *TeamMember {
	for i := range t.Members {
		if t.Members[i].Role == RoleLeader {
			return &t.Members[i]
		}
	}
	return nil
}

// HasMember reports whether userID is on the loaded roster.
func (t *Team) HasMember(userID uuid.UUID) bool {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return true
		}
	}
	return false
}

// TeamMember is one roster entry. The unique index on
// (hackathon_id, user_id) enforces that a user belongs to at most one team
// per hackathon at the storage layer, never by scan-then-insert.
type TeamMember struct {
	TeamID      uuid.UUID  `json:"team_id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;primaryKey;uniqueIndex:uniq_hackathon_member"`
	HackathonID uuid.UUID  `json:"hackathon_id" gorm:"type:uuid;not null;uniqueIndex:uniq_hackathon_member"`
	Role        MemberRole `json:"role" gorm:"not null;default:member"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// TableName returns the database table name.
func (TeamMember) TableName() string {
	return "team_members"
}

// JoinRequest is one pending-request entry on a team: either a user asking
// to join (incoming_request) or a leader inviting a user (invitation).
type JoinRequest struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamID      uuid.UUID        `json:"team_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Direction   RequestDirection `json:"direction" gorm:"not null"`
	Status      RequestStatus    `json:"status" gorm:"not null;default:pending"`
	Message     string           `json:"message,omitempty"`
	RequestedAt time.Time        `json:"requested_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// TableName returns the database table name.
func (JoinRequest) TableName() string {
	return "join_requests"
}

// IsPending returns true if the request has not been resolved yet.
func (r *JoinRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// Participation is a user's registration record for one hackathon. It is
// created when the user registers (outside this package); the registry only
// ever writes the denormalized TeamID back-pointer and the LookingForTeam
// flag. The team roster, not this record, is authoritative.
type Participation struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	HackathonID    uuid.UUID           `json:"hackathon_id" gorm:"type:uuid;not null;uniqueIndex:uniq_participation"`
	UserID         uuid.UUID           `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uniq_participation"`
	Status         ParticipationStatus `json:"status" gorm:"not null;default:pending"`
	TeamID         *uuid.UUID          `json:"team_id,omitempty" gorm:"type:uuid"`
	LookingForTeam bool                `json:"looking_for_team" gorm:"not null;default:true"`
	FullName       string              `json:"full_name,omitempty"`
	Bio            string              `json:"bio,omitempty"`
	Skills         pq.StringArray      `json:"skills,omitempty" gorm:"type:text[]"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TableName returns the database table name.
func (Participation) TableName() string {
	return "participations"
}

// IsEligible returns true if the registration allows joining a team.
func (p *Participation) IsEligible() bool {
	return p.Status == ParticipationApproved
}

// TeamStanding describes a user's team situation within one hackathon.
type TeamStanding string

const (
	StandingNotRegistered    TeamStanding = "NOT_REGISTERED"
	StandingRegisteredNoTeam TeamStanding = "REGISTERED_NO_TEAM"
	StandingTeamLeader       TeamStanding = "TEAM_LEADER"
	StandingTeamMember       TeamStanding = "TEAM_MEMBER"
)
