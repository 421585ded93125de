package team

import (
	"time"

	"github.com/google/uuid"
)

// CreateTeamRequest represents a request to create a team.
type CreateTeamRequest struct {
	HackathonID uuid.UUID `json:"hackathon_id" binding:"required"`
	Name        string    `json:"name" binding:"required,min=1,max=100"`
	Description string    `json:"description" binding:"max=2000"`
	LookingFor  []string  `json:"looking_for_roles" binding:"max=10,dive,max=50"`
	TechStack   []string  `json:"tech_stack" binding:"max=20,dive,max=50"`
}

// JoinTeamRequest represents a request to join a team.
type JoinTeamRequest struct {
	Message string `json:"message" binding:"max=500"`
}

// InviteMemberRequest represents a leader inviting a user to the team.
type InviteMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// RespondRequest represents a decision on a pending request.
type RespondRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=accept reject"`
}

// TransferLeadershipRequest represents a leadership handover.
type TransferLeadershipRequest struct {
	NewLeaderID uuid.UUID `json:"new_leader_id" binding:"required"`
}

// MemberResponse represents a roster entry in API responses.
type MemberResponse struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// RequestResponse represents a pending request in API responses.
type RequestResponse struct {
	ID          uuid.UUID        `json:"id"`
	TeamID      uuid.UUID        `json:"team_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Direction   RequestDirection `json:"direction"`
	Status      RequestStatus    `json:"status"`
	Message     string           `json:"message,omitempty"`
	RequestedAt time.Time        `json:"requested_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// ToResponse converts a JoinRequest to RequestResponse.
func (r *JoinRequest) ToResponse() *RequestResponse {
	return &RequestResponse{
		ID:          r.ID,
		TeamID:      r.TeamID,
		UserID:      r.UserID,
		Direction:   r.Direction,
		Status:      r.Status,
		Message:     r.Message,
		RequestedAt: r.RequestedAt,
		RespondedAt: r.RespondedAt,
	}
}

// TeamResponse represents a team in API responses. PendingRequests is
// populated only for the team leader.
type TeamResponse struct {
	ID          uuid.UUID         `json:"id"`
	HackathonID uuid.UUID         `json:"hackathon_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	LookingFor  []string          `json:"looking_for_roles,omitempty"`
	TechStack   []string          `json:"tech_stack,omitempty"`
	Capacity    int               `json:"capacity"`
	MemberCount int               `json:"member_count"`
	Status      TeamStatus        `json:"status"`
	Members     []*MemberResponse `json:"members,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	PendingRequests []*RequestResponse `json:"pending_requests,omitempty"`
}

// ToResponse converts a Team to TeamResponse. includeRequests controls
// whether the pending-request list is exposed.
func (t *Team) ToResponse(includeRequests bool) *TeamResponse {
	resp := &TeamResponse{
		ID:          t.ID,
		HackathonID: t.HackathonID,
		Name:        t.Name,
		Description: t.Description,
		LookingFor:  t.LookingFor,
		TechStack:   t.TechStack,
		Capacity:    t.Capacity,
		MemberCount: len(t.Members),
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, m := range t.Members {
		resp.Members = append(resp.Members, &MemberResponse{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	if includeRequests {
		for _, r := range t.Requests {
			resp.PendingRequests = append(resp.PendingRequests, r.ToResponse())
		}
	}
	return resp
}

// StandingResponse represents a user's team situation in a hackathon.
type StandingResponse struct {
	Standing TeamStanding  `json:"standing"`
	Team     *TeamResponse `json:"team,omitempty"`
}

// ListTeamsResponse represents a page of teams looking for members.
type ListTeamsResponse struct {
	Teams  []*TeamResponse `json:"teams"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
