package hackathon

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackhub/server/internal/module/team"
)

// CreateHackathonRequest represents a request to create a hackathon.
type CreateHackathonRequest struct {
	Name                string    `json:"name" binding:"required,min=1,max=200"`
	Description         string    `json:"description" binding:"max=5000"`
	Tags                []string  `json:"tags" binding:"max=20,dive,max=50"`
	MaxTeamSize         int       `json:"max_team_size" binding:"required,min=1,max=20"`
	RegistrationOpensAt time.Time `json:"registration_opens_at" binding:"required"`
	RegistrationEndsAt  time.Time `json:"registration_ends_at" binding:"required"`
	StartsAt            time.Time `json:"starts_at" binding:"required"`
	EndsAt              time.Time `json:"ends_at" binding:"required"`
}

// RegisterRequest represents a participant registration.
type RegisterRequest struct {
	FullName string   `json:"full_name" binding:"max=200"`
	Bio      string   `json:"bio" binding:"max=2000"`
	Skills   []string `json:"skills" binding:"max=30,dive,max=50"`
}

// HackathonResponse represents a hackathon in API responses.
type HackathonResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Tags                []string  `json:"tags,omitempty"`
	MaxTeamSize         int       `json:"max_team_size"`
	Status              Status    `json:"status"`
	RegistrationOpensAt time.Time `json:"registration_opens_at"`
	RegistrationEndsAt  time.Time `json:"registration_ends_at"`
	StartsAt            time.Time `json:"starts_at"`
	EndsAt              time.Time `json:"ends_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// ToResponse converts a Hackathon to HackathonResponse.
func (h *Hackathon) ToResponse() *HackathonResponse {
	return &HackathonResponse{
		ID:                  h.ID,
		Name:                h.Name,
		Description:         h.Description,
		Tags:                h.Tags,
		MaxTeamSize:         h.MaxTeamSize,
		Status:              h.Status,
		RegistrationOpensAt: h.RegistrationOpensAt,
		RegistrationEndsAt:  h.RegistrationEndsAt,
		StartsAt:            h.StartsAt,
		EndsAt:              h.EndsAt,
		CreatedAt:           h.CreatedAt,
	}
}

// ListHackathonsResponse represents a page of hackathons.
type ListHackathonsResponse struct {
	Hackathons []*HackathonResponse `json:"hackathons"`
	Total      int64                `json:"total"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	UserID         uuid.UUID  `json:"user_id"`
	FullName       string     `json:"full_name,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	Skills         []string   `json:"skills,omitempty"`
	LookingForTeam bool       `json:"looking_for_team"`
	TeamID         *uuid.UUID `json:"team_id,omitempty"`
	RegisteredAt   time.Time  `json:"registered_at"`
}

// ToParticipantResponse converts a Participation to ParticipantResponse.
func ToParticipantResponse(p *team.Participation) *ParticipantResponse {
	return &ParticipantResponse{
		UserID:         p.UserID,
		FullName:       p.FullName,
		Bio:            p.Bio,
		Skills:         p.Skills,
		LookingForTeam: p.LookingForTeam,
		TeamID:         p.TeamID,
		RegisteredAt:   p.CreatedAt,
	}
}

// ListParticipantsResponse represents a page of participants.
type ListParticipantsResponse struct {
	Participants []*ParticipantResponse `json:"participants"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}
