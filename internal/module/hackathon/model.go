package hackathon

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents the lifecycle phase of a hackathon.
type Status string

const (
	StatusUpcoming         Status = "upcoming"
	StatusRegistrationOpen Status = "registration_open"
	StatusRunning          Status = "running"
	StatusCompleted        Status = "completed"
)

// Hackathon holds the event facts the team registry depends on: the team
// capacity and whether registration is currently possible.
type Hackathon struct {
	ID                  uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                string         `json:"name" gorm:"not null"`
	Description         string         `json:"description,omitempty"`
	Tags                pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	MaxTeamSize         int            `json:"max_team_size" gorm:"not null;default:5"`
	Status              Status         `json:"status" gorm:"not null;default:upcoming"`
	RegistrationOpensAt time.Time      `json:"registration_opens_at"`
	RegistrationEndsAt  time.Time      `json:"registration_ends_at"`
	StartsAt            time.Time      `json:"starts_at"`
	EndsAt              time.Time      `json:"ends_at"`
	CreatedBy           uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Hackathon) TableName() string {
	return "hackathons"
}

// RegistrationOpen reports whether new participants can register now.
func (h *Hackathon) RegistrationOpen(now time.Time) bool {
	if h.Status == StatusCompleted {
		return false
	}
	return !now.Before(h.RegistrationOpensAt) && now.Before(h.RegistrationEndsAt)
}
