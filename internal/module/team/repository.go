package team

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for membership data access.
//
// Version-guarded operations (BumpVersion, MarkDisbanded) implement the
// conditional-write contract: they succeed only when the caller's observed
// version is still current, returning ErrVersionConflict otherwise. Every
// mutation of one team aggregate flows through one of them inside a
// transaction, which is what makes concurrent mutations of the same team
// totally ordered without any cross-team lock.
type Repository interface {
	// Team operations
	CreateTeam(ctx context.Context, team *Team) error
	GetTeamDetail(ctx context.Context, id uuid.UUID) (*Team, error)
	BumpVersion(ctx context.Context, id uuid.UUID, observed int64) error
	MarkDisbanded(ctx context.Context, id uuid.UUID, observed int64) error
	ListTeamsLookingForMembers(ctx context.Context, hackathonID *uuid.UUID, limit, offset int) ([]*Team, error)

	// Member operations
	AddMember(ctx context.Context, member *TeamMember) error
	GetMember(ctx context.Context, teamID, userID uuid.UUID) (*TeamMember, error)
	GetMembership(ctx context.Context, hackathonID, userID uuid.UUID) (*TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	DeleteMembers(ctx context.Context, teamID uuid.UUID) error
	UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role MemberRole) error

	// Request operations
	CreateRequest(ctx context.Context, request *JoinRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*JoinRequest, error)
	GetPendingRequest(ctx context.Context, teamID, userID uuid.UUID, direction RequestDirection) (*JoinRequest, error)
	MarkRequestResolved(ctx context.Context, id uuid.UUID, status RequestStatus) error

	// Participation operations
	GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*Participation, error)
	SetParticipationTeam(ctx context.Context, hackathonID, userID uuid.UUID, teamID *uuid.UUID, lookingForTeam bool) error
	ClearTeamPointer(ctx context.Context, teamID uuid.UUID) error

	// Transaction support
	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new membership repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a new repository bound to the given transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// BeginTx starts a new transaction.
func (r *repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// CreateTeam creates a new team.
func (r *repository) CreateTeam(ctx context.Context, team *Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// GetTeamDetail retrieves an active team with its roster and pending
// requests. A team that existed but was disbanded reports ErrTeamDisbanded
// so callers can tell it apart from an unknown ID.
func (r *repository) GetTeamDetail(ctx context.Context, id uuid.UUID) (*Team, error) {
	var team Team
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Requests", "status = ?", RequestStatusPending).
		Where("id = ?", id).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.Status != TeamStatusActive {
		return nil, ErrTeamDisbanded
	}
	return &team, nil
}

// BumpVersion performs the version-guarded conditional write on a team.
// A zero-row update means another writer advanced the version first.
func (r *repository) BumpVersion(ctx context.Context, id uuid.UUID, observed int64) error {
	result := r.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND version = ? AND status = ?", id, observed, TeamStatusActive).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// MarkDisbanded transitions a team to disbanded under the version guard.
func (r *repository) MarkDisbanded(ctx context.Context, id uuid.UUID, observed int64) error {
	result := r.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND version = ? AND status = ?", id, observed, TeamStatusActive).
		Updates(map[string]interface{}{
			"status":     TeamStatusDisbanded,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ListTeamsLookingForMembers lists active teams with open slots.
func (r *repository) ListTeamsLookingForMembers(ctx context.Context, hackathonID *uuid.UUID, limit, offset int) ([]*Team, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("status = ?", TeamStatusActive).
		Where("capacity > (SELECT COUNT(*) FROM team_members WHERE team_members.team_id = teams.id)")

	if hackathonID != nil {
		query = query.Where("hackathon_id = ?", *hackathonID)
	}

	var teams []*Team
	err := query.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// AddMember adds a member to a team. The unique index on
// (hackathon_id, user_id) rejects a second membership in the same hackathon.
func (r *repository) AddMember(ctx context.Context, member *TeamMember) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyInTeam
		}
		return err
	}
	return nil
}

// GetMember retrieves a team member.
func (r *repository) GetMember(ctx context.Context, teamID, userID uuid.UUID) (*TeamMember, error) {
	var member TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}
	return &member, nil
}

// GetMembership retrieves a user's membership anywhere in a hackathon.
// Not being a member is not an error here.
func (r *repository) GetMembership(ctx context.Context, hackathonID, userID uuid.UUID) (*TeamMember, error) {
	var member TeamMember
	err := r.db.WithContext(ctx).
		Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// RemoveMember removes a member from a team.
func (r *repository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&TeamMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAMember
	}
	return nil
}

// DeleteMembers removes every roster entry of a team. Disband relies on this
// to free the members' unique (hackathon_id, user_id) slots.
func (r *repository) DeleteMembers(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&TeamMember{}).Error
}

// UpdateMemberRole updates a member's role.
func (r *repository) UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role MemberRole) error {
	result := r.db.WithContext(ctx).
		Model(&TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAMember
	}
	return nil
}

// CreateRequest creates a new pending request.
func (r *repository) CreateRequest(ctx context.Context, request *JoinRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestByID retrieves a request by ID.
func (r *repository) GetRequestByID(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	var request JoinRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

// GetPendingRequest retrieves the pending request for a user and direction
// on a team. Absence is not an error here.
func (r *repository) GetPendingRequest(ctx context.Context, teamID, userID uuid.UUID, direction RequestDirection) (*JoinRequest, error) {
	var request JoinRequest
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ? AND direction = ? AND status = ?",
			teamID, userID, direction, RequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// MarkRequestResolved transitions a request out of pending exactly once.
// A zero-row update means the request was already resolved.
func (r *repository) MarkRequestResolved(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	result := r.db.WithContext(ctx).
		Model(&JoinRequest{}).
		Where("id = ? AND status = ?", id, RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// GetParticipation retrieves a user's registration for a hackathon.
// Absence is not an error here; the service maps it to ErrNotRegistered.
func (r *repository) GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*Participation, error) {
	var participation Participation
	err := r.db.WithContext(ctx).
		Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).
		First(&participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participation, nil
}

// SetParticipationTeam writes the denormalized team pointer on a
// participation record.
func (r *repository) SetParticipationTeam(ctx context.Context, hackathonID, userID uuid.UUID, teamID *uuid.UUID, lookingForTeam bool) error {
	result := r.db.WithContext(ctx).
		Model(&Participation{}).
		Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).
		Updates(map[string]interface{}{
			"team_id":          teamID,
			"looking_for_team": lookingForTeam,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotRegistered
	}
	return nil
}

// ClearTeamPointer clears the team pointer on every participation that
// still points at the given team.
func (r *repository) ClearTeamPointer(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Participation{}).
		Where("team_id = ?", teamID).
		Updates(map[string]interface{}{
			"team_id":          nil,
			"looking_for_team": true,
		}).Error
}
