package hackathon

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hackhub/server/internal/module/team"
)

// Repository defines the interface for hackathon data access.
type Repository interface {
	Create(ctx context.Context, hackathon *Hackathon) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hackathon, error)
	List(ctx context.Context, limit, offset int) ([]*Hackathon, int64, error)
	CreateParticipation(ctx context.Context, participation *team.Participation) error
	GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*team.Participation, error)
	ListParticipants(ctx context.Context, hackathonID uuid.UUID, lookingOnly bool, limit, offset int) ([]*team.Participation, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new hackathon repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create persists a hackathon.
func (r *repository) Create(ctx context.Context, hackathon *Hackathon) error {
	return r.db.WithContext(ctx).Create(hackathon).Error
}

// GetByID retrieves a hackathon by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Hackathon, error) {
	var hackathon Hackathon
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&hackathon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, err
	}
	return &hackathon, nil
}

// List lists hackathons, newest first.
func (r *repository) List(ctx context.Context, limit, offset int) ([]*Hackathon, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Hackathon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var hackathons []*Hackathon
	err := r.db.WithContext(ctx).
		Order("starts_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&hackathons).Error
	if err != nil {
		return nil, 0, err
	}
	return hackathons, total, nil
}

// CreateParticipation registers a user. The unique index on
// (hackathon_id, user_id) rejects duplicate registrations.
func (r *repository) CreateParticipation(ctx context.Context, participation *team.Participation) error {
	err := r.db.WithContext(ctx).Create(participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// GetParticipation retrieves a user's registration. Absence is not an
// error here.
func (r *repository) GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*team.Participation, error) {
	var participation team.Participation
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

// ListParticipants lists a hackathon's registered participants, optionally
// only those still looking for a team.
func (r *repository) ListParticipants(ctx context.Context, hackathonID uuid.UUID, lookingOnly bool, limit, offset int) ([]*team.Participation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("hackathon_id = ? AND status = ?", hackathonID, team.ParticipationApproved)
	if lookingOnly {
		query = query.Where("looking_for_team = ?", true)
	}

	var participants []*team.Participation
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}
