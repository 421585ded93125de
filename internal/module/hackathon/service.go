package hackathon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackhub/server/internal/module/team"
)

// Service provides hackathon directory business logic. It also serves as
// the team registry's HackathonDirectory.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new hackathon service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// MaxTeamSize returns the team capacity configured for a hackathon.
func (s *Service) MaxTeamSize(ctx context.Context, hackathonID uuid.UUID) (int, error) {
	hackathon, err := s.repo.GetByID(ctx, hackathonID)
	if err != nil {
		return 0, err
	}
	return hackathon.MaxTeamSize, nil
}

// Create creates a new hackathon.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreateHackathonRequest) (*Hackathon, error) {
	if !req.RegistrationOpensAt.Before(req.RegistrationEndsAt) || req.EndsAt.Before(req.StartsAt) {
		return nil, ErrInvalidWindow
	}

	hackathon := &Hackathon{
		ID:                  uuid.New(),
		Name:                req.Name,
		Description:         req.Description,
		Tags:                req.Tags,
		MaxTeamSize:         req.MaxTeamSize,
		Status:              StatusUpcoming,
		RegistrationOpensAt: req.RegistrationOpensAt,
		RegistrationEndsAt:  req.RegistrationEndsAt,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
		CreatedBy:           creatorID,
	}
	if err := s.repo.Create(ctx, hackathon); err != nil {
		return nil, err
	}

	s.logger.Info("hackathon created",
		zap.String("hackathon_id", hackathon.ID.String()),
		zap.String("name", hackathon.Name),
		zap.Int("max_team_size", hackathon.MaxTeamSize),
	)

	return hackathon, nil
}

// Get retrieves a hackathon by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hackathon, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists hackathons, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hackathon, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// Register registers a user as a participant. Registration is open
// admission: the participation is approved immediately, which is what makes
// the user eligible to create or join teams.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, hackathonID uuid.UUID, req *RegisterRequest) (*team.Participation, error) {
	hackathon, err := s.repo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !hackathon.RegistrationOpen(time.Now()) {
		return nil, ErrRegistrationClosed
	}

	participation := &team.Participation{
		ID:             uuid.New(),
		HackathonID:    hackathonID,
		UserID:         userID,
		Status:         team.ParticipationApproved,
		LookingForTeam: true,
		FullName:       req.FullName,
		Bio:            req.Bio,
		Skills:         req.Skills,
	}
	if err := s.repo.CreateParticipation(ctx, participation); err != nil {
		return nil, err
	}

	s.logger.Info("participant registered",
		zap.String("hackathon_id", hackathonID.String()),
		zap.String("user_id", userID.String()),
	)

	return participation, nil
}

// GetParticipation retrieves a user's registration, or nil when absent.
func (s *Service) GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*team.Participation, error) {
	return s.repo.GetParticipation(ctx, hackathonID, userID)
}

// ListParticipants lists a hackathon's approved participants.
func (s *Service) ListParticipants(ctx context.Context, hackathonID uuid.UUID, lookingOnly bool, limit, offset int) ([]*team.Participation, error) {
	if _, err := s.repo.GetByID(ctx, hackathonID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, hackathonID, lookingOnly, limit, offset)
}
