package hackathon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackhub/server/internal/module/team"
)

// memRepo is an in-memory hackathon Repository.
type memRepo struct {
	mu             sync.Mutex
	hackathons     map[uuid.UUID]*Hackathon
	participations map[[2]uuid.UUID]*team.Participation
}

func newMemRepo() *memRepo {
	return &memRepo{
		hackathons:     make(map[uuid.UUID]*Hackathon),
		participations: make(map[[2]uuid.UUID]*team.Participation),
	}
}

func (m *memRepo) Create(ctx context.Context, hackathon *Hackathon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *hackathon
	m.hackathons[hackathon.ID] = &clone
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Hackathon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hackathon, ok := m.hackathons[id]
	if !ok {
		return nil, ErrHackathonNotFound
	}
	clone := *hackathon
	return &clone, nil
}

func (m *memRepo) List(ctx context.Context, limit, offset int) ([]*Hackathon, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hackathons []*Hackathon
	for _, hackathon := range m.hackathons {
		clone := *hackathon
		hackathons = append(hackathons, &clone)
	}
	return hackathons, int64(len(hackathons)), nil
}

func (m *memRepo) CreateParticipation(ctx context.Context, participation *team.Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uuid.UUID{participation.HackathonID, participation.UserID}
	if _, exists := m.participations[key]; exists {
		return ErrAlreadyRegistered
	}
	clone := *participation
	m.participations[key] = &clone
	return nil
}

func (m *memRepo) GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*team.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	participation, ok := m.participations[[2]uuid.UUID{hackathonID, userID}]
	if !ok {
		return nil, nil
	}
	clone := *participation
	return &clone, nil
}

func (m *memRepo) ListParticipants(ctx context.Context, hackathonID uuid.UUID, lookingOnly bool, limit, offset int) ([]*team.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var participants []*team.Participation
	for _, participation := range m.participations {
		if participation.HackathonID != hackathonID || participation.Status != team.ParticipationApproved {
			continue
		}
		if lookingOnly && !participation.LookingForTeam {
			continue
		}
		clone := *participation
		participants = append(participants, &clone)
	}
	return participants, nil
}

func openWindow() *CreateHackathonRequest {
	now := time.Now()
	return &CreateHackathonRequest{
		Name:                "HackHub 2026",
		MaxTeamSize:         5,
		RegistrationOpensAt: now.Add(-time.Hour),
		RegistrationEndsAt:  now.Add(time.Hour),
		StartsAt:            now.Add(2 * time.Hour),
		EndsAt:              now.Add(26 * time.Hour),
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid window", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		hackathon, err := svc.Create(ctx, uuid.New(), openWindow())
		require.NoError(t, err)
		assert.Equal(t, StatusUpcoming, hackathon.Status)
		assert.Equal(t, 5, hackathon.MaxTeamSize)
	})

	t.Run("registration window inverted", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		req := openWindow()
		req.RegistrationOpensAt, req.RegistrationEndsAt = req.RegistrationEndsAt, req.RegistrationOpensAt

		_, err := svc.Create(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("event window inverted", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		req := openWindow()
		req.StartsAt, req.EndsAt = req.EndsAt, req.StartsAt

		_, err := svc.Create(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestMaxTeamSize(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), zap.NewNop())

	req := openWindow()
	req.MaxTeamSize = 3
	hackathon, err := svc.Create(ctx, uuid.New(), req)
	require.NoError(t, err)

	size, err := svc.MaxTeamSize(ctx, hackathon.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	_, err = svc.MaxTeamSize(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrHackathonNotFound)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("approved immediately", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		hackathon, err := svc.Create(ctx, uuid.New(), openWindow())
		require.NoError(t, err)

		userID := uuid.New()
		participation, err := svc.Register(ctx, userID, hackathon.ID, &RegisterRequest{FullName: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, team.ParticipationApproved, participation.Status)
		assert.True(t, participation.LookingForTeam)
		assert.True(t, participation.IsEligible())
	})

	t.Run("duplicate registration rejected", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		hackathon, err := svc.Create(ctx, uuid.New(), openWindow())
		require.NoError(t, err)

		userID := uuid.New()
		_, err = svc.Register(ctx, userID, hackathon.ID, &RegisterRequest{})
		require.NoError(t, err)
		_, err = svc.Register(ctx, userID, hackathon.ID, &RegisterRequest{})
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("registration not yet open", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		req := openWindow()
		req.RegistrationOpensAt = time.Now().Add(time.Hour)
		req.RegistrationEndsAt = time.Now().Add(2 * time.Hour)
		hackathon, err := svc.Create(ctx, uuid.New(), req)
		require.NoError(t, err)

		_, err = svc.Register(ctx, uuid.New(), hackathon.ID, &RegisterRequest{})
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})

	t.Run("registration already closed", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		req := openWindow()
		req.RegistrationOpensAt = time.Now().Add(-2 * time.Hour)
		req.RegistrationEndsAt = time.Now().Add(-time.Hour)
		hackathon, err := svc.Create(ctx, uuid.New(), req)
		require.NoError(t, err)

		_, err = svc.Register(ctx, uuid.New(), hackathon.ID, &RegisterRequest{})
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})

	t.Run("unknown hackathon", func(t *testing.T) {
		svc := NewService(newMemRepo(), zap.NewNop())
		_, err := svc.Register(ctx, uuid.New(), uuid.New(), &RegisterRequest{})
		assert.ErrorIs(t, err, ErrHackathonNotFound)
	})
}

func TestListParticipants(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, zap.NewNop())

	hackathon, err := svc.Create(ctx, uuid.New(), openWindow())
	require.NoError(t, err)

	lookingID := uuid.New()
	teamedID := uuid.New()
	_, err = svc.Register(ctx, lookingID, hackathon.ID, &RegisterRequest{})
	require.NoError(t, err)
	_, err = svc.Register(ctx, teamedID, hackathon.ID, &RegisterRequest{})
	require.NoError(t, err)

	// Simulate the registry placing one participant on a team.
	teamID := uuid.New()
	repo.mu.Lock()
	participation := repo.participations[[2]uuid.UUID{hackathon.ID, teamedID}]
	participation.TeamID = &teamID
	participation.LookingForTeam = false
	repo.mu.Unlock()

	all, err := svc.ListParticipants(ctx, hackathon.ID, false, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	looking, err := svc.ListParticipants(ctx, hackathon.ID, true, 20, 0)
	require.NoError(t, err)
	require.Len(t, looking, 1)
	assert.Equal(t, lookingID, looking[0].UserID)

	_, err = svc.ListParticipants(ctx, uuid.New(), false, 20, 0)
	assert.ErrorIs(t, err, ErrHackathonNotFound)
}

func TestRegistrationOpen(t *testing.T) {
	now := time.Now()
	base := Hackathon{
		RegistrationOpensAt: now.Add(-time.Hour),
		RegistrationEndsAt:  now.Add(time.Hour),
		Status:              StatusRegistrationOpen,
	}

	tests := []struct {
		name     string
		mutate   func(*Hackathon)
		expected bool
	}{
		{"inside window", func(h *Hackathon) {}, true},
		{"before window", func(h *Hackathon) { h.RegistrationOpensAt = now.Add(time.Minute) }, false},
		{"after window", func(h *Hackathon) { h.RegistrationEndsAt = now.Add(-time.Minute) }, false},
		{"completed event", func(h *Hackathon) { h.Status = StatusCompleted }, false},
		{"exact open instant", func(h *Hackathon) { h.RegistrationOpensAt = now }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hackathon := base
			tt.mutate(&hackathon)
			assert.Equal(t, tt.expected, hackathon.RegistrationOpen(now))
		})
	}
}
