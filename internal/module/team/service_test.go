package team

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hackhub/server/internal/shared/metrics"
)

// promauto registers against the default registry, so every test in the
// package shares one instance.
var testMetrics = metrics.New("team_test")

// nopTxCommitter lets the fake repository hand out *gorm.DB transaction
// handles whose Commit and Rollback are no-ops.
type nopTxCommitter struct{ gorm.ConnPool }

func (*nopTxCommitter) Commit() error   { return nil }
func (*nopTxCommitter) Rollback() error { return nil }

func newFakeTx() *gorm.DB {
	return &gorm.DB{
		Config:    &gorm.Config{},
		Statement: &gorm.Statement{ConnPool: &nopTxCommitter{}},
	}
}

// memRepo is an in-memory Repository. Writes apply immediately under one
// mutex; the version-guarded operations keep their conditional-write
// semantics, which is what the retry tests exercise.
type memRepo struct {
	mu             sync.Mutex
	teams          map[uuid.UUID]*Team
	members        map[uuid.UUID][]*TeamMember
	requests       map[uuid.UUID]*JoinRequest
	participations map[[2]uuid.UUID]*Participation

	// forceConflicts makes the next n version-guarded writes lose.
	forceConflicts int
}

func newMemRepo() *memRepo {
	return &memRepo{
		teams:          make(map[uuid.UUID]*Team),
		members:        make(map[uuid.UUID][]*TeamMember),
		requests:       make(map[uuid.UUID]*JoinRequest),
		participations: make(map[[2]uuid.UUID]*Participation),
	}
}

func (m *memRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memRepo) BeginTx(ctx context.Context) (*gorm.DB, error) { return newFakeTx(), nil }

func (m *memRepo) CreateTeam(ctx context.Context, team *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *team
	m.teams[team.ID] = &clone
	return nil
}

func (m *memRepo) GetTeamDetail(ctx context.Context, id uuid.UUID) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	if team.Status != TeamStatusActive {
		return nil, ErrTeamDisbanded
	}
	clone := *team
	clone.Members = nil
	for _, member := range m.members[id] {
		clone.Members = append(clone.Members, *member)
	}
	clone.Requests = nil
	for _, request := range m.requests {
		if request.TeamID == id && request.Status == RequestStatusPending {
			clone.Requests = append(clone.Requests, *request)
		}
	}
	return &clone, nil
}

func (m *memRepo) BumpVersion(ctx context.Context, id uuid.UUID, observed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return ErrVersionConflict
	}
	team, ok := m.teams[id]
	if !ok || team.Status != TeamStatusActive || team.Version != observed {
		return ErrVersionConflict
	}
	team.Version++
	return nil
}

func (m *memRepo) MarkDisbanded(ctx context.Context, id uuid.UUID, observed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return ErrVersionConflict
	}
	team, ok := m.teams[id]
	if !ok || team.Status != TeamStatusActive || team.Version != observed {
		return ErrVersionConflict
	}
	team.Version++
	team.Status = TeamStatusDisbanded
	return nil
}

func (m *memRepo) ListTeamsLookingForMembers(ctx context.Context, hackathonID *uuid.UUID, limit, offset int) ([]*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teams []*Team
	for id, team := range m.teams {
		if team.Status != TeamStatusActive || len(m.members[id]) >= team.Capacity {
			continue
		}
		if hackathonID != nil && team.HackathonID != *hackathonID {
			continue
		}
		clone := *team
		for _, member := range m.members[id] {
			clone.Members = append(clone.Members, *member)
		}
		teams = append(teams, &clone)
	}
	return teams, nil
}

func (m *memRepo) AddMember(ctx context.Context, member *TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, members := range m.members {
		for _, existing := range members {
			if existing.HackathonID == member.HackathonID && existing.UserID == member.UserID {
				return ErrAlreadyInTeam
			}
		}
	}
	clone := *member
	m.members[member.TeamID] = append(m.members[member.TeamID], &clone)
	return nil
}

func (m *memRepo) GetMember(ctx context.Context, teamID, userID uuid.UUID) (*TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range m.members[teamID] {
		if member.UserID == userID {
			clone := *member
			return &clone, nil
		}
	}
	return nil, ErrNotAMember
}

func (m *memRepo) GetMembership(ctx context.Context, hackathonID, userID uuid.UUID) (*TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, members := range m.members {
		for _, member := range members {
			if member.HackathonID == hackathonID && member.UserID == userID {
				clone := *member
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (m *memRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := m.members[teamID]
	for i, member := range members {
		if member.UserID == userID {
			m.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return ErrNotAMember
}

func (m *memRepo) DeleteMembers(ctx context.Context, teamID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, teamID)
	return nil
}

func (m *memRepo) UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role MemberRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range m.members[teamID] {
		if member.UserID == userID {
			member.Role = role
			return nil
		}
	}
	return ErrNotAMember
}

func (m *memRepo) CreateRequest(ctx context.Context, request *JoinRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *request
	m.requests[request.ID] = &clone
	return nil
}

func (m *memRepo) GetRequestByID(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	clone := *request
	return &clone, nil
}

func (m *memRepo) GetPendingRequest(ctx context.Context, teamID, userID uuid.UUID, direction RequestDirection) (*JoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.TeamID == teamID && request.UserID == userID &&
			request.Direction == direction && request.Status == RequestStatusPending {
			clone := *request
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memRepo) MarkRequestResolved(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok || request.Status != RequestStatusPending {
		return ErrInvalidTransition
	}
	now := time.Now()
	request.Status = status
	request.RespondedAt = &now
	return nil
}

func (m *memRepo) GetParticipation(ctx context.Context, hackathonID, userID uuid.UUID) (*Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	participation, ok := m.participations[[2]uuid.UUID{hackathonID, userID}]
	if !ok {
		return nil, nil
	}
	clone := *participation
	return &clone, nil
}

func (m *memRepo) SetParticipationTeam(ctx context.Context, hackathonID, userID uuid.UUID, teamID *uuid.UUID, lookingForTeam bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	participation, ok := m.participations[[2]uuid.UUID{hackathonID, userID}]
	if !ok {
		return ErrNotRegistered
	}
	participation.TeamID = teamID
	participation.LookingForTeam = lookingForTeam
	return nil
}

func (m *memRepo) ClearTeamPointer(ctx context.Context, teamID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, participation := range m.participations {
		if participation.TeamID != nil && *participation.TeamID == teamID {
			participation.TeamID = nil
			participation.LookingForTeam = true
		}
	}
	return nil
}

func (m *memRepo) seedParticipation(hackathonID, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participations[[2]uuid.UUID{hackathonID, userID}] = &Participation{
		ID:             uuid.New(),
		HackathonID:    hackathonID,
		UserID:         userID,
		Status:         ParticipationApproved,
		LookingForTeam: true,
	}
}

func (m *memRepo) setForceConflicts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceConflicts = n
}

// fakeNotifier records dispatched notices and pushes.
type fakeNotifier struct {
	mu       sync.Mutex
	notices  []Notice
	resolved map[uuid.UUID]bool
	pushed   []uuid.UUID

	dispatchErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{resolved: make(map[uuid.UUID]bool)}
}

func (f *fakeNotifier) Dispatch(ctx context.Context, tx *gorm.DB, notice Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.notices = append(f.notices, notice)
	return nil
}

func (f *fakeNotifier) ResolveByRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, accepted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved[requestID] = accepted
	return nil
}

func (f *fakeNotifier) PushTo(ctx context.Context, recipientIDs ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, recipientIDs...)
}

func (f *fakeNotifier) noticesOfKind(kind string) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []Notice
	for _, notice := range f.notices {
		if notice.Kind == kind {
			matched = append(matched, notice)
		}
	}
	return matched
}

type fakeDirectory struct{ size int }

func (d fakeDirectory) MaxTeamSize(ctx context.Context, hackathonID uuid.UUID) (int, error) {
	return d.size, nil
}

type fixture struct {
	repo        *memRepo
	notifier    *fakeNotifier
	svc         *Service
	hackathonID uuid.UUID
}

func newFixture(capacity int) *fixture {
	repo := newMemRepo()
	notifier := newFakeNotifier()
	return &fixture{
		repo:        repo,
		notifier:    notifier,
		svc:         NewService(repo, fakeDirectory{size: capacity}, notifier, testMetrics, zap.NewNop()),
		hackathonID: uuid.New(),
	}
}

func (f *fixture) register(userID uuid.UUID) uuid.UUID {
	f.repo.seedParticipation(f.hackathonID, userID)
	return userID
}

func (f *fixture) createTeam(t *testing.T, leaderID uuid.UUID, name string) *Team {
	t.Helper()
	team, err := f.svc.CreateTeam(context.Background(), leaderID, &CreateTeamRequest{
		HackathonID: f.hackathonID,
		Name:        name,
	})
	require.NoError(t, err)
	return team
}

func TestCreateTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("creator becomes leader", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())

		team := f.createTeam(t, leaderID, "Rustaceans")

		assert.Equal(t, int64(1), team.Version)
		assert.Equal(t, 4, team.Capacity)
		require.Len(t, team.Members, 1)
		assert.Equal(t, RoleLeader, team.Members[0].Role)
		assert.Equal(t, leaderID, team.Members[0].UserID)

		participation, err := f.repo.GetParticipation(ctx, f.hackathonID, leaderID)
		require.NoError(t, err)
		require.NotNil(t, participation.TeamID)
		assert.Equal(t, team.ID, *participation.TeamID)
		assert.False(t, participation.LookingForTeam)
	})

	t.Run("unregistered user rejected", func(t *testing.T) {
		f := newFixture(4)
		_, err := f.svc.CreateTeam(ctx, uuid.New(), &CreateTeamRequest{
			HackathonID: f.hackathonID,
			Name:        "Ghosts",
		})
		assert.ErrorIs(t, err, ErrNotRegistered)
	})

	t.Run("one team per hackathon", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		f.createTeam(t, leaderID, "First")

		_, err := f.svc.CreateTeam(ctx, leaderID, &CreateTeamRequest{
			HackathonID: f.hackathonID,
			Name:        "Second",
		})
		assert.ErrorIs(t, err, ErrAlreadyInTeam)
	})
}

func TestRequestToJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("files pending request and notifies leader", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := f.register(uuid.New())

		request, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{Message: "hi"})
		require.NoError(t, err)
		assert.Equal(t, RequestStatusPending, request.Status)
		assert.Equal(t, DirectionIncoming, request.Direction)
		assert.Equal(t, "hi", request.Message)

		notices := f.notifier.noticesOfKind(NoticeJoinRequest)
		require.Len(t, notices, 1)
		assert.Equal(t, leaderID, notices[0].RecipientID)
		require.NotNil(t, notices[0].RequestID)
		assert.Equal(t, request.ID, *notices[0].RequestID)
		assert.Contains(t, f.notifier.pushed, leaderID)
	})

	t.Run("duplicate pending request rejected", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := f.register(uuid.New())

		_, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)
		_, err = f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("full team rejected up front", func(t *testing.T) {
		f := newFixture(1)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Solo")
		userID := f.register(uuid.New())

		_, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrTeamFull)
	})

	t.Run("member of another team rejected", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		otherLeaderID := f.register(uuid.New())
		f.createTeam(t, otherLeaderID, "Crows")

		_, err := f.svc.RequestToJoin(ctx, otherLeaderID, team.ID, &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrAlreadyInTeam)
	})

	t.Run("unknown team", func(t *testing.T) {
		f := newFixture(4)
		userID := f.register(uuid.New())
		_, err := f.svc.RequestToJoin(ctx, userID, uuid.New(), &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("retries through a lost race", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := f.register(uuid.New())

		f.repo.setForceConflicts(versionRetries - 1)
		request, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)
		assert.Equal(t, RequestStatusPending, request.Status)
	})

	t.Run("surfaces conflict after retries exhausted", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := f.register(uuid.New())

		f.repo.setForceConflicts(versionRetries)
		_, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestInviteMember(t *testing.T) {
	ctx := context.Background()

	t.Run("leader invites and invitee is notified", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		inviteeID := f.register(uuid.New())

		request, err := f.svc.InviteMember(ctx, leaderID, team.ID, &InviteMemberRequest{UserID: inviteeID})
		require.NoError(t, err)
		assert.Equal(t, DirectionInvitation, request.Direction)
		assert.Equal(t, inviteeID, request.UserID)

		notices := f.notifier.noticesOfKind(NoticeInvitation)
		require.Len(t, notices, 1)
		assert.Equal(t, inviteeID, notices[0].RecipientID)
	})

	t.Run("non-leader cannot invite", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		memberID := f.register(uuid.New())
		inviteeID := f.register(uuid.New())

		_, err := f.svc.InviteMember(ctx, memberID, team.ID, &InviteMemberRequest{UserID: inviteeID})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unregistered invitee rejected", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")

		_, err := f.svc.InviteMember(ctx, leaderID, team.ID, &InviteMemberRequest{UserID: uuid.New()})
		assert.ErrorIs(t, err, ErrNotRegistered)
	})
}

func TestRespondToRequest(t *testing.T) {
	ctx := context.Background()

	requestFor := func(t *testing.T, f *fixture, teamID uuid.UUID) (uuid.UUID, *JoinRequest) {
		t.Helper()
		userID := f.register(uuid.New())
		request, err := f.svc.RequestToJoin(ctx, userID, teamID, &JoinTeamRequest{})
		require.NoError(t, err)
		return userID, request
	}

	t.Run("accept grows the roster", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID, request := requestFor(t, f, team.ID)

		updated, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		require.NoError(t, err)
		assert.Len(t, updated.Members, 2)
		assert.True(t, updated.HasMember(userID))
		assert.Empty(t, updated.Requests)

		accepted, ok := f.notifier.resolved[request.ID]
		assert.True(t, ok)
		assert.True(t, accepted)

		notices := f.notifier.noticesOfKind(NoticeRequestAccepted)
		require.Len(t, notices, 2)

		participation, err := f.repo.GetParticipation(ctx, f.hackathonID, userID)
		require.NoError(t, err)
		require.NotNil(t, participation.TeamID)
		assert.Equal(t, team.ID, *participation.TeamID)
	})

	t.Run("reject notifies the requester", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID, request := requestFor(t, f, team.ID)

		updated, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionReject)
		require.NoError(t, err)
		assert.Len(t, updated.Members, 1)

		notices := f.notifier.noticesOfKind(NoticeRequestRejected)
		require.Len(t, notices, 1)
		assert.Equal(t, userID, notices[0].RecipientID)
	})

	t.Run("only the leader resolves incoming requests", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID, request := requestFor(t, f, team.ID)

		_, err := f.svc.RespondToRequest(ctx, userID, team.ID, request.ID, DecisionAccept)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("only the invitee resolves invitations", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		inviteeID := f.register(uuid.New())
		request, err := f.svc.InviteMember(ctx, leaderID, team.ID, &InviteMemberRequest{UserID: inviteeID})
		require.NoError(t, err)

		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		assert.ErrorIs(t, err, ErrUnauthorized)

		updated, err := f.svc.RespondToRequest(ctx, inviteeID, team.ID, request.ID, DecisionAccept)
		require.NoError(t, err)
		assert.True(t, updated.HasMember(inviteeID))

		notices := f.notifier.noticesOfKind(NoticeInvitationAccepted)
		assert.Len(t, notices, 2)
	})

	t.Run("second response fails", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		_, request := requestFor(t, f, team.ID)

		_, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionReject)
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("request must belong to the team", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		otherLeaderID := f.register(uuid.New())
		other := f.createTeam(t, otherLeaderID, "Crows")
		_, request := requestFor(t, f, other.ID)

		_, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})

	t.Run("accept into a full team fails without touching the request", func(t *testing.T) {
		f := newFixture(2)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Pair")
		_, requestA := requestFor(t, f, team.ID)
		_, requestB := requestFor(t, f, team.ID)

		_, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, requestA.ID, DecisionAccept)
		require.NoError(t, err)

		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, requestB.ID, DecisionAccept)
		assert.ErrorIs(t, err, ErrTeamFull)

		stored, err := f.repo.GetRequestByID(ctx, requestB.ID)
		require.NoError(t, err)
		assert.Equal(t, RequestStatusPending, stored.Status)
	})

	t.Run("concurrent accepts admit exactly one member into the last slot", func(t *testing.T) {
		f := newFixture(2)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Pair")
		_, requestA := requestFor(t, f, team.ID)
		_, requestB := requestFor(t, f, team.ID)

		errs := make(chan error, 2)
		for _, requestID := range []uuid.UUID{requestA.ID, requestB.ID} {
			requestID := requestID
			go func() {
				_, err := f.svc.RespondToRequest(ctx, leaderID, team.ID, requestID, DecisionAccept)
				errs <- err
			}()
		}

		var accepted, full int
		for i := 0; i < 2; i++ {
			switch err := <-errs; {
			case err == nil:
				accepted++
			case assert.ErrorIs(t, err, ErrTeamFull):
				full++
			}
		}
		assert.Equal(t, 1, accepted)
		assert.Equal(t, 1, full)

		detail, err := f.repo.GetTeamDetail(ctx, team.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Members, 2)
	})
}

func TestLeaveTeam(t *testing.T) {
	ctx := context.Background()

	join := func(t *testing.T, f *fixture, teamID, leaderID uuid.UUID) uuid.UUID {
		t.Helper()
		userID := f.register(uuid.New())
		request, err := f.svc.RequestToJoin(ctx, userID, teamID, &JoinTeamRequest{})
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, leaderID, teamID, request.ID, DecisionAccept)
		require.NoError(t, err)
		return userID
	}

	t.Run("member leaves and becomes available again", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := join(t, f, team.ID, leaderID)

		require.NoError(t, f.svc.LeaveTeam(ctx, userID, team.ID))

		detail, err := f.repo.GetTeamDetail(ctx, team.ID)
		require.NoError(t, err)
		assert.False(t, detail.HasMember(userID))

		participation, err := f.repo.GetParticipation(ctx, f.hackathonID, userID)
		require.NoError(t, err)
		assert.Nil(t, participation.TeamID)
		assert.True(t, participation.LookingForTeam)
	})

	t.Run("leader must transfer first", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		join(t, f, team.ID, leaderID)

		err := f.svc.LeaveTeam(ctx, leaderID, team.ID)
		assert.ErrorIs(t, err, ErrLeaderCannotLeave)
	})

	t.Run("non-member cannot leave", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		outsiderID := f.register(uuid.New())

		err := f.svc.LeaveTeam(ctx, outsiderID, team.ID)
		assert.ErrorIs(t, err, ErrNotAMember)
	})

	t.Run("former leader leaves after transfer", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		userID := join(t, f, team.ID, leaderID)

		_, err := f.svc.TransferLeadership(ctx, leaderID, team.ID, &TransferLeadershipRequest{NewLeaderID: userID})
		require.NoError(t, err)
		require.NoError(t, f.svc.LeaveTeam(ctx, leaderID, team.ID))

		detail, err := f.repo.GetTeamDetail(ctx, team.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.Leader())
		assert.Equal(t, userID, detail.Leader().UserID)
	})
}

func TestTransferLeadership(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *Team, uuid.UUID, uuid.UUID) {
		t.Helper()
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		memberID := f.register(uuid.New())
		request, err := f.svc.RequestToJoin(ctx, memberID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		require.NoError(t, err)
		return f, team, leaderID, memberID
	}

	t.Run("swaps exactly one leader", func(t *testing.T) {
		f, team, leaderID, memberID := setup(t)

		updated, err := f.svc.TransferLeadership(ctx, leaderID, team.ID, &TransferLeadershipRequest{NewLeaderID: memberID})
		require.NoError(t, err)

		var leaders int
		for _, member := range updated.Members {
			if member.Role == RoleLeader {
				leaders++
				assert.Equal(t, memberID, member.UserID)
			}
		}
		assert.Equal(t, 1, leaders)
	})

	t.Run("only the leader can transfer", func(t *testing.T) {
		f, team, leaderID, memberID := setup(t)

		_, err := f.svc.TransferLeadership(ctx, memberID, team.ID, &TransferLeadershipRequest{NewLeaderID: leaderID})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("target must be on the roster", func(t *testing.T) {
		f, team, leaderID, _ := setup(t)
		outsiderID := f.register(uuid.New())

		_, err := f.svc.TransferLeadership(ctx, leaderID, team.ID, &TransferLeadershipRequest{NewLeaderID: outsiderID})
		assert.ErrorIs(t, err, ErrNotAMember)
	})

	t.Run("transfer to self is a no-op", func(t *testing.T) {
		f, team, leaderID, _ := setup(t)

		updated, err := f.svc.TransferLeadership(ctx, leaderID, team.ID, &TransferLeadershipRequest{NewLeaderID: leaderID})
		require.NoError(t, err)
		require.NotNil(t, updated.Leader())
		assert.Equal(t, leaderID, updated.Leader().UserID)
	})
}

func TestDisbandTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects pending requests and releases members", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")

		memberID := f.register(uuid.New())
		joinReq, err := f.svc.RequestToJoin(ctx, memberID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, joinReq.ID, DecisionAccept)
		require.NoError(t, err)

		pendingUserID := f.register(uuid.New())
		pending, err := f.svc.RequestToJoin(ctx, pendingUserID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)

		require.NoError(t, f.svc.DisbandTeam(ctx, leaderID, team.ID))

		_, err = f.repo.GetTeamDetail(ctx, team.ID)
		assert.ErrorIs(t, err, ErrTeamDisbanded)

		stored, err := f.repo.GetRequestByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, RequestStatusRejected, stored.Status)

		accepted, ok := f.notifier.resolved[pending.ID]
		assert.True(t, ok)
		assert.False(t, accepted)

		rejections := f.notifier.noticesOfKind(NoticeRequestRejected)
		require.Len(t, rejections, 1)
		assert.Equal(t, pendingUserID, rejections[0].RecipientID)
		assert.Contains(t, rejections[0].Message, "disbanded")

		disbandNotices := f.notifier.noticesOfKind(NoticeTeamDisbanded)
		require.Len(t, disbandNotices, 1)
		assert.Equal(t, memberID, disbandNotices[0].RecipientID)

		for _, userID := range []uuid.UUID{leaderID, memberID} {
			participation, err := f.repo.GetParticipation(ctx, f.hackathonID, userID)
			require.NoError(t, err)
			assert.Nil(t, participation.TeamID)
			assert.True(t, participation.LookingForTeam)
		}
	})

	t.Run("former members can form and join teams again", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")

		memberID := f.register(uuid.New())
		request, err := f.svc.RequestToJoin(ctx, memberID, team.ID, &JoinTeamRequest{})
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
		require.NoError(t, err)

		active := testutil.ToFloat64(testMetrics.TeamsActive)
		require.NoError(t, f.svc.DisbandTeam(ctx, leaderID, team.ID))
		assert.Equal(t, active-1, testutil.ToFloat64(testMetrics.TeamsActive))

		// The roster rows are gone, so nobody is stuck "in a team".
		standing, detail, err := f.svc.GetStanding(ctx, f.hackathonID, memberID)
		require.NoError(t, err)
		assert.Equal(t, StandingRegisteredNoTeam, standing)
		assert.Nil(t, detail)

		next := f.createTeam(t, leaderID, "Owls Reborn")
		_, err = f.svc.RequestToJoin(ctx, memberID, next.ID, &JoinTeamRequest{})
		require.NoError(t, err)
	})

	t.Run("disbanded team reported as gone, not unknown", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		require.NoError(t, f.svc.DisbandTeam(ctx, leaderID, team.ID))

		userID := f.register(uuid.New())
		_, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
		assert.ErrorIs(t, err, ErrTeamDisbanded)
	})

	t.Run("only the leader can disband", func(t *testing.T) {
		f := newFixture(4)
		leaderID := f.register(uuid.New())
		team := f.createTeam(t, leaderID, "Owls")
		outsiderID := f.register(uuid.New())

		err := f.svc.DisbandTeam(ctx, outsiderID, team.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestGetStanding(t *testing.T) {
	ctx := context.Background()

	f := newFixture(4)
	leaderID := f.register(uuid.New())
	team := f.createTeam(t, leaderID, "Owls")

	memberID := f.register(uuid.New())
	request, err := f.svc.RequestToJoin(ctx, memberID, team.ID, &JoinTeamRequest{})
	require.NoError(t, err)
	_, err = f.svc.RespondToRequest(ctx, leaderID, team.ID, request.ID, DecisionAccept)
	require.NoError(t, err)

	freeID := f.register(uuid.New())

	tests := []struct {
		name     string
		userID   uuid.UUID
		expected TeamStanding
		hasTeam  bool
	}{
		{"not registered", uuid.New(), StandingNotRegistered, false},
		{"registered without team", freeID, StandingRegisteredNoTeam, false},
		{"team leader", leaderID, StandingTeamLeader, true},
		{"team member", memberID, StandingTeamMember, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			standing, detail, err := f.svc.GetStanding(ctx, f.hackathonID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, standing)
			if tt.hasTeam {
				require.NotNil(t, detail)
				assert.Equal(t, team.ID, detail.ID)
			} else {
				assert.Nil(t, detail)
			}
		})
	}
}

func TestNotificationFailureAbortsOperation(t *testing.T) {
	ctx := context.Background()

	f := newFixture(4)
	leaderID := f.register(uuid.New())
	team := f.createTeam(t, leaderID, "Owls")
	userID := f.register(uuid.New())

	f.notifier.dispatchErr = assert.AnError
	_, err := f.svc.RequestToJoin(ctx, userID, team.ID, &JoinTeamRequest{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.notifier.pushed)
}
