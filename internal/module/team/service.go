package team

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hackhub/server/internal/shared/metrics"
)

// versionRetries bounds how often a lost version-guarded write is retried
// before the operation gives up.
const versionRetries = 3

// HackathonDirectory resolves hackathon facts the registry depends on but
// does not own.
type HackathonDirectory interface {
	// MaxTeamSize returns the team capacity configured for a hackathon.
	MaxTeamSize(ctx context.Context, hackathonID uuid.UUID) (int, error)
}

// Notice kinds emitted by the registry.
const (
	NoticeJoinRequest        = "TEAM_JOIN_REQUEST"
	NoticeInvitation         = "TEAM_INVITATION"
	NoticeRequestAccepted    = "TEAM_REQUEST_ACCEPTED"
	NoticeRequestRejected    = "TEAM_REQUEST_REJECTED"
	NoticeInvitationAccepted = "TEAM_INVITATION_ACCEPTED"
	NoticeInvitationRejected = "TEAM_INVITATION_REJECTED"
	NoticeTeamDisbanded      = "TEAM_DISBANDED"
)

// Notice describes one notification to a single recipient.
type Notice struct {
	RecipientID uuid.UUID
	Kind        string
	Title       string
	Message     string
	TeamID      *uuid.UUID
	HackathonID *uuid.UUID
	ActorID     *uuid.UUID
	RequestID   *uuid.UUID
}

// Notifier records and delivers notifications for registry events.
// Dispatch and ResolveByRequest run inside the caller's transaction so a
// failed notification write rolls the whole operation back; PushTo is called
// after commit and is best-effort only.
type Notifier interface {
	Dispatch(ctx context.Context, tx *gorm.DB, notice Notice) error
	ResolveByRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, accepted bool) error
	PushTo(ctx context.Context, recipientIDs ...uuid.UUID)
}

// Service provides team registry business logic.
type Service struct {
	repo      Repository
	directory HackathonDirectory
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates a new team registry service.
func NewService(repo Repository, directory HackathonDirectory, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// ========== Team Operations ==========

// CreateTeam creates a new team with the creator as its leader.
func (s *Service) CreateTeam(ctx context.Context, leaderID uuid.UUID, req *CreateTeamRequest) (team *Team, err error) {
	defer func() { s.metrics.RecordTeamOperation("create_team", err) }()

	if err := s.checkEligible(ctx, req.HackathonID, leaderID); err != nil {
		return nil, err
	}

	// Early, friendly check; the unique index on team_members is what
	// actually enforces one team per hackathon at insert time.
	existing, err := s.repo.GetMembership(ctx, req.HackathonID, leaderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInTeam
	}

	capacity, err := s.directory.MaxTeamSize(ctx, req.HackathonID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	team = &Team{
		ID:          uuid.New(),
		HackathonID: req.HackathonID,
		Name:        req.Name,
		Description: req.Description,
		LookingFor:  req.LookingFor,
		TechStack:   req.TechStack,
		Capacity:    capacity,
		Version:     1,
		Status:      TeamStatusActive,
	}
	if err := txRepo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}

	leader := &TeamMember{
		TeamID:      team.ID,
		UserID:      leaderID,
		HackathonID: req.HackathonID,
		Role:        RoleLeader,
		JoinedAt:    time.Now(),
	}
	if err := txRepo.AddMember(ctx, leader); err != nil {
		return nil, err
	}

	if err := txRepo.SetParticipationTeam(ctx, req.HackathonID, leaderID, &team.ID, false); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	team.Members = []TeamMember{*leader}

	s.metrics.TeamsActive.Inc()
	s.logger.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("hackathon_id", req.HackathonID.String()),
		zap.String("leader_id", leaderID.String()),
	)

	return team, nil
}

// GetTeam retrieves a team with its roster and pending requests.
func (s *Service) GetTeam(ctx context.Context, teamID uuid.UUID) (*Team, error) {
	return s.repo.GetTeamDetail(ctx, teamID)
}

// ListTeams lists active teams that still have open slots.
func (s *Service) ListTeams(ctx context.Context, hackathonID *uuid.UUID, limit, offset int) ([]*Team, error) {
	return s.repo.ListTeamsLookingForMembers(ctx, hackathonID, limit, offset)
}

// GetStanding reports a user's team situation within a hackathon.
func (s *Service) GetStanding(ctx context.Context, hackathonID, userID uuid.UUID) (TeamStanding, *Team, error) {
	participation, err := s.repo.GetParticipation(ctx, hackathonID, userID)
	if err != nil {
		return "", nil, err
	}
	if participation == nil {
		return StandingNotRegistered, nil, nil
	}

	membership, err := s.repo.GetMembership(ctx, hackathonID, userID)
	if err != nil {
		return "", nil, err
	}
	if membership == nil {
		return StandingRegisteredNoTeam, nil, nil
	}

	team, err := s.repo.GetTeamDetail(ctx, membership.TeamID)
	if err != nil {
		return "", nil, err
	}
	if membership.Role == RoleLeader {
		return StandingTeamLeader, team, nil
	}
	return StandingTeamMember, team, nil
}

// ========== Request Operations ==========

// RequestToJoin files a pending join request and notifies the team leader.
func (s *Service) RequestToJoin(ctx context.Context, userID, teamID uuid.UUID, req *JoinTeamRequest) (request *JoinRequest, err error) {
	defer func() { s.metrics.RecordTeamOperation("request_to_join", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		request, err = s.createRequest(ctx, userID, teamID, DirectionIncoming, req.Message, userID)
		if err == ErrVersionConflict {
			continue
		}
		return request, err
	}
	return nil, ErrVersionConflict
}

// InviteMember files a pending invitation and notifies the invited user.
// Leader-only.
func (s *Service) InviteMember(ctx context.Context, inviterID, teamID uuid.UUID, req *InviteMemberRequest) (request *JoinRequest, err error) {
	defer func() { s.metrics.RecordTeamOperation("invite_member", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		request, err = s.createRequest(ctx, req.UserID, teamID, DirectionInvitation, "", inviterID)
		if err == ErrVersionConflict {
			continue
		}
		return request, err
	}
	return nil, ErrVersionConflict
}

// createRequest performs one attempt at filing a pending request. The
// version-guarded write serializes it against every other mutation of the
// same team, which is what makes the duplicate and capacity checks safe.
func (s *Service) createRequest(ctx context.Context, subjectID, teamID uuid.UUID, direction RequestDirection, message string, actorID uuid.UUID) (*JoinRequest, error) {
	team, err := s.repo.GetTeamDetail(ctx, teamID)
	if err != nil {
		return nil, err
	}
	leader := team.Leader()
	if leader == nil {
		return nil, ErrTeamNotFound
	}
	if direction == DirectionInvitation && leader.UserID != actorID {
		return nil, ErrUnauthorized
	}

	if err := s.checkEligible(ctx, team.HackathonID, subjectID); err != nil {
		return nil, err
	}

	membership, err := s.repo.GetMembership(ctx, team.HackathonID, subjectID)
	if err != nil {
		return nil, err
	}
	if membership != nil {
		return nil, ErrAlreadyInTeam
	}

	if len(team.Members) >= team.Capacity {
		return nil, ErrTeamFull
	}

	pending, err := s.repo.GetPendingRequest(ctx, teamID, subjectID, direction)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicateRequest
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.BumpVersion(ctx, team.ID, team.Version); err != nil {
		if err == ErrVersionConflict {
			s.metrics.VersionConflictsTotal.Inc()
		}
		return nil, err
	}

	request := &JoinRequest{
		ID:          uuid.New(),
		TeamID:      team.ID,
		UserID:      subjectID,
		Direction:   direction,
		Status:      RequestStatusPending,
		Message:     message,
		RequestedAt: time.Now(),
	}
	if err := txRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	notice := Notice{
		TeamID:      &team.ID,
		HackathonID: &team.HackathonID,
		ActorID:     &actorID,
		RequestID:   &request.ID,
	}
	if direction == DirectionIncoming {
		notice.RecipientID = leader.UserID
		notice.Kind = NoticeJoinRequest
		notice.Title = "New join request"
		notice.Message = fmt.Sprintf("A participant wants to join %s", team.Name)
	} else {
		notice.RecipientID = subjectID
		notice.Kind = NoticeInvitation
		notice.Title = "Team invitation"
		notice.Message = fmt.Sprintf("You have been invited to join %s", team.Name)
	}
	if err := s.notifier.Dispatch(ctx, tx, notice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.notifier.PushTo(ctx, notice.RecipientID)

	s.logger.Info("request filed",
		zap.String("team_id", team.ID.String()),
		zap.String("user_id", subjectID.String()),
		zap.String("direction", string(direction)),
	)

	return request, nil
}

// RespondToRequest resolves a pending request. Accepting re-checks capacity
// under the version guard and retries a bounded number of times before
// giving up with ErrTeamFull; this is the only path that grows a roster.
func (s *Service) RespondToRequest(ctx context.Context, responderID, teamID, requestID uuid.UUID, decision Decision) (team *Team, err error) {
	defer func() { s.metrics.RecordTeamOperation("respond_to_request", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		team, err = s.respondOnce(ctx, responderID, teamID, requestID, decision)
		if err == ErrVersionConflict {
			continue
		}
		return team, err
	}
	if decision == DecisionAccept {
		return nil, ErrTeamFull
	}
	return nil, ErrVersionConflict
}

func (s *Service) respondOnce(ctx context.Context, responderID, teamID, requestID uuid.UUID, decision Decision) (*Team, error) {
	team, err := s.repo.GetTeamDetail(ctx, teamID)
	if err != nil {
		return nil, err
	}
	leader := team.Leader()
	if leader == nil {
		return nil, ErrTeamNotFound
	}

	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TeamID != teamID {
		return nil, ErrRequestNotFound
	}

	// Incoming requests are resolved by the leader, invitations by the
	// invited user.
	switch request.Direction {
	case DirectionIncoming:
		if responderID != leader.UserID {
			return nil, ErrUnauthorized
		}
	case DirectionInvitation:
		if responderID != request.UserID {
			return nil, ErrUnauthorized
		}
	}

	if !request.IsPending() {
		return nil, ErrInvalidTransition
	}

	accept := decision == DecisionAccept
	if accept && len(team.Members) >= team.Capacity {
		return nil, ErrTeamFull
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.BumpVersion(ctx, team.ID, team.Version); err != nil {
		if err == ErrVersionConflict {
			s.metrics.VersionConflictsTotal.Inc()
		}
		return nil, err
	}

	status := RequestStatusRejected
	if accept {
		status = RequestStatusAccepted
	}
	if err := txRepo.MarkRequestResolved(ctx, requestID, status); err != nil {
		return nil, err
	}
	if err := s.notifier.ResolveByRequest(ctx, tx, requestID, accept); err != nil {
		return nil, err
	}

	var notices []Notice
	if accept {
		member := &TeamMember{
			TeamID:      team.ID,
			UserID:      request.UserID,
			HackathonID: team.HackathonID,
			Role:        RoleMember,
			JoinedAt:    time.Now(),
		}
		if err := txRepo.AddMember(ctx, member); err != nil {
			return nil, err
		}
		if err := txRepo.SetParticipationTeam(ctx, team.HackathonID, request.UserID, &team.ID, false); err != nil {
			return nil, err
		}
		notices = s.acceptedNotices(team, request, responderID)
	} else {
		notices = []Notice{s.rejectedNotice(team, request, responderID)}
	}

	recipients := make([]uuid.UUID, 0, len(notices))
	for _, n := range notices {
		if err := s.notifier.Dispatch(ctx, tx, n); err != nil {
			return nil, err
		}
		recipients = append(recipients, n.RecipientID)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.notifier.PushTo(ctx, recipients...)

	s.logger.Info("request resolved",
		zap.String("team_id", team.ID.String()),
		zap.String("request_id", requestID.String()),
		zap.String("decision", string(decision)),
	)

	return s.repo.GetTeamDetail(ctx, teamID)
}

// acceptedNotices notifies both the leader and the joining user.
func (s *Service) acceptedNotices(team *Team, request *JoinRequest, actorID uuid.UUID) []Notice {
	kind := NoticeRequestAccepted
	if request.Direction == DirectionInvitation {
		kind = NoticeInvitationAccepted
	}
	base := Notice{
		Kind:        kind,
		Title:       "New team member",
		Message:     fmt.Sprintf("%s has a new member", team.Name),
		TeamID:      &team.ID,
		HackathonID: &team.HackathonID,
		ActorID:     &actorID,
		RequestID:   &request.ID,
	}

	joiner := base
	joiner.RecipientID = request.UserID
	joiner.Title = "Welcome to the team"
	joiner.Message = fmt.Sprintf("You have joined %s", team.Name)

	leaderNotice := base
	leaderNotice.RecipientID = team.Leader().UserID

	return []Notice{joiner, leaderNotice}
}

// rejectedNotice notifies the party that did not make the decision.
func (s *Service) rejectedNotice(team *Team, request *JoinRequest, actorID uuid.UUID) Notice {
	notice := Notice{
		TeamID:      &team.ID,
		HackathonID: &team.HackathonID,
		ActorID:     &actorID,
		RequestID:   &request.ID,
	}
	if request.Direction == DirectionIncoming {
		notice.RecipientID = request.UserID
		notice.Kind = NoticeRequestRejected
		notice.Title = "Join request declined"
		notice.Message = fmt.Sprintf("Your request to join %s was declined", team.Name)
	} else {
		notice.RecipientID = team.Leader().UserID
		notice.Kind = NoticeInvitationRejected
		notice.Title = "Invitation declined"
		notice.Message = fmt.Sprintf("Your invitation to join %s was declined", team.Name)
	}
	return notice
}

// ========== Membership Operations ==========

// LeaveTeam removes the caller from the roster. The leader cannot leave;
// leadership must be transferred first, so a surviving team always has a
// leader.
func (s *Service) LeaveTeam(ctx context.Context, userID, teamID uuid.UUID) (err error) {
	defer func() { s.metrics.RecordTeamOperation("leave_team", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		err = s.leaveOnce(ctx, userID, teamID)
		if err == ErrVersionConflict {
			continue
		}
		return err
	}
	return ErrVersionConflict
}

func (s *Service) leaveOnce(ctx context.Context, userID, teamID uuid.UUID) error {
	team, err := s.repo.GetTeamDetail(ctx, teamID)
	if err != nil {
		return err
	}
	if !team.HasMember(userID) {
		return ErrNotAMember
	}
	leader := team.Leader()
	if leader != nil && leader.UserID == userID {
		return ErrLeaderCannotLeave
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.BumpVersion(ctx, team.ID, team.Version); err != nil {
		if err == ErrVersionConflict {
			s.metrics.VersionConflictsTotal.Inc()
		}
		return err
	}
	if err := txRepo.RemoveMember(ctx, team.ID, userID); err != nil {
		return err
	}
	if err := txRepo.SetParticipationTeam(ctx, team.HackathonID, userID, nil, true); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("member left",
		zap.String("team_id", team.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return nil
}

// TransferLeadership hands the leader role to another member. Exactly one
// leader exists before and after the swap.
func (s *Service) TransferLeadership(ctx context.Context, currentLeaderID, teamID uuid.UUID, req *TransferLeadershipRequest) (team *Team, err error) {
	defer func() { s.metrics.RecordTeamOperation("transfer_leadership", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		team, err = s.transferOnce(ctx, currentLeaderID, req.NewLeaderID, teamID)
		if err == ErrVersionConflict {
			continue
		}
		return team, err
	}
	return nil, ErrVersionConflict
}

func (s *Service) transferOnce(ctx context.Context, currentLeaderID, newLeaderID, teamID uuid.UUID) (*Team, error) {
	team, err := s.repo.GetTeamDetail(ctx, teamID)
	if err != nil {
		return nil, err
	}
	leader := team.Leader()
	if leader == nil || leader.UserID != currentLeaderID {
		return nil, ErrUnauthorized
	}
	if newLeaderID == currentLeaderID {
		return team, nil
	}
	if _, err := s.repo.GetMember(ctx, teamID, newLeaderID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.BumpVersion(ctx, team.ID, team.Version); err != nil {
		if err == ErrVersionConflict {
			s.metrics.VersionConflictsTotal.Inc()
		}
		return nil, err
	}
	if err := txRepo.UpdateMemberRole(ctx, teamID, currentLeaderID, RoleMember); err != nil {
		return nil, err
	}
	if err := txRepo.UpdateMemberRole(ctx, teamID, newLeaderID, RoleLeader); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("leadership transferred",
		zap.String("team_id", teamID.String()),
		zap.String("from", currentLeaderID.String()),
		zap.String("to", newLeaderID.String()),
	)

	return s.repo.GetTeamDetail(ctx, teamID)
}

// DisbandTeam removes the team, rejects every pending request and clears
// the team pointer on every member's participation. Leader-only.
func (s *Service) DisbandTeam(ctx context.Context, leaderID, teamID uuid.UUID) (err error) {
	defer func() { s.metrics.RecordTeamOperation("disband_team", err) }()

	for attempt := 1; attempt <= versionRetries; attempt++ {
		err = s.disbandOnce(ctx, leaderID, teamID)
		if err == ErrVersionConflict {
			continue
		}
		return err
	}
	return ErrVersionConflict
}

func (s *Service) disbandOnce(ctx context.Context, leaderID, teamID uuid.UUID) error {
	team, err := s.repo.GetTeamDetail(ctx, teamID)
	if err != nil {
		return err
	}
	leader := team.Leader()
	if leader == nil || leader.UserID != leaderID {
		return ErrUnauthorized
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.MarkDisbanded(ctx, team.ID, team.Version); err != nil {
		if err == ErrVersionConflict {
			s.metrics.VersionConflictsTotal.Inc()
		}
		return err
	}

	var recipients []uuid.UUID

	// Cancel every pending request with a rejection notice.
	for i := range team.Requests {
		request := &team.Requests[i]
		if err := txRepo.MarkRequestResolved(ctx, request.ID, RequestStatusRejected); err != nil {
			return err
		}
		if err := s.notifier.ResolveByRequest(ctx, tx, request.ID, false); err != nil {
			return err
		}
		notice := s.rejectedNotice(team, request, leaderID)
		notice.RecipientID = request.UserID
		notice.Message = fmt.Sprintf("%s has been disbanded", team.Name)
		if err := s.notifier.Dispatch(ctx, tx, notice); err != nil {
			return err
		}
		recipients = append(recipients, notice.RecipientID)
	}

	// Free the members' unique (hackathon_id, user_id) slots so everyone
	// can form or join another team in the same hackathon.
	if err := txRepo.DeleteMembers(ctx, team.ID); err != nil {
		return err
	}

	if err := txRepo.ClearTeamPointer(ctx, team.ID); err != nil {
		return err
	}

	for _, member := range team.Members {
		if member.UserID == leaderID {
			continue
		}
		notice := Notice{
			RecipientID: member.UserID,
			Kind:        NoticeTeamDisbanded,
			Title:       "Team disbanded",
			Message:     fmt.Sprintf("%s has been disbanded by its leader", team.Name),
			TeamID:      &team.ID,
			HackathonID: &team.HackathonID,
			ActorID:     &leaderID,
		}
		if err := s.notifier.Dispatch(ctx, tx, notice); err != nil {
			return err
		}
		recipients = append(recipients, member.UserID)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.notifier.PushTo(ctx, recipients...)

	s.metrics.TeamsActive.Dec()
	s.logger.Info("team disbanded",
		zap.String("team_id", team.ID.String()),
		zap.String("leader_id", leaderID.String()),
		zap.Int("members", len(team.Members)),
	)

	return nil
}

// checkEligible verifies the user has an approved registration for the
// hackathon.
func (s *Service) checkEligible(ctx context.Context, hackathonID, userID uuid.UUID) error {
	participation, err := s.repo.GetParticipation(ctx, hackathonID, userID)
	if err != nil {
		return err
	}
	if participation == nil || !participation.IsEligible() {
		return ErrNotRegistered
	}
	return nil
}
