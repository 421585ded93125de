package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hackhub/server/internal/module/push"
	"github.com/hackhub/server/internal/module/team"
	"github.com/hackhub/server/internal/shared/metrics"
)

// Pusher delivers an event to a currently-connected recipient, best-effort.
type Pusher interface {
	Publish(ctx context.Context, userID uuid.UUID, payload interface{}) error
}

// Responder resolves the join request an actionable notification is linked
// to. Satisfied by the team registry service.
type Responder interface {
	RespondToRequest(ctx context.Context, responderID, teamID, requestID uuid.UUID, decision team.Decision) (*team.Team, error)
}

// Config tunes the best-effort push path.
type Config struct {
	PublishTimeout   time.Duration
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// DispatchInput describes one notification to persist.
type DispatchInput struct {
	RecipientID uuid.UUID
	Type        Type
	Title       string
	Message     string
	TeamID      *uuid.UUID
	HackathonID *uuid.UUID
	ActorID     *uuid.UUID
	RequestID   *uuid.UUID
}

// PushEvent is the payload sent over the live channel when a notification
// is created. Clients pull the actual records.
type PushEvent struct {
	Type string `json:"type"`
}

// Service provides notification dispatch and read-model logic. The persisted
// record is the source of truth; pushes go through a circuit breaker so a
// misbehaving live channel cannot slow down request handling.
type Service struct {
	repo      Repository
	pusher    Pusher
	breaker   *gobreaker.CircuitBreaker[any]
	responder Responder
	cfg       Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, pusher Pusher, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Service {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "live-push",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		// An offline recipient is the normal case, not a channel failure;
		// it must not open the breaker for recipients who are connected.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, push.ErrNotConnected)
		},
	})

	return &Service{
		repo:    repo,
		pusher:  pusher,
		breaker: breaker,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// SetResponder wires the workflow responder. Called once during startup;
// the notification service and the team registry reference each other, so
// one side is attached after construction.
func (s *Service) SetResponder(r Responder) {
	s.responder = r
}

// ========== Dispatch ==========

// Dispatch persists a notification. When tx is non-nil the insert joins the
// caller's transaction, so a failed write rolls the triggering operation
// back with it. Actionable types start with a pending workflow status.
func (s *Service) Dispatch(ctx context.Context, tx *gorm.DB, input DispatchInput) (*Notification, error) {
	workflow := WorkflowNone
	if input.Type.IsActionable() {
		workflow = WorkflowPending
	}

	notification := &Notification{
		ID:             uuid.New(),
		RecipientID:    input.RecipientID,
		Type:           input.Type,
		Title:          input.Title,
		Message:        input.Message,
		TeamID:         input.TeamID,
		HackathonID:    input.HackathonID,
		ActorID:        input.ActorID,
		RequestID:      input.RequestID,
		WorkflowStatus: workflow,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	s.metrics.RecordNotification(string(input.Type))
	return notification, nil
}

// ResolveByRequest moves the actionable notification linked to a join
// request out of pending, inside the caller's transaction. Keeps the
// notification's workflow status in lockstep with the request status.
func (s *Service) ResolveByRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, accepted bool) error {
	status := WorkflowRejected
	if accepted {
		status = WorkflowAccepted
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	return repo.ResolveWorkflowByRequest(ctx, requestID, status)
}

// Push attempts a live delivery to each recipient. Failures are logged and
// counted, never returned: the durable record already exists and the next
// list call will surface it.
func (s *Service) Push(ctx context.Context, recipientIDs ...uuid.UUID) {
	if s.pusher == nil {
		return
	}

	event := PushEvent{Type: "notification.new"}
	for _, recipientID := range recipientIDs {
		recipientID := recipientID
		_, err := s.breaker.Execute(func() (any, error) {
			pushCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
			defer cancel()
			return nil, s.pusher.Publish(pushCtx, recipientID, event)
		})
		switch {
		case err == nil:
			s.metrics.RecordPush("delivered")
		case errors.Is(err, push.ErrNotConnected):
			s.metrics.RecordPush("offline")
		default:
			s.metrics.RecordPush("failed")
			s.logger.Warn("live push failed",
				zap.String("recipient_id", recipientID.String()),
				zap.Error(err),
			)
		}
	}
}

// ========== Read Model ==========

// List returns a recipient's notifications, most recent first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int64, error) {
	return s.repo.ListByRecipient(ctx, userID, limit, offset)
}

// UnreadCount returns how many of the recipient's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the recipient's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// ========== Workflow ==========

// RespondToActionable resolves the join request linked to an actionable
// notification. The registry's respond path updates the notification's
// workflow status in the same transaction, so a second call observes a
// resolved workflow and fails with ErrAlreadyProcessed.
func (s *Service) RespondToActionable(ctx context.Context, notificationID, userID uuid.UUID, decision team.Decision) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != userID {
		return nil, ErrNotificationNotFound
	}
	if !notification.Type.IsActionable() || notification.TeamID == nil || notification.RequestID == nil {
		return nil, ErrNotActionable
	}
	if !notification.IsPending() {
		return nil, ErrAlreadyProcessed
	}
	if s.responder == nil {
		return nil, ErrNoResponder
	}

	_, err = s.responder.RespondToRequest(ctx, userID, *notification.TeamID, *notification.RequestID, decision)
	if err != nil {
		// The request can be resolved through the team API between our
		// read and the responder call; surface that as already processed.
		if errors.Is(err, team.ErrInvalidTransition) {
			return nil, ErrAlreadyProcessed
		}
		return nil, err
	}

	return s.repo.GetByID(ctx, notificationID)
}
