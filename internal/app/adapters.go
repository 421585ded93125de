package app

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hackhub/server/internal/module/notification"
	"github.com/hackhub/server/internal/module/team"
)

// notifierAdapter implements team.Notifier on top of the notification
// dispatcher.
type notifierAdapter struct {
	service *notification.Service
}

func (a *notifierAdapter) Dispatch(ctx context.Context, tx *gorm.DB, notice team.Notice) error {
	_, err := a.service.Dispatch(ctx, tx, notification.DispatchInput{
		RecipientID: notice.RecipientID,
		Type:        notification.Type(notice.Kind),
		Title:       notice.Title,
		Message:     notice.Message,
		TeamID:      notice.TeamID,
		HackathonID: notice.HackathonID,
		ActorID:     notice.ActorID,
		RequestID:   notice.RequestID,
	})
	return err
}

func (a *notifierAdapter) ResolveByRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, accepted bool) error {
	return a.service.ResolveByRequest(ctx, tx, requestID, accepted)
}

func (a *notifierAdapter) PushTo(ctx context.Context, recipientIDs ...uuid.UUID) {
	a.service.Push(ctx, recipientIDs...)
}
