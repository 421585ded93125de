package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for notification data access.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
	ResolveWorkflowByRequest(ctx context.Context, requestID uuid.UUID, status WorkflowStatus) error

	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new notification repository.
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

// Create persists a notification.
func (r *repository) Create(ctx context.Context, notification *Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// GetByID retrieves a notification by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var notification Notification
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// ListByRecipient lists a recipient's notifications, most recent first.
func (r *repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	query := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ?", recipientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*Notification
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread counts a recipient's unread notifications.
func (r *repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks one of the recipient's notifications as read.
func (r *repository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of the recipient's notifications as read.
func (r *repository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}

// ResolveWorkflowByRequest resolves the actionable notification linked to a
// join request. Used by the team respond path so the notification's workflow
// status moves in lockstep with the request inside the same transaction.
// The notification may legitimately be absent (zero rows is not an error):
// the request can be resolved through the notification path first.
func (r *repository) ResolveWorkflowByRequest(ctx context.Context, requestID uuid.UUID, status WorkflowStatus) error {
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("request_id = ? AND workflow_status = ?", requestID, WorkflowPending).
		Updates(map[string]interface{}{
			"workflow_status": status,
			"read":            true,
		}).Error
}
