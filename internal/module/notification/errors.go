package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist
	// or belongs to another recipient.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrNotActionable is returned when responding to a purely
	// informational notification.
	ErrNotActionable = errors.New("notification is not actionable")

	// ErrAlreadyProcessed is returned when responding to an actionable
	// notification that has already been resolved.
	ErrAlreadyProcessed = errors.New("notification already processed")

	// ErrNoResponder is returned when no workflow responder has been wired.
	ErrNoResponder = errors.New("no responder configured")
)
