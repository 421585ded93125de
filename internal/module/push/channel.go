// Package push delivers live events to connected clients, best-effort. The
// durable notification record is always written first by the caller; losing
// a push only delays visibility until the next poll.
package push

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotConnected is returned when the recipient has no live session.
var ErrNotConnected = errors.New("recipient not connected")

// Channel delivers an event payload to a currently-connected user.
type Channel interface {
	Publish(ctx context.Context, userID uuid.UUID, payload interface{}) error
}
