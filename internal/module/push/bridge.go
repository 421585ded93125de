package push

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// bridgeChannel is the pub/sub channel shared by all server instances.
const bridgeChannel = "hackhub:push"

// envelope carries one push event across instances.
type envelope struct {
	UserID  uuid.UUID       `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge fans push events out across server instances through redis
// pub/sub. Every instance, including the publisher, delivers to its own
// local hub from the subscription loop, so delivery happens exactly once
// per live session regardless of which instance handled the request.
type Bridge struct {
	redis  redis.UniversalClient
	hub    *Hub
	logger *zap.Logger
}

// NewBridge creates a new pub/sub bridge over the given hub.
func NewBridge(redisClient redis.UniversalClient, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{
		redis:  redisClient,
		hub:    hub,
		logger: logger,
	}
}

// Publish broadcasts the event to all instances. A recipient with no live
// session on any instance is silently ignored; the durable notification is
// the record of truth.
func (b *Bridge) Publish(ctx context.Context, userID uuid.UUID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(envelope{UserID: userID, Payload: data})
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, bridgeChannel, msg).Err()
}

// Run consumes the pub/sub channel and delivers to the local hub until the
// context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.redis.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("malformed push envelope", zap.Error(err))
				continue
			}
			err := b.hub.Publish(ctx, env.UserID, json.RawMessage(env.Payload))
			if err != nil && err != ErrNotConnected {
				b.logger.Warn("local push delivery failed",
					zap.String("user_id", env.UserID.String()),
					zap.Error(err),
				)
			}
		}
	}
}
