package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// queuedMessage is the JSON document pushed onto the outbox list.
type queuedMessage struct {
	UserID    string    `json:"user_id"`
	Event     string    `json:"event"`
	BookingID string    `json:"booking_id"`
	Reference string    `json:"reference"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

// RedisQueue pushes messages onto a redis list consumed by the delivery
// workers that own push, SMS and in-app channels.
type RedisQueue struct {
	client redis.Cmdable
	key    string
	now    func() time.Time
}

func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, now: time.Now}
}

func (q *RedisQueue) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	payload, err := encodeQueued(userID, msg, q.now())
	if err != nil {
		return err
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s for user %s: %w", msg.Event, userID.String(), err)
	}
	return nil
}

func encodeQueued(userID uuid.UUID, msg Message, now time.Time) (string, error) {
	body, err := json.Marshal(queuedMessage{
		UserID:    userID.String(),
		Event:     msg.Event,
		BookingID: msg.BookingID.String(),
		Reference: msg.Reference,
		Subject:   msg.Subject,
		Body:      msg.Body,
		QueuedAt:  now.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode %s message: %w", msg.Event, err)
	}
	return string(body), nil
}
