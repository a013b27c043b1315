package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "meetings:"
	publishTimeout = 5 * time.Second

	// EventCompleted is published when a meeting finished processing.
	EventCompleted = "completed"
)

// Message is the payload relayed on an owner's channel.
type Message struct {
	MeetingID string `json:"meeting_id"`
	Event     string `json:"event,omitempty"`
	At        int64  `json:"at,omitempty"`
}

// Channel returns the Redis channel of an owner.
func Channel(ownerID uuid.UUID) string {
	return channelPrefix + ownerID.String()
}

// Publisher publishes completion notifications to Redis.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

// PublishCompleted tells the owner's subscribers that meetingID finished processing.
func (p *Publisher) PublishCompleted(ctx context.Context, ownerID, meetingID uuid.UUID) error {
	body, err := json.Marshal(Message{MeetingID: meetingID.String(), Event: EventCompleted, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, Channel(ownerID), body).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.logger.Info("completion published", zap.String("owner", ownerID.String()), zap.String("meeting_id", meetingID.String()))
	return nil
}

// Subscriber listens on owner channels.
type Subscriber struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSubscriber creates a subscriber.
func NewSubscriber(client *redis.Client, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{client: client, logger: logger}
}

// Subscribe calls handler with the link of every valid message on the owner's channel
// until ctx ends or cancel is called.
func (s *Subscriber) Subscribe(ctx context.Context, ownerID uuid.UUID, handler func(Link)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(ctx, Channel(ownerID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				link, ok := Decode([]byte(msg.Payload))
				if !ok {
					s.logger.Debug("ignoring malformed notification", zap.String("channel", msg.Channel))
					continue
				}
				handler(link)
			}
		}
	}()
	return cancelCtx, nil
}

// Decode parses a relayed payload.
func Decode(payload []byte) (Link, bool) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return Link{}, false
	}
	return ParseNotification(data)
}
