package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Message is the JSON published on the invalidation channel.
type Message struct {
	EventID    string    `json:"eventId"`
	Event      string    `json:"event"`
	Keys       []string  `json:"keys"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher fans domain events out to Redis pub/sub.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

func NewPublisher(client *redis.Client, channel string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{client: client, channel: channel, log: log}
}

// Register subscribes the publisher to every invalidating event on bus.
func (p *Publisher) Register(bus events.Bus) {
	events.SubscribeAll(bus, p, EventNames()...)
}

// Handle publishes the keys event invalidates. Events with no keys are ignored.
func (p *Publisher) Handle(ctx context.Context, event events.Event) error {
	keys := KeysFor(event)
	if len(keys) == 0 {
		return nil
	}

	data, err := json.Marshal(Message{
		EventID:    event.EventID().String(),
		Event:      event.EventName(),
		Keys:       keys,
		OccurredAt: event.OccurredAt(),
	})
	if err != nil {
		return fmt.Errorf("encode invalidation: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.WithContext(ctx).Warn("invalidation publish failed", "event", event.EventName(), "error", err)
		return err
	}
	return nil
}

var _ events.Handler = (*Publisher)(nil)
