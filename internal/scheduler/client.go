package scheduler

import (
	"context"
	"errors"

	"github.com/Niconord59/crm-axivity-sub001/platform/cache"
	"github.com/Niconord59/crm-axivity-sub001/platform/config"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// RelanceEnqueuer queues relance tasks.
type RelanceEnqueuer interface {
	// EnqueueDunningRelance reports false when the same invoice and level is
	// already queued or retained.
	EnqueueDunningRelance(ctx context.Context, payload DunningRelancePayload) (bool, error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueDunningRelance(ctx context.Context, payload DunningRelancePayload) (bool, error) {
	task, err := NewDunningRelanceTask(payload)
	if err != nil {
		return false, err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := cache.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

var _ RelanceEnqueuer = (*Client)(nil)
