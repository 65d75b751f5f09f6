package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
	}
}

// EnqueueSweep schedules a one-off sweep, e.g. at worker boot.
func (c *Client) EnqueueSweep(ctx context.Context, retention time.Duration) (*asynq.TaskInfo, error) {
	task, err := NewSweepTask(SweepPayload{Retention: retention, RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(
		ctx,
		task,
		sweepOptions(c.queue, retention)...,
	)
}

func (c *Client) Close() error {
	return c.client.Close()
}

func sweepOptions(queueName string, retention time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queueName),
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
		asynq.Unique(retention),
	}
}
