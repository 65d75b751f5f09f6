package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	queue     string
}

func NewScheduler(redisOpt asynq.RedisClientOpt, queueName string) *Scheduler {
	return &Scheduler{
		scheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC}),
		queue:     queueName,
	}
}

// RegisterSweep enqueues a sweep on cronspec, e.g. "@every 10m".
func (s *Scheduler) RegisterSweep(cronspec string, retention time.Duration) (string, error) {
	task, err := NewSweepTask(SweepPayload{Retention: retention})
	if err != nil {
		return "", err
	}
	entryID, err := s.scheduler.Register(cronspec, task, sweepOptions(s.queue, retention)...)
	if err != nil {
		return "", fmt.Errorf("register sweep %q: %w", cronspec, err)
	}
	return entryID, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
