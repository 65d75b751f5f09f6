package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeSweepOutputs = "outputs:sweep"

// SweepPayload asks the worker to delete converted outputs and staged uploads
// older than Retention.
type SweepPayload struct {
	Retention   time.Duration `json:"retention"`
	RequestedAt time.Time     `json:"requested_at"`
}

func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	if payload.Retention <= 0 {
		return nil, fmt.Errorf("sweep retention must be positive")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sweep payload: %w", err)
	}
	return asynq.NewTask(TypeSweepOutputs, body), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, fmt.Errorf("unmarshal sweep payload: %w", err)
	}
	if payload.Retention <= 0 {
		return SweepPayload{}, fmt.Errorf("sweep retention must be positive")
	}
	return payload, nil
}
