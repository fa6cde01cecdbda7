package scheduler

import (
	"encoding/json"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"

	"github.com/hibiken/asynq"
)

const TaskDunningRelance = "invoices.dunning.relance"

const (
	dunningMaxRetry  = 5
	dunningRetention = 7 * 24 * time.Hour
)

type DunningRelancePayload struct {
	InvoiceID string `json:"invoiceId"`
	Level     int    `json:"level"`
}

// TaskID de-duplicates relances: one task per invoice and level.
func (p DunningRelancePayload) TaskID() string {
	return domain.IdempotencyKey(p.InvoiceID, p.Level)
}

func NewDunningRelanceTask(payload DunningRelancePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDunningRelance, data,
		asynq.TaskID(payload.TaskID()),
		asynq.MaxRetry(dunningMaxRetry),
		asynq.Retention(dunningRetention),
	), nil
}

func ParseDunningRelancePayload(task *asynq.Task) (DunningRelancePayload, error) {
	var payload DunningRelancePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DunningRelancePayload{}, err
	}
	return payload, nil
}
