package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogReprice re-derives catalog prices after a bulk multiplier change.
	TaskCatalogReprice = "catalog:reprice"

	repriceMaxRetry = 3
)

// RepriceKind selects which stored multiplier a bulk reprice rewrites.
type RepriceKind string

const (
	RepriceRegionalModifier RepriceKind = "regional_modifier"
	RepriceMarkup           RepriceKind = "markup"
)

// RepriceRequest is the body of POST /jobs/reprice.
type RepriceRequest struct {
	Kind       RepriceKind     `json:"kind" validate:"required,oneof=regional_modifier markup"`
	Value      decimal.Decimal `json:"value" validate:"gt=0"`
	CategoryID *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

// RepricePayload is the queued form of a reprice request.
type RepricePayload struct {
	RequestID  string          `json:"request_id"`
	Kind       RepriceKind     `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	CategoryID *int64          `json:"category_id,omitempty"`
}

// NewRepriceTask validates the request and builds a task whose asynq id is the
// generated request id, so a payload is never queued twice.
func NewRepriceTask(req RepriceRequest) (*asynq.Task, RepricePayload, error) {
	if err := shared.Validate(req); err != nil {
		return nil, RepricePayload{}, err
	}
	payload := RepricePayload{
		RequestID:  uuid.NewString(),
		Kind:       req.Kind,
		Value:      req.Value,
		CategoryID: req.CategoryID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, RepricePayload{}, fmt.Errorf("marshal reprice payload: %w", err)
	}
	task := asynq.NewTask(TaskCatalogReprice, data,
		asynq.TaskID(payload.RequestID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(repriceMaxRetry))
	return task, payload, nil
}
