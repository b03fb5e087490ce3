package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/odyssey-erp/bcs-estimating/internal/jobs"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

const repriceJobName = "catalog_reprice"

// Repricer applies bulk multiplier changes to the catalog.
type Repricer interface {
	BulkUpdateModifier(ctx context.Context, modifier decimal.Decimal, categoryID *int64) (int64, error)
	BulkUpdateMarkup(ctx context.Context, markup decimal.Decimal, categoryID *int64) (int64, error)
}

// RepriceJob executes queued catalog reprice tasks.
type RepriceJob struct {
	Catalog Repricer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRepriceJob wires dependencies for the reprice handler.
func NewRepriceJob(catalog Repricer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RepriceJob {
	return &RepriceJob{Catalog: catalog, Logger: logger, Metrics: metrics}
}

// Handle processes TaskCatalogReprice tasks. Malformed payloads and rejected
// multipliers are not retried.
func (j *RepriceJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog reprice: handler not configured")
	}
	var payload RepricePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reprice payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(repriceJobName)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("request_id", payload.RequestID), slog.String("kind", string(payload.Kind)))
	if payload.CategoryID != nil {
		logger = logger.With(slog.Int64("category_id", *payload.CategoryID))
	}
	logger.InfoContext(ctx, "starting catalog reprice", slog.String("value", payload.Value.String()))

	var (
		affected int64
		err      error
	)
	switch payload.Kind {
	case RepriceRegionalModifier:
		affected, err = j.Catalog.BulkUpdateModifier(ctx, payload.Value, payload.CategoryID)
	case RepriceMarkup:
		affected, err = j.Catalog.BulkUpdateMarkup(ctx, payload.Value, payload.CategoryID)
	default:
		return fmt.Errorf("unknown reprice kind %q: %w", payload.Kind, asynq.SkipRetry)
	}
	if err != nil {
		logger.ErrorContext(ctx, "catalog reprice failed", slog.Any("error", err))
		if errors.Is(err, shared.ErrInvalidInput) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	j.Metrics.AddRepriced(string(payload.Kind), affected)
	logger.InfoContext(ctx, "completed catalog reprice", slog.Int64("affected", affected))
	return nil
}

func (j *RepriceJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
