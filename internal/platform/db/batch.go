package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ExecBatch sends a batch of statements that return no rows and sums their affected
// row counts. The batch is always closed, and an error reported by Close fails the
// call so it surfaces before the transaction commits.
func ExecBatch(ctx context.Context, q DBTX, batch *pgx.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}
	results := q.SendBatch(ctx, batch)
	var affected int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, Classify(fmt.Errorf("platform/db: batch statement %d: %w", i+1, err))
		}
		affected += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, Classify(fmt.Errorf("platform/db: close batch: %w", err))
	}
	return affected, nil
}
