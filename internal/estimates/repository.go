package estimates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/db"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

const estimateNumberConstraint = "estimates_estimate_number_key"

// ErrDuplicateNumber reports an estimate number that is already taken. The create
// path retries once with a fresh number.
var ErrDuplicateNumber = fmt.Errorf("%w: estimate number already in use", shared.ErrConcurrencyConflict)

// Repository is the estimate store. Every method may run inside WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextEstimateNumber(ctx context.Context, at time.Time) (string, error)
	CreateEstimate(ctx context.Context, e Estimate) (Estimate, error)
	GetEstimate(ctx context.Context, id int64) (Estimate, error)
	LockEstimate(ctx context.Context, id int64) (Estimate, error)
	ListEstimates(ctx context.Context, filters ListFilters) ([]Estimate, int, error)
	InsertLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error)
	ReplaceLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error)
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal, pricingRuleID int64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
	inTx bool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, inTx: true})
	})
}

// NextEstimateNumber atomically increments the monthly sequence and formats it as
// EST-{YY}{MM}-{SEQ}. It always runs on the pool so the increment commits on its
// own and never conflicts with the caller's transaction.
func (r *repository) NextEstimateNumber(ctx context.Context, at time.Time) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "EST", at.Format("200601")).Scan(&seq)
	if err != nil {
		return "", db.Classify(fmt.Errorf("estimates: next number: %w", err))
	}
	return FormatEstimateNumber(at, seq), nil
}

// FormatEstimateNumber renders a sequence value as an estimate number.
func FormatEstimateNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("EST-%s-%04d", at.Format("0601"), seq)
}

const estimateColumns = `id, estimate_number, client_id, title, description, status, pricing_rule_id,
	total_amount, valid_until, created_at, updated_at`

func scanEstimate(row pgx.Row) (Estimate, error) {
	var e Estimate
	err := row.Scan(&e.ID, &e.EstimateNumber, &e.ClientID, &e.Title, &e.Description, &e.Status, &e.PricingRuleID,
		&e.TotalAmount, &e.ValidUntil, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) CreateEstimate(ctx context.Context, e Estimate) (Estimate, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO estimates (estimate_number, client_id, title, description, status,
			pricing_rule_id, total_amount, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+estimateColumns,
		e.EstimateNumber, e.ClientID, e.Title, e.Description, e.Status, e.PricingRuleID, e.TotalAmount, e.ValidUntil)
	created, err := scanEstimate(row)
	switch {
	case err == nil:
		return created, nil
	case db.IsUniqueViolation(err, estimateNumberConstraint):
		return Estimate{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, e.EstimateNumber)
	case db.IsForeignKeyViolation(err, ""):
		return Estimate{}, fmt.Errorf("%w: pricing rule %d", shared.ErrRuleNotFound, e.PricingRuleID)
	}
	return Estimate{}, db.Classify(fmt.Errorf("estimates: create: %w", err))
}

func (r *repository) GetEstimate(ctx context.Context, id int64) (Estimate, error) {
	e, err := scanEstimate(r.db.QueryRow(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE id = $1`, id))
	if err != nil {
		return Estimate{}, estimateErr(id, err)
	}
	lines, err := r.lineItems(ctx, id)
	if err != nil {
		return Estimate{}, err
	}
	e.Lines = lines
	return e, nil
}

// LockEstimate reads the estimate header and holds its row lock until the
// transaction ends.
func (r *repository) LockEstimate(ctx context.Context, id int64) (Estimate, error) {
	e, err := scanEstimate(r.db.QueryRow(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Estimate{}, estimateErr(id, err)
	}
	return e, nil
}

func estimateErr(id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	return db.Classify(fmt.Errorf("estimates: get %d: %w", id, err))
}

func (r *repository) ListEstimates(ctx context.Context, filters ListFilters) ([]Estimate, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		where += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM estimates`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}

	query := `SELECT ` + estimateColumns + ` FROM estimates` + where + ` ORDER BY created_at DESC, id DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()

	var out []Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

const lineColumns = `id, estimate_id, catalog_entry_id, code, description, quantity, unit, unit_price,
	total_price, labor_hours, overhead_profit_amount, tax_amount, line_total, sort_order`

func scanLine(row pgx.Row) (LineItem, error) {
	var l LineItem
	err := row.Scan(&l.ID, &l.EstimateID, &l.CatalogEntryID, &l.Code, &l.Description, &l.Quantity, &l.Unit, &l.UnitPrice,
		&l.TotalPrice, &l.LaborHours, &l.OverheadProfitAmount, &l.TaxAmount, &l.LineTotal, &l.SortOrder)
	return l, err
}

func (r *repository) lineItems(ctx context.Context, estimateID int64) ([]LineItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM estimate_line_items
		WHERE estimate_id = $1 ORDER BY sort_order, id`, estimateID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	lines := []LineItem{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const insertLineSQL = `INSERT INTO estimate_line_items (estimate_id, catalog_entry_id, code, description, quantity,
		unit, unit_price, total_price, labor_hours, overhead_profit_amount, tax_amount, line_total, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING ` + lineColumns

// InsertLineItems writes lines in one batch. A line whose catalog entry vanished
// since it was priced fails with ErrLineItemSourceNotFound.
func (r *repository) InsertLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error) {
	out := make([]LineItem, 0, len(lines))
	if len(lines) == 0 {
		return out, nil
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(insertLineSQL, estimateID, l.CatalogEntryID, l.Code, l.Description, l.Quantity,
			l.Unit, l.UnitPrice, l.TotalPrice, l.LaborHours, l.OverheadProfitAmount, l.TaxAmount, l.LineTotal, l.SortOrder)
	}
	results := r.db.SendBatch(ctx, batch)
	for _, l := range lines {
		saved, err := scanLine(results.QueryRow())
		if err != nil {
			_ = results.Close()
			if db.IsForeignKeyViolation(err, "") && l.CatalogEntryID != nil {
				return nil, fmt.Errorf("%w: catalog entry %d", shared.ErrLineItemSourceNotFound, *l.CatalogEntryID)
			}
			return nil, db.Classify(fmt.Errorf("estimates: insert line %d: %w", l.SortOrder, err))
		}
		out = append(out, saved)
	}
	if err := results.Close(); err != nil {
		return nil, db.Classify(fmt.Errorf("estimates: insert lines: %w", err))
	}
	return out, nil
}

func (r *repository) ReplaceLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error) {
	if _, err := r.db.Exec(ctx, `DELETE FROM estimate_line_items WHERE estimate_id = $1`, estimateID); err != nil {
		return nil, db.Classify(fmt.Errorf("estimates: delete lines: %w", err))
	}
	return r.InsertLineItems(ctx, estimateID, lines)
}

func (r *repository) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal, pricingRuleID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE estimates SET total_amount = $1, pricing_rule_id = $2, updated_at = NOW() WHERE id = $3`,
		total, pricingRuleID, id)
	if err != nil {
		return db.Classify(fmt.Errorf("estimates: update total: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE estimates SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return db.Classify(fmt.Errorf("estimates: update status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	return nil
}
