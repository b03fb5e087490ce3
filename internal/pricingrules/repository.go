package pricingrules

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/db"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (PricingRule, error)
	List(ctx context.Context, filters ListFilters) ([]PricingRule, error)
	Create(ctx context.Context, rule PricingRule) (PricingRule, error)
	Update(ctx context.Context, rule PricingRule) (PricingRule, error)
	SetActive(ctx context.Context, id int64, active bool) (PricingRule, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const ruleColumns = `id, rule_name, category, markup_percentage, overhead_percentage, profit_percentage,
	tax_percentage, minimum_charge, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (PricingRule, error) {
	var r PricingRule
	err := row.Scan(&r.ID, &r.RuleName, &r.Category, &r.MarkupPercentage, &r.OverheadPercentage, &r.ProfitPercentage,
		&r.TaxPercentage, &r.MinimumCharge, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *repository) Get(ctx context.Context, id int64) (PricingRule, error) {
	rule, err := scanRule(r.db.QueryRow(ctx, `SELECT `+ruleColumns+` FROM pricing_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return PricingRule{}, db.Classify(fmt.Errorf("pricingrules: get %d: %w", id, err))
	}
	return rule, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]PricingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE 1=1`
	args := []any{}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []PricingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, rule PricingRule) (PricingRule, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO pricing_rules (rule_name, category, markup_percentage, overhead_percentage,
			profit_percentage, tax_percentage, minimum_charge, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+ruleColumns,
		rule.RuleName, rule.Category, rule.MarkupPercentage, rule.OverheadPercentage,
		rule.ProfitPercentage, rule.TaxPercentage, rule.MinimumCharge, rule.IsActive)
	created, err := scanRule(row)
	if err != nil {
		return PricingRule{}, db.Classify(fmt.Errorf("pricingrules: create: %w", err))
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, rule PricingRule) (PricingRule, error) {
	row := r.db.QueryRow(ctx, `UPDATE pricing_rules SET rule_name = $1, category = $2, markup_percentage = $3,
			overhead_percentage = $4, profit_percentage = $5, tax_percentage = $6, minimum_charge = $7,
			is_active = $8, updated_at = NOW()
		WHERE id = $9 RETURNING `+ruleColumns,
		rule.RuleName, rule.Category, rule.MarkupPercentage, rule.OverheadPercentage,
		rule.ProfitPercentage, rule.TaxPercentage, rule.MinimumCharge, rule.IsActive, rule.ID)
	updated, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrNotFound, rule.ID)
	}
	if err != nil {
		return PricingRule{}, db.Classify(fmt.Errorf("pricingrules: update %d: %w", rule.ID, err))
	}
	return updated, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) (PricingRule, error) {
	row := r.db.QueryRow(ctx, `UPDATE pricing_rules SET is_active = $1, updated_at = NOW()
		WHERE id = $2 RETURNING `+ruleColumns, active, id)
	updated, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return PricingRule{}, db.Classify(fmt.Errorf("pricingrules: set active %d: %w", id, err))
	}
	return updated, nil
}
