package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/db"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// Repository is the catalog store. Every method may run inside WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CountEntriesInCategory(ctx context.Context, categoryID int64) (int64, error)

	ListSubcategories(ctx context.Context, categoryID int64) ([]Subcategory, error)
	CreateSubcategory(ctx context.Context, s Subcategory) (Subcategory, error)
	DeleteSubcategory(ctx context.Context, id int64) error

	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, int, error)
	CreateEntry(ctx context.Context, e Entry) (Entry, error)
	UpdateEntry(ctx context.Context, e Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	UpdateDerivedFields(ctx context.Context, id int64, u DerivedUpdate) error
	// BulkUpdateDerivedFields locks every active entry (optionally in one category),
	// applies fn to each and writes the results. It returns the number of rows written.
	BulkUpdateDerivedFields(ctx context.Context, categoryID *int64, fn Updater) (int64, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository builds a pgx-backed catalog store.
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

const (
	categoryColumns    = `id, code, name, sort_order, is_active, created_at, updated_at`
	subcategoryColumns = `id, category_id, code, name, sort_order, is_active, created_at, updated_at`
	entryColumns       = `id, category_id, subcategory_id, code, description, unit,
		labor_cost, material_cost, equipment_cost, base_price, regional_modifier, adjusted_price,
		bcs_markup, final_price, is_taxable, is_active, notes, created_at, updated_at`
)

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSubcategory(row pgx.Row) (Subcategory, error) {
	var s Subcategory
	err := row.Scan(&s.ID, &s.CategoryID, &s.Code, &s.Name, &s.SortOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.CategoryID, &e.SubcategoryID, &e.Code, &e.Description, &e.Unit,
		&e.LaborCost, &e.MaterialCost, &e.EquipmentCost, &e.BasePrice, &e.RegionalModifier, &e.AdjustedPrice,
		&e.BCSMarkup, &e.FinalPrice, &e.IsTaxable, &e.IsActive, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// mapWriteErr turns constraint violations into caller-facing input errors.
func mapWriteErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, ""):
		return fmt.Errorf("%w: %s code already exists", shared.ErrInvalidInput, what)
	case db.IsForeignKeyViolation(err, ""):
		return fmt.Errorf("%w: %s references a missing category or subcategory", shared.ErrInvalidInput, what)
	}
	return db.Classify(fmt.Errorf("catalog: write %s: %w", what, err))
}

func notFound(what string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, what, id)
	}
	return db.Classify(fmt.Errorf("catalog: get %s %d: %w", what, id, err))
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, code`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return Category{}, notFound("category", id, err)
	}
	return c, nil
}

func (r *repository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO categories (code, name, sort_order, is_active)
		VALUES ($1, $2, $3, $4) RETURNING `+categoryColumns, c.Code, c.Name, c.SortOrder, c.IsActive)
	created, err := scanCategory(row)
	if err != nil {
		return Category{}, mapWriteErr("category", err)
	}
	return created, nil
}

func (r *repository) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	row := r.db.QueryRow(ctx, `UPDATE categories SET code = $1, name = $2, sort_order = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5 RETURNING `+categoryColumns, c.Code, c.Name, c.SortOrder, c.IsActive, c.ID)
	updated, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, notFound("category", c.ID, err)
	}
	if err != nil {
		return Category{}, mapWriteErr("category", err)
	}
	return updated, nil
}

func (r *repository) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM subcategories WHERE category_id = $1`, id); err != nil {
		return db.Classify(err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountEntriesInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_entries WHERE category_id = $1`, categoryID).Scan(&n)
	return n, db.Classify(err)
}

func (r *repository) ListSubcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subcategoryColumns+` FROM subcategories
		WHERE category_id = $1 ORDER BY sort_order, code`, categoryID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Subcategory
	for rows.Next() {
		s, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) CreateSubcategory(ctx context.Context, s Subcategory) (Subcategory, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO subcategories (category_id, code, name, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+subcategoryColumns, s.CategoryID, s.Code, s.Name, s.SortOrder, s.IsActive)
	created, err := scanSubcategory(row)
	if err != nil {
		return Subcategory{}, mapWriteErr("subcategory", err)
	}
	return created, nil
}

func (r *repository) DeleteSubcategory(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE catalog_entries SET subcategory_id = NULL, updated_at = NOW() WHERE subcategory_id = $1`, id); err != nil {
		return db.Classify(err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: subcategory %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = $1`, id))
	if err != nil {
		return Entry{}, notFound("catalog entry", id, err)
	}
	return e, nil
}

func (r *repository) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		where += ` AND category_id = $` + strconv.Itoa(len(args))
	}
	if filters.SubcategoryID != nil {
		args = append(args, *filters.SubcategoryID)
		where += ` AND subcategory_id = $` + strconv.Itoa(len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (code ILIKE $` + n + ` OR description ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err)
	}

	query := `SELECT ` + entryColumns + ` FROM catalog_entries` + where + ` ORDER BY category_id, code`
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO catalog_entries (
			category_id, subcategory_id, code, description, unit,
			labor_cost, material_cost, equipment_cost, base_price, regional_modifier, adjusted_price,
			bcs_markup, final_price, is_taxable, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+entryColumns,
		e.CategoryID, e.SubcategoryID, e.Code, e.Description, e.Unit,
		e.LaborCost, e.MaterialCost, e.EquipmentCost, e.BasePrice, e.RegionalModifier, e.AdjustedPrice,
		e.BCSMarkup, e.FinalPrice, e.IsTaxable, e.IsActive, e.Notes)
	created, err := scanEntry(row)
	if err != nil {
		return Entry{}, mapWriteErr("catalog entry", err)
	}
	return created, nil
}

func (r *repository) UpdateEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `UPDATE catalog_entries SET
			category_id = $1, subcategory_id = $2, code = $3, description = $4, unit = $5,
			labor_cost = $6, material_cost = $7, equipment_cost = $8, base_price = $9,
			regional_modifier = $10, adjusted_price = $11, bcs_markup = $12, final_price = $13,
			is_taxable = $14, is_active = $15, notes = $16, updated_at = NOW()
		WHERE id = $17
		RETURNING `+entryColumns,
		e.CategoryID, e.SubcategoryID, e.Code, e.Description, e.Unit,
		e.LaborCost, e.MaterialCost, e.EquipmentCost, e.BasePrice,
		e.RegionalModifier, e.AdjustedPrice, e.BCSMarkup, e.FinalPrice,
		e.IsTaxable, e.IsActive, e.Notes, e.ID)
	updated, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, notFound("catalog entry", e.ID, err)
	}
	if err != nil {
		return Entry{}, mapWriteErr("catalog entry", err)
	}
	return updated, nil
}

func (r *repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalog_entries WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	return nil
}

const updateDerivedSQL = `UPDATE catalog_entries
	SET regional_modifier = $1, adjusted_price = $2, bcs_markup = $3, final_price = $4, updated_at = $5
	WHERE id = $6`

func (r *repository) UpdateDerivedFields(ctx context.Context, id int64, u DerivedUpdate) error {
	tag, err := r.db.Exec(ctx, updateDerivedSQL, u.RegionalModifier, u.AdjustedPrice, u.BCSMarkup, u.FinalPrice, time.Now().UTC(), id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) BulkUpdateDerivedFields(ctx context.Context, categoryID *int64, fn Updater) (int64, error) {
	if r.inTx {
		return r.bulkUpdate(ctx, categoryID, fn)
	}
	var affected int64
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		affected, err = (&repository{db: tx, pool: r.pool, inTx: true}).bulkUpdate(ctx, categoryID, fn)
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *repository) bulkUpdate(ctx context.Context, categoryID *int64, fn Updater) (int64, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries WHERE is_active`
	args := []any{}
	if categoryID != nil {
		query += ` AND category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY id FOR UPDATE`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, db.Classify(err)
	}
	var locked []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		locked = append(locked, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, db.Classify(err)
	}
	if len(locked) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, e := range locked {
		u, err := fn(e)
		if err != nil {
			return 0, fmt.Errorf("catalog: reprice entry %d: %w", e.ID, err)
		}
		batch.Queue(updateDerivedSQL, u.RegionalModifier, u.AdjustedPrice, u.BCSMarkup, u.FinalPrice, now, e.ID)
	}

	affected, err := db.ExecBatch(ctx, r.db, batch)
	if err != nil {
		return 0, fmt.Errorf("catalog: bulk update: %w", err)
	}
	return affected, nil
}
