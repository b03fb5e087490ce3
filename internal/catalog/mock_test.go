package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu sync.Mutex

	categories    map[int64]Category
	subcategories map[int64]Subcategory
	entries       map[int64]Entry
	nextID        int64

	// Error injection
	txError         error
	bulkWriteError  error
	bulkFailAfter   int
	bulkCalls       int
	updateDerivedFn func(id int64) error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		categories:    make(map[int64]Category),
		subcategories: make(map[int64]Subcategory),
		entries:       make(map[int64]Entry),
		nextID:        1,
	}
}

type snapshot struct {
	categories    map[int64]Category
	subcategories map[int64]Subcategory
	entries       map[int64]Entry
	nextID        int64
}

func (m *mockRepository) snapshot() snapshot {
	s := snapshot{
		categories:    make(map[int64]Category, len(m.categories)),
		subcategories: make(map[int64]Subcategory, len(m.subcategories)),
		entries:       make(map[int64]Entry, len(m.entries)),
		nextID:        m.nextID,
	}
	for k, v := range m.categories {
		s.categories[k] = v
	}
	for k, v := range m.subcategories {
		s.subcategories[k] = v
	}
	for k, v := range m.entries {
		s.entries[k] = v
	}
	return s
}

func (m *mockRepository) restore(s snapshot) {
	m.categories = s.categories
	m.subcategories = s.subcategories
	m.entries = s.entries
	m.nextID = s.nextID
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) addCategory(code string) Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Category{ID: m.id(), Code: code, Name: code, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.categories[c.ID] = c
	return c
}

func (m *mockRepository) putEntry(e Entry) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.id()
	}
	m.entries[e.ID] = e
	return e
}

func (m *mockRepository) entry(id int64) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id]
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) GetCategory(ctx context.Context, id int64) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	return c, nil
}

func (m *mockRepository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Code == c.Code {
			return Category{}, fmt.Errorf("%w: category code already exists", shared.ErrInvalidInput)
		}
	}
	c.ID = m.id()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockRepository) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return Category{}, fmt.Errorf("%w: category %d", shared.ErrNotFound, c.ID)
	}
	c.UpdatedAt = time.Now()
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockRepository) DeleteCategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	for sid, s := range m.subcategories {
		if s.CategoryID == id {
			delete(m.subcategories, sid)
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *mockRepository) CountEntriesInCategory(ctx context.Context, categoryID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Subcategory
	for _, s := range m.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateSubcategory(ctx context.Context, s Subcategory) (Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[s.CategoryID]; !ok {
		return Subcategory{}, fmt.Errorf("%w: subcategory references a missing category or subcategory", shared.ErrInvalidInput)
	}
	s.ID = m.id()
	m.subcategories[s.ID] = s
	return s, nil
}

func (m *mockRepository) DeleteSubcategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[id]; !ok {
		return fmt.Errorf("%w: subcategory %d", shared.ErrNotFound, id)
	}
	for eid, e := range m.entries {
		if e.SubcategoryID != nil && *e.SubcategoryID == id {
			e.SubcategoryID = nil
			m.entries[eid] = e
		}
	}
	delete(m.subcategories, id)
	return nil
}

func (m *mockRepository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	return e, nil
}

func (m *mockRepository) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if filters.CategoryID != nil && e.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.IsActive != nil && e.IsActive != *filters.IsActive {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(e.Code+" "+e.Description), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if filters.Offset > len(out) {
		return nil, total, nil
	}
	out = out[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (m *mockRepository) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[e.CategoryID]; !ok {
		return Entry{}, fmt.Errorf("%w: catalog entry references a missing category or subcategory", shared.ErrInvalidInput)
	}
	e.ID = m.id()
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	m.entries[e.ID] = e
	return e, nil
}

func (m *mockRepository) UpdateEntry(ctx context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return Entry{}, fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, e.ID)
	}
	e.UpdatedAt = time.Now()
	m.entries[e.ID] = e
	return e, nil
}

func (m *mockRepository) DeleteEntry(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	delete(m.entries, id)
	return nil
}

func (m *mockRepository) UpdateDerivedFields(ctx context.Context, id int64, u DerivedUpdate) error {
	if m.updateDerivedFn != nil {
		if err := m.updateDerivedFn(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	e.RegionalModifier = u.RegionalModifier
	e.AdjustedPrice = u.AdjustedPrice
	e.BCSMarkup = u.BCSMarkup
	e.FinalPrice = u.FinalPrice
	e.UpdatedAt = time.Now()
	m.entries[id] = e
	return nil
}

// BulkUpdateDerivedFields mirrors the pgx store: it runs in its own transaction
// and writes nothing when any row fails.
func (m *mockRepository) BulkUpdateDerivedFields(ctx context.Context, categoryID *int64, fn Updater) (int64, error) {
	m.bulkCalls++
	var affected int64
	err := m.WithTx(ctx, func(ctx context.Context, _ Repository) error {
		m.mu.Lock()
		ids := make([]int64, 0, len(m.entries))
		for id, e := range m.entries {
			if !e.IsActive || (categoryID != nil && e.CategoryID != *categoryID) {
				continue
			}
			ids = append(ids, id)
		}
		m.mu.Unlock()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for i, id := range ids {
			if m.bulkWriteError != nil && i >= m.bulkFailAfter {
				return m.bulkWriteError
			}
			u, err := fn(m.entry(id))
			if err != nil {
				return err
			}
			if err := m.UpdateDerivedFields(ctx, id, u); err != nil {
				return err
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
