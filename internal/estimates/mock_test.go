package estimates

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/catalog"
	"github.com/odyssey-erp/bcs-estimating/internal/pricingrules"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu sync.Mutex

	estimates map[int64]Estimate
	lines     map[int64][]LineItem
	nextID    int64
	seq       int64

	// Error injection
	txError        error
	insertLineErr  func(line LineItem) error
	duplicateTimes int
	numberCalls    int
	lockCalls      int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		estimates: make(map[int64]Estimate),
		lines:     make(map[int64][]LineItem),
		nextID:    1,
	}
}

type repoState struct {
	estimates map[int64]Estimate
	lines     map[int64][]LineItem
	nextID    int64
}

func (m *mockRepository) state() repoState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := repoState{
		estimates: make(map[int64]Estimate, len(m.estimates)),
		lines:     make(map[int64][]LineItem, len(m.lines)),
		nextID:    m.nextID,
	}
	for k, v := range m.estimates {
		s.estimates[k] = v
	}
	for k, v := range m.lines {
		s.lines[k] = append([]LineItem(nil), v...)
	}
	return s
}

func (m *mockRepository) restore(s repoState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimates = s.estimates
	m.lines = s.lines
	m.nextID = s.nextID
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	snap := m.state()
	if err := fn(ctx, m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *mockRepository) NextEstimateNumber(ctx context.Context, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numberCalls++
	m.seq++
	return FormatEstimateNumber(at, m.seq), nil
}

func (m *mockRepository) CreateEstimate(ctx context.Context, e Estimate) (Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duplicateTimes > 0 {
		m.duplicateTimes--
		return Estimate{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, e.EstimateNumber)
	}
	for _, existing := range m.estimates {
		if existing.EstimateNumber == e.EstimateNumber {
			return Estimate{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, e.EstimateNumber)
		}
	}
	e.ID = m.nextID
	m.nextID++
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	m.estimates[e.ID] = e
	return e, nil
}

func (m *mockRepository) GetEstimate(ctx context.Context, id int64) (Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.estimates[id]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	e.Lines = append([]LineItem{}, m.lines[id]...)
	return e, nil
}

func (m *mockRepository) LockEstimate(ctx context.Context, id int64) (Estimate, error) {
	m.mu.Lock()
	m.lockCalls++
	m.mu.Unlock()
	e, err := m.GetEstimate(ctx, id)
	e.Lines = nil
	return e, err
}

func (m *mockRepository) ListEstimates(ctx context.Context, filters ListFilters) ([]Estimate, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Estimate
	for _, e := range m.estimates {
		if filters.ClientID != nil && e.ClientID != *filters.ClientID {
			continue
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) InsertLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error) {
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if m.insertLineErr != nil {
			if err := m.insertLineErr(l); err != nil {
				return nil, err
			}
		}
		m.mu.Lock()
		l.ID = m.nextID
		m.nextID++
		l.EstimateID = estimateID
		m.lines[estimateID] = append(m.lines[estimateID], l)
		m.mu.Unlock()
		out = append(out, l)
	}
	return out, nil
}

func (m *mockRepository) ReplaceLineItems(ctx context.Context, estimateID int64, lines []LineItem) ([]LineItem, error) {
	m.mu.Lock()
	delete(m.lines, estimateID)
	m.mu.Unlock()
	return m.InsertLineItems(ctx, estimateID, lines)
}

func (m *mockRepository) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal, pricingRuleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.estimates[id]
	if !ok {
		return fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	e.TotalAmount = total
	e.PricingRuleID = pricingRuleID
	m.estimates[id] = e
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.estimates[id]
	if !ok {
		return fmt.Errorf("%w: estimate %d", shared.ErrNotFound, id)
	}
	e.Status = status
	m.estimates[id] = e
	return nil
}

func (m *mockRepository) setStatus(id int64, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.estimates[id]
	e.Status = status
	m.estimates[id] = e
}

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type mockCatalog struct {
	mu      sync.Mutex
	entries map[int64]catalog.Entry
	err     error
}

func newMockCatalog(entries ...catalog.Entry) *mockCatalog {
	c := &mockCatalog{entries: make(map[int64]catalog.Entry)}
	for _, e := range entries {
		c.entries[e.ID] = e
	}
	return c
}

func (c *mockCatalog) GetEntry(ctx context.Context, id int64) (catalog.Entry, error) {
	if c.err != nil {
		return catalog.Entry{}, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: catalog entry %d", shared.ErrNotFound, id)
	}
	return e, nil
}

func (c *mockCatalog) set(e catalog.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.ID] = e
}

func (c *mockCatalog) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

type mockRules struct {
	rules map[int64]pricingrules.PricingRule
	calls []int64
}

func newMockRules() *mockRules {
	return &mockRules{rules: map[int64]pricingrules.PricingRule{
		1: {ID: 1, RuleName: "Standard O&P", OverheadPercentage: d("10"), ProfitPercentage: d("10"), TaxPercentage: d("8.5"), IsActive: true},
		2: {ID: 2, RuleName: "Insurance", OverheadPercentage: d("10"), ProfitPercentage: d("5"), TaxPercentage: d("0"), IsActive: true},
		3: {ID: 3, RuleName: "Retired", IsActive: false},
	}}
}

func (m *mockRules) Resolve(ctx context.Context, ruleID *int64) (pricingrules.PricingRule, error) {
	id := pricingrules.DefaultRuleID
	if ruleID != nil {
		id = *ruleID
	}
	m.calls = append(m.calls, id)
	r, ok := m.rules[id]
	if !ok {
		return pricingrules.PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrRuleNotFound, id)
	}
	if !r.IsActive {
		return pricingrules.PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrRuleInactive, id)
	}
	return r, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func int64Ptr(v int64) *int64 { return &v }

func money(v decimal.Decimal) string { return v.StringFixed(2) }
