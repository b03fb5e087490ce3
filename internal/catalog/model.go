package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
)

// Category groups catalog entries for scoped bulk operations and ordering.
type Category struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subcategory narrows a category for presentation.
type Subcategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Entry is one price-list master row: a sellable unit of work.
type Entry struct {
	ID               int64           `json:"id"`
	CategoryID       int64           `json:"category_id"`
	SubcategoryID    *int64          `json:"subcategory_id,omitempty"`
	Code             string          `json:"code"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	MaterialCost     decimal.Decimal `json:"material_cost"`
	EquipmentCost    decimal.Decimal `json:"equipment_cost"`
	BasePrice        decimal.Decimal `json:"base_price"`
	RegionalModifier decimal.Decimal `json:"regional_modifier"`
	AdjustedPrice    decimal.Decimal `json:"adjusted_price"`
	BCSMarkup        decimal.Decimal `json:"bcs_markup"`
	FinalPrice       decimal.Decimal `json:"final_price"`
	IsTaxable        bool            `json:"is_taxable"`
	IsActive         bool            `json:"is_active"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CostInputs returns the raw inputs the entry is priced from. A multiplier the
// entry has never carried is left nil so the default applies.
func (e Entry) CostInputs() pricing.CostInputs {
	in := pricing.CostInputs{
		LaborCost:     e.LaborCost,
		MaterialCost:  e.MaterialCost,
		EquipmentCost: e.EquipmentCost,
	}
	if !e.RegionalModifier.IsZero() {
		m := e.RegionalModifier
		in.RegionalModifier = &m
	}
	if !e.BCSMarkup.IsZero() {
		k := e.BCSMarkup
		in.BCSMarkup = &k
	}
	return in
}

// applyDerived copies a derivation result onto the entry.
func (e *Entry) applyDerived(p pricing.DerivedPricing) {
	e.BasePrice = p.BasePrice
	e.RegionalModifier = p.RegionalModifier
	e.AdjustedPrice = p.AdjustedPrice
	e.BCSMarkup = p.BCSMarkup
	e.FinalPrice = p.FinalPrice
}

// DerivedUpdate carries the derived columns a bulk cascade rewrites. Costs and
// base price are never part of it.
type DerivedUpdate struct {
	RegionalModifier decimal.Decimal
	AdjustedPrice    decimal.Decimal
	BCSMarkup        decimal.Decimal
	FinalPrice       decimal.Decimal
}

// Updater computes the new derived fields for one locked entry.
type Updater func(Entry) (DerivedUpdate, error)

// EntryFilters narrows entry listings.
type EntryFilters struct {
	CategoryID    *int64
	SubcategoryID *int64
	IsActive      *bool
	Search        string
	Limit         int
	Offset        int
}
