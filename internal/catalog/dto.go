package catalog

import "github.com/shopspring/decimal"

type CategoryRequest struct {
	Code      string `json:"code" validate:"required,max=50"`
	Name      string `json:"name" validate:"required,max=200"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

type SubcategoryRequest struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Code       string `json:"code" validate:"required,max=50"`
	Name       string `json:"name" validate:"required,max=200"`
	SortOrder  int    `json:"sort_order" validate:"gte=0"`
}

// EntryRequest creates or fully replaces a catalog entry. Derived prices are not
// accepted; they are always computed from the costs and multipliers.
type EntryRequest struct {
	CategoryID       int64            `json:"category_id" validate:"required,gt=0"`
	SubcategoryID    *int64           `json:"subcategory_id,omitempty" validate:"omitempty,gt=0"`
	Code             string           `json:"code" validate:"required,max=50"`
	Description      string           `json:"description" validate:"required"`
	Unit             string           `json:"unit" validate:"required,max=20"`
	LaborCost        decimal.Decimal  `json:"labor_cost" validate:"gte=0"`
	MaterialCost     decimal.Decimal  `json:"material_cost" validate:"gte=0"`
	EquipmentCost    decimal.Decimal  `json:"equipment_cost" validate:"gte=0"`
	RegionalModifier *decimal.Decimal `json:"regional_modifier,omitempty" validate:"omitempty,gt=0"`
	BCSMarkup        *decimal.Decimal `json:"bcs_markup,omitempty" validate:"omitempty,gt=0"`
	IsTaxable        *bool            `json:"is_taxable,omitempty"`
	IsActive         *bool            `json:"is_active,omitempty"`
	Notes            string           `json:"notes"`
}

// BulkModifierRequest re-prices active entries under a new regional modifier.
// A nil CategoryID applies to every active entry.
type BulkModifierRequest struct {
	RegionalModifier decimal.Decimal `json:"regional_modifier" validate:"gt=0"`
	CategoryID       *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

// BulkMarkupRequest re-prices active entries under a new BCS markup.
// A nil CategoryID applies to every active entry.
type BulkMarkupRequest struct {
	BCSMarkup  decimal.Decimal `json:"bcs_markup" validate:"gt=0"`
	CategoryID *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

type BulkResult struct {
	AffectedCount int64 `json:"affected_count"`
}
