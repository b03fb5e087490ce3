package estimates

import "github.com/shopspring/decimal"

// LineRequest is one requested quote line. Lines naming a catalog entry are priced
// from its final price; free-form lines carry their own unit price.
type LineRequest struct {
	CatalogEntryID *int64           `json:"catalog_entry_id,omitempty" validate:"omitempty,gt=0"`
	Code           string           `json:"code" validate:"max=50"`
	Description    string           `json:"description" validate:"max=2000"`
	Quantity       decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Unit           string           `json:"unit" validate:"max=20"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	LaborHours     *decimal.Decimal `json:"labor_hours,omitempty" validate:"omitempty,gte=0"`
}

type CreateQuoteRequest struct {
	ClientID      int64         `json:"client_id" validate:"required,gt=0"`
	Title         string        `json:"title" validate:"required,max=200"`
	Description   string        `json:"description"`
	PricingRuleID *int64        `json:"pricing_rule_id,omitempty"`
	ValidUntil    string        `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Lines         []LineRequest `json:"lines" validate:"dive"`
}

// ReplaceLinesRequest swaps the full line set of a draft estimate. A nil
// PricingRuleID keeps the rule the estimate was last priced with.
type ReplaceLinesRequest struct {
	PricingRuleID *int64        `json:"pricing_rule_id,omitempty"`
	Lines         []LineRequest `json:"lines" validate:"dive"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
