package pricingrules

import "github.com/shopspring/decimal"

// RuleRequest creates or fully replaces a pricing rule.
type RuleRequest struct {
	RuleName           string          `json:"rule_name" validate:"required,max=200"`
	Category           *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	MarkupPercentage   decimal.Decimal `json:"markup_percentage" validate:"gte=0"`
	OverheadPercentage decimal.Decimal `json:"overhead_percentage" validate:"gte=0,lte=100"`
	ProfitPercentage   decimal.Decimal `json:"profit_percentage" validate:"gte=0,lte=100"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage" validate:"gte=0,lte=100"`
	MinimumCharge      decimal.Decimal `json:"minimum_charge" validate:"gte=0"`
	IsActive           *bool           `json:"is_active,omitempty"`
}

type ActiveRequest struct {
	IsActive bool `json:"is_active"`
}
