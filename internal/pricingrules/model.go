package pricingrules

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRuleID is the rule applied when a quote does not name one.
const DefaultRuleID int64 = 1

// PricingRule is a named bundle of percentages applied to quote lines. Percentages
// are stored as their numeric value, so 8.5 means 8.5%.
type PricingRule struct {
	ID                 int64           `json:"id"`
	RuleName           string          `json:"rule_name"`
	Category           *string         `json:"category,omitempty"`
	MarkupPercentage   decimal.Decimal `json:"markup_percentage"`
	OverheadPercentage decimal.Decimal `json:"overhead_percentage"`
	ProfitPercentage   decimal.Decimal `json:"profit_percentage"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	MinimumCharge      decimal.Decimal `json:"minimum_charge"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OverheadProfitPercentage is the combined O&P percentage applied to a line subtotal.
func (r PricingRule) OverheadProfitPercentage() decimal.Decimal {
	return r.OverheadPercentage.Add(r.ProfitPercentage)
}

// ListFilters narrows rule listings.
type ListFilters struct {
	IsActive *bool
	Category string
}
