package estimates

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an estimate.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConverted Status = "converted"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusApproved, StatusRejected},
	StatusApproved: {StatusConverted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusConverted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Estimate is a quote header. TotalAmount always equals the sum of its line totals.
type Estimate struct {
	ID             int64           `json:"id"`
	EstimateNumber string          `json:"estimate_number"`
	ClientID       int64           `json:"client_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Status         Status          `json:"status"`
	PricingRuleID  int64           `json:"pricing_rule_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Lines          []LineItem      `json:"lines,omitempty"`
}

// LineItem is one priced line of an estimate. UnitPrice is a snapshot taken when
// the line was written and never follows later catalog changes.
type LineItem struct {
	ID                   int64           `json:"id"`
	EstimateID           int64           `json:"estimate_id"`
	CatalogEntryID       *int64          `json:"catalog_entry_id,omitempty"`
	Code                 string          `json:"code"`
	Description          string          `json:"description"`
	Quantity             decimal.Decimal `json:"quantity"`
	Unit                 string          `json:"unit"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	LaborHours           decimal.Decimal `json:"labor_hours"`
	OverheadProfitAmount decimal.Decimal `json:"overhead_profit_amount"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	LineTotal            decimal.Decimal `json:"line_total"`
	SortOrder            int             `json:"sort_order"`
}

// Totals is the rollup breakdown of an estimate.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	OverheadProfit decimal.Decimal `json:"overhead_profit"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
}

// QuoteResult is returned by the rollup operations.
type QuoteResult struct {
	Estimate Estimate   `json:"estimate"`
	Lines    []LineItem `json:"lines"`
	Totals   Totals     `json:"totals"`
}

// ListFilters narrows estimate listings.
type ListFilters struct {
	ClientID *int64
	Status   *Status
	Limit    int
	Offset   int
}
