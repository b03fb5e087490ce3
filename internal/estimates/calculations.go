package estimates

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
	"github.com/odyssey-erp/bcs-estimating/internal/pricingrules"
)

var hundred = decimal.NewFromInt(100)

// Rates are the percentages a line is computed with.
type Rates struct {
	OverheadProfit decimal.Decimal
	Tax            decimal.Decimal
}

// RatesFor extracts the line rates of a pricing rule.
func RatesFor(rule pricingrules.PricingRule) Rates {
	return Rates{OverheadProfit: rule.OverheadProfitPercentage(), Tax: rule.TaxPercentage}
}

// LineAmounts holds the computed money fields of one line.
type LineAmounts struct {
	TotalPrice           decimal.Decimal
	OverheadProfitAmount decimal.Decimal
	TaxAmount            decimal.Decimal
	LineTotal            decimal.Decimal
}

// ComputeLine prices one line. Each amount is rounded before it feeds the next,
// so LineTotal is exactly the sum of the three stored parts.
func ComputeLine(quantity, unitPrice decimal.Decimal, rates Rates) LineAmounts {
	total := pricing.Round(quantity.Mul(unitPrice))
	op := pricing.Round(total.Mul(rates.OverheadProfit).Div(hundred))
	tax := pricing.Round(total.Add(op).Mul(rates.Tax).Div(hundred))
	return LineAmounts{
		TotalPrice:           total,
		OverheadProfitAmount: op,
		TaxAmount:            tax,
		LineTotal:            total.Add(op).Add(tax),
	}
}

// Rollup sums persisted lines into the estimate breakdown.
func Rollup(lines []LineItem) Totals {
	t := Totals{Subtotal: decimal.Zero, OverheadProfit: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.TotalPrice)
		t.OverheadProfit = t.OverheadProfit.Add(l.OverheadProfitAmount)
		t.Tax = t.Tax.Add(l.TaxAmount)
		t.Total = t.Total.Add(l.LineTotal)
	}
	return t
}
