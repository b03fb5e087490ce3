package estimates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/bcs-estimating/internal/pricingrules"
)

func standardRates() Rates {
	return RatesFor(pricingrules.PricingRule{OverheadPercentage: d("10"), ProfitPercentage: d("10"), TaxPercentage: d("8.5")})
}

func TestComputeLineExample(t *testing.T) {
	got := ComputeLine(d("2"), d("100.00"), standardRates())

	assert.Equal(t, "200.00", money(got.TotalPrice))
	assert.Equal(t, "40.00", money(got.OverheadProfitAmount))
	assert.Equal(t, "20.40", money(got.TaxAmount))
	assert.Equal(t, "260.40", money(got.LineTotal))
}

func TestComputeLineTotalIsSumOfParts(t *testing.T) {
	quantities := []string{"0.001", "1", "2.5", "3.333", "17", "120.75"}
	prices := []string{"0", "0.01", "9.99", "132.48", "1234.56"}
	rates := []Rates{
		standardRates(),
		{OverheadProfit: d("0"), Tax: d("0")},
		{OverheadProfit: d("15"), Tax: d("7.25")},
		{OverheadProfit: d("33.333"), Tax: d("13")},
	}
	for _, q := range quantities {
		for _, p := range prices {
			for _, r := range rates {
				got := ComputeLine(d(q), d(p), r)
				sum := got.TotalPrice.Add(got.OverheadProfitAmount).Add(got.TaxAmount)
				assert.True(t, got.LineTotal.Equal(sum), "q=%s p=%s", q, p)
				assert.True(t, got.LineTotal.Equal(got.LineTotal.Round(2)), "line total kept at currency precision")
			}
		}
	}
}

func TestComputeLineRoundsHalfToEven(t *testing.T) {
	// 1 * 0.125 = 0.125 sits on the midpoint.
	got := ComputeLine(d("1"), d("0.125"), Rates{})
	assert.Equal(t, "0.12", money(got.TotalPrice))

	// 10% of 0.25 is 0.025, rounded to the even 0.02.
	got = ComputeLine(d("1"), d("0.25"), Rates{OverheadProfit: d("10")})
	assert.Equal(t, "0.02", money(got.OverheadProfitAmount))
}

func TestRollup(t *testing.T) {
	lines := []LineItem{
		{TotalPrice: d("200"), OverheadProfitAmount: d("40"), TaxAmount: d("20.40"), LineTotal: d("260.40")},
		{TotalPrice: d("10"), OverheadProfitAmount: d("2"), TaxAmount: d("1.02"), LineTotal: d("13.02")},
	}
	got := Rollup(lines)
	assert.Equal(t, "210.00", money(got.Subtotal))
	assert.Equal(t, "42.00", money(got.OverheadProfit))
	assert.Equal(t, "21.42", money(got.Tax))
	assert.Equal(t, "273.42", money(got.Total))

	empty := Rollup(nil)
	assert.True(t, empty.Total.IsZero())
	assert.Equal(t, "0", empty.Total.String())
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusDraft.CanTransitionTo(StatusSent))
	assert.True(t, StatusSent.CanTransitionTo(StatusApproved))
	assert.True(t, StatusSent.CanTransitionTo(StatusRejected))
	assert.True(t, StatusApproved.CanTransitionTo(StatusConverted))

	assert.False(t, StatusDraft.CanTransitionTo(StatusApproved))
	assert.False(t, StatusRejected.CanTransitionTo(StatusSent))
	assert.False(t, StatusConverted.CanTransitionTo(StatusDraft))
	assert.False(t, Status("archived").Valid())
}

func BenchmarkRollup(b *testing.B) {
	rates := standardRates()
	lines := make([]LineItem, 200)
	for i := range lines {
		a := ComputeLine(d("3.5"), d("132.48"), rates)
		lines[i] = LineItem{TotalPrice: a.TotalPrice, OverheadProfitAmount: a.OverheadProfitAmount, TaxAmount: a.TaxAmount, LineTotal: a.LineTotal}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Rollup(lines)
	}
}
