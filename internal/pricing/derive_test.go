package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertMoney(t *testing.T, name, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(CurrencyPlaces), name)
}

func TestDeriveExampleEntry(t *testing.T) {
	got, err := Derive(CostInputs{
		LaborCost:        d("50"),
		MaterialCost:     d("30"),
		EquipmentCost:    d("10"),
		RegionalModifier: dp("1.15"),
		BCSMarkup:        dp("1.28"),
	})
	require.NoError(t, err)

	assertMoney(t, "base", "90.00", got.BasePrice)
	assertMoney(t, "adjusted", "103.50", got.AdjustedPrice)
	assertMoney(t, "final", "132.48", got.FinalPrice)
}

func TestDeriveNilMultipliersTakeDefaults(t *testing.T) {
	got, err := Derive(CostInputs{LaborCost: d("50"), MaterialCost: d("30"), EquipmentCost: d("10")})
	require.NoError(t, err)

	assert.True(t, got.RegionalModifier.Equal(DefaultRegionalModifier))
	assert.True(t, got.BCSMarkup.Equal(DefaultBCSMarkup))
	assertMoney(t, "final", "132.48", got.FinalPrice)

	got, err = Derive(CostInputs{LaborCost: d("10"), BCSMarkup: dp("1")})
	require.NoError(t, err)
	assert.True(t, got.RegionalModifier.Equal(DefaultRegionalModifier))
	assertMoney(t, "final", "11.50", got.FinalPrice)
}

func TestDeriveRejectsZeroMultipliers(t *testing.T) {
	_, err := Derive(CostInputs{LaborCost: d("10"), RegionalModifier: dp("0")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Derive(CostInputs{LaborCost: d("10"), BCSMarkup: dp("0")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Derive(CostInputs{LaborCost: d("10"), RegionalModifier: dp("0"), BCSMarkup: dp("0")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDeriveRejectsInputsBeyondStoredScale(t *testing.T) {
	cases := map[string]CostInputs{
		"labor":     {LaborCost: d("10.005")},
		"material":  {MaterialCost: d("0.001")},
		"equipment": {EquipmentCost: d("3.219")},
		"modifier":  {LaborCost: d("10"), RegionalModifier: dp("1.15001")},
		"markup":    {LaborCost: d("10"), BCSMarkup: dp("1.28005")},
	}
	for name, in := range cases {
		_, err := Derive(in)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, name)
	}

	got, err := Derive(CostInputs{LaborCost: d("10.500"), RegionalModifier: dp("1.1500"), BCSMarkup: dp("1.2825")})
	require.NoError(t, err)
	assertMoney(t, "base", "10.50", got.BasePrice)
}

func TestCheckScale(t *testing.T) {
	assert.NoError(t, CheckScale("q", d("1.235"), QuantityPlaces))
	assert.NoError(t, CheckScale("q", d("12"), QuantityPlaces))
	assert.NoError(t, CheckScale("q", d("-1.20"), CurrencyPlaces))
	assert.ErrorIs(t, CheckScale("q", d("1.2345"), QuantityPlaces), shared.ErrInvalidInput)
	assert.ErrorIs(t, CheckScale("p", d("100.005"), CurrencyPlaces), shared.ErrInvalidInput)
}

func TestDeriveZeroCosts(t *testing.T) {
	got, err := Derive(CostInputs{})
	require.NoError(t, err)
	assertMoney(t, "final", "0.00", got.FinalPrice)
}

func TestDeriveRoundsHalfToEven(t *testing.T) {
	// 10.05 * 1.5 = 15.075, which rounds to the even neighbour 15.08.
	got, err := Derive(CostInputs{LaborCost: d("10.05"), RegionalModifier: dp("1.5"), BCSMarkup: dp("1")})
	require.NoError(t, err)
	assertMoney(t, "adjusted", "15.08", got.AdjustedPrice)

	// 10.01 * 1.25 = 12.5125, below the midpoint.
	got, err = Derive(CostInputs{LaborCost: d("10.01"), RegionalModifier: dp("1.25"), BCSMarkup: dp("1")})
	require.NoError(t, err)
	assertMoney(t, "adjusted", "12.51", got.AdjustedPrice)

	// 0.125 sits exactly on the midpoint and rounds down to 0.12.
	assertMoney(t, "round", "0.12", Round(d("0.125")))
	assertMoney(t, "round", "0.14", Round(d("0.135")))
}

func TestDeriveRejectsNegativeCosts(t *testing.T) {
	cases := []CostInputs{
		{LaborCost: d("-0.01")},
		{MaterialCost: d("-5")},
		{EquipmentCost: d("-1")},
	}
	for _, in := range cases {
		_, err := Derive(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	}
}

func TestDeriveRejectsNegativeMultipliers(t *testing.T) {
	_, err := Derive(CostInputs{LaborCost: d("10"), RegionalModifier: dp("-1.15")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Derive(CostInputs{LaborCost: d("10"), BCSMarkup: dp("-0.5")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDeriveFinalWithinOneCentOfUnroundedChain(t *testing.T) {
	costs := []string{"0", "0.01", "12.34", "99.99", "150.5", "1234.56", "7.77"}
	modifiers := []string{"0.85", "1", "1.15", "1.333", "2.05"}
	markups := []string{"1", "1.28", "1.5", "0.9"}
	cent := d("0.01")

	for _, labor := range costs {
		for _, material := range costs {
			for _, m := range modifiers {
				for _, k := range markups {
					in := CostInputs{LaborCost: d(labor), MaterialCost: d(material), EquipmentCost: d("3.21"), RegionalModifier: dp(m), BCSMarkup: dp(k)}
					got, err := Derive(in)
					require.NoError(t, err)

					base := Round(in.LaborCost.Add(in.MaterialCost).Add(in.EquipmentCost))
					want := Round(base.Mul(*in.RegionalModifier).Mul(*in.BCSMarkup))
					diff := got.FinalPrice.Sub(want).Abs()
					assert.True(t, diff.LessThanOrEqual(cent), "labor=%s material=%s m=%s k=%s got=%s want=%s", labor, material, m, k, got.FinalPrice, want)
					assert.True(t, got.AdjustedPrice.Equal(Adjust(got.BasePrice, *in.RegionalModifier)))
				}
			}
		}
	}
}

func TestCheckMultiplier(t *testing.T) {
	assert.NoError(t, CheckMultiplier("m", d("0.01")))
	assert.ErrorIs(t, CheckMultiplier("m", decimal.Zero), shared.ErrInvalidInput)
	assert.ErrorIs(t, CheckMultiplier("m", d("-2")), shared.ErrInvalidInput)
	assert.ErrorIs(t, CheckMultiplier("m", d("1.00001")), shared.ErrInvalidInput)
}

func BenchmarkDerive(b *testing.B) {
	in := CostInputs{LaborCost: d("50"), MaterialCost: d("30"), EquipmentCost: d("10"), RegionalModifier: dp("1.15"), BCSMarkup: dp("1.28")}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Derive(in); err != nil {
			b.Fatal(err)
		}
	}
}
