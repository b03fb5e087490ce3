// Package pricing derives sellable catalog prices from raw cost components.
//
// The pipeline has three stages, each rounded to currency precision:
//
//	base     = labor + material + equipment
//	adjusted = base * regional modifier
//	final    = adjusted * BCS markup
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// Decimal places the store keeps for each kind of value. Inputs finer than these are
// rejected so derived values always agree with what is persisted.
const (
	CurrencyPlaces   = 2
	QuantityPlaces   = 3
	MultiplierPlaces = 4
)

var (
	// DefaultRegionalModifier applies when an entry does not carry its own modifier.
	DefaultRegionalModifier = decimal.RequireFromString("1.15")
	// DefaultBCSMarkup applies when an entry does not carry its own markup.
	DefaultBCSMarkup = decimal.RequireFromString("1.28")
)

// CostInputs are the raw components a catalog entry is priced from.
// A nil multiplier means "use the default".
type CostInputs struct {
	LaborCost        decimal.Decimal
	MaterialCost     decimal.Decimal
	EquipmentCost    decimal.Decimal
	RegionalModifier *decimal.Decimal
	BCSMarkup        *decimal.Decimal
}

// DerivedPricing is the output of the pipeline, including the multipliers actually used.
type DerivedPricing struct {
	BasePrice        decimal.Decimal `json:"base_price"`
	RegionalModifier decimal.Decimal `json:"regional_modifier"`
	AdjustedPrice    decimal.Decimal `json:"adjusted_price"`
	BCSMarkup        decimal.Decimal `json:"bcs_markup"`
	FinalPrice       decimal.Decimal `json:"final_price"`
}

// Round applies banker's rounding to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}

// Derive runs the full base → adjusted → final pipeline.
func Derive(in CostInputs) (DerivedPricing, error) {
	if err := checkCost("labor_cost", in.LaborCost); err != nil {
		return DerivedPricing{}, err
	}
	if err := checkCost("material_cost", in.MaterialCost); err != nil {
		return DerivedPricing{}, err
	}
	if err := checkCost("equipment_cost", in.EquipmentCost); err != nil {
		return DerivedPricing{}, err
	}
	modifier := DefaultRegionalModifier
	if in.RegionalModifier != nil {
		modifier = *in.RegionalModifier
	}
	markup := DefaultBCSMarkup
	if in.BCSMarkup != nil {
		markup = *in.BCSMarkup
	}
	if err := CheckMultiplier("regional_modifier", modifier); err != nil {
		return DerivedPricing{}, err
	}
	if err := CheckMultiplier("bcs_markup", markup); err != nil {
		return DerivedPricing{}, err
	}

	base := Round(in.LaborCost.Add(in.MaterialCost).Add(in.EquipmentCost))
	adjusted := Adjust(base, modifier)
	return DerivedPricing{
		BasePrice:        base,
		RegionalModifier: modifier,
		AdjustedPrice:    adjusted,
		BCSMarkup:        markup,
		FinalPrice:       Finalize(adjusted, markup),
	}, nil
}

// Adjust returns the regional price for a base price.
func Adjust(base, modifier decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(modifier))
}

// Finalize returns the sellable price for an adjusted price.
func Finalize(adjusted, markup decimal.Decimal) decimal.Decimal {
	return Round(adjusted.Mul(markup))
}

// CheckMultiplier rejects modifiers and markups that are not strictly positive or
// carry more than MultiplierPlaces decimals.
func CheckMultiplier(name string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero, got %s", shared.ErrInvalidInput, name, v.String())
	}
	return CheckScale(name, v, MultiplierPlaces)
}

// CheckScale rejects values with more than places significant decimals. Trailing
// zeros do not count.
func CheckScale(name string, v decimal.Decimal, places int32) error {
	if !v.Truncate(places).Equal(v) {
		return fmt.Errorf("%w: %s allows at most %d decimal places, got %s", shared.ErrInvalidInput, name, places, v.String())
	}
	return nil
}

func checkCost(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative, got %s", shared.ErrInvalidInput, name, v.String())
	}
	return CheckScale(name, v, CurrencyPlaces)
}
