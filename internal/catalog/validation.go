package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

func validateCategory(req CategoryRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("%w: category code is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: category name is required", shared.ErrInvalidInput)
	}
	return nil
}

func validateEntry(req EntryRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("%w: entry code is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: entry description is required", shared.ErrInvalidInput)
	}
	costs := []struct {
		name  string
		value decimal.Decimal
	}{
		{"labor_cost", req.LaborCost},
		{"material_cost", req.MaterialCost},
		{"equipment_cost", req.EquipmentCost},
	}
	for _, c := range costs {
		if err := pricing.CheckScale(c.name, c.value, pricing.CurrencyPlaces); err != nil {
			return err
		}
	}
	if req.RegionalModifier != nil {
		if err := pricing.CheckMultiplier("regional_modifier", *req.RegionalModifier); err != nil {
			return err
		}
	}
	if req.BCSMarkup != nil {
		if err := pricing.CheckMultiplier("bcs_markup", *req.BCSMarkup); err != nil {
			return err
		}
	}
	return nil
}

func validateID(kind string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid %s ID", shared.ErrInvalidInput, kind)
	}
	return nil
}
