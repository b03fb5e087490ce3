package app

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/bcs-estimating/internal/estimates"
)

// DocumentOptions parses the configured locale and currency for estimate exports.
func (c *Config) DocumentOptions() (estimates.RendererOptions, error) {
	tag, err := language.Parse(c.DocumentLocale)
	if err != nil {
		return estimates.RendererOptions{}, fmt.Errorf("DOCUMENT_LOCALE %q: %w", c.DocumentLocale, err)
	}
	unit, err := currency.ParseISO(c.DocumentCurrency)
	if err != nil {
		return estimates.RendererOptions{}, fmt.Errorf("DOCUMENT_CURRENCY %q: %w", c.DocumentCurrency, err)
	}
	return estimates.RendererOptions{Lang: tag, Currency: unit, Symbol: c.DocumentSymbol}, nil
}
