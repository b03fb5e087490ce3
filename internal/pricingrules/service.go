package pricingrules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// Service maintains pricing rules and invalidates the resolver cache on every write.
type Service struct {
	repo     Repository
	resolver *Resolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver *Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (PricingRule, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]PricingRule, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Create(ctx context.Context, req RuleRequest) (PricingRule, error) {
	if err := validateRule(req); err != nil {
		return PricingRule{}, err
	}
	rule := fromRequest(req)
	rule.IsActive = req.IsActive == nil || *req.IsActive
	created, err := s.repo.Create(ctx, rule)
	if err != nil {
		return PricingRule{}, err
	}
	// A new id has never been cached; lookups of unknown ids are not stored.
	if err := s.invalidate(ctx, created.ID); err != nil {
		s.logger.WarnContext(ctx, "pricing rule cache invalidation failed", slog.Int64("rule_id", created.ID), slog.Any("error", err))
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req RuleRequest) (PricingRule, error) {
	if err := validateRule(req); err != nil {
		return PricingRule{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return PricingRule{}, err
	}
	rule := fromRequest(req)
	rule.ID = id
	rule.IsActive = current.IsActive
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	updated, err := s.repo.Update(ctx, rule)
	if err != nil {
		return PricingRule{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return PricingRule{}, err
	}
	return updated, nil
}

// SetActive switches a rule on or off. Quotes already priced with it keep their lines.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (PricingRule, error) {
	updated, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return PricingRule{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return PricingRule{}, err
	}
	return updated, nil
}

// invalidate evicts the cached copy of a rule after a write. On failure the write
// is already stored and the cache may serve the old rule until its TTL expires.
func (s *Service) invalidate(ctx context.Context, id int64) error {
	if s.resolver == nil {
		return nil
	}
	if err := s.resolver.Invalidate(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "pricing rule saved but cache invalidation failed", slog.Int64("rule_id", id), slog.Any("error", err))
		return fmt.Errorf("%w: pricing rule %d saved, cache invalidation failed: %w", shared.ErrStoreUnavailable, id, err)
	}
	return nil
}

// percentPlaces is the scale of the percentage columns.
const percentPlaces = 3

func validateRule(req RuleRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}
	percents := []struct {
		name  string
		value decimal.Decimal
	}{
		{"markup_percentage", req.MarkupPercentage},
		{"overhead_percentage", req.OverheadPercentage},
		{"profit_percentage", req.ProfitPercentage},
		{"tax_percentage", req.TaxPercentage},
	}
	for _, p := range percents {
		if err := pricing.CheckScale(p.name, p.value, percentPlaces); err != nil {
			return err
		}
	}
	return pricing.CheckScale("minimum_charge", req.MinimumCharge, pricing.CurrencyPlaces)
}

func fromRequest(req RuleRequest) PricingRule {
	var category *string
	if req.Category != nil {
		if c := strings.TrimSpace(*req.Category); c != "" {
			category = &c
		}
	}
	return PricingRule{
		RuleName:           strings.TrimSpace(req.RuleName),
		Category:           category,
		MarkupPercentage:   req.MarkupPercentage,
		OverheadPercentage: req.OverheadPercentage,
		ProfitPercentage:   req.ProfitPercentage,
		TaxPercentage:      req.TaxPercentage,
		MinimumCharge:      req.MinimumCharge,
	}
}
