package estimates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/catalog"
	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
	"github.com/odyssey-erp/bcs-estimating/internal/pricingrules"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// CatalogLookup reads the catalog entries quote lines are priced from.
type CatalogLookup interface {
	GetEntry(ctx context.Context, id int64) (catalog.Entry, error)
}

// RuleResolver selects the pricing rule for a quote.
type RuleResolver interface {
	Resolve(ctx context.Context, ruleID *int64) (pricingrules.PricingRule, error)
}

// numberAttempts bounds estimate number allocation: the first try plus one retry.
const numberAttempts = 2

// Service is the quote rollup engine.
type Service struct {
	repo    Repository
	catalog CatalogLookup
	rules   RuleResolver
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, catalog CatalogLookup, rules RuleResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, rules: rules, logger: logger, now: time.Now}
}

// CreateQuote prices the requested lines with the resolved rule and stores the
// estimate, its lines and its total in one transaction.
func (s *Service) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResult, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if err := checkLineScale(req.Lines); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		return nil, err
	}

	rule, err := s.rules.Resolve(ctx, req.PricingRuleID)
	if err != nil {
		return nil, err
	}
	lines, err := s.priceLines(ctx, req.Lines, RatesFor(rule))
	if err != nil {
		return nil, err
	}

	var result *QuoteResult
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		number, err := s.repo.NextEstimateNumber(ctx, s.now())
		if err != nil {
			return nil, err
		}
		result, err = s.insertQuote(ctx, Estimate{
			EstimateNumber: number,
			ClientID:       req.ClientID,
			Title:          title,
			Description:    strings.TrimSpace(req.Description),
			Status:         StatusDraft,
			PricingRuleID:  rule.ID,
			TotalAmount:    decimal.Zero,
			ValidUntil:     validUntil,
		}, lines)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateNumber) || attempt == numberAttempts {
			return nil, err
		}
		s.logger.WarnContext(ctx, "estimate number collision, retrying", slog.String("estimate_number", number))
	}

	s.logger.InfoContext(ctx, "quote created",
		slog.Int64("estimate_id", result.Estimate.ID),
		slog.String("estimate_number", result.Estimate.EstimateNumber),
		slog.Int("lines", len(result.Lines)),
		slog.String("total", result.Totals.Total.StringFixed(2)))
	return result, nil
}

func (s *Service) insertQuote(ctx context.Context, header Estimate, lines []LineItem) (*QuoteResult, error) {
	var result *QuoteResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		est, err := repo.CreateEstimate(ctx, header)
		if err != nil {
			return err
		}
		saved, err := repo.InsertLineItems(ctx, est.ID, lines)
		if err != nil {
			return err
		}
		result, err = finish(ctx, repo, est, saved)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceQuoteLines swaps the whole line set of a draft estimate and recomputes its
// total. Readers see either the old set and total or the new ones.
func (s *Service) ReplaceQuoteLines(ctx context.Context, id int64, req ReplaceLinesRequest) (*QuoteResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid estimate ID", shared.ErrInvalidInput)
	}
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if err := checkLineScale(req.Lines); err != nil {
		return nil, err
	}

	current, err := s.repo.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusDraft {
		return nil, notDraft(current)
	}
	ruleID := req.PricingRuleID
	if ruleID == nil {
		ruleID = &current.PricingRuleID
	}
	rule, err := s.rules.Resolve(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	lines, err := s.priceLines(ctx, req.Lines, RatesFor(rule))
	if err != nil {
		return nil, err
	}

	var result *QuoteResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		est, err := repo.LockEstimate(ctx, id)
		if err != nil {
			return err
		}
		if est.Status != StatusDraft {
			return notDraft(est)
		}
		saved, err := repo.ReplaceLineItems(ctx, id, lines)
		if err != nil {
			return err
		}
		est.PricingRuleID = rule.ID
		result, err = finish(ctx, repo, est, saved)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "quote lines replaced",
		slog.Int64("estimate_id", id),
		slog.Int("lines", len(result.Lines)),
		slog.String("total", result.Totals.Total.StringFixed(2)))
	return result, nil
}

// finish stores the rollup total on the estimate and assembles the result.
func finish(ctx context.Context, repo Repository, est Estimate, lines []LineItem) (*QuoteResult, error) {
	totals := Rollup(lines)
	if err := repo.UpdateTotal(ctx, est.ID, totals.Total, est.PricingRuleID); err != nil {
		return nil, err
	}
	est.TotalAmount = totals.Total
	est.Lines = lines
	return &QuoteResult{Estimate: est, Lines: lines, Totals: totals}, nil
}

// checkLineScale rejects line values finer than the line item columns keep.
func checkLineScale(reqs []LineRequest) error {
	for i, req := range reqs {
		if err := pricing.CheckScale(fmt.Sprintf("line %d quantity", i+1), req.Quantity, pricing.QuantityPlaces); err != nil {
			return err
		}
		if req.UnitPrice != nil {
			if err := pricing.CheckScale(fmt.Sprintf("line %d unit_price", i+1), *req.UnitPrice, pricing.CurrencyPlaces); err != nil {
				return err
			}
		}
		if req.LaborHours != nil {
			if err := pricing.CheckScale(fmt.Sprintf("line %d labor_hours", i+1), *req.LaborHours, pricing.CurrencyPlaces); err != nil {
				return err
			}
		}
	}
	return nil
}

// priceLines snapshots unit prices and computes every requested line in order.
func (s *Service) priceLines(ctx context.Context, reqs []LineRequest, rates Rates) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(reqs))
	for i, req := range reqs {
		line := LineItem{
			CatalogEntryID: req.CatalogEntryID,
			Code:           strings.TrimSpace(req.Code),
			Description:    strings.TrimSpace(req.Description),
			Quantity:       req.Quantity,
			Unit:           strings.TrimSpace(req.Unit),
			LaborHours:     decimal.Zero,
			SortOrder:      i + 1,
		}
		if req.LaborHours != nil {
			line.LaborHours = *req.LaborHours
		}

		if req.CatalogEntryID != nil {
			entry, err := s.catalog.GetEntry(ctx, *req.CatalogEntryID)
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: line %d references catalog entry %d", shared.ErrLineItemSourceNotFound, i+1, *req.CatalogEntryID)
			}
			if err != nil {
				return nil, err
			}
			if !entry.IsActive {
				return nil, fmt.Errorf("%w: line %d references inactive catalog entry %s", shared.ErrInvalidInput, i+1, entry.Code)
			}
			line.UnitPrice = entry.FinalPrice
			if line.Code == "" {
				line.Code = entry.Code
			}
			if line.Description == "" {
				line.Description = entry.Description
			}
			if line.Unit == "" {
				line.Unit = entry.Unit
			}
		} else {
			if req.UnitPrice == nil {
				return nil, fmt.Errorf("%w: line %d needs a catalog_entry_id or a unit_price", shared.ErrInvalidInput, i+1)
			}
			if line.Description == "" {
				return nil, fmt.Errorf("%w: line %d needs a description", shared.ErrInvalidInput, i+1)
			}
			line.UnitPrice = *req.UnitPrice
		}

		amounts := ComputeLine(line.Quantity, line.UnitPrice, rates)
		line.TotalPrice = amounts.TotalPrice
		line.OverheadProfitAmount = amounts.OverheadProfitAmount
		line.TaxAmount = amounts.TaxAmount
		line.LineTotal = amounts.LineTotal
		lines = append(lines, line)
	}
	return lines, nil
}

// Get returns an estimate with its lines and totals.
func (s *Service) Get(ctx context.Context, id int64) (*QuoteResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid estimate ID", shared.ErrInvalidInput)
	}
	est, err := s.repo.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Estimate: est, Lines: est.Lines, Totals: Rollup(est.Lines)}, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Estimate, int, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, *filters.Status)
	}
	return s.repo.ListEstimates(ctx, filters)
}

func (s *Service) Send(ctx context.Context, id int64) (Estimate, error) {
	return s.transition(ctx, id, StatusSent, "")
}

func (s *Service) Approve(ctx context.Context, id int64) (Estimate, error) {
	return s.transition(ctx, id, StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, id int64, reason string) (Estimate, error) {
	return s.transition(ctx, id, StatusRejected, strings.TrimSpace(reason))
}

func (s *Service) MarkConverted(ctx context.Context, id int64) (Estimate, error) {
	return s.transition(ctx, id, StatusConverted, "")
}

func (s *Service) transition(ctx context.Context, id int64, next Status, reason string) (Estimate, error) {
	if id <= 0 {
		return Estimate{}, fmt.Errorf("%w: invalid estimate ID", shared.ErrInvalidInput)
	}
	var out Estimate
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		est, err := repo.LockEstimate(ctx, id)
		if err != nil {
			return err
		}
		if !est.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: estimate %s cannot move from %s to %s", shared.ErrInvalidState, est.EstimateNumber, est.Status, next)
		}
		if err := repo.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		est.Status = next
		out = est
		return nil
	})
	if err != nil {
		return Estimate{}, err
	}

	attrs := []any{slog.Int64("estimate_id", id), slog.String("status", string(next))}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}
	s.logger.InfoContext(ctx, "estimate status changed", attrs...)
	return out, nil
}

func notDraft(e Estimate) error {
	return fmt.Errorf("%w: estimate %s is %s, lines can only change while draft", shared.ErrInvalidState, e.EstimateNumber, e.Status)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: valid_until must be YYYY-MM-DD", shared.ErrInvalidInput)
	}
	return &t, nil
}
