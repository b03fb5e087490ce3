package pricingrules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/cache"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// RuleReader is the read side of the pricing rule store.
type RuleReader interface {
	Get(ctx context.Context, id int64) (PricingRule, error)
}

// Resolver selects the pricing rule a quote is computed with. Lookups go through a
// versioned Redis cache and concurrent misses for one id share a single load.
type Resolver struct {
	store     RuleReader
	cache     *cache.Versioned
	defaultID int64
	logger    *slog.Logger
	group     singleflight.Group
}

// NewResolver builds a resolver. A defaultID of zero selects DefaultRuleID and a
// nil cache reads the store directly.
func NewResolver(store RuleReader, c *cache.Versioned, defaultID int64, logger *slog.Logger) *Resolver {
	if defaultID <= 0 {
		defaultID = DefaultRuleID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cache: c, defaultID: defaultID, logger: logger}
}

// DefaultID is the rule id used when callers omit one.
func (r *Resolver) DefaultID() int64 {
	return r.defaultID
}

// Resolve returns the active rule for ruleID, or the default rule when ruleID is
// nil. A missing rule is ErrRuleNotFound and an inactive one ErrRuleInactive.
func (r *Resolver) Resolve(ctx context.Context, ruleID *int64) (PricingRule, error) {
	id := r.defaultID
	if ruleID != nil {
		id = *ruleID
	}
	if id <= 0 {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrRuleNotFound, id)
	}

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return r.load(ctx, id)
	})
	if err != nil {
		return PricingRule{}, err
	}
	rule := v.(PricingRule)
	if !rule.IsActive {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d (%s)", shared.ErrRuleInactive, rule.ID, rule.RuleName)
	}
	return rule, nil
}

func (r *Resolver) load(ctx context.Context, id int64) (PricingRule, error) {
	loader := func(ctx context.Context) (any, error) {
		return r.fetch(ctx, id)
	}

	key, err := r.cache.Key(ctx, "rule", strconv.FormatInt(id, 10))
	if err == nil {
		var rule PricingRule
		err = r.cache.FetchJSON(ctx, key, &rule, loader)
		if err == nil {
			return rule, nil
		}
	}
	if !errors.Is(err, cache.ErrUnavailable) {
		return PricingRule{}, err
	}
	r.logger.WarnContext(ctx, "pricing rule cache unavailable, reading store", slog.Int64("rule_id", id), slog.Any("error", err))
	return r.fetch(ctx, id)
}

func (r *Resolver) fetch(ctx context.Context, id int64) (PricingRule, error) {
	rule, err := r.store.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return PricingRule{}, fmt.Errorf("%w: pricing rule %d", shared.ErrRuleNotFound, id)
	}
	return rule, err
}

// Invalidate drops every cached rule by bumping the cache version. When the bump
// fails the versions cached for ruleID are deleted instead, and an error is
// returned only if that fails too.
func (r *Resolver) Invalidate(ctx context.Context, ruleID int64) error {
	err := r.cache.Bump(ctx)
	if err == nil {
		return nil
	}
	if ferr := r.cache.Forget(ctx, "rule", strconv.FormatInt(ruleID, 10)); ferr != nil {
		return errors.Join(err, ferr)
	}
	r.logger.WarnContext(ctx, "pricing rule cache bump failed, cached rule deleted", slog.Int64("rule_id", ruleID), slog.Any("error", err))
	return nil
}
