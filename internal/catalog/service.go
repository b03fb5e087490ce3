package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/internal/pricing"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

// Service owns catalog maintenance and keeps every entry's derived prices in step
// with its costs and multipliers.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	if err := validateID("category", id); err != nil {
		return Category{}, err
	}
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, req CategoryRequest) (Category, error) {
	if err := validateCategory(req); err != nil {
		return Category{}, err
	}
	return s.repo.CreateCategory(ctx, Category{
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		SortOrder: req.SortOrder,
		IsActive:  boolOr(req.IsActive, true),
	})
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (Category, error) {
	if err := validateID("category", id); err != nil {
		return Category{}, err
	}
	if err := validateCategory(req); err != nil {
		return Category{}, err
	}
	var out Category
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		current.Code = strings.TrimSpace(req.Code)
		current.Name = strings.TrimSpace(req.Name)
		current.SortOrder = req.SortOrder
		current.IsActive = boolOr(req.IsActive, current.IsActive)
		out, err = repo.UpdateCategory(ctx, current)
		return err
	})
	return out, err
}

// DeleteCategory removes a category and its subcategories. A category that still
// has catalog entries is rejected.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateID("category", id); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetCategory(ctx, id); err != nil {
			return err
		}
		n, err := repo.CountEntriesInCategory(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: category %d still has %d catalog entries", shared.ErrInvalidState, id, n)
		}
		return repo.DeleteCategory(ctx, id)
	})
}

func (s *Service) ListSubcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	if err := validateID("category", categoryID); err != nil {
		return nil, err
	}
	return s.repo.ListSubcategories(ctx, categoryID)
}

func (s *Service) CreateSubcategory(ctx context.Context, req SubcategoryRequest) (Subcategory, error) {
	if err := shared.Validate(req); err != nil {
		return Subcategory{}, err
	}
	return s.repo.CreateSubcategory(ctx, Subcategory{
		CategoryID: req.CategoryID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		SortOrder:  req.SortOrder,
		IsActive:   true,
	})
}

func (s *Service) DeleteSubcategory(ctx context.Context, id int64) error {
	if err := validateID("subcategory", id); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.DeleteSubcategory(ctx, id)
	})
}

func (s *Service) GetEntry(ctx context.Context, id int64) (Entry, error) {
	if err := validateID("catalog entry", id); err != nil {
		return Entry{}, err
	}
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, int, error) {
	return s.repo.ListEntries(ctx, filters)
}

// CreateEntry stores a new entry with prices derived from its costs. Missing
// multipliers take the defaults.
func (s *Service) CreateEntry(ctx context.Context, req EntryRequest) (Entry, error) {
	if err := validateEntry(req); err != nil {
		return Entry{}, err
	}
	entry := Entry{IsTaxable: true, IsActive: true}
	applyRequest(&entry, req)
	if err := derive(&entry); err != nil {
		return Entry{}, err
	}
	return s.repo.CreateEntry(ctx, entry)
}

// UpdateEntry replaces an entry's editable fields and re-derives its prices in the
// same write. Missing multipliers keep their stored values.
func (s *Service) UpdateEntry(ctx context.Context, id int64, req EntryRequest) (Entry, error) {
	if err := validateID("catalog entry", id); err != nil {
		return Entry{}, err
	}
	if err := validateEntry(req); err != nil {
		return Entry{}, err
	}
	var out Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		entry, err := repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		applyRequest(&entry, req)
		if err := derive(&entry); err != nil {
			return err
		}
		out, err = repo.UpdateEntry(ctx, entry)
		return err
	})
	return out, err
}

func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if err := validateID("catalog entry", id); err != nil {
		return err
	}
	return s.repo.DeleteEntry(ctx, id)
}

// RecalculateEntry re-derives one entry from its stored costs and multipliers.
func (s *Service) RecalculateEntry(ctx context.Context, id int64) (Entry, error) {
	if err := validateID("catalog entry", id); err != nil {
		return Entry{}, err
	}
	var out Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		entry, err := repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := derive(&entry); err != nil {
			return err
		}
		if err := repo.UpdateDerivedFields(ctx, id, DerivedUpdate{
			RegionalModifier: entry.RegionalModifier,
			AdjustedPrice:    entry.AdjustedPrice,
			BCSMarkup:        entry.BCSMarkup,
			FinalPrice:       entry.FinalPrice,
		}); err != nil {
			return err
		}
		out, err = repo.GetEntry(ctx, id)
		return err
	})
	return out, err
}

// BulkUpdateModifier sets the regional modifier on every active entry, or on the
// active entries of one category, and cascades adjusted and final prices. A nil
// categoryID applies to the whole catalog.
func (s *Service) BulkUpdateModifier(ctx context.Context, modifier decimal.Decimal, categoryID *int64) (int64, error) {
	if err := pricing.CheckMultiplier("regional_modifier", modifier); err != nil {
		return 0, err
	}
	if categoryID != nil {
		if err := validateID("category", *categoryID); err != nil {
			return 0, err
		}
	}
	n, err := s.repo.BulkUpdateDerivedFields(ctx, categoryID, func(e Entry) (DerivedUpdate, error) {
		adjusted := pricing.Adjust(e.BasePrice, modifier)
		return DerivedUpdate{
			RegionalModifier: modifier,
			AdjustedPrice:    adjusted,
			BCSMarkup:        e.BCSMarkup,
			FinalPrice:       pricing.Finalize(adjusted, e.BCSMarkup),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "catalog regional modifier updated",
		slog.String("modifier", modifier.String()), slog.Any("category_id", categoryID), slog.Int64("affected", n))
	return n, nil
}

// BulkUpdateMarkup sets the BCS markup on every active entry, or on the active
// entries of one category, and recomputes final prices. Adjusted prices are kept.
func (s *Service) BulkUpdateMarkup(ctx context.Context, markup decimal.Decimal, categoryID *int64) (int64, error) {
	if err := pricing.CheckMultiplier("bcs_markup", markup); err != nil {
		return 0, err
	}
	if categoryID != nil {
		if err := validateID("category", *categoryID); err != nil {
			return 0, err
		}
	}
	n, err := s.repo.BulkUpdateDerivedFields(ctx, categoryID, func(e Entry) (DerivedUpdate, error) {
		return DerivedUpdate{
			RegionalModifier: e.RegionalModifier,
			AdjustedPrice:    e.AdjustedPrice,
			BCSMarkup:        markup,
			FinalPrice:       pricing.Finalize(e.AdjustedPrice, markup),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "catalog markup updated",
		slog.String("markup", markup.String()), slog.Any("category_id", categoryID), slog.Int64("affected", n))
	return n, nil
}

func applyRequest(e *Entry, req EntryRequest) {
	e.CategoryID = req.CategoryID
	e.SubcategoryID = req.SubcategoryID
	e.Code = strings.TrimSpace(req.Code)
	e.Description = strings.TrimSpace(req.Description)
	e.Unit = strings.TrimSpace(req.Unit)
	e.LaborCost = req.LaborCost
	e.MaterialCost = req.MaterialCost
	e.EquipmentCost = req.EquipmentCost
	if req.RegionalModifier != nil {
		e.RegionalModifier = *req.RegionalModifier
	}
	if req.BCSMarkup != nil {
		e.BCSMarkup = *req.BCSMarkup
	}
	e.IsTaxable = boolOr(req.IsTaxable, e.IsTaxable)
	e.IsActive = boolOr(req.IsActive, e.IsActive)
	e.Notes = req.Notes
}

func derive(e *Entry) error {
	p, err := pricing.Derive(e.CostInputs())
	if err != nil {
		return err
	}
	e.applyDerived(p)
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
