package catalog

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/httpx"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, "list categories failed", err)
		return
	}
	if cats == nil {
		cats = []Category{}
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create category failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CategoryRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update category failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, "delete category failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	subs, err := h.service.ListSubcategories(r.Context(), id)
	if err != nil {
		h.fail(w, r, "list subcategories failed", err)
		return
	}
	if subs == nil {
		subs = []Subcategory{}
	}
	httpx.JSON(w, http.StatusOK, subs)
}

func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req SubcategoryRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateSubcategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create subcategory failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteSubcategory(r.Context(), id); err != nil {
		h.fail(w, r, "delete subcategory failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	categoryID, err := httpx.OptionalInt64(r, "category_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	subcategoryID, err := httpx.OptionalInt64(r, "subcategory_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	active, err := httpx.OptionalBool(r, "is_active")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageFromQuery(r.URL.Query())

	entries, total, err := h.service.ListEntries(r.Context(), EntryFilters{
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		IsActive:      active,
		Search:        r.URL.Query().Get("search"),
		Limit:         page.PerPage,
		Offset:        page.Offset(),
	})
	if err != nil {
		h.fail(w, r, "list catalog entries failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(entries, page, total))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get catalog entry failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateEntry(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create catalog entry failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req EntryRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.UpdateEntry(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update catalog entry failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		h.fail(w, r, "delete catalog entry failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecalculateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.RecalculateEntry(r.Context(), id)
	if err != nil {
		h.fail(w, r, "recalculate catalog entry failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) BulkUpdateModifier(w http.ResponseWriter, r *http.Request) {
	var req BulkModifierRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	n, err := h.service.BulkUpdateModifier(r.Context(), req.RegionalModifier, req.CategoryID)
	if err != nil {
		h.fail(w, r, "bulk modifier update failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, BulkResult{AffectedCount: n})
}

func (h *Handler) BulkUpdateMarkup(w http.ResponseWriter, r *http.Request) {
	var req BulkMarkupRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	n, err := h.service.BulkUpdateMarkup(r.Context(), req.BCSMarkup, req.CategoryID)
	if err != nil {
		h.fail(w, r, "bulk markup update failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, BulkResult{AffectedCount: n})
}
