package pricingrules

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	active, err := httpx.OptionalBool(r, "is_active")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rules, err := h.service.List(r.Context(), ListFilters{IsActive: active, Category: r.URL.Query().Get("category")})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list pricing rules failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rules == nil {
		rules = []PricingRule{}
	}
	httpx.JSON(w, http.StatusOK, rules)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rule, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rule, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create pricing rule failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RuleRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rule, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ActiveRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rule, err := h.service.SetActive(r.Context(), id, req.IsActive)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}
