package estimates

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/bcs-estimating/internal/platform/httpx"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyModule = "estimates"
	maxIdempotencyKey = 128
)

// IdempotencyKeys claims and releases client-supplied request keys.
type IdempotencyKeys interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer *Renderer
	keys     IdempotencyKeys
}

// NewHandler wires the estimate endpoints. A nil renderer disables PDF export.
func NewHandler(logger *slog.Logger, service *Service, renderer *Renderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

// WithIdempotency makes POST /estimates honour the Idempotency-Key header.
func (h *Handler) WithIdempotency(keys IdempotencyKeys) *Handler {
	h.keys = keys
	return h
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clientID, err := httpx.OptionalInt64(r, "client_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := Status(raw)
		status = &s
	}
	page := shared.PageFromQuery(r.URL.Query())

	items, total, err := h.service.List(r.Context(), ListFilters{
		ClientID: clientID,
		Status:   status,
		Limit:    page.PerPage,
		Offset:   page.Offset(),
	})
	if err != nil {
		h.fail(w, r, "list estimates failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, page, total))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get estimate failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get(idempotencyHeader)
	if h.keys != nil && key != "" {
		if len(key) > maxIdempotencyKey {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", idempotencyHeader+" is too long")
			return
		}
		if err := h.keys.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			h.fail(w, r, "claim idempotency key failed", err)
			return
		}
	}
	q, err := h.service.CreateQuote(r.Context(), req)
	if err != nil {
		if h.keys != nil && key != "" {
			if delErr := h.keys.Delete(r.Context(), key, idempotencyModule); delErr != nil {
				h.logger.WarnContext(r.Context(), "release idempotency key", slog.Any("error", delErr))
			}
		}
		h.fail(w, r, "create quote failed", err)
		return
	}
	w.Header().Set("Location", "/estimates/"+strconv.FormatInt(q.Estimate.ID, 10))
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) ReplaceLines(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ReplaceLinesRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.ReplaceQuoteLines(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "replace quote lines failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Send)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkConverted)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RejectRequest
	if r.ContentLength != 0 {
		if err := httpx.Bind(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	est, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.fail(w, r, "reject estimate failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (Estimate, error)) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	est, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, r, "estimate transition failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF export unavailable", "document renderer is not configured")
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get estimate failed", err)
		return
	}
	pdf, err := h.renderer.Render(r.Context(), q)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render estimate pdf failed", slog.Int64("estimate_id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render failed", "document renderer returned an error")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+q.Estimate.EstimateNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
