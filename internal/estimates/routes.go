package estimates

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/estimates", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}/lines", h.ReplaceLines)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
		r.Post("/{id}/convert", h.Convert)
		r.Get("/{id}/pdf", h.ExportPDF)
	})
}
