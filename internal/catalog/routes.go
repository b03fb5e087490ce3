package catalog

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
		r.Get("/{id}/subcategories", h.ListSubcategories)
	})
	r.Post("/subcategories", h.CreateSubcategory)
	r.Delete("/subcategories/{id}", h.DeleteSubcategory)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/entries", h.ListEntries)
		r.Post("/entries", h.CreateEntry)
		r.Get("/entries/{id}", h.GetEntry)
		r.Put("/entries/{id}", h.UpdateEntry)
		r.Delete("/entries/{id}", h.DeleteEntry)
		r.Post("/entries/{id}/recalculate", h.RecalculateEntry)
		r.Post("/bulk/regional-modifier", h.BulkUpdateModifier)
		r.Post("/bulk/markup", h.BulkUpdateMarkup)
	})
}
