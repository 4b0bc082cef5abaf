package handlers

import "github.com/go-chi/chi/v5"

// API groups the resource handlers mounted under /api.
type API struct {
	Upload       *UploadHandler
	Portfolio    *PortfolioHandler
	Positions    *PositionHandler
	Taxonomy     *TaxonomyHandler
	Trades       *TradeHandler
	NameMappings *NameMappingHandler
}

// Routes registers every API endpoint on r.
func (a *API) Routes(r chi.Router) {
	r.Post("/import", a.Upload.HandleUpload)
	r.Get("/import-history", a.Upload.HandleGetImportHistory)

	r.Get("/summary", a.Portfolio.HandleGetSummary)
	r.Get("/settings", a.Portfolio.HandleGetSettings)
	r.Put("/settings", a.Portfolio.HandleUpdateSettings)

	r.Route("/positions", func(r chi.Router) {
		r.Get("/", a.Positions.HandleListPositions)
		r.Post("/", a.Positions.HandleCreatePosition)
		r.Get("/{id}", a.Positions.HandleGetPosition)
		r.Put("/{id}", a.Positions.HandleUpdatePosition)
		r.Delete("/{id}", a.Positions.HandleDeletePosition)
	})

	r.Route("/taxonomy", func(r chi.Router) {
		r.Get("/", a.Taxonomy.HandleListTaxonomies)
		r.Post("/", a.Taxonomy.HandleCreateTaxonomy)
		r.Put("/{id}", a.Taxonomy.HandleUpdateTaxonomy)
		r.Delete("/{id}", a.Taxonomy.HandleDeleteTaxonomy)
	})

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", a.Trades.HandleListTrades)
		r.Post("/", a.Trades.HandleCreateTrade)
		r.Get("/{id}", a.Trades.HandleGetTrade)
		r.Put("/{id}", a.Trades.HandleUpdateTrade)
		r.Delete("/{id}", a.Trades.HandleDeleteTrade)
		r.Get("/{id}/export", a.Trades.HandleExportTrade)
	})

	r.Route("/name-mappings", func(r chi.Router) {
		r.Get("/", a.NameMappings.HandleListNameMappings)
		r.Post("/", a.NameMappings.HandleCreateNameMapping)
		r.Put("/{id}", a.NameMappings.HandleUpdateNameMapping)
		r.Delete("/{id}", a.NameMappings.HandleDeleteNameMapping)
	})
}
