package handlers

import (
	"net/http"

	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

type TaxonomyHandler struct {
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

func (h *TaxonomyHandler) HandleListTaxonomies(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.taxonomyService.ListTaxonomies(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve taxonomies")
		return
	}
	utils.SendJSON(w, nodes, http.StatusOK)
}

func (h *TaxonomyHandler) HandleCreateTaxonomy(w http.ResponseWriter, r *http.Request) {
	var req models.TaxonomyInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	taxonomy, err := h.taxonomyService.CreateTaxonomy(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to create taxonomy")
		return
	}
	utils.SendJSON(w, taxonomy, http.StatusCreated)
}

func (h *TaxonomyHandler) HandleUpdateTaxonomy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.TaxonomyUpdate
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	taxonomy, err := h.taxonomyService.UpdateTaxonomy(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to update taxonomy")
		return
	}
	utils.SendJSON(w, taxonomy, http.StatusOK)
}

// HandleDeleteTaxonomy answers 409 with per-axis reference counts while positions still use the node.
func (h *TaxonomyHandler) HandleDeleteTaxonomy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.taxonomyService.DeleteTaxonomy(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "Failed to delete taxonomy")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
