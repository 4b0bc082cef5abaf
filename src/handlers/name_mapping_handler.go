package handlers

import (
	"net/http"

	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

type NameMappingHandler struct {
	nameMappingService services.NameMappingService
}

func NewNameMappingHandler(nameMappingService services.NameMappingService) *NameMappingHandler {
	return &NameMappingHandler{nameMappingService: nameMappingService}
}

func (h *NameMappingHandler) HandleListNameMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.nameMappingService.ListNameMappings(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve name mappings")
		return
	}
	utils.SendJSON(w, mappings, http.StatusOK)
}

func (h *NameMappingHandler) HandleCreateNameMapping(w http.ResponseWriter, r *http.Request) {
	var req models.NameMappingInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	mapping, err := h.nameMappingService.CreateNameMapping(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to create name mapping")
		return
	}
	utils.SendJSON(w, mapping, http.StatusCreated)
}

func (h *NameMappingHandler) HandleUpdateNameMapping(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.NameMappingUpdate
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	mapping, err := h.nameMappingService.UpdateNameMapping(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to update name mapping")
		return
	}
	utils.SendJSON(w, mapping, http.StatusOK)
}

func (h *NameMappingHandler) HandleDeleteNameMapping(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.nameMappingService.DeleteNameMapping(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "Failed to delete name mapping")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
