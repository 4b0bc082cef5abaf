package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

type PositionHandler struct {
	positionService services.PositionService
}

func NewPositionHandler(positionService services.PositionService) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

// HandleListPositions supports ?longShort=, ?search= and ?merged= (default true).
func (h *PositionHandler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.PositionFilter{
		LongShort: query.Get("longShort"),
		Search:    query.Get("search"),
	}
	if filter.LongShort != "" {
		if err := validation.ValidateDirection(filter.LongShort); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	merged := true
	if raw := query.Get("merged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.SendJSONError(w, "merged must be true or false", http.StatusBadRequest)
			return
		}
		merged = v
	}

	positions, err := h.positionService.ListPositions(r.Context(), filter, merged)
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve positions")
		return
	}
	utils.SendJSON(w, positions, http.StatusOK)
}

func (h *PositionHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	position, err := h.positionService.GetPosition(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve position")
		return
	}
	utils.SendJSON(w, position, http.StatusOK)
}

func (h *PositionHandler) HandleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req models.Position
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	position, err := h.positionService.CreatePosition(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to create position")
		return
	}
	utils.SendJSON(w, position, http.StatusCreated)
}

func (h *PositionHandler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var fields map[string]json.RawMessage
	if err := decodeJSONBody(w, r, &fields); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	position, err := h.positionService.UpdatePosition(r.Context(), id, fields)
	if err != nil {
		sendServiceError(w, r, err, "Failed to update position")
		return
	}
	utils.SendJSON(w, position, http.StatusOK)
}

func (h *PositionHandler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.positionService.DeletePosition(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "Failed to delete position")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
