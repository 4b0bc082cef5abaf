package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TradeHandler struct {
	tradeService services.TradeService
}

func NewTradeHandler(tradeService services.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.tradeService.ListTrades(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve trades")
		return
	}
	utils.SendJSON(w, trades, http.StatusOK)
}

func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.GetTrade(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve trade")
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req models.TradeInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.CreateTrade(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to create trade")
		return
	}
	utils.SendJSON(w, trade, http.StatusCreated)
}

// HandleUpdateTrade changes the note or status. {"status":"executed"} applies the trade.
func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.TradeUpdate
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.UpdateTrade(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to update trade")
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.tradeService.DeleteTrade(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "Failed to delete trade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TradeHandler) HandleExportTrade(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, filename, err := h.tradeService.ExportTrade(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "Failed to export trade")
		return
	}

	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Error("Error writing trade export", "tradeID", id, "error", err)
	}
}
