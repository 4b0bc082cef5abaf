package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

// PortfolioHandler serves the book-level views: the exposure summary and the AUM setting.
type PortfolioHandler struct {
	summaryService  services.SummaryService
	settingsService services.SettingsService
}

func NewPortfolioHandler(summaryService services.SummaryService, settingsService services.SettingsService) *PortfolioHandler {
	return &PortfolioHandler{
		summaryService:  summaryService,
		settingsService: settingsService,
	}
}

func (h *PortfolioHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	summary, err := h.summaryService.GetSummary(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "Failed to compute portfolio summary")
		return
	}

	currentETag, etagErr := utils.GenerateETag(summary)
	if etagErr != nil {
		log.Error("Failed to generate ETag for portfolio summary", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match for portfolio summary", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.SendJSON(w, summary, http.StatusOK)
}

func (h *PortfolioHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve settings")
		return
	}
	utils.SendJSON(w, settings, http.StatusOK)
}

func (h *PortfolioHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.AppSettings
	if err := decodeJSONBody(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	settings, err := h.settingsService.UpdateSettings(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "Failed to update settings")
		return
	}
	utils.SendJSON(w, settings, http.StatusOK)
}
