package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/portfoliodesk/backend/src/config"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/security/validation"
	"github.com/username/portfoliodesk/backend/src/services"
	"github.com/username/portfoliodesk/backend/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// HandleUpload imports a broker position export sent as the multipart field "file".
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	maxSize := config.Cfg.MaxUploadSizeBytes

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024*1024)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", maxSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse upload or file too large (max %d MB)", maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > maxSize {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", maxSize)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, fileHeader.Filename)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing upload request", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	result, err := h.importService.ProcessImport(r.Context(), file, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		sendServiceError(w, r, err, "Failed to import positions")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *UploadHandler) HandleGetImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.SendJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history, err := h.importService.GetImportHistory(r.Context(), limit)
	if err != nil {
		sendServiceError(w, r, err, "Failed to retrieve import history")
		return
	}
	utils.SendJSON(w, history, http.StatusOK)
}
