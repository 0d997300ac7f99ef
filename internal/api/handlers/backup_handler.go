package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/devserver/internal/services"
	"github.com/rs/zerolog/log"
)

// BackupHandler handles HTTP requests related to backups.
type BackupHandler struct {
	service  services.BackupServiceProvider
	maxBytes int64
}

// NewBackupHandler creates a new BackupHandler. maxBytes <= 0 disables the body size limit.
func NewBackupHandler(service services.BackupServiceProvider, maxBytes int64) *BackupHandler {
	return &BackupHandler{service: service, maxBytes: maxBytes}
}

// Create handles POST /backup: the body is stored verbatim (reformatted) as a new backup file.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength < 0 {
		writeError(w, http.StatusLengthRequired, "Content-Length required")
		return
	}

	body := r.Body
	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	payload, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		log.Warn().Err(err).Msg("Failed to read backup body")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	backup, err := h.service.CreateBackup(payload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidJSON) {
			log.Warn().Err(err).Msg("Invalid JSON received for backup")
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		log.Error().Err(err).Msg("Server error during backup")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}

	log.Info().Str("path", backup.Path).Int64("size", backup.Size).Msg("Backup created")
	writeSuccess(w, "Backup created")
}

// GetAll handles the request to list indexed backups.
func (h *BackupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	backups, err := h.service.GetBackups()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve backups")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve backups: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Get handles the request to fetch one index entry.
func (h *BackupHandler) Get(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupId")
	backup, err := h.service.GetBackupByID(backupID)
	if err != nil {
		h.lookupFailed(w, backupID, err)
		return
	}
	writeJSON(w, http.StatusOK, backup)
}

// Download streams the backup file itself.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupId")
	backup, err := h.service.GetBackupByID(backupID)
	if err != nil {
		h.lookupFailed(w, backupID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Name))
	http.ServeFile(w, r, backup.Path)
}

func (h *BackupHandler) lookupFailed(w http.ResponseWriter, backupID string, err error) {
	if errors.Is(err, services.ErrBackupNotFound) {
		writeError(w, http.StatusNotFound, "Backup not found")
		return
	}
	log.Error().Err(err).Str("backup_id", backupID).Msg("Failed to retrieve backup")
	writeError(w, http.StatusInternalServerError, "Failed to retrieve backup: "+err.Error())
}
