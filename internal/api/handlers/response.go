package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/devserver/internal/models"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", code).Msg("Failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: models.StatusSuccess, Message: message})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, models.StatusResponse{Status: models.StatusError, Message: message})
}
