package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dermaview-backend/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}
