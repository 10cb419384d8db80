package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dermaview-backend/internal/models"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, models.ChatResponse{Response: "Success"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", rr.Header().Get("Content-Type"))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["response"] != "Success" {
		t.Errorf("Expected response 'Success', got %v", result["response"])
	}
}

func TestErrorResponse_OmitsEmptyDetails(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusBadRequest, errorResp("Invalid input"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, ok := result["details"]; ok {
		t.Errorf("Expected no details field, got %v", result)
	}
	if result["error"] != "Invalid input" {
		t.Errorf("Expected error 'Invalid input', got %v", result["error"])
	}
}
