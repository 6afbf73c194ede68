package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/finrelay/finrelay/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it with the given status code.
// If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"An error occurred"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes the standard error body for this service's own failures.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// relayProvider writes a provider response to the caller unchanged: status
// code and body verbatim, content type carried over when present.
func relayProvider(w http.ResponseWriter, resp *model.ProviderResponse) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// errorResponse is the error body for failures originating in this service.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// notFoundResponse is the body for unmatched routes.
type notFoundResponse struct {
	Message string `json:"message"`
}

// healthResponse is the health check body.
type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
