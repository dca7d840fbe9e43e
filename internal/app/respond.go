package app

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ApiResponse is the error body returned by every endpoint.
type ApiResponse struct {
	StatusCode        int    `json:"statusCode"`
	StatusDescription string `json:"statusDescription"`
	Message           string `json:"message,omitempty"`
}

func newAPIResponse(code int, message string) ApiResponse {
	return ApiResponse{StatusCode: code, StatusDescription: statusDescription(code), Message: message}
}

// statusDescription renders the status the way clients of the old API expect: "NotFound", "BadRequest".
func statusDescription(code int) string {
	return strings.ReplaceAll(http.StatusText(code), " ", "")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, newAPIResponse(code, message))
}
