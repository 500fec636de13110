package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"pet-adoption-portal/internal/model"
)

// wantsJSON reports whether the failure response for r should use the JSON
// envelope instead of plain text.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	if !wantsJSON(r) {
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
