// Package respond writes the JSON envelope shared by every API endpoint:
// {"success": true, ...} on success and {"success": false, "error": "..."}
// otherwise.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Fields are the payload keys merged into a success envelope
type Fields map[string]any

// JSON writes payload as-is with the given status
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

// OK writes {"success": true} plus fields
func OK(w http.ResponseWriter, fields Fields) {
	envelope := Fields{"success": true}
	for k, v := range fields {
		envelope[k] = v
	}
	JSON(w, http.StatusOK, envelope)
}

// Data writes {"success": true, "data": data}
func Data(w http.ResponseWriter, data any) {
	OK(w, Fields{"data": data})
}

// Error writes {"success": false, "error": message}
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Fields{"success": false, "error": message})
}
