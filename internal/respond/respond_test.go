package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "OK with fields",
			write:      func(w http.ResponseWriter) { OK(w, Fields{"discussion_id": 7}) },
			wantStatus: http.StatusOK,
			wantBody:   `{"success": true, "discussion_id": 7}`,
		},
		{
			name:       "Data",
			write:      func(w http.ResponseWriter) { Data(w, []int{1, 2}) },
			wantStatus: http.StatusOK,
			wantBody:   `{"success": true, "data": [1, 2]}`,
		},
		{
			name:       "Error",
			write:      func(w http.ResponseWriter) { Error(w, http.StatusForbidden, "Unauthorized") },
			wantStatus: http.StatusForbidden,
			wantBody:   `{"success": false, "error": "Unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
