package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitComplaint(t *testing.T, env *testEnv, cookie *http.Cookie, fields map[string]string) int64 {
	t.Helper()
	rec := env.postMultipart("/complaints/", fields, "photo.jpg", []byte("jpeg-bytes"), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return int64(decodeBody(t, rec)["complaint_id"].(float64))
}

func TestCreateComplaint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("asha", false)

	id := submitComplaint(t, env, cookie, map[string]string{
		"title":          "Broken signal at Powai junction",
		"description":    "Signal stuck on red",
		"complaint_type": "broken_signal",
		"latitude":       "19.1176",
		"longitude":      "72.9060",
	})

	complaint, err := env.store.GetComplaint(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintBrokenSignal, complaint.ComplaintType)
	assert.Equal(t, models.ComplaintPending, complaint.Status)
	assert.Equal(t, 19.1176, complaint.Latitude)
	assert.True(t, strings.HasPrefix(complaint.Image, fmt.Sprintf("complaints/%d/", id)), complaint.Image)
}

func TestCreateComplaint_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			name:   "missing title",
			fields: map[string]string{"complaint_type": "GARBAGE", "latitude": "19.0", "longitude": "72.8"},
			want:   "Title is required",
		},
		{
			name:   "unknown type",
			fields: map[string]string{"title": "t", "complaint_type": "NOISE", "latitude": "19.0", "longitude": "72.8"},
			want:   "Invalid complaint type",
		},
		{
			name:   "missing coordinates",
			fields: map[string]string{"title": "t", "complaint_type": "GARBAGE", "latitude": "19.0"},
			want:   "Invalid coordinates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cookie := env.login("asha", false)

			rec := env.postMultipart("/complaints/", tt.fields, "", nil, cookie)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}
}

func TestComplaintLists(t *testing.T) {
	env := newTestEnv(t)
	asha := env.login("asha", false)
	ravi := env.login("ravi", false)
	official := env.login("official", true)

	base := map[string]string{"title": "Garbage pile", "complaint_type": "GARBAGE", "latitude": "19.07", "longitude": "72.87"}
	first := submitComplaint(t, env, asha, base)
	submitComplaint(t, env, ravi, base)

	rec := env.get("/complaints/mine/", asha)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody(t, rec)["complaints"].([]any)
	require.Len(t, mine, 1)
	assert.Contains(t, mine[0].(map[string]any)["image_url"], "/media/complaints/")

	rec = env.get("/api/complaints/", asha)
	assert.Equal(t, http.StatusForbidden, rec.Code, "citizens cannot list all complaints")

	rec = env.postJSON(fmt.Sprintf("/complaints/%d/status/", first), map[string]string{"status": "RESOLVED"}, official)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "RESOLVED", decodeBody(t, rec)["status"])

	rec = env.get("/api/complaints/", official)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["complaints"], 2)

	rec = env.get("/api/complaints/?status=resolved", official)
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decodeBody(t, rec)["complaints"].([]any)
	require.Len(t, resolved, 1)
	assert.Equal(t, float64(first), resolved[0].(map[string]any)["id"])

	rec = env.get("/api/complaints/?status=closed", official)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateComplaintStatus_Errors(t *testing.T) {
	env := newTestEnv(t)
	official := env.login("official", true)

	rec := env.postJSON("/complaints/42/status/", map[string]string{"status": "IN_PROGRESS"}, official)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.postJSON("/complaints/42/status/", map[string]string{"status": "DONE"}, official)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", decodeBody(t, rec)["error"])
}
