package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/guide"
	"github.com/civicconnect/civic-services/internal/middleware"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecycling(t *testing.T, env *testEnv) {
	t.Helper()
	err := env.store.UpsertRecyclingReference(context.Background(), models.RecyclingFixtures{
		Categories: []models.WasteCategory{
			{ID: 1, Name: "Plastic", Slug: "plastic", CategoryType: "plastic", Description: "Bottles and packaging"},
			{ID: 2, Name: "E-Waste", Slug: "e-waste", CategoryType: "electronic"},
		},
		Guides: []models.RecyclingGuide{
			{ID: 1, CategoryID: 1, Title: "Recycling PET bottles", Slug: "pet-bottles", Content: "Rinse and crush bottles.\n\nRemove caps.", DifficultyLevel: "easy", EstimatedTime: 5, IsActive: true},
			{ID: 2, CategoryID: 1, Title: "Plastic bags", Slug: "plastic-bags", Content: "Return bags to stores.", DifficultyLevel: "easy", EstimatedTime: 3, IsActive: true},
			{ID: 3, CategoryID: 2, Title: "Old phones", Slug: "old-phones", Content: "Wipe your data first.", DifficultyLevel: "medium", EstimatedTime: 10, IsActive: true},
		},
		Centers: []models.RecyclingCenter{{
			ID:                77,
			Name:              "Dadar Dry Waste Centre",
			Latitude:          19.0178,
			Longitude:         72.8478,
			CenterType:        "drop_off",
			AcceptedMaterials: []string{"plastic", "paper"},
			OpeningHours:      weeklyHours("9:00 AM - 6:00 PM", "10:00 AM - 2:00 PM", "Closed"),
			IsActive:          true,
		}},
	})
	require.NoError(t, err)
}

func TestCenters_FallBackToSamples(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/recycle/centers/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["centers"], len(sampleCenters))

	seedRecycling(t, env)
	rec = env.get("/recycle/centers/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	centers := decodeBody(t, rec)["centers"].([]any)
	require.Len(t, centers, 1)
	center := centers[0].(map[string]any)
	assert.Equal(t, "Dadar Dry Waste Centre", center["name"])
	assert.Contains(t, center, "is_open_now")

	rec = env.get("/recycle/api/sample-centers/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["centers"], len(sampleCenters))
}

func TestRecyclingRequests(t *testing.T) {
	env := newTestEnv(t)
	seedRecycling(t, env)
	cookie := env.login("asha", false)

	rec := env.postJSON("/recycle/request/", map[string]any{
		"center_id":  77,
		"waste_type": "plastic",
		"quantity":   "2 kg",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, requestSubmitted, body["message"])
	assert.NotZero(t, body["request_id"])

	rec = env.postJSON("/recycle/request/", map[string]any{
		"center_id":  999,
		"waste_type": "plastic",
		"quantity":   "2 kg",
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, requestFailed, decodeBody(t, rec)["error"])

	rec = env.postJSON("/recycle/request/", map[string]any{"center_id": 77}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.get("/recycle/api/my-requests/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	requests := decodeBody(t, rec)["requests"].([]any)
	require.Len(t, requests, 1)
	request := requests[0].(map[string]any)
	assert.Equal(t, "Dadar Dry Waste Centre", request["center_name"])
	assert.Equal(t, string(models.RequestPending), request["status"])

	rec = env.get("/recycle/my-requests/", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dadar Dry Waste Centre")
}

func TestRouteDirections(t *testing.T) {
	start := clients.Point{Lat: 19.07, Lng: 72.87}
	end := clients.Point{Lat: 19.01, Lng: 72.84}

	tests := []struct {
		name     string
		query    string
		mockErr  error
		wantCode int
		wantErr  string
	}{
		{name: "missing coordinate", query: "start_lat=19.07&start_lng=72.87&end_lat=19.01", wantCode: http.StatusBadRequest, wantErr: "Missing coordinates"},
		{name: "bad coordinate", query: "start_lat=north&start_lng=72.87&end_lat=19.01&end_lng=72.84", wantCode: http.StatusBadRequest, wantErr: "Invalid coordinates"},
		{name: "routing failure", query: "start_lat=19.07&start_lng=72.87&end_lat=19.01&end_lng=72.84", mockErr: errors.New("upstream 502"), wantCode: http.StatusInternalServerError, wantErr: "Failed to get route directions"},
		{name: "route found", query: "start_lat=19.07&start_lng=72.87&end_lat=19.01&end_lng=72.84", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.mockErr != nil {
				env.routes.On("Directions", start, end).Return(nil, tt.mockErr).Once()
			} else {
				env.routes.On("Directions", start, end).Return(json.RawMessage(`{"type":"FeatureCollection"}`), nil).Maybe()
			}

			rec := env.get("/recycle/route/?"+tt.query, nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
				return
			}
			assert.Equal(t, map[string]any{"type": "FeatureCollection"}, body["route"])
		})
	}
}

func TestGenerateGuide(t *testing.T) {
	env := newTestEnv(t)
	env.guide.On("Generate", "how do I recycle glass?", "hi").
		Return(guide.Result{Content: "Kaanch ko alag rakhein.", Source: guide.SourceCache}).Once()
	env.guide.On("Generate", "batteries", "").
		Return(guide.Result{Content: "Take batteries to an e-waste point."}).Once()

	rec := env.postJSON("/recycle/guide/generate/", map[string]string{"prompt": " how do I recycle glass? ", "language": "hi"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Kaanch ko alag rakhein.", body["content"])
	assert.Equal(t, guide.SourceCache, body["source"])

	rec = env.postJSON("/recycle/guide/generate/", map[string]string{"prompt": "batteries"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotContains(t, body, "source", "fresh model output carries no source")

	rec = env.postJSON("/recycle/guide/generate/", map[string]string{"prompt": "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt is required", decodeBody(t, rec)["error"])

	env.guide.AssertExpectations(t)
}

func TestGenerateGuide_RateLimited(t *testing.T) {
	env := newTestEnvWithLimiter(t, middleware.NewRateLimiter(0.001, 1))
	env.guide.On("Generate", "paper", "").Return(guide.Result{Content: "Keep paper dry."}).Once()

	rec := env.postJSON("/recycle/guide/generate/", map[string]string{"prompt": "paper"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.postJSON("/recycle/guide/generate/", map[string]string{"prompt": "paper"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	env.guide.AssertExpectations(t)
}

func TestSaveProgress(t *testing.T) {
	env := newTestEnv(t)
	seedRecycling(t, env)
	cookie := env.login("asha", false)
	user, err := env.store.GetUserByUsername(context.Background(), "asha")
	require.NoError(t, err)

	rec := env.postJSON("/recycle/guide/progress/", map[string]any{"guide_id": 1, "time_spent": 30, "quiz_score": 4}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, progressSaved, decodeBody(t, rec)["message"])

	rec = env.postJSON("/recycle/guide/progress/", map[string]any{"guide_id": 1, "completed": true, "time_spent": 90}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	progress, err := env.store.GetProgress(context.Background(), user.ID, 1)
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.Equal(t, 90, progress.TimeSpent)
	require.NotNil(t, progress.QuizScore, "an omitted quiz score keeps the earlier one")
	assert.Equal(t, 4, *progress.QuizScore)
	assert.NotNil(t, progress.CompletedAt)

	rec = env.postJSON("/recycle/guide/progress/", map[string]any{"guide_id": 404}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Guide not found", decodeBody(t, rec)["error"])

	rec = env.postJSON("/recycle/guide/progress/", map[string]any{"guide_id": 1}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchGuides(t *testing.T) {
	env := newTestEnv(t)
	seedRecycling(t, env)

	rec := env.get("/recycle/guide/search/?q=bottles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	result := results[0].(map[string]any)
	assert.Equal(t, "pet-bottles", result["slug"])
	assert.Equal(t, "Plastic", result["category"])
	assert.Equal(t, float64(5), result["estimated_time"])

	rec = env.get("/recycle/guide/search/?category=electronic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["results"], 1)

	rec = env.get("/recycle/guide/search/?q=nothing-matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["results"])
}

func TestGuidePages(t *testing.T) {
	env := newTestEnv(t)
	seedRecycling(t, env)

	rec := env.get("/recycle/guide/pet-bottles/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recycling PET bottles")
	assert.Contains(t, rec.Body.String(), "Plastic bags", "related guides from the same category")
	assert.NotContains(t, rec.Body.String(), "Old phones")

	env.get("/recycle/guide/pet-bottles/", nil)
	stored, err := env.store.GetGuide(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Views)

	rec = env.get("/recycle/guide/unknown/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.get("/recycle/guide/category/plastic/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plastic bags")

	rec = env.get("/recycle/guide/category/glass/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.get("/recycle/guide/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Old phones")
}
