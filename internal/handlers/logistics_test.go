package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProjects(t *testing.T, env *testEnv) {
	t.Helper()
	lat, lng := 19.07, 72.87
	_, err := env.store.ReplaceProjects(context.Background(), []models.Project{
		{
			ProjectID:              "P001",
			ProjectName:            "Coastal Road Phase 1",
			Location:               "Marine Drive",
			Sector:                 "Roads",
			Status:                 models.ProjectOngoing,
			StartDate:              time.Date(2021, time.March, 5, 0, 0, 0, 0, time.UTC),
			ExpectedCompletionDate: time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
			Budget:                 12721,
			Contractor:             "L&T",
			Progress:               80,
			Latitude:               &lat,
			Longitude:              &lng,
		},
		{
			ProjectID:              "P002",
			ProjectName:            "Metro Line 3",
			Location:               "Colaba",
			Sector:                 "Metro",
			Status:                 models.ProjectDelayed,
			StartDate:              time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
			ExpectedCompletionDate: time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
			Budget:                 33405,
			Contractor:             "MMRCL",
			Progress:               95,
		},
	})
	require.NoError(t, err)
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	seedProjects(t, env)

	rec := env.get("/api/projects/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	projects := body["data"].([]any)
	require.Len(t, projects, 2)
	byID := map[string]map[string]any{}
	for _, p := range projects {
		m := p.(map[string]any)
		byID[m["id"].(string)] = m
	}

	coastal := byID["P001"]
	assert.Equal(t, "05-03-2021", coastal["start_date"])
	assert.Equal(t, "31-12-2025", coastal["end_date"])
	assert.Equal(t, models.ColorBlue, coastal["progress_color"])
	assert.Equal(t, 19.07, coastal["latitude"])

	metro := byID["P002"]
	assert.Equal(t, models.ColorRed, metro["progress_color"])
	assert.Nil(t, metro["latitude"])
}

func TestFilterProjects(t *testing.T) {
	tests := []struct {
		name   string
		filter map[string]string
		want   []string
	}{
		{name: "all statuses", filter: map[string]string{"status": "All"}, want: []string{"P001", "P002"}},
		{name: "by status", filter: map[string]string{"status": "Delayed"}, want: []string{"P002"}},
		{name: "by search", filter: map[string]string{"search": "  marine "}, want: []string{"P001"}},
		{name: "no match", filter: map[string]string{"status": "Completed"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedProjects(t, env)

			rec := env.postJSON("/api/projects/filter/", tt.filter, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			got := []string{}
			for _, p := range decodeBody(t, rec)["data"].([]any) {
				got = append(got, p.(map[string]any)["id"].(string))
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestTrendsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	seedProjects(t, env)

	rec := env.get("/api/trends/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Len(t, data["status_distribution"], 2)
	assert.Len(t, data["budget_by_sector"], 2)

	rec = env.get("/api/bottlenecks/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = env.get("/api/road-development/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestMetroUpdatesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.ReplaceMetroUpdates(context.Background(), []models.MetroConstructionUpdate{{
		ProjectID:           "M1",
		City:                "Mumbai",
		ProjectName:         "Line 2B",
		Length:              23.6,
		Status:              models.RoadUnderConstruction,
		EstimatedCompletion: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		CurrentProgress:     "45",
		Budget:              10986,
	}})
	require.NoError(t, err)

	rec := env.get("/api/metro/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updates := decodeBody(t, rec)["data"].([]any)
	require.Len(t, updates, 1)
	update := updates[0].(map[string]any)
	assert.Equal(t, "Line 2B", update["project_name"])
	assert.Equal(t, models.ColorBlue, update["progress_color"])
	assert.Equal(t, "₹10986.00 Cr", update["budget_formatted"])
}

func TestLoadCSV(t *testing.T) {
	env := newTestEnv(t)
	official := env.login("official", true)
	citizen := env.login("asha", false)

	env.loader.On("Load", ingest.DatasetRoadPlans).Return(5, nil).Once()
	env.loader.On("Load", ingest.DatasetMetro).
		Return(0, fmt.Errorf("metro_updates.csv: %w", ingest.ErrFileNotFound)).Once()
	env.loader.On("Load", ingest.DatasetProjects).Return(0, fmt.Errorf("row 3: invalid date")).Once()

	rec := env.do(http.MethodPost, "/api/road-development/load-csv/", nil, "", official)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Loaded 5 road development plans", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/api/metro/load-csv/", nil, "", official)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "metro_updates.csv")

	rec = env.do(http.MethodPost, "/api/projects/load-csv/", nil, "", official)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "row 3: invalid date", decodeBody(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/bottlenecks/load-csv/", nil, "", citizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.loader.AssertExpectations(t)
}

func TestDashboardPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/projects/", "/officials/", "/officials/trends/", "/officials/bottlenecks/", "/officials/road-analytics/"} {
		rec := env.get(path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}
