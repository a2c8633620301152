package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/civicconnect/civic-services/internal/analytics"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/sirupsen/logrus"
)

const projectDateLayout = "02-01-2006"

// loadedNouns names each dataset in load-csv messages
var loadedNouns = map[string]string{
	ingest.DatasetProjects:    "projects",
	ingest.DatasetRoadPlans:   "road development plans",
	ingest.DatasetBottlenecks: "bottlenecks",
	ingest.DatasetMetro:       "metro updates",
}

type projectJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Sector        string   `json:"sector"`
	Status        string   `json:"status"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Budget        float64  `json:"budget"`
	Contractor    string   `json:"contractor"`
	Progress      int      `json:"progress"`
	Description   string   `json:"description"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ProgressColor string   `json:"progress_color"`
}

type metroJSON struct {
	models.MetroConstructionUpdate
	ProgressColor   string `json:"progress_color"`
	BudgetFormatted string `json:"budget_formatted"`
}

func toProjectJSON(projects []models.Project) []projectJSON {
	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON{
			ID:            p.ProjectID,
			Name:          p.ProjectName,
			Location:      p.Location,
			Sector:        p.Sector,
			Status:        string(p.Status),
			StartDate:     p.StartDate.Format(projectDateLayout),
			EndDate:       p.ExpectedCompletionDate.Format(projectDateLayout),
			Budget:        p.Budget,
			Contractor:    p.Contractor,
			Progress:      p.Progress,
			Description:   p.Description,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			ProgressColor: p.ProgressColor(),
		})
	}
	return out
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	h.writeProjects(w, r, models.ProjectFilter{})
}

func (h *Handler) filterProjects(w http.ResponseWriter, r *http.Request) {
	var filter models.ProjectFilter
	if err := decodeJSON(w, r, &filter); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	filter.Search = strings.TrimSpace(filter.Search)
	h.writeProjects(w, r, filter)
}

func (h *Handler) writeProjects(w http.ResponseWriter, r *http.Request, filter models.ProjectFilter) {
	projects, err := h.store.ListProjects(r.Context(), filter)
	if err != nil {
		logrus.Errorf("Failed to list projects: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load projects")
		return
	}
	respond.Data(w, toProjectJSON(projects))
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context(), models.ProjectFilter{})
	if err != nil {
		logrus.Errorf("Failed to list projects: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load trends")
		return
	}
	respond.Data(w, analytics.Trends(projects))
}

func (h *Handler) bottlenecks(w http.ResponseWriter, r *http.Request) {
	bottlenecks, err := h.store.ListBottlenecks(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list bottlenecks: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load bottlenecks")
		return
	}
	respond.Data(w, analytics.Bottlenecks(bottlenecks))
}

func (h *Handler) roadDevelopment(w http.ResponseWriter, r *http.Request) {
	plans, err := h.store.ListRoadPlans(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list road plans: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load road development data")
		return
	}
	respond.Data(w, analytics.RoadDevelopment(plans))
}

func (h *Handler) metroUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.store.ListMetroUpdates(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list metro updates: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load metro updates")
		return
	}

	out := make([]metroJSON, 0, len(updates))
	for _, u := range updates {
		out = append(out, metroJSON{
			MetroConstructionUpdate: u,
			ProgressColor:           u.ProgressColor(),
			BudgetFormatted:         u.BudgetFormatted(),
		})
	}
	respond.Data(w, out)
}

// loadCSV replaces one dataset from its file in the data directory
func (h *Handler) loadCSV(dataset string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.loader.Load(r.Context(), dataset)
		if err != nil {
			if errors.Is(err, ingest.ErrFileNotFound) {
				respond.Error(w, http.StatusNotFound, err.Error())
				return
			}
			logrus.Errorf("Failed to load %s: %v", dataset, err)
			respond.Error(w, http.StatusInternalServerError, err.Error())
			return
		}

		logrus.Infof("%s reloaded %s (%d rows)", currentUser(r).Username, dataset, count)
		respond.OK(w, respond.Fields{"message": fmt.Sprintf("Loaded %d %s", count, loadedNouns[dataset])})
	}
}
