package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	searchLimit   = 20
	relatedGuides = 3

	requestSubmitted = "Recycling request submitted successfully!"
	requestFailed    = "Failed to submit request. Please try again."
	progressSaved    = "Progress saved successfully"
	progressFailed   = "Failed to save progress"
	generateFailed   = "An error occurred while processing your request"
)

// centerZone is the local time used for opening hours
var centerZone = time.FixedZone("IST", 5*60*60+30*60)

type centerJSON struct {
	models.RecyclingCenter
	IsOpenNow bool `json:"is_open_now"`
}

type recyclingRequestBody struct {
	CenterID    int64  `json:"center_id"`
	WasteType   string `json:"waste_type"`
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
}

type generateRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
}

type progressRequest struct {
	GuideID   int64 `json:"guide_id"`
	Completed bool  `json:"completed"`
	TimeSpent int   `json:"time_spent"`
	QuizScore *int  `json:"quiz_score"`
}

type searchResult struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Category        string `json:"category"`
	DifficultyLevel string `json:"difficulty_level"`
	EstimatedTime   int    `json:"estimated_time"`
}

type mapPage struct {
	MapsKey string
}

type categoryPage struct {
	Category models.WasteCategory
	Guides   []models.RecyclingGuide
}

type guidePage struct {
	Guide    models.RecyclingGuide
	Related  []models.RecyclingGuide
	Progress *models.UserProgress
}

func (h *Handler) centerList(centers []models.RecyclingCenter) []centerJSON {
	now := h.now().In(centerZone)
	out := make([]centerJSON, 0, len(centers))
	for _, c := range centers {
		out = append(out, centerJSON{RecyclingCenter: c, IsOpenNow: c.IsOpenAt(now)})
	}
	return out
}

func (h *Handler) recyclingMap(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "recycle_map", "Recycling map", mapPage{MapsKey: h.mapsKey})
}

// centers lists active centers, or the sample set while none are loaded
func (h *Handler) centers(w http.ResponseWriter, r *http.Request) {
	centers, err := h.store.ListActiveCenters(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list recycling centers: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load recycling centers")
		return
	}
	if len(centers) == 0 {
		centers = sampleCenters
	}
	respond.JSON(w, http.StatusOK, respond.Fields{"centers": h.centerList(centers)})
}

func (h *Handler) sampleCentersAPI(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, respond.Fields{"centers": h.centerList(sampleCenters)})
}

func (h *Handler) submitRecyclingRequest(w http.ResponseWriter, r *http.Request) {
	var body recyclingRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, requestFailed)
		return
	}
	if body.CenterID == 0 || strings.TrimSpace(body.WasteType) == "" || strings.TrimSpace(body.Quantity) == "" {
		respond.Error(w, http.StatusBadRequest, requestFailed)
		return
	}

	user := currentUser(r)
	request, err := h.store.CreateRecyclingRequest(r.Context(), models.RecyclingRequest{
		UserID:      user.ID,
		CenterID:    body.CenterID,
		WasteType:   strings.TrimSpace(body.WasteType),
		Quantity:    strings.TrimSpace(body.Quantity),
		Description: strings.TrimSpace(body.Description),
		Status:      models.RequestPending,
	})
	if err != nil {
		logrus.Errorf("Error submitting recycling request: %v", err)
		status := http.StatusInternalServerError
		if isNotFound(err) {
			status = http.StatusNotFound
		}
		respond.Error(w, status, requestFailed)
		return
	}

	respond.OK(w, respond.Fields{"message": requestSubmitted, "request_id": request.ID})
}

func (h *Handler) routeDirections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := []string{q.Get("start_lat"), q.Get("start_lng"), q.Get("end_lat"), q.Get("end_lng")}
	coords := make([]float64, len(raw))
	for i, v := range raw {
		if v == "" {
			respond.Error(w, http.StatusBadRequest, "Missing coordinates")
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid coordinates")
			return
		}
		coords[i] = f
	}

	start := clients.Point{Lat: coords[0], Lng: coords[1]}
	end := clients.Point{Lat: coords[2], Lng: coords[3]}
	route, err := h.routes.Directions(r.Context(), start, end)
	if err != nil {
		logrus.Errorf("OpenRouteService API error: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to get route directions")
		return
	}
	respond.OK(w, respond.Fields{"route": route})
}

func (h *Handler) myRequestsPage(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListRecyclingRequests(r.Context(), currentUser(r).ID)
	if err != nil {
		logrus.Errorf("Failed to list recycling requests: %v", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load your requests")
		return
	}
	h.render(w, r, http.StatusOK, "my_requests", "My recycling requests", requests)
}

func (h *Handler) myRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListRecyclingRequests(r.Context(), currentUser(r).ID)
	if err != nil {
		logrus.Errorf("Failed to list recycling requests: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}
	if requests == nil {
		requests = []models.RecyclingRequest{}
	}
	respond.OK(w, respond.Fields{"requests": requests})
}

func (h *Handler) guideIndex(w http.ResponseWriter, r *http.Request) {
	guides, err := h.store.ListGuides(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list guides: %v", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load recycling guides")
		return
	}
	h.render(w, r, http.StatusOK, "guide_index", "Recycling guide", guides)
}

func (h *Handler) guideCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.store.GetCategoryBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		if isNotFound(err) {
			h.renderError(w, r, http.StatusNotFound, "Category not found")
			return
		}
		logrus.Errorf("Failed to load category: %v", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load category")
		return
	}

	guides, err := h.store.ListGuidesByCategory(r.Context(), category.ID)
	if err != nil {
		logrus.Errorf("Failed to list guides for %s: %v", category.Slug, err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load category")
		return
	}
	h.render(w, r, http.StatusOK, "guide_category", category.Name, categoryPage{Category: category, Guides: guides})
}

func (h *Handler) guideDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guide, err := h.store.GetGuideBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		if isNotFound(err) {
			h.renderError(w, r, http.StatusNotFound, "Guide not found")
			return
		}
		logrus.Errorf("Failed to load guide: %v", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load guide")
		return
	}

	if err := h.store.IncrementGuideViews(ctx, guide.ID); err != nil {
		logrus.Warnf("Failed to count view of guide %d: %v", guide.ID, err)
	} else {
		guide.Views++
	}

	related, err := h.store.RelatedGuides(ctx, guide, relatedGuides)
	if err != nil {
		logrus.Warnf("Failed to load related guides for %d: %v", guide.ID, err)
	}

	page := guidePage{Guide: guide, Related: related}
	if user, ok := auth.UserFromContext(ctx); ok {
		progress, err := h.store.GetProgress(ctx, user.ID, guide.ID)
		switch {
		case err == nil:
			page.Progress = &progress
		case !isNotFound(err):
			logrus.Warnf("Failed to load progress of %s on guide %d: %v", user.Username, guide.ID, err)
		}
	}
	h.render(w, r, http.StatusOK, "guide_detail", guide.Title, page)
}

func (h *Handler) generateGuide(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logrus.Errorf("Error in generate guide content: %v", err)
		respond.Error(w, http.StatusInternalServerError, generateFailed)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		respond.Error(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	result := h.guide.Generate(r.Context(), prompt, req.Language)
	fields := respond.Fields{"content": result.Content}
	if result.Source != "" {
		fields["source"] = result.Source
	}
	respond.OK(w, fields)
}

// saveProgress creates or updates the user's progress on a guide
func (h *Handler) saveProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, progressFailed)
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	progress, err := h.store.GetProgress(ctx, user.ID, req.GuideID)
	if err != nil && !isNotFound(err) {
		logrus.Errorf("Error loading user progress: %v", err)
		respond.Error(w, http.StatusInternalServerError, progressFailed)
		return
	}

	progress.UserID = user.ID
	progress.GuideID = req.GuideID
	progress.Completed = req.Completed
	progress.TimeSpent = req.TimeSpent
	if req.QuizScore != nil {
		progress.QuizScore = req.QuizScore
	}
	if req.Completed {
		completedAt := h.now().UTC()
		progress.CompletedAt = &completedAt
	}

	if err := h.store.SaveProgress(ctx, progress); err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Guide not found")
			return
		}
		logrus.Errorf("Error saving user progress: %v", err)
		respond.Error(w, http.StatusInternalServerError, progressFailed)
		return
	}

	respond.OK(w, respond.Fields{"message": progressSaved})
}

func (h *Handler) searchGuides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	guides, err := h.store.SearchGuides(r.Context(), strings.TrimSpace(q.Get("q")), q.Get("category"), searchLimit)
	if err != nil {
		logrus.Errorf("Failed to search guides: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Search failed")
		return
	}

	results := make([]searchResult, 0, len(guides))
	for _, g := range guides {
		results = append(results, searchResult{
			ID:              g.ID,
			Title:           g.Title,
			Slug:            g.Slug,
			Category:        g.CategoryName,
			DifficultyLevel: g.DifficultyLevel,
			EstimatedTime:   g.EstimatedTime,
		})
	}
	respond.JSON(w, http.StatusOK, respond.Fields{"results": results})
}
