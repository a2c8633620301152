// Package handlers exposes the portal's HTML pages and JSON endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/guide"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/civicconnect/civic-services/internal/middleware"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/civicconnect/civic-services/internal/sos"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/civicconnect/civic-services/internal/web"
	"github.com/gorilla/mux"
)

// GuideGenerator answers recycling questions
type GuideGenerator interface {
	Generate(ctx context.Context, prompt, language string) guide.Result
}

// EmergencyService handles SOS submissions
type EmergencyService interface {
	Submit(ctx context.Context, user models.User, req sos.Request) (*sos.Response, error)
	PageKey(ctx context.Context) string
	History(ctx context.Context, user models.User) ([]models.EmergencyRequest, error)
}

// RouteFinder returns driving directions between two points
type RouteFinder interface {
	Directions(ctx context.Context, start, end clients.Point) (json.RawMessage, error)
}

// DatasetLoader reloads one CSV dataset
type DatasetLoader interface {
	Load(ctx context.Context, dataset string) (int, error)
}

// Importer reloads every CSV dataset and reports the outcome
type Importer interface {
	RunAll(ctx context.Context, trigger string) (*models.ImportReport, error)
}

// Dependencies are the services the handlers are built from
type Dependencies struct {
	Store         store.Store
	Media         storage.StorageInterface
	Auth          *auth.Manager
	Pages         *web.Renderer
	Guide         GuideGenerator
	SOS           EmergencyService
	Routes        RouteFinder
	Loader        DatasetLoader
	Importer      Importer
	Limiter       *middleware.RateLimiter
	MapsKey       string
	ImportTimeout time.Duration
}

// Handler serves every route of the portal
type Handler struct {
	store         store.Store
	media         storage.StorageInterface
	auth          *auth.Manager
	pages         *web.Renderer
	guide         GuideGenerator
	sos           EmergencyService
	routes        RouteFinder
	loader        DatasetLoader
	importer      Importer
	limiter       *middleware.RateLimiter
	mapsKey       string
	importTimeout time.Duration
	now           func() time.Time
}

// New creates a handler from deps
func New(deps Dependencies) *Handler {
	importTimeout := deps.ImportTimeout
	if importTimeout == 0 {
		importTimeout = 10 * time.Minute
	}
	return &Handler{
		store:         deps.Store,
		media:         deps.Media,
		auth:          deps.Auth,
		pages:         deps.Pages,
		guide:         deps.Guide,
		sos:           deps.SOS,
		routes:        deps.Routes,
		loader:        deps.Loader,
		importer:      deps.Importer,
		limiter:       deps.Limiter,
		mapsKey:       deps.MapsKey,
		importTimeout: importTimeout,
		now:           time.Now,
	}
}

// Router builds the mux router with the shared middleware chain
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.AccessLog, metrics.InstrumentHandler, h.auth.LoadUser)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
	})

	// Ops
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/media/{path:.+}", h.serveMedia).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/discussions/", http.StatusFound)
	}).Methods(http.MethodGet)

	// Users
	r.HandleFunc("/login", h.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/register", h.registerPage).Methods(http.MethodGet)
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)

	// Discussions
	r.Handle("/discussions/", authed(h.discussionsPage)).Methods(http.MethodGet)
	r.Handle("/api/discussions/", authed(h.listDiscussions)).Methods(http.MethodGet)
	r.Handle("/discussions/create/", authed(h.createDiscussion)).Methods(http.MethodPost)
	r.Handle("/discussions/{id:[0-9]+}/comment/", authed(h.addComment)).Methods(http.MethodPost)
	r.Handle("/discussions/{id:[0-9]+}/comments/", authed(h.listComments)).Methods(http.MethodGet)
	r.Handle("/discussions/{id:[0-9]+}/upvote/", authed(h.toggleUpvote)).Methods(http.MethodPost)
	r.Handle("/discussions/{id:[0-9]+}/delete/", authed(h.deleteDiscussion)).Methods(http.MethodPost)

	// Complaints
	r.Handle("/complaints/", authed(h.createComplaint)).Methods(http.MethodPost)
	r.Handle("/complaints/mine/", authed(h.myComplaints)).Methods(http.MethodGet)
	r.Handle("/api/complaints/", staffOnly(h.listComplaints)).Methods(http.MethodGet)
	r.Handle("/complaints/{id:[0-9]+}/status/", staffOnly(h.updateComplaintStatus)).Methods(http.MethodPost)

	// Logistics
	r.HandleFunc("/projects/", h.page("projects", "Infrastructure projects")).Methods(http.MethodGet)
	r.HandleFunc("/officials/", h.page("officials", "Officials dashboard")).Methods(http.MethodGet)
	r.HandleFunc("/officials/trends/", h.page("trends", "Project trends")).Methods(http.MethodGet)
	r.HandleFunc("/officials/bottlenecks/", h.page("bottlenecks", "Project bottlenecks")).Methods(http.MethodGet)
	r.HandleFunc("/officials/road-analytics/", h.page("road_analytics", "Road development analytics")).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/", h.listProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/filter/", h.filterProjects).Methods(http.MethodPost)
	r.HandleFunc("/api/trends/", h.trends).Methods(http.MethodGet)
	r.HandleFunc("/api/bottlenecks/", h.bottlenecks).Methods(http.MethodGet)
	r.HandleFunc("/api/road-development/", h.roadDevelopment).Methods(http.MethodGet)
	r.HandleFunc("/api/metro/", h.metroUpdates).Methods(http.MethodGet)
	r.Handle("/api/projects/load-csv/", staffOnly(h.loadCSV(ingest.DatasetProjects))).Methods(http.MethodPost)
	r.Handle("/api/road-development/load-csv/", staffOnly(h.loadCSV(ingest.DatasetRoadPlans))).Methods(http.MethodPost)
	r.Handle("/api/bottlenecks/load-csv/", staffOnly(h.loadCSV(ingest.DatasetBottlenecks))).Methods(http.MethodPost)
	r.Handle("/api/metro/load-csv/", staffOnly(h.loadCSV(ingest.DatasetMetro))).Methods(http.MethodPost)
	r.Handle("/api/imports/run/", staffOnly(h.triggerImport)).Methods(http.MethodPost)

	// Recycling
	r.HandleFunc("/recycle/map/", h.recyclingMap).Methods(http.MethodGet)
	r.Handle("/recycle/my-requests/", authed(h.myRequestsPage)).Methods(http.MethodGet)
	r.Handle("/recycle/request/", authed(h.submitRecyclingRequest)).Methods(http.MethodPost)
	r.HandleFunc("/recycle/route/", h.routeDirections).Methods(http.MethodGet)
	r.HandleFunc("/recycle/centers/", h.centers).Methods(http.MethodGet)
	r.HandleFunc("/recycle/api/sample-centers/", h.sampleCentersAPI).Methods(http.MethodGet)
	r.Handle("/recycle/api/my-requests/", authed(h.myRequests)).Methods(http.MethodGet)
	r.HandleFunc("/recycle/guide/", h.guideIndex).Methods(http.MethodGet)
	r.Handle("/recycle/guide/generate/", h.limiter.Handler(http.HandlerFunc(h.generateGuide))).Methods(http.MethodPost)
	r.Handle("/recycle/guide/progress/", authed(h.saveProgress)).Methods(http.MethodPost)
	r.HandleFunc("/recycle/guide/search/", h.searchGuides).Methods(http.MethodGet)
	r.HandleFunc("/recycle/guide/category/{slug}/", h.guideCategory).Methods(http.MethodGet)
	r.HandleFunc("/recycle/guide/{slug}/", h.guideDetail).Methods(http.MethodGet)

	// SOS
	r.Handle("/sos/", authed(h.sosPage)).Methods(http.MethodGet)
	r.Handle("/sos/submit/", auth.RequireAuth(h.limiter.Handler(http.HandlerFunc(h.submitSOS)))).Methods(http.MethodPost)
	r.Handle("/sos/history/", authed(h.sosHistory)).Methods(http.MethodGet)

	return r
}

func authed(fn http.HandlerFunc) http.Handler {
	return auth.RequireAuth(fn)
}

func staffOnly(fn http.HandlerFunc) http.Handler {
	return auth.RequireStaff(fn)
}

// page renders a template that loads its data client side
func (h *Handler) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, name, title, nil)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	page := web.Page{Title: title, Data: data}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		page.User = &user
	}
	h.pages.Render(w, status, name, page)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", http.StatusText(status), message)
}

func currentUser(r *http.Request) models.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
