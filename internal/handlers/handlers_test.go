package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/guide"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/middleware"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/sos"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/civicconnect/civic-services/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

// MockGuide is a mock implementation of GuideGenerator
type MockGuide struct {
	mock.Mock
}

func (m *MockGuide) Generate(ctx context.Context, prompt, language string) guide.Result {
	args := m.Called(prompt, language)
	return args.Get(0).(guide.Result)
}

// MockEmergency is a mock implementation of EmergencyService
type MockEmergency struct {
	mock.Mock
}

func (m *MockEmergency) Submit(ctx context.Context, user models.User, req sos.Request) (*sos.Response, error) {
	args := m.Called(user.Username, req)
	resp, _ := args.Get(0).(*sos.Response)
	return resp, args.Error(1)
}

func (m *MockEmergency) PageKey(ctx context.Context) string {
	return m.Called().String(0)
}

func (m *MockEmergency) History(ctx context.Context, user models.User) ([]models.EmergencyRequest, error) {
	args := m.Called(user.Username)
	history, _ := args.Get(0).([]models.EmergencyRequest)
	return history, args.Error(1)
}

// MockRoutes is a mock implementation of RouteFinder
type MockRoutes struct {
	mock.Mock
}

func (m *MockRoutes) Directions(ctx context.Context, start, end clients.Point) (json.RawMessage, error) {
	args := m.Called(start, end)
	route, _ := args.Get(0).(json.RawMessage)
	return route, args.Error(1)
}

// MockLoader is a mock implementation of DatasetLoader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, dataset string) (int, error) {
	args := m.Called(dataset)
	return args.Int(0), args.Error(1)
}

// MockImporter is a mock implementation of Importer
type MockImporter struct {
	mock.Mock
	done chan string
}

func (m *MockImporter) RunAll(ctx context.Context, trigger string) (*models.ImportReport, error) {
	args := m.Called(trigger)
	if m.done != nil {
		m.done <- trigger
	}
	return &models.ImportReport{Trigger: trigger}, args.Error(0)
}

type testEnv struct {
	t        *testing.T
	store    *store.Memory
	media    *storage.LocalStorage
	manager  *auth.Manager
	router   http.Handler
	guide    *MockGuide
	sos      *MockEmergency
	routes   *MockRoutes
	loader   *MockLoader
	importer *MockImporter
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimiter(t, middleware.NewRateLimiter(1000, 1000))
}

func newTestEnvWithLimiter(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	media, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	pages, err := web.New()
	require.NoError(t, err)

	st := store.NewMemory()
	manager := auth.NewManager(auth.NewCookieStore("test-session-secret-0123456789abcdef", false), st)

	env := &testEnv{
		t:        t,
		store:    st,
		media:    media,
		manager:  manager,
		guide:    new(MockGuide),
		sos:      new(MockEmergency),
		routes:   new(MockRoutes),
		loader:   new(MockLoader),
		importer: &MockImporter{done: make(chan string, 1)},
	}

	h := New(Dependencies{
		Store:    st,
		Media:    media,
		Auth:     manager,
		Pages:    pages,
		Guide:    env.guide,
		SOS:      env.sos,
		Routes:   env.routes,
		Loader:   env.loader,
		Importer: env.importer,
		Limiter:  limiter,
		MapsKey:  "maps-key",
	})
	env.router = h.Router()
	return env
}

// login registers username and returns its session cookie
func (e *testEnv) login(username string, staff bool) *http.Cookie {
	e.t.Helper()

	_, err := e.manager.Register(context.Background(), auth.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
		IsStaff:  staff,
	})
	require.NoError(e.t, err)

	form := url.Values{"username": {username}, "password": {testPassword}}
	rec := e.do(http.MethodPost, "/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil)
	require.Equal(e.t, http.StatusSeeOther, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName {
			return c
		}
	}
	e.t.Fatalf("login for %s did not set a session cookie", username)
	return nil
}

func (e *testEnv) do(method, target string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, target, nil, "", cookie)
}

func (e *testEnv) postJSON(target string, payload any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(e.t, err)
	return e.do(http.MethodPost, target, bytes.NewReader(body), "application/json", cookie)
}

func (e *testEnv) postMultipart(target string, fields map[string]string, filename string, data []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	return e.do(http.MethodPost, target, &buf, mw.FormDataContentType(), cookie)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.get("/health", nil)

	rec := env.get("/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "civic_http_requests_total")
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/nowhere/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	rec = env.do(http.MethodDelete, "/api/projects/", nil, "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Invalid request method", decodeBody(t, rec)["error"])
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("api request gets 401", func(t *testing.T) {
		rec := env.get("/api/discussions/", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeBody(t, rec)["error"])
	})

	t.Run("page request redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/discussions/", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next=%2Fdiscussions%2F", rec.Header().Get("Location"))
	})

	t.Run("staff route rejects citizens", func(t *testing.T) {
		cookie := env.login("citizen", false)
		rec := env.get("/api/complaints/", cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Staff access required", decodeBody(t, rec)["error"])
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.manager.Register(context.Background(), auth.Registration{Username: "asha", Password: testPassword})
	require.NoError(t, err)

	tests := []struct {
		name     string
		form     url.Values
		status   int
		location string
	}{
		{
			name:   "wrong password",
			form:   url.Values{"username": {"asha"}, "password": {"nope-nope"}},
			status: http.StatusUnauthorized,
		},
		{
			name:     "default landing",
			form:     url.Values{"username": {"asha"}, "password": {testPassword}},
			status:   http.StatusSeeOther,
			location: "/discussions/",
		},
		{
			name:     "local next",
			form:     url.Values{"username": {"asha"}, "password": {testPassword}, "next": {"/sos/"}},
			status:   http.StatusSeeOther,
			location: "/sos/",
		},
		{
			name:     "external next is ignored",
			form:     url.Values{"username": {"asha"}, "password": {testPassword}, "next": {"//evil.example"}},
			status:   http.StatusSeeOther,
			location: "/discussions/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/login", strings.NewReader(tt.form.Encode()), "application/x-www-form-urlencoded", nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			} else {
				assert.Contains(t, rec.Body.String(), "Invalid username or password")
			}
		})
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		return env.do(http.MethodPost, "/register", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil)
	}

	rec := post(url.Values{"username": {"ravi"}, "password": {testPassword}, "confirm_password": {"different1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")

	rec = post(url.Values{"username": {"ravi"}, "password": {"short"}, "confirm_password": {"short"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 8 characters")

	rec = post(url.Values{"username": {"ravi"}, "password": {testPassword}, "confirm_password": {testPassword}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = post(url.Values{"username": {"ravi"}, "password": {testPassword}, "confirm_password": {testPassword}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("asha", false)

	rec := env.do(http.MethodPost, "/logout", nil, "", cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"))
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestServeMedia(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.media.Store(context.Background(), "discussions/1/photo.png", []byte("png-bytes")))

	rec := env.get("/media/discussions/1/photo.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = env.get("/media/discussions/1/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMedia_SnapshotsStaffOnly(t *testing.T) {
	env := newTestEnv(t)
	name := ingest.SnapshotPrefix + "report.json"
	require.NoError(t, env.media.Store(context.Background(), name, []byte(`{"errors":["db down"]}`)))

	tests := []struct {
		name     string
		cookie   func() *http.Cookie
		wantCode int
	}{
		{"anonymous", func() *http.Cookie { return nil }, http.StatusNotFound},
		{"citizen", func() *http.Cookie { return env.login("citizen", false) }, http.StatusNotFound},
		{"staff", func() *http.Cookie { return env.login("official", true) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get("/media/"+name, tt.cookie())
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusNotFound {
				assert.NotContains(t, rec.Body.String(), "db down")
			}
		})
	}
}

func TestTriggerImport(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("official", true)
	env.importer.On("RunAll", "manual").Return(nil)

	rec := env.do(http.MethodPost, "/api/imports/run/", nil, "", cookie)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "manual", <-env.importer.done)
	env.importer.AssertExpectations(t)
}
