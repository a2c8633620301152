package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
)

// Memory is an in-process Store for development and tests. Data is lost on
// restart.
type Memory struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID map[string]int64

	users       map[int64]models.User
	discussions map[int64]models.Discussion
	comments    map[int64]models.Comment
	likes       map[int64]map[int64]bool // discussion -> user set
	complaints  map[int64]models.Complaint

	projects    []models.Project
	roadPlans   []models.RoadDevelopmentPlan
	bottlenecks []models.ProjectBottleneck
	metro       []models.MetroConstructionUpdate

	centers    map[int64]models.RecyclingCenter
	categories map[int64]models.WasteCategory
	guides     map[int64]models.RecyclingGuide
	requests   map[int64]models.RecyclingRequest
	progress   map[[2]int64]models.UserProgress

	emergencies map[int64]models.EmergencyRequest
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		now:         func() time.Time { return time.Now().UTC() },
		nextID:      make(map[string]int64),
		users:       make(map[int64]models.User),
		discussions: make(map[int64]models.Discussion),
		comments:    make(map[int64]models.Comment),
		likes:       make(map[int64]map[int64]bool),
		complaints:  make(map[int64]models.Complaint),
		centers:     make(map[int64]models.RecyclingCenter),
		categories:  make(map[int64]models.WasteCategory),
		guides:      make(map[int64]models.RecyclingGuide),
		requests:    make(map[int64]models.RecyclingRequest),
		progress:    make(map[[2]int64]models.UserProgress),
		emergencies: make(map[int64]models.EmergencyRequest),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }

// id must be called with the write lock held
func (m *Memory) id(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

// --- users ------------------------------------------------------------------

func (m *Memory) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return models.User{}, fmt.Errorf("username %q: %w", user.Username, ErrConflict)
		}
	}
	user.ID = m.id("users")
	user.CreatedAt = m.now()
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// --- discussions ------------------------------------------------------------

func (m *Memory) CreateDiscussion(ctx context.Context, d models.Discussion) (models.Discussion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[d.UserID]
	if !ok {
		return models.Discussion{}, fmt.Errorf("user %d: %w", d.UserID, ErrNotFound)
	}
	d.ID = m.id("discussions")
	d.Username = user.Username
	d.LikesCount = 0
	d.CreatedAt = m.now()
	m.discussions[d.ID] = d
	return d, nil
}

func (m *Memory) GetDiscussion(ctx context.Context, id int64) (models.Discussion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.discussions[id]
	if !ok {
		return models.Discussion{}, ErrNotFound
	}
	d.LikesCount = len(m.likes[id])
	return d, nil
}

func (m *Memory) ListDiscussions(ctx context.Context) ([]models.Discussion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Discussion, 0, len(m.discussions))
	for _, d := range m.discussions {
		d.LikesCount = len(m.likes[d.ID])
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (m *Memory) SetDiscussionImage(ctx context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.discussions[id]
	if !ok {
		return ErrNotFound
	}
	d.Image = path
	m.discussions[id] = d
	return nil
}

func (m *Memory) DeleteDiscussion(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.discussions[id]; !ok {
		return ErrNotFound
	}
	delete(m.discussions, id)
	delete(m.likes, id)
	for cid, c := range m.comments {
		if c.DiscussionID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *Memory) AddComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.discussions[c.DiscussionID]; !ok {
		return models.Comment{}, fmt.Errorf("discussion %d: %w", c.DiscussionID, ErrNotFound)
	}
	user, ok := m.users[c.UserID]
	if !ok {
		return models.Comment{}, fmt.Errorf("user %d: %w", c.UserID, ErrNotFound)
	}
	c.ID = m.id("comments")
	c.Username = user.Username
	c.CreatedAt = m.now()
	m.comments[c.ID] = c
	return c, nil
}

func (m *Memory) ListComments(ctx context.Context, discussionID int64) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.discussions[discussionID]; !ok {
		return nil, ErrNotFound
	}
	result := []models.Comment{}
	for _, c := range m.comments {
		if c.DiscussionID == discussionID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (m *Memory) ToggleLike(ctx context.Context, discussionID, userID int64) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.discussions[discussionID]; !ok {
		return false, 0, ErrNotFound
	}
	set := m.likes[discussionID]
	if set == nil {
		set = make(map[int64]bool)
		m.likes[discussionID] = set
	}

	if set[userID] {
		delete(set, userID)
		return false, len(set), nil
	}
	set[userID] = true
	return true, len(set), nil
}

// --- complaints -------------------------------------------------------------

func (m *Memory) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[c.UserID]
	if !ok {
		return models.Complaint{}, fmt.Errorf("user %d: %w", c.UserID, ErrNotFound)
	}
	c.ID = m.id("complaints")
	c.Username = user.Username
	if c.Status == "" {
		c.Status = models.ComplaintPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	m.complaints[c.ID] = c
	return c, nil
}

func (m *Memory) GetComplaint(ctx context.Context, id int64) (models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.complaints[id]
	if !ok {
		return models.Complaint{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListComplaints(ctx context.Context, userID int64) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.Complaint{}
	for _, c := range m.complaints {
		if userID == 0 || c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (m *Memory) SetComplaintImage(ctx context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return ErrNotFound
	}
	c.Image = path
	m.complaints[id] = c
	return nil
}

func (m *Memory) UpdateComplaintStatus(ctx context.Context, id int64, status models.ComplaintStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.complaints[id] = c
	return nil
}

// --- infrastructure ---------------------------------------------------------

func (m *Memory) ReplaceProjects(ctx context.Context, projects []models.Project) (int, error) {
	seen := make(map[string]bool, len(projects))
	now := m.now()
	replaced := make([]models.Project, len(projects))
	for i, p := range projects {
		if seen[p.ProjectID] {
			return 0, fmt.Errorf("project %s: %w", p.ProjectID, ErrConflict)
		}
		seen[p.ProjectID] = true
		p.CreatedAt, p.UpdatedAt = now, now
		replaced[i] = p
	}
	sort.SliceStable(replaced, func(i, j int) bool { return replaced[i].StartDate.After(replaced[j].StartDate) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = replaced
	return len(m.projects), nil
}

func (m *Memory) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := []models.Project{}
	for _, p := range m.projects {
		if filter.Status != "" && filter.Status != "All" && string(p.Status) != filter.Status {
			continue
		}
		if search != "" && !containsAny(search, p.ProjectName, p.Location, p.Sector, p.Contractor) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *Memory) ReplaceRoadPlans(ctx context.Context, plans []models.RoadDevelopmentPlan) (int, error) {
	now := m.now()
	replaced := make([]models.RoadDevelopmentPlan, len(plans))
	for i, p := range plans {
		p.ID = int64(i + 1)
		p.CreatedAt = now
		replaced[i] = p
	}
	sort.SliceStable(replaced, func(i, j int) bool { return replaced[i].StartYear > replaced[j].StartYear })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.roadPlans = replaced
	return len(m.roadPlans), nil
}

func (m *Memory) ListRoadPlans(ctx context.Context) ([]models.RoadDevelopmentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.RoadDevelopmentPlan{}, m.roadPlans...), nil
}

func (m *Memory) ReplaceBottlenecks(ctx context.Context, bottlenecks []models.ProjectBottleneck) (int, error) {
	seen := make(map[string]bool, len(bottlenecks))
	now := m.now()
	replaced := make([]models.ProjectBottleneck, len(bottlenecks))
	for i, b := range bottlenecks {
		if seen[b.BottleneckID] {
			return 0, fmt.Errorf("bottleneck %s: %w", b.BottleneckID, ErrConflict)
		}
		seen[b.BottleneckID] = true
		b.CreatedAt = now
		replaced[i] = b
	}
	sort.SliceStable(replaced, func(i, j int) bool { return replaced[i].ReportedDate.After(replaced[j].ReportedDate) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bottlenecks = replaced
	return len(m.bottlenecks), nil
}

func (m *Memory) ListBottlenecks(ctx context.Context) ([]models.ProjectBottleneck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.ProjectBottleneck{}, m.bottlenecks...), nil
}

func (m *Memory) ReplaceMetroUpdates(ctx context.Context, updates []models.MetroConstructionUpdate) (int, error) {
	seen := make(map[string]bool, len(updates))
	now := m.now()
	replaced := make([]models.MetroConstructionUpdate, len(updates))
	for i, u := range updates {
		if seen[u.ProjectID] {
			return 0, fmt.Errorf("metro project %s: %w", u.ProjectID, ErrConflict)
		}
		seen[u.ProjectID] = true
		u.CreatedAt = now
		replaced[i] = u
	}
	sort.SliceStable(replaced, func(i, j int) bool {
		return replaced[i].EstimatedCompletion.After(replaced[j].EstimatedCompletion)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.metro = replaced
	return len(m.metro), nil
}

func (m *Memory) ListMetroUpdates(ctx context.Context) ([]models.MetroConstructionUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.MetroConstructionUpdate{}, m.metro...), nil
}

// --- recycling --------------------------------------------------------------

func (m *Memory) UpsertRecyclingReference(ctx context.Context, fixtures models.RecyclingFixtures) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range fixtures.Categories {
		if c.ID == 0 {
			return fmt.Errorf("category %q has no id", c.Slug)
		}
		m.categories[c.ID] = c
	}
	for _, g := range fixtures.Guides {
		if g.ID == 0 {
			return fmt.Errorf("guide %q has no id", g.Slug)
		}
		if _, ok := m.categories[g.CategoryID]; !ok {
			return fmt.Errorf("guide %q category %d: %w", g.Slug, g.CategoryID, ErrNotFound)
		}
		if existing, ok := m.guides[g.ID]; ok {
			g.Views = existing.Views
			g.CreatedAt = existing.CreatedAt
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = m.now()
		}
		m.guides[g.ID] = g
	}
	for _, c := range fixtures.Centers {
		if c.ID == 0 {
			return fmt.Errorf("center %q has no id", c.Name)
		}
		m.centers[c.ID] = c
	}
	return nil
}

func (m *Memory) ListActiveCenters(ctx context.Context) ([]models.RecyclingCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.RecyclingCenter{}
	for _, c := range m.centers {
		if c.IsActive {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetCenter(ctx context.Context, id int64) (models.RecyclingCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.centers[id]
	if !ok {
		return models.RecyclingCenter{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) CreateRecyclingRequest(ctx context.Context, r models.RecyclingRequest) (models.RecyclingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	center, ok := m.centers[r.CenterID]
	if !ok {
		return models.RecyclingRequest{}, fmt.Errorf("center %d: %w", r.CenterID, ErrNotFound)
	}
	r.ID = m.id("requests")
	r.CenterName = center.Name
	if r.Status == "" {
		r.Status = models.RequestPending
	}
	r.CreatedAt = m.now()
	m.requests[r.ID] = r
	return r, nil
}

func (m *Memory) ListRecyclingRequests(ctx context.Context, userID int64) ([]models.RecyclingRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.RecyclingRequest{}
	for _, r := range m.requests {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

// guidesWhere returns matching guides newest first with category names
// filled in. Callers hold the read lock.
func (m *Memory) guidesWhere(match func(models.RecyclingGuide) bool) []models.RecyclingGuide {
	result := []models.RecyclingGuide{}
	for _, g := range m.guides {
		if match(g) {
			g.CategoryName = m.categories[g.CategoryID].Name
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result
}

func (m *Memory) ListGuides(ctx context.Context) ([]models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.guidesWhere(func(models.RecyclingGuide) bool { return true }), nil
}

func (m *Memory) GetGuide(ctx context.Context, id int64) (models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guides[id]
	if !ok {
		return models.RecyclingGuide{}, ErrNotFound
	}
	g.CategoryName = m.categories[g.CategoryID].Name
	return g, nil
}

func (m *Memory) GetGuideBySlug(ctx context.Context, slug string) (models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := m.guidesWhere(func(g models.RecyclingGuide) bool { return g.Slug == slug })
	if len(found) == 0 {
		return models.RecyclingGuide{}, ErrNotFound
	}
	return found[0], nil
}

func (m *Memory) IncrementGuideViews(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.guides[id]
	if !ok {
		return ErrNotFound
	}
	g.Views++
	m.guides[id] = g
	return nil
}

func (m *Memory) GetCategoryBySlug(ctx context.Context, slug string) (models.WasteCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return models.WasteCategory{}, ErrNotFound
}

func (m *Memory) ListGuidesByCategory(ctx context.Context, categoryID int64) ([]models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.guidesWhere(func(g models.RecyclingGuide) bool { return g.CategoryID == categoryID }), nil
}

func (m *Memory) RelatedGuides(ctx context.Context, guide models.RecyclingGuide, limit int) ([]models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	related := m.guidesWhere(func(g models.RecyclingGuide) bool {
		return g.CategoryID == guide.CategoryID && g.ID != guide.ID
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

func (m *Memory) SearchGuides(ctx context.Context, query, categoryType string, limit int) ([]models.RecyclingGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	found := m.guidesWhere(func(g models.RecyclingGuide) bool {
		if !g.IsActive {
			return false
		}
		if q != "" && !containsAny(q, g.Title, g.Content) {
			return false
		}
		if categoryType != "" && m.categories[g.CategoryID].CategoryType != categoryType {
			return false
		}
		return true
	})
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (m *Memory) SaveProgress(ctx context.Context, p models.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.guides[p.GuideID]; !ok {
		return fmt.Errorf("guide %d: %w", p.GuideID, ErrNotFound)
	}
	m.progress[[2]int64{p.UserID, p.GuideID}] = p
	return nil
}

func (m *Memory) GetProgress(ctx context.Context, userID, guideID int64) (models.UserProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.progress[[2]int64{userID, guideID}]
	if !ok {
		return models.UserProgress{}, ErrNotFound
	}
	return p, nil
}

// --- emergencies ------------------------------------------------------------

func (m *Memory) CreateEmergencyRequest(ctx context.Context, e models.EmergencyRequest) (models.EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.id("emergencies")
	e.CreatedAt = m.now()
	m.emergencies[e.ID] = e
	return e, nil
}

func (m *Memory) ListEmergencyRequests(ctx context.Context, userID int64) ([]models.EmergencyRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.EmergencyRequest{}
	for _, e := range m.emergencies {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func newerFirst(ti time.Time, idi int64, tj time.Time, idj int64) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}

// containsAny reports whether any field contains the lowercased needle
func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
