package store

import (
	"context"
	"errors"

	"github.com/civicconnect/civic-services/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// DiscussionStore persists discussions, their comments and likes.
// Listings are newest first.
type DiscussionStore interface {
	CreateDiscussion(ctx context.Context, d models.Discussion) (models.Discussion, error)
	GetDiscussion(ctx context.Context, id int64) (models.Discussion, error)
	ListDiscussions(ctx context.Context) ([]models.Discussion, error)
	SetDiscussionImage(ctx context.Context, id int64, path string) error
	DeleteDiscussion(ctx context.Context, id int64) error
	AddComment(ctx context.Context, c models.Comment) (models.Comment, error)
	ListComments(ctx context.Context, discussionID int64) ([]models.Comment, error)
	// ToggleLike adds the user's like if absent and removes it otherwise,
	// returning whether the user now likes the discussion and the new count.
	ToggleLike(ctx context.Context, discussionID, userID int64) (bool, int, error)
}

// ComplaintStore persists civic complaints. A zero userID lists everyone's.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error)
	GetComplaint(ctx context.Context, id int64) (models.Complaint, error)
	ListComplaints(ctx context.Context, userID int64) ([]models.Complaint, error)
	SetComplaintImage(ctx context.Context, id int64, path string) error
	UpdateComplaintStatus(ctx context.Context, id int64, status models.ComplaintStatus) error
}

// InfrastructureStore holds the CSV-loaded analytics tables. Replace calls
// swap the whole table atomically and return the new row count.
type InfrastructureStore interface {
	ReplaceProjects(ctx context.Context, projects []models.Project) (int, error)
	ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	ReplaceRoadPlans(ctx context.Context, plans []models.RoadDevelopmentPlan) (int, error)
	ListRoadPlans(ctx context.Context) ([]models.RoadDevelopmentPlan, error)
	ReplaceBottlenecks(ctx context.Context, bottlenecks []models.ProjectBottleneck) (int, error)
	ListBottlenecks(ctx context.Context) ([]models.ProjectBottleneck, error)
	ReplaceMetroUpdates(ctx context.Context, updates []models.MetroConstructionUpdate) (int, error)
	ListMetroUpdates(ctx context.Context) ([]models.MetroConstructionUpdate, error)
}

// RecyclingStore holds recycling reference data and user submissions
type RecyclingStore interface {
	// UpsertRecyclingReference inserts or updates categories, guides and
	// centers by ID. Fixture IDs must be set.
	UpsertRecyclingReference(ctx context.Context, fixtures models.RecyclingFixtures) error
	ListActiveCenters(ctx context.Context) ([]models.RecyclingCenter, error)
	GetCenter(ctx context.Context, id int64) (models.RecyclingCenter, error)
	CreateRecyclingRequest(ctx context.Context, r models.RecyclingRequest) (models.RecyclingRequest, error)
	ListRecyclingRequests(ctx context.Context, userID int64) ([]models.RecyclingRequest, error)

	ListGuides(ctx context.Context) ([]models.RecyclingGuide, error)
	GetGuide(ctx context.Context, id int64) (models.RecyclingGuide, error)
	GetGuideBySlug(ctx context.Context, slug string) (models.RecyclingGuide, error)
	IncrementGuideViews(ctx context.Context, id int64) error
	GetCategoryBySlug(ctx context.Context, slug string) (models.WasteCategory, error)
	ListGuidesByCategory(ctx context.Context, categoryID int64) ([]models.RecyclingGuide, error)
	RelatedGuides(ctx context.Context, guide models.RecyclingGuide, limit int) ([]models.RecyclingGuide, error)
	// SearchGuides matches active guides whose title or content contains
	// query, optionally restricted to a category type.
	SearchGuides(ctx context.Context, query, categoryType string, limit int) ([]models.RecyclingGuide, error)
	SaveProgress(ctx context.Context, p models.UserProgress) error
	GetProgress(ctx context.Context, userID, guideID int64) (models.UserProgress, error)
}

// EmergencyStore persists SOS requests
type EmergencyStore interface {
	CreateEmergencyRequest(ctx context.Context, e models.EmergencyRequest) (models.EmergencyRequest, error)
	ListEmergencyRequests(ctx context.Context, userID int64) ([]models.EmergencyRequest, error)
}

// Store is the full persistence contract used by the application
type Store interface {
	UserStore
	DiscussionStore
	ComplaintStore
	InfrastructureStore
	RecyclingStore
	EmergencyStore

	Ping(ctx context.Context) error
	Close() error
}
