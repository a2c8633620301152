package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestMigrate_ExecutesAllMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS projects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS waste_categories").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_core.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateUserConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("asha", "", "", "", "hash", false).
		WillReturnError(&pq.Error{Code: "23505", Detail: "Key (username)=(asha) already exists."})

	_, err := s.CreateUser(context.Background(), models.User{Username: "asha", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUser(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ToggleLikeAddsMissingLike(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM discussions WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("DELETE FROM discussion_likes").
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO discussion_likes").
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM discussion_likes").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectCommit()

	upvoted, count, err := s.ToggleLike(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ToggleLikeRemovesExistingLike(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM discussions").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("DELETE FROM discussion_likes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM discussion_likes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	upvoted, count, err := s.ToggleLike(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.False(t, upvoted)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ToggleLikeMissingDiscussion(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM discussions").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := s.ToggleLike(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceProjectsRollsBackOnDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM projects").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO projects").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	n, err := s.ReplaceProjects(context.Background(), []models.Project{{ProjectID: "P1"}, {ProjectID: "P1"}})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceRoadPlans(t *testing.T) {
	s, mock := newMockStore(t)

	plans := []models.RoadDevelopmentPlan{
		{ProjectName: "Eastern Freeway", City: "Mumbai", RoadLength: 16.8, Budget: 1436, StartYear: 2008, EndYear: 2014},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM road_development_plans").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO road_development_plans").
		WithArgs("Eastern Freeway", "Mumbai", 16.8, 1436.0, 2008, 2014, models.RoadStatus(""), "", models.Priority("")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := s.ReplaceRoadPlans(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListProjectsBuildsFilter(t *testing.T) {
	s, mock := newMockStore(t)

	start := time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"project_id", "project_name", "location", "sector", "status", "start_date",
		"expected_completion_date", "budget", "contractor", "progress", "description", "latitude",
		"longitude", "created_at", "updated_at"}

	mock.ExpectQuery("WHERE status = \\$1 AND \\(project_name ILIKE \\$2").
		WithArgs("Ongoing", "%road%").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"P1", "Coastal Road", "Marine Drive", "Roads", "Ongoing", start, start.AddDate(3, 0, 0),
			"12721.00", "L&T", 70, "", nil, nil, start, start))

	projects, err := s.ListProjects(context.Background(), models.ProjectFilter{Status: "Ongoing", Search: "road"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 12721.0, projects[0].Budget)
	assert.Nil(t, projects[0].Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"road", "%road%"},
		{"_", `%\_%`},
		{"50% off", `%50\% off%`},
		{`C:\temp`, `%C:\\temp%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.term), tt.term)
	}
}

func TestPostgres_ListProjectsEscapesSearch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE \(project_name ILIKE \$1 ESCAPE '\\' OR location ILIKE \$1`).
		WithArgs(`%metro\_line%`).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	projects, err := s.ListProjects(context.Background(), models.ProjectFilter{Search: "metro_line"})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SearchGuidesEscapesQuery(t *testing.T) {
	s, mock := newMockStore(t)

	columns := []string{"id", "category_id", "name", "title", "slug", "content", "difficulty_level",
		"estimated_time", "views", "is_active", "created_at"}
	mock.ExpectQuery(`g.title ILIKE \$4 ESCAPE '\\'`).
		WithArgs("100%", "", int64(20), `%100\%%`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			1, 1, "Plastic", "Recycle 100% of bottles", "pet-bottles", "", "beginner", 5, 0, true, time.Now()))

	guides, err := s.SearchGuides(context.Background(), "100%", "", 20)
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "pet-bottles", guides[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetCenterDecodesJSON(t *testing.T) {
	s, mock := newMockStore(t)

	columns := []string{"id", "name", "address", "latitude", "longitude", "phone", "email", "website",
		"center_type", "accepted_materials", "opening_hours", "description", "is_active"}
	mock.ExpectQuery("FROM recycling_centers WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			1, "Dharavi Recycling Hub", "Dharavi", 19.0380, 72.8538, "", "", "", "drop_off",
			[]byte(`["plastic","paper"]`), []byte(`{"monday":"9:00 AM - 6:00 PM"}`), "", true))

	center, err := s.GetCenter(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"plastic", "paper"}, center.AcceptedMaterials)
	assert.Equal(t, "9:00 AM - 6:00 PM", center.OpeningHours["monday"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_IncrementGuideViewsMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE recycling_guides SET views = views \\+ 1").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.IncrementGuideViews(context.Background(), 5), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	user, err := s.CreateUser(ctx, models.User{
		Username:     "integration_" + time.Now().Format("150405.000000"),
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	d, err := s.CreateDiscussion(ctx, models.Discussion{UserID: user.ID, Title: "Integration", Content: "check"})
	require.NoError(t, err)
	defer s.DeleteDiscussion(ctx, d.ID)

	upvoted, count, err := s.ToggleLike(ctx, d.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, 1, count)

	upvoted, count, err = s.ToggleLike(ctx, d.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, upvoted)
	assert.Equal(t, 0, count)
}
