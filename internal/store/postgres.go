package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Postgres implements Store backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// Ensure Postgres implements Store
var _ Store = (*Postgres)(nil)

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects with lib/pq, verifies the connection and applies the
// embedded schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgres(db), nil
}

// Migrate applies every embedded migration in file-name order. Migrations
// are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		logrus.Debugf("Applied migration %s", name)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Postgres) Close() error                   { return s.db.Close() }

// translate maps driver errors onto the store's sentinel errors
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", pqErr.Detail, ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", pqErr.Detail, ErrNotFound)
		}
	}
	return err
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term literally anywhere in
// the value. Queries using it must declare ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// withTx runs fn inside a transaction, rolling back on error
func (s *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logrus.Errorf("Rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

// --- users ------------------------------------------------------------------

const userColumns = `id, username, email, first_name, last_name, password_hash, is_staff, created_at`

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	return u, translate(err)
}

func (s *Postgres) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsStaff).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (s *Postgres) GetUser(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

// --- discussions ------------------------------------------------------------

const discussionSelect = `
	SELECT d.id, d.user_id, u.username, d.title, d.content, d.latitude, d.longitude,
	       d.location_name, d.image, d.created_at,
	       (SELECT COUNT(*) FROM discussion_likes l WHERE l.discussion_id = d.id)
	FROM discussions d
	JOIN users u ON u.id = d.user_id`

func scanDiscussion(row scanner) (models.Discussion, error) {
	var (
		d        models.Discussion
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Username, &d.Title, &d.Content, &lat, &lng,
		&d.LocationName, &d.Image, &d.CreatedAt, &d.LikesCount)
	if err != nil {
		return models.Discussion{}, translate(err)
	}
	d.Latitude = nullFloat(lat)
	d.Longitude = nullFloat(lng)
	return d, nil
}

func (s *Postgres) CreateDiscussion(ctx context.Context, d models.Discussion) (models.Discussion, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discussions (user_id, title, content, latitude, longitude, location_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, d.UserID, d.Title, d.Content, d.Latitude, d.Longitude, d.LocationName).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return models.Discussion{}, translate(err)
	}
	return s.GetDiscussion(ctx, d.ID)
}

func (s *Postgres) GetDiscussion(ctx context.Context, id int64) (models.Discussion, error) {
	return scanDiscussion(s.db.QueryRowContext(ctx, discussionSelect+` WHERE d.id = $1`, id))
}

func (s *Postgres) ListDiscussions(ctx context.Context) ([]models.Discussion, error) {
	rows, err := s.db.QueryContext(ctx, discussionSelect+` ORDER BY d.created_at DESC, d.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Discussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Postgres) SetDiscussionImage(ctx context.Context, id int64, path string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE discussions SET image = $2 WHERE id = $1`, id, path)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Postgres) DeleteDiscussion(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM discussions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Postgres) AddComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	err := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO comments (discussion_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, created_at
		)
		SELECT inserted.id, u.username, inserted.created_at
		FROM inserted JOIN users u ON u.id = inserted.user_id
	`, c.DiscussionID, c.UserID, c.Content).Scan(&c.ID, &c.Username, &c.CreatedAt)
	if err != nil {
		return models.Comment{}, translate(err)
	}
	return c, nil
}

func (s *Postgres) ListComments(ctx context.Context, discussionID int64) ([]models.Comment, error) {
	if _, err := s.GetDiscussion(ctx, discussionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.discussion_id, c.user_id, u.username, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.discussion_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.DiscussionID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Postgres) ToggleLike(ctx context.Context, discussionID, userID int64) (bool, int, error) {
	var (
		upvoted bool
		count   int
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM discussions WHERE id = $1 FOR UPDATE`, discussionID).Scan(&exists); err != nil {
			return translate(err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM discussion_likes WHERE discussion_id = $1 AND user_id = $2`, discussionID, userID)
		if err != nil {
			return err
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if removed == 0 {
			if _, err := tx.ExecContext(ctx, `INSERT INTO discussion_likes (discussion_id, user_id) VALUES ($1, $2)`, discussionID, userID); err != nil {
				return translate(err)
			}
			upvoted = true
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM discussion_likes WHERE discussion_id = $1`, discussionID).Scan(&count)
	})
	if err != nil {
		return false, 0, err
	}
	return upvoted, count, nil
}

// --- complaints -------------------------------------------------------------

const complaintSelect = `
	SELECT c.id, c.user_id, u.username, c.title, c.description, c.image, c.complaint_type,
	       c.latitude, c.longitude, c.status, c.created_at
	FROM complaints c
	JOIN users u ON u.id = c.user_id`

func scanComplaint(row scanner) (models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.Title, &c.Description, &c.Image, &c.ComplaintType,
		&c.Latitude, &c.Longitude, &c.Status, &c.CreatedAt)
	return c, translate(err)
}

func (s *Postgres) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	if c.Status == "" {
		c.Status = models.ComplaintPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO complaints (user_id, title, description, image, complaint_type, latitude, longitude, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, c.UserID, c.Title, c.Description, c.Image, c.ComplaintType, c.Latitude, c.Longitude, c.Status, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return models.Complaint{}, translate(err)
	}
	return s.GetComplaint(ctx, c.ID)
}

func (s *Postgres) GetComplaint(ctx context.Context, id int64) (models.Complaint, error) {
	return scanComplaint(s.db.QueryRowContext(ctx, complaintSelect+` WHERE c.id = $1`, id))
}

func (s *Postgres) ListComplaints(ctx context.Context, userID int64) ([]models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, complaintSelect+`
		WHERE $1 = 0 OR c.user_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Postgres) SetComplaintImage(ctx context.Context, id int64, path string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE complaints SET image = $2 WHERE id = $1`, id, path)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Postgres) UpdateComplaintStatus(ctx context.Context, id int64, status models.ComplaintStatus) error {
	result, err := s.db.ExecContext(ctx, `UPDATE complaints SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// --- emergencies ------------------------------------------------------------

func (s *Postgres) CreateEmergencyRequest(ctx context.Context, e models.EmergencyRequest) (models.EmergencyRequest, error) {
	var facility []byte
	if e.NearestFacility != nil {
		var err error
		if facility, err = json.Marshal(e.NearestFacility); err != nil {
			return models.EmergencyRequest{}, err
		}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO emergency_requests (user_id, emergency_type, description, latitude, longitude, ai_response, nearest_facility)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.UserID, e.EmergencyType, e.Description, e.Latitude, e.Longitude, e.AIResponse, facility).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return models.EmergencyRequest{}, translate(err)
	}
	return e, nil
}

func (s *Postgres) ListEmergencyRequests(ctx context.Context, userID int64) ([]models.EmergencyRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, emergency_type, description, latitude, longitude, ai_response, nearest_facility, created_at
		FROM emergency_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.EmergencyRequest{}
	for rows.Next() {
		var (
			e        models.EmergencyRequest
			facility []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.EmergencyType, &e.Description, &e.Latitude, &e.Longitude,
			&e.AIResponse, &facility, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(facility) > 0 {
			e.NearestFacility = &models.Facility{}
			if err := json.Unmarshal(facility, e.NearestFacility); err != nil {
				return nil, fmt.Errorf("failed to decode facility for emergency %d: %w", e.ID, err)
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
