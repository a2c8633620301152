package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/civicconnect/civic-services/internal/models"
)

func (s *Postgres) UpsertRecyclingReference(ctx context.Context, fixtures models.RecyclingFixtures) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range fixtures.Categories {
			if c.ID == 0 {
				return fmt.Errorf("category %q has no id", c.Slug)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO waste_categories (id, name, slug, category_type, description, icon)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name, slug = EXCLUDED.slug, category_type = EXCLUDED.category_type,
					description = EXCLUDED.description, icon = EXCLUDED.icon
			`, c.ID, c.Name, c.Slug, c.CategoryType, c.Description, c.Icon); err != nil {
				return translate(err)
			}
		}

		for _, g := range fixtures.Guides {
			if g.ID == 0 {
				return fmt.Errorf("guide %q has no id", g.Slug)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recycling_guides (id, category_id, title, slug, content, difficulty_level, estimated_time, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET
					category_id = EXCLUDED.category_id, title = EXCLUDED.title, slug = EXCLUDED.slug,
					content = EXCLUDED.content, difficulty_level = EXCLUDED.difficulty_level,
					estimated_time = EXCLUDED.estimated_time, is_active = EXCLUDED.is_active
			`, g.ID, g.CategoryID, g.Title, g.Slug, g.Content, g.DifficultyLevel, g.EstimatedTime, g.IsActive); err != nil {
				return translate(err)
			}
		}

		for _, c := range fixtures.Centers {
			if c.ID == 0 {
				return fmt.Errorf("center %q has no id", c.Name)
			}
			materials, err := json.Marshal(nonNilStrings(c.AcceptedMaterials))
			if err != nil {
				return err
			}
			hours, err := json.Marshal(nonNilHours(c.OpeningHours))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recycling_centers (id, name, address, latitude, longitude, phone, email, website,
					center_type, accepted_materials, opening_hours, description, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name, address = EXCLUDED.address, latitude = EXCLUDED.latitude,
					longitude = EXCLUDED.longitude, phone = EXCLUDED.phone, email = EXCLUDED.email,
					website = EXCLUDED.website, center_type = EXCLUDED.center_type,
					accepted_materials = EXCLUDED.accepted_materials, opening_hours = EXCLUDED.opening_hours,
					description = EXCLUDED.description, is_active = EXCLUDED.is_active
			`, c.ID, c.Name, c.Address, c.Latitude, c.Longitude, c.Phone, c.Email, c.Website,
				c.CenterType, materials, hours, c.Description, c.IsActive); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

const centerColumns = `id, name, address, latitude, longitude, phone, email, website, center_type,
	accepted_materials, opening_hours, description, is_active`

func scanCenter(row scanner) (models.RecyclingCenter, error) {
	var (
		c                models.RecyclingCenter
		materials, hours []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.Phone, &c.Email, &c.Website,
		&c.CenterType, &materials, &hours, &c.Description, &c.IsActive); err != nil {
		return models.RecyclingCenter{}, translate(err)
	}
	if err := json.Unmarshal(materials, &c.AcceptedMaterials); err != nil {
		return models.RecyclingCenter{}, fmt.Errorf("failed to decode materials for center %d: %w", c.ID, err)
	}
	if err := json.Unmarshal(hours, &c.OpeningHours); err != nil {
		return models.RecyclingCenter{}, fmt.Errorf("failed to decode hours for center %d: %w", c.ID, err)
	}
	return c, nil
}

func (s *Postgres) ListActiveCenters(ctx context.Context) ([]models.RecyclingCenter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+centerColumns+` FROM recycling_centers WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RecyclingCenter{}
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Postgres) GetCenter(ctx context.Context, id int64) (models.RecyclingCenter, error) {
	return scanCenter(s.db.QueryRowContext(ctx, `SELECT `+centerColumns+` FROM recycling_centers WHERE id = $1`, id))
}

func (s *Postgres) CreateRecyclingRequest(ctx context.Context, r models.RecyclingRequest) (models.RecyclingRequest, error) {
	if r.Status == "" {
		r.Status = models.RequestPending
	}
	err := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO recycling_requests (user_id, center_id, waste_type, quantity, description, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, center_id, created_at
		)
		SELECT inserted.id, c.name, inserted.created_at
		FROM inserted JOIN recycling_centers c ON c.id = inserted.center_id
	`, r.UserID, r.CenterID, r.WasteType, r.Quantity, r.Description, r.Status).Scan(&r.ID, &r.CenterName, &r.CreatedAt)
	if err != nil {
		return models.RecyclingRequest{}, translate(err)
	}
	return r, nil
}

func (s *Postgres) ListRecyclingRequests(ctx context.Context, userID int64) ([]models.RecyclingRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.center_id, c.name, r.waste_type, r.quantity, r.description, r.status, r.created_at
		FROM recycling_requests r
		JOIN recycling_centers c ON c.id = r.center_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RecyclingRequest{}
	for rows.Next() {
		var r models.RecyclingRequest
		if err := rows.Scan(&r.ID, &r.UserID, &r.CenterID, &r.CenterName, &r.WasteType, &r.Quantity,
			&r.Description, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const guideSelect = `
	SELECT g.id, g.category_id, c.name, g.title, g.slug, g.content, g.difficulty_level,
	       g.estimated_time, g.views, g.is_active, g.created_at
	FROM recycling_guides g
	JOIN waste_categories c ON c.id = g.category_id`

func scanGuide(row scanner) (models.RecyclingGuide, error) {
	var g models.RecyclingGuide
	err := row.Scan(&g.ID, &g.CategoryID, &g.CategoryName, &g.Title, &g.Slug, &g.Content, &g.DifficultyLevel,
		&g.EstimatedTime, &g.Views, &g.IsActive, &g.CreatedAt)
	return g, translate(err)
}

func (s *Postgres) queryGuides(ctx context.Context, query string, args ...any) ([]models.RecyclingGuide, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RecyclingGuide{}
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *Postgres) ListGuides(ctx context.Context) ([]models.RecyclingGuide, error) {
	return s.queryGuides(ctx, guideSelect+` ORDER BY g.created_at DESC, g.id DESC`)
}

func (s *Postgres) GetGuide(ctx context.Context, id int64) (models.RecyclingGuide, error) {
	return scanGuide(s.db.QueryRowContext(ctx, guideSelect+` WHERE g.id = $1`, id))
}

func (s *Postgres) GetGuideBySlug(ctx context.Context, slug string) (models.RecyclingGuide, error) {
	return scanGuide(s.db.QueryRowContext(ctx, guideSelect+` WHERE g.slug = $1`, slug))
}

func (s *Postgres) IncrementGuideViews(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE recycling_guides SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Postgres) GetCategoryBySlug(ctx context.Context, slug string) (models.WasteCategory, error) {
	var c models.WasteCategory
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, category_type, description, icon FROM waste_categories WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.CategoryType, &c.Description, &c.Icon)
	return c, translate(err)
}

func (s *Postgres) ListGuidesByCategory(ctx context.Context, categoryID int64) ([]models.RecyclingGuide, error) {
	return s.queryGuides(ctx, guideSelect+` WHERE g.category_id = $1 ORDER BY g.created_at DESC, g.id DESC`, categoryID)
}

func (s *Postgres) RelatedGuides(ctx context.Context, guide models.RecyclingGuide, limit int) ([]models.RecyclingGuide, error) {
	return s.queryGuides(ctx, guideSelect+`
		WHERE g.category_id = $1 AND g.id <> $2
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $3
	`, guide.CategoryID, guide.ID, limit)
}

func (s *Postgres) SearchGuides(ctx context.Context, query, categoryType string, limit int) ([]models.RecyclingGuide, error) {
	return s.queryGuides(ctx, guideSelect+`
		WHERE g.is_active
		  AND ($1 = '' OR g.title ILIKE $4 ESCAPE '\' OR g.content ILIKE $4 ESCAPE '\')
		  AND ($2 = '' OR c.category_type = $2)
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $3
	`, query, categoryType, limit, containsPattern(query))
}

func (s *Postgres) SaveProgress(ctx context.Context, p models.UserProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, guide_id, completed, time_spent, quiz_score, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, guide_id) DO UPDATE SET
			completed = EXCLUDED.completed, time_spent = EXCLUDED.time_spent,
			quiz_score = EXCLUDED.quiz_score, completed_at = EXCLUDED.completed_at
	`, p.UserID, p.GuideID, p.Completed, p.TimeSpent, p.QuizScore, p.CompletedAt)
	return translate(err)
}

func (s *Postgres) GetProgress(ctx context.Context, userID, guideID int64) (models.UserProgress, error) {
	var (
		p           models.UserProgress
		score       sql.NullInt64
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, guide_id, completed, time_spent, quiz_score, completed_at
		FROM user_progress WHERE user_id = $1 AND guide_id = $2
	`, userID, guideID).Scan(&p.UserID, &p.GuideID, &p.Completed, &p.TimeSpent, &score, &completedAt)
	if err != nil {
		return models.UserProgress{}, translate(err)
	}
	if score.Valid {
		v := int(score.Int64)
		p.QuizScore = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilHours(v map[string]string) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return v
}
