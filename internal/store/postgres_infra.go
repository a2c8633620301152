package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
)

// replaceTable deletes every row of table and inserts the new rows inside a
// single transaction, so readers see either the old or the new dataset.
func (s *Postgres) replaceTable(ctx context.Context, table string, count int, insert func(tx *sql.Tx, i int) error) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		for i := 0; i < count; i++ {
			if err := insert(tx, i); err != nil {
				return translate(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Postgres) ReplaceProjects(ctx context.Context, projects []models.Project) (int, error) {
	return s.replaceTable(ctx, "projects", len(projects), func(tx *sql.Tx, i int) error {
		p := projects[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (project_id, project_name, location, sector, status, start_date,
				expected_completion_date, budget, contractor, progress, description, latitude, longitude)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, p.ProjectID, p.ProjectName, p.Location, p.Sector, p.Status, p.StartDate,
			p.ExpectedCompletionDate, p.Budget, p.Contractor, p.Progress, p.Description, p.Latitude, p.Longitude)
		return err
	})
}

func (s *Postgres) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" && filter.Status != "All" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(project_name ILIKE $%[1]d ESCAPE '\' OR location ILIKE $%[1]d ESCAPE '\'`+
				` OR sector ILIKE $%[1]d ESCAPE '\' OR contractor ILIKE $%[1]d ESCAPE '\')`, n))
	}

	query := `
		SELECT project_id, project_name, location, sector, status, start_date, expected_completion_date,
		       budget, contractor, progress, description, latitude, longitude, created_at, updated_at
		FROM projects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Project{}
	for rows.Next() {
		var (
			p        models.Project
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&p.ProjectID, &p.ProjectName, &p.Location, &p.Sector, &p.Status, &p.StartDate,
			&p.ExpectedCompletionDate, &p.Budget, &p.Contractor, &p.Progress, &p.Description,
			&lat, &lng, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Latitude = nullFloat(lat)
		p.Longitude = nullFloat(lng)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Postgres) ReplaceRoadPlans(ctx context.Context, plans []models.RoadDevelopmentPlan) (int, error) {
	return s.replaceTable(ctx, "road_development_plans", len(plans), func(tx *sql.Tx, i int) error {
		p := plans[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO road_development_plans (project_name, city, road_length, budget, start_year,
				end_year, current_status, contractor, priority_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.ProjectName, p.City, p.RoadLength, p.Budget, p.StartYear, p.EndYear, p.CurrentStatus, p.Contractor, p.PriorityLevel)
		return err
	})
}

func (s *Postgres) ListRoadPlans(ctx context.Context) ([]models.RoadDevelopmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, city, road_length, budget, start_year, end_year,
		       current_status, contractor, priority_level, created_at
		FROM road_development_plans
		ORDER BY start_year DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RoadDevelopmentPlan{}
	for rows.Next() {
		var p models.RoadDevelopmentPlan
		if err := rows.Scan(&p.ID, &p.ProjectName, &p.City, &p.RoadLength, &p.Budget, &p.StartYear, &p.EndYear,
			&p.CurrentStatus, &p.Contractor, &p.PriorityLevel, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Postgres) ReplaceBottlenecks(ctx context.Context, bottlenecks []models.ProjectBottleneck) (int, error) {
	return s.replaceTable(ctx, "project_bottlenecks", len(bottlenecks), func(tx *sql.Tx, i int) error {
		b := bottlenecks[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_bottlenecks (bottleneck_id, project_name, location, bottleneck_type, severity_level,
				reported_date, expected_resolution_date, responsible_department, current_status, impact_description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, b.BottleneckID, b.ProjectName, b.Location, b.BottleneckType, b.SeverityLevel, b.ReportedDate,
			b.ExpectedResolutionDate, b.ResponsibleDepartment, b.CurrentStatus, b.ImpactDescription)
		return err
	})
}

func (s *Postgres) ListBottlenecks(ctx context.Context) ([]models.ProjectBottleneck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bottleneck_id, project_name, location, bottleneck_type, severity_level, reported_date,
		       expected_resolution_date, responsible_department, current_status, impact_description, created_at
		FROM project_bottlenecks
		ORDER BY reported_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.ProjectBottleneck{}
	for rows.Next() {
		var b models.ProjectBottleneck
		if err := rows.Scan(&b.BottleneckID, &b.ProjectName, &b.Location, &b.BottleneckType, &b.SeverityLevel,
			&b.ReportedDate, &b.ExpectedResolutionDate, &b.ResponsibleDepartment, &b.CurrentStatus,
			&b.ImpactDescription, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *Postgres) ReplaceMetroUpdates(ctx context.Context, updates []models.MetroConstructionUpdate) (int, error) {
	return s.replaceTable(ctx, "metro_construction_updates", len(updates), func(tx *sql.Tx, i int) error {
		u := updates[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metro_construction_updates (project_id, city, project_name, length, status,
				estimated_completion, current_progress, budget)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, u.ProjectID, u.City, u.ProjectName, u.Length, u.Status, u.EstimatedCompletion, u.CurrentProgress, u.Budget)
		return err
	})
}

func (s *Postgres) ListMetroUpdates(ctx context.Context) ([]models.MetroConstructionUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, city, project_name, length, status, estimated_completion,
		       current_progress, budget, created_at
		FROM metro_construction_updates
		ORDER BY estimated_completion DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.MetroConstructionUpdate{}
	for rows.Next() {
		var (
			u         models.MetroConstructionUpdate
			completed time.Time
		)
		if err := rows.Scan(&u.ProjectID, &u.City, &u.ProjectName, &u.Length, &u.Status, &completed,
			&u.CurrentProgress, &u.Budget, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.EstimatedCompletion = completed
		result = append(result, u)
	}
	return result, rows.Err()
}
