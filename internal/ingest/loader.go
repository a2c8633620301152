package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrFileNotFound is returned when a dataset's CSV file is missing
var ErrFileNotFound = errors.New("CSV file not found")

// Dataset names, as used in reports, metrics and the load-data command
const (
	DatasetProjects    = "projects"
	DatasetRoadPlans   = "road_plans"
	DatasetBottlenecks = "bottlenecks"
	DatasetMetro       = "metro"
)

// Datasets lists every CSV dataset in load order
var Datasets = []string{DatasetProjects, DatasetRoadPlans, DatasetBottlenecks, DatasetMetro}

// Source file names inside the data directory
const (
	ProjectsFile    = "mumbai_infrastructure_projects.csv"
	RoadPlansFile   = "road_development_plans.csv"
	BottlenecksFile = "mumbai_project_bottlenecks.csv"
	MetroFile       = "metro_construction_updates.csv"
)

// Columns each file must carry, matched exactly against the header row
var (
	projectColumns = []string{
		"Project ID", "Project Name", "Location", "Sector", "Status", "Start Date",
		"Expected Completion Date", "Budget (₹ Crores)", "Contractor", "Progress (%)", "Description",
	}
	roadPlanColumns = []string{
		"Project Name", "City", "Road Length (km)", "Budget (₹ Crores)", "Start Year",
		"End Year", "Current Status", "Contractor", "Priority Level",
	}
	bottleneckColumns = []string{
		"Bottleneck_ID", "Project_Name", "Location", "Bottleneck_Type", "Severity_Level", "Reported_Date",
		"Expected_Resolution_Date", "Responsible_Department", "Current_Status", "Impact_Description",
	}
	metroColumns = []string{
		"Project_ID", "City", "Project_Name", "Length", "Status",
		"Estimated_Completion", "Current_Progress", "Budget",
	}
)

const (
	projectDateLayout = "02-01-2006"
	isoDateLayout     = "2006-01-02"
)

// Mumbai city centre, used for projects until geocoded coordinates exist
const (
	DefaultProjectLatitude  = 19.0760
	DefaultProjectLongitude = 72.8777
)

// Store is the subset of the application store the loaders write to
type Store interface {
	store.InfrastructureStore
	UpsertRecyclingReference(ctx context.Context, fixtures models.RecyclingFixtures) error
}

// Loader replaces the analytics tables from CSV files in a data directory
type Loader struct {
	dataDir string
	store   Store
}

// NewLoader creates a loader reading from dataDir
func NewLoader(dataDir string, st Store) *Loader {
	return &Loader{dataDir: dataDir, store: st}
}

// Load runs the loader for the named dataset
func (l *Loader) Load(ctx context.Context, dataset string) (int, error) {
	switch dataset {
	case DatasetProjects:
		return l.LoadProjects(ctx)
	case DatasetRoadPlans:
		return l.LoadRoadPlans(ctx)
	case DatasetBottlenecks:
		return l.LoadBottlenecks(ctx)
	case DatasetMetro:
		return l.LoadMetroUpdates(ctx)
	default:
		return 0, fmt.Errorf("unknown dataset %q", dataset)
	}
}

// LoadProjects replaces all projects from mumbai_infrastructure_projects.csv
func (l *Loader) LoadProjects(ctx context.Context) (int, error) {
	rows, err := l.readCSV(ProjectsFile, projectColumns)
	if err != nil {
		return 0, err
	}

	projects := make([]models.Project, 0, len(rows))
	for _, r := range rows {
		start, err := r.date("Start Date", projectDateLayout)
		if err != nil {
			return 0, err
		}
		end, err := r.date("Expected Completion Date", projectDateLayout)
		if err != nil {
			return 0, err
		}
		budget, err := r.float("Budget (₹ Crores)")
		if err != nil {
			return 0, err
		}
		progress, err := r.int("Progress (%)")
		if err != nil {
			return 0, err
		}

		lat, lng := DefaultProjectLatitude, DefaultProjectLongitude
		projects = append(projects, models.Project{
			ProjectID:              r.get("Project ID"),
			ProjectName:            r.get("Project Name"),
			Location:               r.get("Location"),
			Sector:                 r.get("Sector"),
			Status:                 models.ProjectStatus(r.get("Status")),
			StartDate:              start,
			ExpectedCompletionDate: end,
			Budget:                 budget,
			Contractor:             r.get("Contractor"),
			Progress:               progress,
			Description:            r.get("Description"),
			Latitude:               &lat,
			Longitude:              &lng,
		})
	}

	return l.finish(DatasetProjects, func() (int, error) { return l.store.ReplaceProjects(ctx, projects) })
}

// LoadRoadPlans replaces all road development plans from road_development_plans.csv
func (l *Loader) LoadRoadPlans(ctx context.Context) (int, error) {
	rows, err := l.readCSV(RoadPlansFile, roadPlanColumns)
	if err != nil {
		return 0, err
	}

	plans := make([]models.RoadDevelopmentPlan, 0, len(rows))
	for _, r := range rows {
		length, err := r.float("Road Length (km)")
		if err != nil {
			return 0, err
		}
		budget, err := r.float("Budget (₹ Crores)")
		if err != nil {
			return 0, err
		}
		startYear, err := r.int("Start Year")
		if err != nil {
			return 0, err
		}
		endYear, err := r.int("End Year")
		if err != nil {
			return 0, err
		}

		plans = append(plans, models.RoadDevelopmentPlan{
			ProjectName:   r.get("Project Name"),
			City:          r.get("City"),
			RoadLength:    length,
			Budget:        budget,
			StartYear:     startYear,
			EndYear:       endYear,
			CurrentStatus: models.RoadStatus(r.get("Current Status")),
			Contractor:    r.get("Contractor"),
			PriorityLevel: models.Priority(r.get("Priority Level")),
		})
	}

	return l.finish(DatasetRoadPlans, func() (int, error) { return l.store.ReplaceRoadPlans(ctx, plans) })
}

// LoadBottlenecks replaces all bottlenecks from mumbai_project_bottlenecks.csv
func (l *Loader) LoadBottlenecks(ctx context.Context) (int, error) {
	rows, err := l.readCSV(BottlenecksFile, bottleneckColumns)
	if err != nil {
		return 0, err
	}

	bottlenecks := make([]models.ProjectBottleneck, 0, len(rows))
	for _, r := range rows {
		reported, err := r.date("Reported_Date", isoDateLayout)
		if err != nil {
			return 0, err
		}
		resolution, err := r.date("Expected_Resolution_Date", isoDateLayout)
		if err != nil {
			return 0, err
		}

		bottlenecks = append(bottlenecks, models.ProjectBottleneck{
			BottleneckID:           r.get("Bottleneck_ID"),
			ProjectName:            r.get("Project_Name"),
			Location:               r.get("Location"),
			BottleneckType:         r.get("Bottleneck_Type"),
			SeverityLevel:          models.Severity(r.get("Severity_Level")),
			ReportedDate:           reported,
			ExpectedResolutionDate: resolution,
			ResponsibleDepartment:  r.get("Responsible_Department"),
			CurrentStatus:          models.BottleneckStatus(r.get("Current_Status")),
			ImpactDescription:      r.get("Impact_Description"),
		})
	}

	return l.finish(DatasetBottlenecks, func() (int, error) { return l.store.ReplaceBottlenecks(ctx, bottlenecks) })
}

// LoadMetroUpdates replaces all metro updates from metro_construction_updates.csv
func (l *Loader) LoadMetroUpdates(ctx context.Context) (int, error) {
	rows, err := l.readCSV(MetroFile, metroColumns)
	if err != nil {
		return 0, err
	}

	updates := make([]models.MetroConstructionUpdate, 0, len(rows))
	for _, r := range rows {
		length, err := r.float("Length")
		if err != nil {
			return 0, err
		}
		completion, err := r.date("Estimated_Completion", isoDateLayout)
		if err != nil {
			return 0, err
		}
		budget, err := r.float("Budget")
		if err != nil {
			return 0, err
		}

		updates = append(updates, models.MetroConstructionUpdate{
			ProjectID:           r.get("Project_ID"),
			City:                r.get("City"),
			ProjectName:         r.get("Project_Name"),
			Length:              length,
			Status:              models.RoadStatus(r.get("Status")),
			EstimatedCompletion: completion,
			CurrentProgress:     r.get("Current_Progress"),
			Budget:              budget,
		})
	}

	return l.finish(DatasetMetro, func() (int, error) { return l.store.ReplaceMetroUpdates(ctx, updates) })
}

// LoadRecyclingFixtures upserts waste categories, guides and centers from a
// JSON fixture file
func (l *Loader) LoadRecyclingFixtures(ctx context.Context, path string) (models.RecyclingFixtures, error) {
	var fixtures models.RecyclingFixtures

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fixtures, fmt.Errorf("fixture file %s not found", path)
		}
		return fixtures, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fixtures, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}

	if err := l.store.UpsertRecyclingReference(ctx, fixtures); err != nil {
		return fixtures, fmt.Errorf("failed to store fixtures: %w", err)
	}

	logrus.Infof("Loaded recycling fixtures: %d categories, %d guides, %d centers",
		len(fixtures.Categories), len(fixtures.Guides), len(fixtures.Centers))
	return fixtures, nil
}

func (l *Loader) finish(dataset string, replace func() (int, error)) (int, error) {
	count, err := replace()
	if err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", dataset, err)
	}

	metrics.SetRowsLoaded(dataset, count)
	logrus.Infof("Loaded %d rows into %s", count, dataset)
	return count, nil
}

// record is one CSV row keyed by header
type record struct {
	line   int
	values map[string]string
}

func (r record) get(column string) string {
	return r.values[column]
}

func (r record) date(column, layout string) (time.Time, error) {
	value := strings.TrimSpace(r.values[column])
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d: invalid %s %q", r.line, column, value)
	}
	return t, nil
}

func (r record) float(column string) (float64, error) {
	value := strings.TrimSpace(r.values[column])
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s %q", r.line, column, value)
	}
	return f, nil
}

func (r record) int(column string) (int, error) {
	value := strings.TrimSpace(r.values[column])
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s %q", r.line, column, value)
	}
	return n, nil
}

// readCSV parses the whole file before any row is used, so a malformed file
// never reaches the store. The header must contain every one of columns.
func (l *Loader) readCSV(name string, columns []string) ([]record, error) {
	path := filepath.Join(l.dataDir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if err := checkHeader(name, header, columns); err != nil {
		return nil, err
	}

	var rows []record
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		values := make(map[string]string, len(header))
		for i, column := range header {
			values[column] = fields[i]
		}
		rows = append(rows, record{line: line, values: values})
	}

	logrus.Debugf("Read %d rows from %s", len(rows), path)
	return rows, nil
}

func checkHeader(name string, header, columns []string) error {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}
	for _, column := range columns {
		if !present[column] {
			return fmt.Errorf("%s line 1: missing column %q", name, column)
		}
	}
	return nil
}
