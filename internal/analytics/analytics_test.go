package analytics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestTrends(t *testing.T) {
	projects := []models.Project{
		{ProjectID: "P1", Sector: "Roads", Status: models.ProjectOngoing, StartDate: date(2022, 3, 1), Budget: 100, Progress: 40},
		{ProjectID: "P2", Sector: "Roads", Status: models.ProjectCompleted, StartDate: date(2022, 3, 15), Budget: 300, Progress: 100},
		{ProjectID: "P3", Sector: "Metro", Status: models.ProjectOngoing, StartDate: date(2021, 7, 1), Budget: 900, Progress: 20},
	}

	data := Trends(projects)

	assert.Equal(t, []StatusCount{{"Completed", 1}, {"Ongoing", 2}}, data.StatusDistribution)
	assert.Equal(t, []SectorBudget{
		{Sector: "Metro", TotalBudget: 900, AvgBudget: 900, Count: 1},
		{Sector: "Roads", TotalBudget: 400, AvgBudget: 200, Count: 2},
	}, data.BudgetBySector)
	assert.Equal(t, []YearStatusCount{
		{Year: 2021, Status: "Ongoing", Count: 1},
		{Year: 2022, Status: "Completed", Count: 1},
		{Year: 2022, Status: "Ongoing", Count: 1},
	}, data.CompletionTrends)
	assert.Equal(t, []MonthCount{{2021, 7, 1}, {2022, 3, 2}}, data.MonthlyStarts)
	assert.Equal(t, []StatusProgress{
		{Status: "Completed", AvgProgress: 100, Count: 1},
		{Status: "Ongoing", AvgProgress: 30, Count: 2},
	}, data.ProgressByStatus)
}

func TestTrends_EmptyEncodesLists(t *testing.T) {
	body, err := json.Marshal(Trends(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"status_distribution": [],
		"budget_by_sector": [],
		"completion_trends": [],
		"monthly_starts": [],
		"progress_by_status": []
	}`, string(body))
}

func TestBottlenecks(t *testing.T) {
	bottlenecks := []models.ProjectBottleneck{
		{
			BottleneckID: "B1", BottleneckType: "Land Acquisition", SeverityLevel: models.SeverityCritical,
			CurrentStatus: models.BottleneckOpen, ResponsibleDepartment: "MMRDA",
			ReportedDate: date(2024, 1, 15), ExpectedResolutionDate: date(2024, 6, 30),
		},
		{
			BottleneckID: "B2", BottleneckType: "Funding", SeverityLevel: models.SeverityLow,
			CurrentStatus: models.BottleneckOpen, ResponsibleDepartment: "MMRDA",
			ReportedDate: date(2024, 2, 1), ExpectedResolutionDate: date(2024, 3, 1),
		},
	}

	data := Bottlenecks(bottlenecks)

	assert.Equal(t, []SeverityCount{{"Critical", 1}, {"Low", 1}}, data.SeverityStats)
	assert.Equal(t, []CurrentStatusCount{{"Open", 2}}, data.StatusStats)
	assert.Equal(t, []TypeCount{{"Funding", 1}, {"Land Acquisition", 1}}, data.TypeStats)
	assert.Equal(t, []DepartmentCount{{"MMRDA", 2}}, data.DepartmentStats)

	require.Len(t, data.Bottlenecks, 2)
	assert.Equal(t, "15-01-2024", data.Bottlenecks[0].ReportedDate)
	assert.Equal(t, "30-06-2024", data.Bottlenecks[0].ExpectedResolution)
	assert.Equal(t, models.ColorRed, data.Bottlenecks[0].SeverityColor)
	assert.Equal(t, models.ColorGreen, data.Bottlenecks[1].SeverityColor)
}

func TestRoadDevelopment(t *testing.T) {
	plans := []models.RoadDevelopmentPlan{
		{ProjectName: "A", City: "Mumbai", RoadLength: 10, Budget: 100, StartYear: 2020, EndYear: 2025,
			CurrentStatus: models.RoadUnderConstruction, Contractor: "L&T", PriorityLevel: models.PriorityHigh},
		{ProjectName: "B", City: "Pune", RoadLength: 3, Budget: 10, StartYear: 2022, EndYear: 2023,
			CurrentStatus: models.RoadPlanning, Contractor: "L&T", PriorityLevel: models.PriorityLow},
		{ProjectName: "C", City: "Mumbai", RoadLength: 0, Budget: 50, StartYear: 2022, EndYear: 2024,
			CurrentStatus: "Cancelled", Contractor: "Afcons", PriorityLevel: models.PriorityHigh},
	}

	data := RoadDevelopment(plans)

	assert.Equal(t, 3, data.TotalProjects)
	assert.Equal(t, 160.0, data.TotalBudget)
	assert.Equal(t, 13.0, data.TotalRoadLength)
	assert.Equal(t, map[string]int{"Mumbai": 2, "Pune": 1}, data.CityData)
	assert.Equal(t, map[string]int{"2020": 1, "2022": 2}, data.YearData)
	assert.Equal(t, map[string]int{"L&T": 2, "Afcons": 1}, data.ContractorData)
	assert.Equal(t, 1, data.StatusData["Cancelled"])

	assert.Equal(t, map[string]float64{
		"Planning": 10, "Under Construction": 100, "Completed": 0, "Delayed": 0,
	}, data.BudgetByStatus, "unknown statuses stay out of the fixed buckets")
	assert.Equal(t, map[string]float64{"High": 10, "Medium": 0, "Low": 3}, data.LengthByPriority)

	require.Len(t, data.DurationStats, 3)
	assert.Equal(t, "A", data.DurationStats[0].ProjectName)
	assert.Equal(t, 5, data.DurationStats[0].Duration)

	require.Len(t, data.EfficiencyStats, 2, "zero-length plans are skipped")
	assert.Equal(t, "B", data.EfficiencyStats[0].ProjectName)
	assert.Equal(t, 3.33, data.EfficiencyStats[0].Efficiency)
	assert.Equal(t, 10.0, data.EfficiencyStats[1].Efficiency)
}

func TestRoadDevelopment_TopTen(t *testing.T) {
	var plans []models.RoadDevelopmentPlan
	for i := 0; i < 15; i++ {
		plans = append(plans, models.RoadDevelopmentPlan{
			ProjectName: fmt.Sprintf("Road %d", i),
			Contractor:  fmt.Sprintf("Contractor %02d", i),
			RoadLength:  float64(i + 1),
			Budget:      100,
			StartYear:   2010,
			EndYear:     2010 + i,
		})
	}

	data := RoadDevelopment(plans)

	assert.Len(t, data.ContractorData, TopN)
	assert.Len(t, data.DurationStats, TopN)
	assert.Len(t, data.EfficiencyStats, TopN)
	assert.Equal(t, 14, data.DurationStats[0].Duration)
	assert.Equal(t, 6.67, data.EfficiencyStats[0].Efficiency)
}
