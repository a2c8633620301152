// Package analytics computes the officials' dashboard aggregates from the
// CSV-loaded infrastructure tables.
package analytics

import (
	"math"
	"sort"
	"strconv"

	"github.com/civicconnect/civic-services/internal/models"
)

// TopN bounds the ranked lists on the road development dashboard
const TopN = 10

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type SectorBudget struct {
	Sector      string  `json:"sector"`
	TotalBudget float64 `json:"total_budget"`
	AvgBudget   float64 `json:"avg_budget"`
	Count       int     `json:"count"`
}

type YearStatusCount struct {
	Year   int    `json:"year"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type yearStatusKey struct {
	year   int
	status string
}

type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

type StatusProgress struct {
	Status      string  `json:"status"`
	AvgProgress float64 `json:"avg_progress"`
	Count       int     `json:"count"`
}

// TrendsData feeds the trends analysis dashboard
type TrendsData struct {
	StatusDistribution []StatusCount     `json:"status_distribution"`
	BudgetBySector     []SectorBudget    `json:"budget_by_sector"`
	CompletionTrends   []YearStatusCount `json:"completion_trends"`
	MonthlyStarts      []MonthCount      `json:"monthly_starts"`
	ProgressByStatus   []StatusProgress  `json:"progress_by_status"`
}

// Trends groups projects by status, sector, start year and start month.
// Groups are ordered by key so responses are stable.
func Trends(projects []models.Project) TrendsData {
	statusCounts := map[string]int{}
	statusProgress := map[string]int{}
	sectors := map[string]*SectorBudget{}
	yearStatus := map[yearStatusKey]*YearStatusCount{}
	months := map[[2]int]int{}

	for _, p := range projects {
		status := string(p.Status)
		statusCounts[status]++
		statusProgress[status] += p.Progress

		sb, ok := sectors[p.Sector]
		if !ok {
			sb = &SectorBudget{Sector: p.Sector}
			sectors[p.Sector] = sb
		}
		sb.TotalBudget += p.Budget
		sb.Count++

		year := p.StartDate.Year()
		key := yearStatusKey{year, status}
		ys, ok := yearStatus[key]
		if !ok {
			ys = &YearStatusCount{Year: year, Status: status}
			yearStatus[key] = ys
		}
		ys.Count++

		months[[2]int{year, int(p.StartDate.Month())}]++
	}

	data := TrendsData{
		StatusDistribution: []StatusCount{},
		BudgetBySector:     []SectorBudget{},
		CompletionTrends:   []YearStatusCount{},
		MonthlyStarts:      []MonthCount{},
		ProgressByStatus:   []StatusProgress{},
	}

	for _, status := range sortedKeys(statusCounts) {
		count := statusCounts[status]
		data.StatusDistribution = append(data.StatusDistribution, StatusCount{Status: status, Count: count})
		data.ProgressByStatus = append(data.ProgressByStatus, StatusProgress{
			Status:      status,
			AvgProgress: float64(statusProgress[status]) / float64(count),
			Count:       count,
		})
	}

	for _, sector := range sortedKeys(sectors) {
		sb := *sectors[sector]
		sb.AvgBudget = sb.TotalBudget / float64(sb.Count)
		data.BudgetBySector = append(data.BudgetBySector, sb)
	}

	for _, ys := range yearStatus {
		data.CompletionTrends = append(data.CompletionTrends, *ys)
	}
	sort.Slice(data.CompletionTrends, func(i, j int) bool {
		a, b := data.CompletionTrends[i], data.CompletionTrends[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Status < b.Status
	})

	for key, count := range months {
		data.MonthlyStarts = append(data.MonthlyStarts, MonthCount{Year: key[0], Month: key[1], Count: count})
	}
	sort.Slice(data.MonthlyStarts, func(i, j int) bool {
		a, b := data.MonthlyStarts[i], data.MonthlyStarts[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return data
}

// BottleneckRow is one bottleneck as shown on the dashboard
type BottleneckRow struct {
	ID                 string `json:"id"`
	ProjectName        string `json:"project_name"`
	Location           string `json:"location"`
	Type               string `json:"type"`
	Severity           string `json:"severity"`
	Department         string `json:"department"`
	Status             string `json:"status"`
	Description        string `json:"description"`
	ReportedDate       string `json:"reported_date"`
	ExpectedResolution string `json:"expected_resolution"`
	SeverityColor      string `json:"severity_color"`
}

type SeverityCount struct {
	SeverityLevel string `json:"severity_level"`
	Count         int    `json:"count"`
}

type CurrentStatusCount struct {
	CurrentStatus string `json:"current_status"`
	Count         int    `json:"count"`
}

type TypeCount struct {
	BottleneckType string `json:"bottleneck_type"`
	Count          int    `json:"count"`
}

type DepartmentCount struct {
	ResponsibleDepartment string `json:"responsible_department"`
	Count                 int    `json:"count"`
}

// BottlenecksData feeds the bottlenecks dashboard
type BottlenecksData struct {
	SeverityStats   []SeverityCount      `json:"severity_stats"`
	StatusStats     []CurrentStatusCount `json:"status_stats"`
	TypeStats       []TypeCount          `json:"type_stats"`
	DepartmentStats []DepartmentCount    `json:"department_stats"`
	Bottlenecks     []BottleneckRow      `json:"bottlenecks"`
}

// DisplayDate is the date layout used by the dashboards
const DisplayDate = "02-01-2006"

// Bottlenecks counts bottlenecks by severity, status, type and department
func Bottlenecks(bottlenecks []models.ProjectBottleneck) BottlenecksData {
	severity := map[string]int{}
	status := map[string]int{}
	types := map[string]int{}
	departments := map[string]int{}

	data := BottlenecksData{
		SeverityStats:   []SeverityCount{},
		StatusStats:     []CurrentStatusCount{},
		TypeStats:       []TypeCount{},
		DepartmentStats: []DepartmentCount{},
		Bottlenecks:     make([]BottleneckRow, 0, len(bottlenecks)),
	}

	for _, b := range bottlenecks {
		severity[string(b.SeverityLevel)]++
		status[string(b.CurrentStatus)]++
		types[b.BottleneckType]++
		departments[b.ResponsibleDepartment]++

		data.Bottlenecks = append(data.Bottlenecks, BottleneckRow{
			ID:                 b.BottleneckID,
			ProjectName:        b.ProjectName,
			Location:           b.Location,
			Type:               b.BottleneckType,
			Severity:           string(b.SeverityLevel),
			Department:         b.ResponsibleDepartment,
			Status:             string(b.CurrentStatus),
			Description:        b.ImpactDescription,
			ReportedDate:       b.ReportedDate.Format(DisplayDate),
			ExpectedResolution: b.ExpectedResolutionDate.Format(DisplayDate),
			SeverityColor:      b.SeverityColor(),
		})
	}

	for _, k := range sortedKeys(severity) {
		data.SeverityStats = append(data.SeverityStats, SeverityCount{SeverityLevel: k, Count: severity[k]})
	}
	for _, k := range sortedKeys(status) {
		data.StatusStats = append(data.StatusStats, CurrentStatusCount{CurrentStatus: k, Count: status[k]})
	}
	for _, k := range sortedKeys(types) {
		data.TypeStats = append(data.TypeStats, TypeCount{BottleneckType: k, Count: types[k]})
	}
	for _, k := range sortedKeys(departments) {
		data.DepartmentStats = append(data.DepartmentStats, DepartmentCount{ResponsibleDepartment: k, Count: departments[k]})
	}

	return data
}

// PlanStat is one road plan in a ranked list
type PlanStat struct {
	ProjectName string  `json:"project_name"`
	City        string  `json:"city"`
	Budget      float64 `json:"budget"`
	RoadLength  float64 `json:"road_length"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

type DurationStat struct {
	PlanStat
	Duration int `json:"duration"`
}

type EfficiencyStat struct {
	PlanStat
	Efficiency float64 `json:"efficiency"` // crores per km
}

// RoadDevelopmentData feeds the road development dashboard
type RoadDevelopmentData struct {
	TotalProjects    int                `json:"total_projects"`
	TotalBudget      float64            `json:"total_budget"`
	TotalRoadLength  float64            `json:"total_road_length"`
	StatusData       map[string]int     `json:"status_data"`
	PriorityData     map[string]int     `json:"priority_data"`
	CityData         map[string]int     `json:"city_data"`
	BudgetByStatus   map[string]float64 `json:"budget_by_status"`
	LengthByPriority map[string]float64 `json:"length_by_priority"`
	YearData         map[string]int     `json:"year_data"`
	ContractorData   map[string]int     `json:"contractor_data"`
	DurationStats    []DurationStat     `json:"duration_stats"`
	EfficiencyStats  []EfficiencyStat   `json:"efficiency_stats"`
}

// RoadDevelopment summarises road plans: totals, distributions, the
// longest-running plans and the cheapest plans per km.
func RoadDevelopment(plans []models.RoadDevelopmentPlan) RoadDevelopmentData {
	data := RoadDevelopmentData{
		TotalProjects:    len(plans),
		StatusData:       map[string]int{},
		PriorityData:     map[string]int{},
		CityData:         map[string]int{},
		BudgetByStatus:   map[string]float64{},
		LengthByPriority: map[string]float64{},
		YearData:         map[string]int{},
		ContractorData:   map[string]int{},
		DurationStats:    []DurationStat{},
		EfficiencyStats:  []EfficiencyStat{},
	}
	for _, status := range models.RoadStatuses {
		data.BudgetByStatus[string(status)] = 0
	}
	for _, priority := range models.Priorities {
		data.LengthByPriority[string(priority)] = 0
	}

	contractors := map[string]int{}
	for _, p := range plans {
		data.TotalBudget += p.Budget
		data.TotalRoadLength += p.RoadLength
		data.StatusData[string(p.CurrentStatus)]++
		data.PriorityData[string(p.PriorityLevel)]++
		data.CityData[p.City]++
		data.YearData[strconv.Itoa(p.StartYear)]++
		contractors[p.Contractor]++

		if _, ok := data.BudgetByStatus[string(p.CurrentStatus)]; ok {
			data.BudgetByStatus[string(p.CurrentStatus)] += p.Budget
		}
		if _, ok := data.LengthByPriority[string(p.PriorityLevel)]; ok {
			data.LengthByPriority[string(p.PriorityLevel)] += p.RoadLength
		}

		stat := PlanStat{
			ProjectName: p.ProjectName,
			City:        p.City,
			Budget:      p.Budget,
			RoadLength:  p.RoadLength,
			Status:      string(p.CurrentStatus),
			Priority:    string(p.PriorityLevel),
		}
		if p.StartYear != 0 && p.EndYear != 0 {
			data.DurationStats = append(data.DurationStats, DurationStat{PlanStat: stat, Duration: p.DurationYears()})
		}
		if p.RoadLength > 0 {
			efficiency := math.Round(p.Budget/p.RoadLength*100) / 100
			data.EfficiencyStats = append(data.EfficiencyStats, EfficiencyStat{PlanStat: stat, Efficiency: efficiency})
		}
	}

	for _, name := range topContractors(contractors, TopN) {
		data.ContractorData[name] = contractors[name]
	}

	sort.SliceStable(data.DurationStats, func(i, j int) bool {
		return data.DurationStats[i].Duration > data.DurationStats[j].Duration
	})
	sort.SliceStable(data.EfficiencyStats, func(i, j int) bool {
		return data.EfficiencyStats[i].Efficiency < data.EfficiencyStats[j].Efficiency
	})
	data.DurationStats = head(data.DurationStats, TopN)
	data.EfficiencyStats = head(data.EfficiencyStats, TopN)

	return data
}

// topContractors ranks by count descending, breaking ties by name
func topContractors(counts map[string]int, n int) []string {
	names := sortedKeys(counts)
	sort.SliceStable(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
