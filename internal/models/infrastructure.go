package models

import (
	"fmt"
	"strconv"
	"time"
)

// Display colors shared by the dashboards
const (
	ColorGreen = "#10B981"
	ColorRed   = "#EF4444"
	ColorBlue  = "#3B82F6"
	ColorAmber = "#F59E0B"
	ColorGray  = "#6B7280"
)

type ProjectStatus string

const (
	ProjectOngoing   ProjectStatus = "Ongoing"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectDelayed   ProjectStatus = "Delayed"
)

// Sectors accepted for infrastructure projects
var ProjectSectors = []string{
	"Roads", "Metro", "Bridges", "Smart City", "Beautification", "Redevelopment",
	"Waste Management", "Water Supply", "Green Spaces", "Transport", "Railways",
	"Eco-Tourism", "Ports", "Airport",
}

// Project is a city infrastructure project
type Project struct {
	ProjectID              string        `json:"project_id"`
	ProjectName            string        `json:"project_name"`
	Location               string        `json:"location"`
	Sector                 string        `json:"sector"`
	Status                 ProjectStatus `json:"status"`
	StartDate              time.Time     `json:"start_date"`
	ExpectedCompletionDate time.Time     `json:"expected_completion_date"`
	Budget                 float64       `json:"budget"` // in crores
	Contractor             string        `json:"contractor"`
	Progress               int           `json:"progress"` // percentage
	Description            string        `json:"description"`
	Latitude               *float64      `json:"latitude"`
	Longitude              *float64      `json:"longitude"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func (p Project) ProgressColor() string {
	switch p.Status {
	case ProjectCompleted:
		return ColorGreen
	case ProjectDelayed:
		return ColorRed
	default:
		return ColorBlue
	}
}

func (p Project) BudgetFormatted() string {
	return formatCrores(p.Budget)
}

// ProjectFilter narrows a project listing. An empty or "All" status matches
// everything; Search is a case-insensitive substring of name, location,
// sector or contractor.
type ProjectFilter struct {
	Status string
	Search string
}

type RoadStatus string

const (
	RoadPlanning          RoadStatus = "Planning"
	RoadUnderConstruction RoadStatus = "Under Construction"
	RoadCompleted         RoadStatus = "Completed"
	RoadDelayed           RoadStatus = "Delayed"
)

// RoadStatuses lists the road statuses in dashboard order
var RoadStatuses = []RoadStatus{RoadPlanning, RoadUnderConstruction, RoadCompleted, RoadDelayed}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists the priority levels in dashboard order
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// RoadDevelopmentPlan is a planned or ongoing road project
type RoadDevelopmentPlan struct {
	ID            int64      `json:"id"`
	ProjectName   string     `json:"project_name"`
	City          string     `json:"city"`
	RoadLength    float64    `json:"road_length"` // in km
	Budget        float64    `json:"budget"`      // in crores
	StartYear     int        `json:"start_year"`
	EndYear       int        `json:"end_year"`
	CurrentStatus RoadStatus `json:"current_status"`
	Contractor    string     `json:"contractor"`
	PriorityLevel Priority   `json:"priority_level"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (r RoadDevelopmentPlan) DurationYears() int {
	return r.EndYear - r.StartYear
}

func (r RoadDevelopmentPlan) BudgetFormatted() string {
	return formatCrores(r.Budget)
}

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

type BottleneckStatus string

const (
	BottleneckOpen       BottleneckStatus = "Open"
	BottleneckInProgress BottleneckStatus = "In Progress"
	BottleneckResolved   BottleneckStatus = "Resolved"
	BottleneckPending    BottleneckStatus = "Pending"
)

// ProjectBottleneck is an issue blocking a project
type ProjectBottleneck struct {
	BottleneckID           string           `json:"bottleneck_id"`
	ProjectName            string           `json:"project_name"`
	Location               string           `json:"location"`
	BottleneckType         string           `json:"bottleneck_type"`
	SeverityLevel          Severity         `json:"severity_level"`
	ReportedDate           time.Time        `json:"reported_date"`
	ExpectedResolutionDate time.Time        `json:"expected_resolution_date"`
	ResponsibleDepartment  string           `json:"responsible_department"`
	CurrentStatus          BottleneckStatus `json:"current_status"`
	ImpactDescription      string           `json:"impact_description"`
	CreatedAt              time.Time        `json:"created_at"`
}

func (b ProjectBottleneck) SeverityColor() string {
	switch b.SeverityLevel {
	case SeverityCritical:
		return ColorRed
	case SeverityHigh:
		return ColorAmber
	case SeverityMedium:
		return ColorBlue
	default:
		return ColorGreen
	}
}

// MetroConstructionUpdate is the latest status of a metro line
type MetroConstructionUpdate struct {
	ProjectID           string     `json:"project_id"`
	City                string     `json:"city"`
	ProjectName         string     `json:"project_name"`
	Length              float64    `json:"length"` // in km
	Status              RoadStatus `json:"status"`
	EstimatedCompletion time.Time  `json:"estimated_completion"`
	CurrentProgress     string     `json:"current_progress"` // percentage as published
	Budget              float64    `json:"budget"`           // in crores
	CreatedAt           time.Time  `json:"created_at"`
}

func (m MetroConstructionUpdate) ProgressColor() string {
	switch m.Status {
	case RoadCompleted:
		return ColorGreen
	case RoadDelayed:
		return ColorRed
	case RoadUnderConstruction:
		return ColorBlue
	default:
		return ColorGray
	}
}

func (m MetroConstructionUpdate) BudgetFormatted() string {
	return formatCrores(m.Budget)
}

func formatCrores(budget float64) string {
	return fmt.Sprintf("₹%s Cr", strconv.FormatFloat(budget, 'f', 2, 64))
}
