package models

import (
	"strings"
	"time"
)

// RecyclingCenter is a drop-off, buyback or collection point
type RecyclingCenter struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Address           string            `json:"address"`
	Latitude          float64           `json:"latitude"`
	Longitude         float64           `json:"longitude"`
	Phone             string            `json:"phone"`
	Email             string            `json:"email"`
	Website           string            `json:"website"`
	CenterType        string            `json:"center_type"`
	AcceptedMaterials []string          `json:"accepted_materials"`
	OpeningHours      map[string]string `json:"opening_hours"` // weekday name -> "9:00 AM - 6:00 PM" or "Closed"
	Description       string            `json:"description"`
	IsActive          bool              `json:"is_active"`
}

// IsOpenAt reports whether the center's published hours cover t.
// Hours that are missing, "Closed" or unparsable count as closed.
func (c RecyclingCenter) IsOpenAt(t time.Time) bool {
	hours, ok := c.OpeningHours[strings.ToLower(t.Weekday().String())]
	if !ok {
		return false
	}
	parts := strings.Split(hours, "-")
	if len(parts) != 2 {
		return false
	}
	open, err := time.Parse("3:04 PM", strings.TrimSpace(parts[0]))
	if err != nil {
		return false
	}
	closes, err := time.Parse("3:04 PM", strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	return minute >= open.Hour()*60+open.Minute() && minute < closes.Hour()*60+closes.Minute()
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestScheduled RequestStatus = "scheduled"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// RecyclingRequest is a citizen's pickup or drop-off request at a center
type RecyclingRequest struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	CenterID    int64         `json:"center_id"`
	CenterName  string        `json:"center_name"`
	WasteType   string        `json:"waste_type"`
	Quantity    string        `json:"quantity"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// WasteCategory groups recycling guides, e.g. plastic or e-waste
type WasteCategory struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CategoryType string `json:"category_type"`
	Description  string `json:"description"`
	Icon         string `json:"icon,omitempty"`
}

// RecyclingGuide is an article explaining how to recycle a material
type RecyclingGuide struct {
	ID              int64     `json:"id"`
	CategoryID      int64     `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	DifficultyLevel string    `json:"difficulty_level"`
	EstimatedTime   int       `json:"estimated_time"` // minutes
	Views           int       `json:"views"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserProgress records a user's progress through a guide
type UserProgress struct {
	UserID      int64      `json:"user_id"`
	GuideID     int64      `json:"guide_id"`
	Completed   bool       `json:"completed"`
	TimeSpent   int        `json:"time_spent"` // seconds
	QuizScore   *int       `json:"quiz_score"`
	CompletedAt *time.Time `json:"completed_at"`
}

// RecyclingFixtures is the reference data loaded into an empty deployment
type RecyclingFixtures struct {
	Categories []WasteCategory   `json:"categories"`
	Guides     []RecyclingGuide  `json:"guides"`
	Centers    []RecyclingCenter `json:"centers"`
}
