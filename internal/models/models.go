package models

import "time"

// User is a registered citizen or official
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// Discussion is a user-authored post, optionally pinned to a location
type Discussion struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	LocationName string    `json:"location_name"`
	Image        string    `json:"image,omitempty"` // media storage path
	LikesCount   int       `json:"upvotes_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment is a reply on a discussion
type Comment struct {
	ID           int64     `json:"id"`
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ComplaintType classifies a civic complaint
type ComplaintType string

const (
	ComplaintPothole      ComplaintType = "POTHOLE"
	ComplaintWaterLeak    ComplaintType = "WATER_LEAK"
	ComplaintBrokenSignal ComplaintType = "BROKEN_SIGNAL"
	ComplaintGarbage      ComplaintType = "GARBAGE"
	ComplaintOther        ComplaintType = "OTHER"
)

// Valid reports whether t is a known complaint type
func (t ComplaintType) Valid() bool {
	switch t {
	case ComplaintPothole, ComplaintWaterLeak, ComplaintBrokenSignal, ComplaintGarbage, ComplaintOther:
		return true
	}
	return false
}

// ComplaintStatus tracks the handling of a complaint
type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "PENDING"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintPending, ComplaintInProgress, ComplaintResolved:
		return true
	}
	return false
}

// Complaint is a citizen report of a civic issue
type Complaint struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Username      string          `json:"username"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Image         string          `json:"image,omitempty"`
	ComplaintType ComplaintType   `json:"complaint_type"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	Status        ComplaintStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EmergencyType is the category of an SOS call
type EmergencyType string

const (
	EmergencyMedical EmergencyType = "MEDICAL"
	EmergencyFire    EmergencyType = "FIRE"
	EmergencyPolice  EmergencyType = "POLICE"
	EmergencyOther   EmergencyType = "OTHER"
)

func (t EmergencyType) Valid() bool {
	switch t {
	case EmergencyMedical, EmergencyFire, EmergencyPolice, EmergencyOther:
		return true
	}
	return false
}

// FacilityType maps the emergency to the places category searched for help
func (t EmergencyType) FacilityType() string {
	switch t {
	case EmergencyMedical:
		return "hospital"
	case EmergencyFire:
		return "fire_station"
	default:
		return "police"
	}
}

// Facility is the nearest emergency facility found for a request
type Facility struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EmergencyRequest is a submitted SOS record
type EmergencyRequest struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	EmergencyType   EmergencyType `json:"emergency_type"`
	Description     string        `json:"description"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	AIResponse      string        `json:"ai_response"`
	NearestFacility *Facility     `json:"nearest_facility"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ImportReport summarises one run of the CSV loaders
type ImportReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Trigger     string          `json:"trigger"` // "schedule", "manual", "cli"
	Results     []DatasetResult `json:"results"`
	Duration    string          `json:"duration"`
}

// DatasetResult is the outcome of loading one CSV dataset
type DatasetResult struct {
	Dataset string `json:"dataset"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether any dataset failed to load
func (r *ImportReport) Failed() bool {
	for _, res := range r.Results {
		if res.Error != "" {
			return true
		}
	}
	return false
}

// Alert represents an urgent notification
type Alert struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"` // "critical", "urgent", "info"
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Emergency *EmergencyRequest `json:"emergency,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
