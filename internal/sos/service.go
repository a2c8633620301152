// Package sos handles emergency assistance requests: it asks the generative
// model for immediate guidance, looks up the nearest facility, records the
// request and alerts officials.
package sos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/notifications"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FallbackResponse is shown when the model cannot answer
const FallbackResponse = "I apologize, but I'm having trouble generating a response. Please contact emergency services immediately if this is a serious situation."

// Location used to pick a maps key for the emergency page
const (
	DefaultLatitude     = 19.9975
	DefaultLongitude    = 73.7898
	DefaultFacilityType = "hospital"
)

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FacilityFinder locates emergency facilities and exposes the maps keys
type FacilityFinder interface {
	WorkingKey(ctx context.Context, lat, lng float64, facilityType string) (clients.KeyResult, error)
	NearestFacility(ctx context.Context, lat, lng float64, facilityType string) (*models.Facility, error)
	PrimaryKey() string
}

// Request is an incoming SOS submission
type Request struct {
	EmergencyType models.EmergencyType `json:"emergency_type"`
	Description   string               `json:"description"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
}

// Response is returned to the citizen
type Response struct {
	AIResponse      string           `json:"ai_response"`
	NearestFacility *models.Facility `json:"nearest_facility"`
}

// Service processes emergency requests
type Service struct {
	generator     Generator
	places        FacilityFinder
	store         store.EmergencyStore
	notifications notifications.NotificationInterface
	now           func() time.Time
}

func NewService(generator Generator, places FacilityFinder, st store.EmergencyStore, notifier notifications.NotificationInterface) *Service {
	return &Service{
		generator:     generator,
		places:        places,
		store:         st,
		notifications: notifier,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit handles an SOS request for user. Only persistence failures are
// returned; model, maps and notification failures degrade gracefully.
func (s *Service) Submit(ctx context.Context, user models.User, req Request) (*Response, error) {
	logrus.WithFields(logrus.Fields{
		"user":      user.Username,
		"type":      req.EmergencyType,
		"latitude":  req.Latitude,
		"longitude": req.Longitude,
	}).Warn("Emergency request received")

	aiResponse := s.guidance(ctx, req)

	facilityType := req.EmergencyType.FacilityType()
	facility, err := s.places.NearestFacility(ctx, req.Latitude, req.Longitude, facilityType)
	if err != nil {
		if errors.Is(err, clients.ErrNoWorkingKey) {
			logrus.Error("Could not find a working Google Maps API key")
		} else {
			logrus.Errorf("Failed to find nearest %s: %v", facilityType, err)
		}
		facility = nil
	}

	record, err := s.store.CreateEmergencyRequest(ctx, models.EmergencyRequest{
		UserID:          user.ID,
		EmergencyType:   req.EmergencyType,
		Description:     req.Description,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		AIResponse:      aiResponse,
		NearestFacility: facility,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save emergency request: %w", err)
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "critical",
		Title:     fmt.Sprintf("SOS: %s emergency reported by %s", record.EmergencyType, user.Username),
		Message:   "A citizen requested emergency assistance through the portal.",
		Emergency: &record,
		CreatedAt: s.now(),
	}
	if err := s.notifications.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send emergency alert: %v", err)
	}

	return &Response{AIResponse: aiResponse, NearestFacility: facility}, nil
}

func (s *Service) guidance(ctx context.Context, req Request) string {
	prompt := fmt.Sprintf("Emergency situation: %s. Details: %s. Provide a calm, helpful response with immediate steps to take.",
		req.EmergencyType, req.Description)

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logrus.Errorf("Gemini API error: %v", err)
		return FallbackResponse
	}
	if strings.TrimSpace(text) == "" {
		return FallbackResponse
	}
	return text
}

// PageKey returns the maps key to embed in the emergency page
func (s *Service) PageKey(ctx context.Context) string {
	result, err := s.places.WorkingKey(ctx, DefaultLatitude, DefaultLongitude, DefaultFacilityType)
	if err == nil && result.Key != "" {
		return result.Key
	}
	return s.places.PrimaryKey()
}

// History lists the user's past requests, newest first
func (s *Service) History(ctx context.Context, user models.User) ([]models.EmergencyRequest, error) {
	return s.store.ListEmergencyRequests(ctx, user.ID)
}
