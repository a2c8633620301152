package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/cache"
	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// PlacesResponse is the subset of a nearbysearch response the app reads
type PlacesResponse struct {
	Status  string        `json:"status"`
	Results []PlaceResult `json:"results"`
}

type PlaceResult struct {
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// KeyResult pairs the key that answered with its response
type KeyResult struct {
	Key      string
	Response *PlacesResponse
}

// PlacesClient searches nearby places, rotating through the configured keys
type PlacesClient struct {
	keys    []string
	baseURL string
	radius  int
	client  *resty.Client

	responses   *cache.Cache // places:<lat>,<lng>:<type>
	workingKeys *cache.Cache // memoized WorkingKey calls
}

// NewPlacesClient creates a client over keys, tried in order
func NewPlacesClient(keys []string, baseURL string, radius int, responses, workingKeys *cache.Cache) *PlacesClient {
	return &PlacesClient{
		keys:        keys,
		baseURL:     strings.TrimRight(baseURL, "/"),
		radius:      radius,
		client:      resty.New().SetTimeout(15 * time.Second),
		responses:   responses,
		workingKeys: workingKeys,
	}
}

func (p *PlacesClient) Name() string {
	return "google-places"
}

func (p *PlacesClient) IsEnabled() bool {
	return len(p.keys) > 0
}

// PrimaryKey returns the first configured key, or ""
func (p *PlacesClient) PrimaryKey() string {
	if len(p.keys) == 0 {
		return ""
	}
	return p.keys[0]
}

// WorkingKey finds a key that can answer a nearby search for the location
// and facility type, returning it with the response. Each key is tried once.
func (p *PlacesClient) WorkingKey(ctx context.Context, lat, lng float64, facilityType string) (KeyResult, error) {
	key := cache.Key("working_maps_api", "WorkingKey", []any{lat, lng, facilityType}, nil)
	return cache.Remember(p.workingKeys, key, func() (KeyResult, error) {
		return p.findWorkingKey(ctx, lat, lng, facilityType)
	})
}

func (p *PlacesClient) findWorkingKey(ctx context.Context, lat, lng float64, facilityType string) (KeyResult, error) {
	logrus.Debugf("Checking working Maps API key for %v,%v, %s", lat, lng, facilityType)

	responseKey := fmt.Sprintf("places:%v,%v:%s", lat, lng, facilityType)
	if cached, ok := p.responses.Get(responseKey); ok {
		if result, ok := cached.(KeyResult); ok {
			logrus.Debugf("Using cached Places API response for %s", responseKey)
			metrics.RecordCacheLookup(p.responses.Name(), true)
			return result, nil
		}
	}
	metrics.RecordCacheLookup(p.responses.Name(), false)

	for _, apiKey := range p.keys {
		data, err := p.nearbySearch(ctx, apiKey, lat, lng, facilityType)
		metrics.RecordExternalCall(p.Name(), err)
		if err != nil {
			logrus.Errorf("Error with Maps API key %s: %v", maskKey(apiKey), err)
			continue
		}

		result := KeyResult{Key: apiKey, Response: data}
		p.responses.Set(responseKey, result)
		return result, nil
	}

	return KeyResult{}, ErrNoWorkingKey
}

func (p *PlacesClient) nearbySearch(ctx context.Context, apiKey string, lat, lng float64, facilityType string) (*PlacesResponse, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"location": fmt.Sprintf("%v,%v", lat, lng),
			"radius":   strconv.Itoa(p.radius),
			"type":     facilityType,
			"key":      apiKey,
		}).
		Get(p.baseURL + "/nearbysearch/json")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode())
	}

	var data PlacesResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	if data.Status == "OVER_QUERY_LIMIT" {
		return nil, fmt.Errorf("places API key over query limit")
	}
	return &data, nil
}

// NearestFacility returns the first nearby facility of the given type, or
// nil when the search found nothing.
func (p *PlacesClient) NearestFacility(ctx context.Context, lat, lng float64, facilityType string) (*models.Facility, error) {
	result, err := p.WorkingKey(ctx, lat, lng, facilityType)
	if err != nil {
		return nil, err
	}
	if result.Response == nil || len(result.Response.Results) == 0 {
		return nil, nil
	}

	nearest := result.Response.Results[0]
	return &models.Facility{
		Name:      nearest.Name,
		Address:   nearest.Vicinity,
		Latitude:  nearest.Geometry.Location.Lat,
		Longitude: nearest.Geometry.Location.Lng,
	}, nil
}

func (p *PlacesClient) Check(ctx context.Context) error {
	if !p.IsEnabled() {
		return ErrNotConfigured
	}
	_, err := p.findWorkingKey(ctx, 19.0760, 72.8777, "hospital")
	return err
}

// maskKey hides all but the last four characters of a key for logging
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
