package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/go-resty/resty/v2"
)

// Point is a latitude/longitude pair
type Point struct {
	Lat float64
	Lng float64
}

// RoutesClient fetches driving directions from OpenRouteService
type RoutesClient struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

func NewRoutesClient(apiKey, baseURL string) *RoutesClient {
	return &RoutesClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RoutesClient) Name() string {
	return "openrouteservice"
}

func (r *RoutesClient) IsEnabled() bool {
	return r.apiKey != ""
}

// Directions returns the raw GeoJSON route between two points
func (r *RoutesClient) Directions(ctx context.Context, start, end Point) (json.RawMessage, error) {
	route, err := r.directions(ctx, start, end)
	metrics.RecordExternalCall(r.Name(), err)
	return route, err
}

func (r *RoutesClient) directions(ctx context.Context, start, end Point) (json.RawMessage, error) {
	// ORS takes lng,lat order
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.apiKey).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(map[string]string{
			"start": fmt.Sprintf("%v,%v", start.Lng, start.Lat),
			"end":   fmt.Sprintf("%v,%v", end.Lng, end.Lat),
		}).
		Get(r.baseURL + "/driving-car")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("openrouteservice returned status %d", resp.StatusCode())
	}
	if !json.Valid(resp.Body()) {
		return nil, fmt.Errorf("openrouteservice returned invalid JSON")
	}
	return json.RawMessage(resp.Body()), nil
}

func (r *RoutesClient) Check(ctx context.Context) error {
	if !r.IsEnabled() {
		return ErrNotConfigured
	}
	_, err := r.directions(ctx, Point{Lat: 19.0760, Lng: 72.8777}, Point{Lat: 19.0896, Lng: 72.8656})
	return err
}
