package clients

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when a client has no API key
	ErrNotConfigured = errors.New("api key not configured")
	// ErrNoWorkingKey is returned when every configured maps key failed
	ErrNoWorkingKey = errors.New("no working maps api key")
)

// Client is the contract shared by the third-party API clients
type Client interface {
	Name() string
	IsEnabled() bool
	// Check performs a cheap request to verify connectivity and credentials
	Check(ctx context.Context) error
}
