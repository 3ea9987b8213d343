// Package geo defines the device-location collaborator used to enrich an
// order draft. Location is strictly best-effort: every failure kind here is
// swallowed by the caller and only omits the optional fields.
package geo

import (
	"context"
	"fmt"
	"time"
)

type Position struct {
	Latitude  float64
	Longitude float64
	// Details is a human-readable description of the position, when the
	// provider can produce one (reverse geocoding is the provider's business).
	Details string
}

type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindPositionUnavailable ErrorKind = "position_unavailable"
	KindTimeout             ErrorKind = "timeout"
)

type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("geolocation failed: %s", e.Kind)
}

// Options mirror the knobs the position request is made with. High accuracy
// is always requested and cached positions are never reused.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   0,
	}
}

// Locator resolves the device's current position. Implementations must honor
// Options.Timeout and return *Error with one of the three kinds on failure.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}
