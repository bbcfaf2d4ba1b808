package meet

import (
	"context"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

// Geocoder resolves a free-text place name to a coordinate. ok is false when
// the provider knows no such place.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (coord geo.Coordinate, ok bool, err error)
}

// PlaceSearcher finds transit-station places around a center. radiusM of zero
// selects the distance-ranked mode; a positive value bounds the search to that
// radius in meters.
type PlaceSearcher interface {
	SearchNearby(ctx context.Context, center geo.Coordinate, radiusM int) ([]meet.CandidatePlace, error)
}

// TransitLookup answers name-based station search and per-station line
// queries against the transit network.
type TransitLookup interface {
	SearchStations(ctx context.Context, name string) ([]meet.StationRecord, error)
	StationLines(ctx context.Context, stationID string) (own string, transfers []string, err error)
}

// Summarizer turns a structured candidate prompt into chat text. ok is false
// when no usable text is available and the caller should template the message
// itself.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (text string, ok bool)
}
