package meet

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

const (
	defaultTurnTimeout     = 10 * time.Second
	defaultFallbackRadiusM = 1000
	defaultAirportLineMark = "공항"
)

// recommend runs the full pipeline for the finalized origin names: geocode,
// midpoint, two-stage place search, station matching, ranking and summary.
func (s *Service) recommend(ctx context.Context, origins []string) (*meet.Result, error) {
	coords, err := s.geocodeOrigins(ctx, origins)
	if err != nil {
		return nil, err
	}

	mid, err := geo.Midpoint(coords)
	if err != nil {
		return nil, err
	}

	places, err := s.searchPlaces(ctx, mid)
	if err != nil {
		return nil, err
	}

	accepted := s.matchAll(ctx, places)
	if len(accepted) == 0 {
		return s.fallbackResult(ctx, mid, places)
	}

	ranked := rankStations(accepted)
	var message string
	if s.summarizer != nil {
		if text, ok := s.summarizer.Summarize(ctx, buildSummaryPrompt(origins, ranked)); ok {
			message = text
		}
	}
	if message == "" {
		message = msgTemplated(ranked[0])
	}

	return &meet.Result{Success: true, Message: message, Stations: ranked}, nil
}

// geocodeOrigins resolves the finalized names concurrently. Names that no
// longer resolve are skipped; the midpoint only needs the ones that do.
func (s *Service) geocodeOrigins(ctx context.Context, origins []string) ([]geo.Coordinate, error) {
	coords := make([]*geo.Coordinate, len(origins))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range origins {
		i, name := i, name
		g.Go(func() error {
			coord, ok, err := s.geocoder.Geocode(gctx, name)
			if err != nil {
				log.Printf("[meet] geocode %q failed during recommendation: %v", name, err)
				return nil
			}
			if ok {
				coords[i] = &coord
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := make([]geo.Coordinate, 0, len(coords))
	for _, c := range coords {
		if c != nil {
			resolved = append(resolved, *c)
		}
	}
	if len(resolved) == 0 {
		return nil, ErrLocationNotFound
	}
	return resolved, nil
}

// searchPlaces is the two-stage nearby search: distance-ranked first, then a
// fixed-radius retry. Adapter errors count as empty results; only both stages
// coming back empty is a hard failure.
func (s *Service) searchPlaces(ctx context.Context, mid geo.Coordinate) ([]meet.CandidatePlace, error) {
	places, err := s.places.SearchNearby(ctx, mid, 0)
	if err != nil {
		log.Printf("[meet] ranked place search failed: %v", err)
		places = nil
	}
	if len(places) > 0 {
		return places, nil
	}

	places, err = s.places.SearchNearby(ctx, mid, s.cfg.FallbackRadiusM)
	if err != nil {
		log.Printf("[meet] radius place search failed: %v", err)
		places = nil
	}
	if len(places) > 0 {
		return places, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrLocationNotFound
}

// matchAll runs the place-to-station matcher once per candidate place.
// Branches are independent: one failing or filtered match never aborts the
// others.
func (s *Service) matchAll(ctx context.Context, places []meet.CandidatePlace) []meet.RecommendedStation {
	matched := make([]*meet.RecommendedStation, len(places))
	g, gctx := errgroup.WithContext(ctx)
	for i, place := range places {
		i, place := i, place
		g.Go(func() error {
			matched[i] = s.matchStation(gctx, place, false)
			return nil
		})
	}
	_ = g.Wait()

	accepted := make([]meet.RecommendedStation, 0, len(matched))
	for _, st := range matched {
		if st != nil {
			accepted = append(accepted, *st)
		}
	}
	return accepted
}

// matchStation resolves one candidate place to a real subway station and its
// full line set. relaxed bypasses the line-count acceptance filter for the
// last-resort fallback. A nil return means the candidate is discarded.
func (s *Service) matchStation(ctx context.Context, place meet.CandidatePlace, relaxed bool) *meet.RecommendedStation {
	records, err := s.transit.SearchStations(ctx, place.Name)
	if err != nil {
		log.Printf("[meet] station search for %q failed: %v", place.Name, err)
		return nil
	}

	best, found := nearestEligible(records, place.Coord)
	if !found {
		return nil
	}

	own, transfers, err := s.transit.StationLines(ctx, best.ID)
	if err != nil {
		log.Printf("[meet] line lookup for %q (%s) failed: %v", best.Name, best.ID, err)
		return nil
	}

	lines := collectLines(own, transfers)
	if !relaxed && len(lines) < 2 && !s.hasAirportLine(lines) {
		return nil
	}

	return &meet.RecommendedStation{
		Name:      best.Name,
		Coord:     best.Coord,
		Lines:     lines,
		LineCount: len(lines),
	}
}

// fallbackResult handles the all-candidates-filtered case: re-match the
// single place nearest to the midpoint and accept it unconditionally.
func (s *Service) fallbackResult(ctx context.Context, mid geo.Coordinate, places []meet.CandidatePlace) (*meet.Result, error) {
	nearest, found := nearestPlace(places, mid)
	if !found {
		return nil, errNoRecommendable
	}

	station := s.matchStation(ctx, nearest, true)
	if station == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errNoRecommendable
	}

	message := msgFallbackNotice + "\n" + msgTemplated(*station)
	return &meet.Result{
		Success:  true,
		Message:  message,
		Stations: []meet.RecommendedStation{*station},
		Fallback: true,
	}, nil
}

// nearestEligible picks the subway-class record closest to the place's own
// coordinate. Records at (0,0) rank as infinitely far.
func nearestEligible(records []meet.StationRecord, from geo.Coordinate) (meet.StationRecord, bool) {
	var (
		best     meet.StationRecord
		bestDist = math.Inf(1)
		found    bool
	)
	for _, rec := range records {
		if !rec.Eligible() {
			continue
		}
		dist := math.Inf(1)
		if !rec.Coord.IsZero() {
			dist = geo.DistanceM(from, rec.Coord)
		}
		if !found || dist < bestDist {
			best = rec
			bestDist = dist
			found = true
		}
	}
	return best, found
}

func nearestPlace(places []meet.CandidatePlace, from geo.Coordinate) (meet.CandidatePlace, bool) {
	var (
		best     meet.CandidatePlace
		bestDist = math.Inf(1)
		found    bool
	)
	for _, place := range places {
		dist := geo.DistanceM(from, place.Coord)
		if !found || dist < bestDist {
			best = place
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// collectLines unions the station's own line with its transfer lines,
// trimming whitespace and dropping empties and duplicates.
func collectLines(own string, transfers []string) []string {
	var lines []string
	seen := make(map[string]struct{})
	for _, line := range append([]string{own}, transfers...) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

func (s *Service) hasAirportLine(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, s.cfg.AirportLineMark) {
			return true
		}
	}
	return false
}

// rankStations sorts by line count descending, deduplicates by station name
// keeping the higher line count, and re-sorts the deduplicated list. Name
// order breaks ties so the ranking is deterministic.
func rankStations(stations []meet.RecommendedStation) []meet.RecommendedStation {
	byName := make(map[string]meet.RecommendedStation, len(stations))
	for _, st := range stations {
		if existing, ok := byName[st.Name]; ok && existing.LineCount >= st.LineCount {
			continue
		}
		byName[st.Name] = st
	}

	ranked := make([]meet.RecommendedStation, 0, len(byName))
	for _, st := range byName {
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].LineCount != ranked[j].LineCount {
			return ranked[i].LineCount > ranked[j].LineCount
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
