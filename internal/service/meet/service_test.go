package meet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/session"
)

type fakeGeocoder struct {
	coords map[string]geo.Coordinate
}

func (f *fakeGeocoder) Geocode(_ context.Context, name string) (geo.Coordinate, bool, error) {
	coord, ok := f.coords[name]
	return coord, ok, nil
}

type fakeSearcher struct {
	ranked []meet.CandidatePlace
	radius []meet.CandidatePlace
}

func (f *fakeSearcher) SearchNearby(_ context.Context, _ geo.Coordinate, radiusM int) ([]meet.CandidatePlace, error) {
	if radiusM > 0 {
		return f.radius, nil
	}
	return f.ranked, nil
}

type lineInfo struct {
	own       string
	transfers []string
}

type fakeTransit struct {
	stations map[string][]meet.StationRecord
	lines    map[string]lineInfo
}

func (f *fakeTransit) SearchStations(_ context.Context, name string) ([]meet.StationRecord, error) {
	return f.stations[name], nil
}

func (f *fakeTransit) StationLines(_ context.Context, stationID string) (string, []string, error) {
	info, ok := f.lines[stationID]
	if !ok {
		return "", nil, errors.New("unknown station id")
	}
	return info.own, info.transfers, nil
}

type fakeSummarizer struct {
	text string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (string, bool) {
	if f.text == "" {
		return "", false
	}
	return f.text, true
}

var seoulCoords = map[string]geo.Coordinate{
	"강남역":   {Lat: 37.497952, Lng: 127.027619},
	"홍대입구역": {Lat: 37.557527, Lng: 126.924191},
	"신림역":   {Lat: 37.484201, Lng: 126.929715},
}

func testConfig() config.MeetConfig {
	return config.MeetConfig{
		TurnTimeout:     2 * time.Second,
		FallbackRadiusM: 1000,
		StationSuffix:   "역",
		AirportLineMark: "공항",
	}
}

// multiLineWorld wires fakes where the midpoint search yields two candidate
// places that both resolve to multi-line subway stations.
func multiLineWorld() (*fakeSearcher, *fakeTransit) {
	searcher := &fakeSearcher{
		ranked: []meet.CandidatePlace{
			{Name: "사당역 2호선", Coord: geo.Coordinate{Lat: 37.476538, Lng: 126.981611}},
			{Name: "동작역 4호선", Coord: geo.Coordinate{Lat: 37.502971, Lng: 126.979306}},
		},
	}
	transit := &fakeTransit{
		stations: map[string][]meet.StationRecord{
			"사당역 2호선": {
				{ID: "226", Name: "사당", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.476538, Lng: 126.981611}, HasCoord: true},
			},
			"동작역 4호선": {
				{ID: "431", Name: "동작", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.502971, Lng: 126.979306}, HasCoord: true},
			},
		},
		lines: map[string]lineInfo{
			"226": {own: "2호선", transfers: []string{"4호선"}},
			"431": {own: "4호선", transfers: []string{"9호선", "공항철도"}},
		},
	}
	return searcher, transit
}

func newTestService(t *testing.T, searcher *fakeSearcher, transit *fakeTransit, summarizer Summarizer) (*Service, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(time.Minute)
	geocoder := &fakeGeocoder{coords: seoulCoords}
	svc := NewService(store, geocoder, searcher, transit, summarizer, testConfig())
	return svc, store
}

func mustTurn(t *testing.T, svc *Service, userID, message string) *meet.TurnReply {
	t.Helper()
	reply, err := svc.HandleTurn(context.Background(), userID, message)
	if err != nil {
		t.Fatalf("HandleTurn(%q) err: %v", message, err)
	}
	return reply
}

func TestFirstMessageAsksForCount(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	reply := mustTurn(t, svc, "user-1", "안녕")
	if reply.Kind != meet.ReplyNeedMore {
		t.Fatalf("kind = %s, want need_more", reply.Kind)
	}

	sess, err := store.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if sess.Phase != meet.PhaseAwaitingCount {
		t.Fatalf("phase = %s, want awaiting_count", sess.Phase)
	}
	if sess.PartySize != 0 {
		t.Fatalf("party size set before count accepted: %d", sess.PartySize)
	}
}

func TestValidCountsAdvancePhase(t *testing.T) {
	for n := meet.MinPartySize; n <= meet.MaxPartySize; n++ {
		searcher, transit := multiLineWorld()
		svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})
		userID := fmt.Sprintf("user-%d", n)

		mustTurn(t, svc, userID, "hi")
		reply := mustTurn(t, svc, userID, fmt.Sprintf("%d", n))

		if reply.Kind != meet.ReplyNeedMore {
			t.Fatalf("n=%d: kind = %s", n, reply.Kind)
		}
		if !strings.Contains(reply.Message, fmt.Sprintf("%d", n)) {
			t.Fatalf("n=%d: prompt %q does not mention the count", n, reply.Message)
		}

		sess, err := store.Get(context.Background(), userID)
		if err != nil {
			t.Fatalf("n=%d: session missing: %v", n, err)
		}
		if sess.Phase != meet.PhaseCollecting || sess.PartySize != n {
			t.Fatalf("n=%d: session = %+v", n, sess)
		}
	}
}

func TestOutOfRangeCountDoesNotAdvance(t *testing.T) {
	for _, input := range []string{"1", "7", "100"} {
		searcher, transit := multiLineWorld()
		svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

		mustTurn(t, svc, "user-1", "hi")
		reply := mustTurn(t, svc, "user-1", input)
		if reply.Kind != meet.ReplyNeedMore {
			t.Fatalf("input %q: kind = %s", input, reply.Kind)
		}

		sess, err := store.Get(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("input %q: session missing: %v", input, err)
		}
		if sess.Phase != meet.PhaseAwaitingCount {
			t.Fatalf("input %q advanced the phase to %s", input, sess.Phase)
		}

		// The same phase must handle the next, corrected input.
		mustTurn(t, svc, "user-1", "3")
		sess, _ = store.Get(context.Background(), "user-1")
		if sess.Phase != meet.PhaseCollecting || sess.PartySize != 3 {
			t.Fatalf("input %q: retry not accepted, session = %+v", input, sess)
		}
	}
}

func TestNonNumericCountAsksAgain(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	reply := mustTurn(t, svc, "user-1", "여러 명이요")
	if reply.Kind != meet.ReplyNeedMore || reply.Message != msgCountNotNumber {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	sess, _ := store.Get(context.Background(), "user-1")
	if sess.Phase != meet.PhaseAwaitingCount {
		t.Fatalf("phase advanced without a count: %s", sess.Phase)
	}
}

func TestLocationsAccumulateAsSet(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "3")
	mustTurn(t, svc, "user-1", "강남역")
	mustTurn(t, svc, "user-1", "강남역")

	sess, err := store.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("session missing: %v", err)
	}
	if len(sess.Locations) != 1 {
		t.Fatalf("locations = %v, want a single entry", sess.Locations)
	}
}

func TestUnlocatableNameReported(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "3")
	reply := mustTurn(t, svc, "user-1", "강남역, 없는곳역")

	if !strings.Contains(reply.Message, "없는곳역") {
		t.Fatalf("message should list the unlocatable name: %q", reply.Message)
	}

	sess, _ := store.Get(context.Background(), "user-1")
	if len(sess.Locations) != 1 || sess.Locations[0] != "강남역" {
		t.Fatalf("locations = %v, want only the located name", sess.Locations)
	}
}

func TestAmbiguousTokenReported(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, _ := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "2")
	reply := mustTurn(t, svc, "user-1", "신촌")

	if !strings.Contains(reply.Message, "신촌") {
		t.Fatalf("message should surface the ambiguous token: %q", reply.Message)
	}
}

func TestEndToEndRecommendation(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{text: "동작역에서 만나는 것을 추천해요."})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "3")
	mustTurn(t, svc, "user-1", "강남역, 홍대입구역")
	reply := mustTurn(t, svc, "user-1", "신림역")

	if reply.Kind != meet.ReplyRecommendation {
		t.Fatalf("kind = %s, want recommendation (message %q)", reply.Kind, reply.Message)
	}
	if reply.Result == nil || !reply.Result.Success {
		t.Fatalf("result = %+v, want success", reply.Result)
	}
	if reply.Message != "동작역에서 만나는 것을 추천해요." {
		t.Fatalf("summarizer text not used: %q", reply.Message)
	}
	if len(reply.Result.Stations) != 2 {
		t.Fatalf("stations = %+v, want both candidates", reply.Result.Stations)
	}
	// 동작 serves three lines, 사당 only two.
	if reply.Result.Stations[0].Name != "동작" {
		t.Fatalf("ranking is not line-count descending: %+v", reply.Result.Stations)
	}

	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("session should be deleted after a recommendation, got %v", err)
	}
}

func TestSummarizerFailureUsesTemplate(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, _ := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "2")
	reply := mustTurn(t, svc, "user-1", "강남역, 홍대입구역")

	if reply.Kind != meet.ReplyRecommendation {
		t.Fatalf("kind = %s (message %q)", reply.Kind, reply.Message)
	}
	if !strings.Contains(reply.Message, "추천 역: 동작") {
		t.Fatalf("expected templated message, got %q", reply.Message)
	}
}

func TestNoStationNearMidpoint(t *testing.T) {
	searcher := &fakeSearcher{} // both modes empty, as for a midpoint at sea
	_, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "2")
	reply := mustTurn(t, svc, "user-1", "강남역, 홍대입구역")

	if reply.Kind != meet.ReplyError || reply.Message != msgNoStationNear {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// The session survives so the user can retry with other locations.
	if _, err := store.Get(context.Background(), "user-1"); err != nil {
		t.Fatalf("session should be kept: %v", err)
	}
}

func TestFallbackWhenAllCandidatesFiltered(t *testing.T) {
	searcher := &fakeSearcher{
		ranked: []meet.CandidatePlace{
			{Name: "신림역 2호선", Coord: geo.Coordinate{Lat: 37.484201, Lng: 126.929715}},
			{Name: "봉천역 2호선", Coord: geo.Coordinate{Lat: 37.482362, Lng: 126.941892}},
		},
	}
	transit := &fakeTransit{
		stations: map[string][]meet.StationRecord{
			"신림역 2호선": {
				{ID: "230", Name: "신림", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.484201, Lng: 126.929715}, HasCoord: true},
			},
			"봉천역 2호선": {
				{ID: "229", Name: "봉천", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.482362, Lng: 126.941892}, HasCoord: true},
			},
		},
		lines: map[string]lineInfo{
			"230": {own: "2호선"},
			"229": {own: "2호선"},
		},
	}
	svc, _ := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "2")
	reply := mustTurn(t, svc, "user-1", "강남역, 신림역")

	if reply.Kind != meet.ReplyRecommendation {
		t.Fatalf("kind = %s (message %q)", reply.Kind, reply.Message)
	}
	if reply.Result == nil || !reply.Result.Fallback {
		t.Fatalf("result should be fallback-tagged: %+v", reply.Result)
	}
	if len(reply.Result.Stations) != 1 {
		t.Fatalf("fallback must return exactly one station: %+v", reply.Result.Stations)
	}
	if !strings.Contains(reply.Message, msgFallbackNotice) {
		t.Fatalf("message missing fallback notice: %q", reply.Message)
	}
}

func TestSingleAirportLineAccepted(t *testing.T) {
	searcher := &fakeSearcher{
		ranked: []meet.CandidatePlace{
			{Name: "공덕역 공항철도", Coord: geo.Coordinate{Lat: 37.544018, Lng: 126.951592}},
		},
	}
	transit := &fakeTransit{
		stations: map[string][]meet.StationRecord{
			"공덕역 공항철도": {
				{ID: "4102", Name: "공덕", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.544018, Lng: 126.951592}, HasCoord: true},
			},
		},
		lines: map[string]lineInfo{
			"4102": {own: "공항철도"},
		},
	}
	svc, _ := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "2")
	reply := mustTurn(t, svc, "user-1", "강남역, 홍대입구역")

	if reply.Kind != meet.ReplyRecommendation {
		t.Fatalf("kind = %s (message %q)", reply.Kind, reply.Message)
	}
	if reply.Result.Fallback {
		t.Fatal("an airport-line station qualifies without the fallback path")
	}
	if len(reply.Result.Stations) != 1 || reply.Result.Stations[0].Name != "공덕" {
		t.Fatalf("stations = %+v", reply.Result.Stations)
	}
}

func TestResetClearsSession(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	mustTurn(t, svc, "user-1", "hi")
	mustTurn(t, svc, "user-1", "3")

	prompt, err := svc.Reset(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Reset err: %v", err)
	}
	if prompt != msgAskCount {
		t.Fatalf("prompt = %q", prompt)
	}
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
}

func TestUnknownPhaseResets(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, store := newTestService(t, searcher, transit, &fakeSummarizer{})

	if err := store.Put(context.Background(), meet.Session{UserID: "user-1", Phase: meet.Phase("bogus")}); err != nil {
		t.Fatalf("Put err: %v", err)
	}

	reply := mustTurn(t, svc, "user-1", "hi")
	if reply.Kind != meet.ReplyError || reply.Message != msgStartOver {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("corrupt session should be deleted, got %v", err)
	}
}

func TestHandleTurnRequiresUserID(t *testing.T) {
	searcher, transit := multiLineWorld()
	svc, _ := newTestService(t, searcher, transit, &fakeSummarizer{})

	if _, err := svc.HandleTurn(context.Background(), "  ", "hi"); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
}

func TestRankStations(t *testing.T) {
	ranked := rankStations([]meet.RecommendedStation{
		{Name: "사당", LineCount: 2, Lines: []string{"2호선", "4호선"}},
		{Name: "왕십리", LineCount: 4, Lines: []string{"2호선", "5호선", "수인분당선", "경의중앙선"}},
		{Name: "사당", LineCount: 5, Lines: []string{"a", "b", "c", "d", "e"}},
	})

	if len(ranked) != 2 {
		t.Fatalf("dedup failed: %+v", ranked)
	}
	if ranked[0].Name != "사당" || ranked[0].LineCount != 5 {
		t.Fatalf("dedup must keep the higher line count: %+v", ranked[0])
	}
	if ranked[1].LineCount > ranked[0].LineCount {
		t.Fatalf("ranking not monotonic: %+v", ranked)
	}
}

func TestCollectLines(t *testing.T) {
	lines := collectLines(" 2호선 ", []string{"4호선", "", "2호선", "  "})
	if len(lines) != 2 || lines[0] != "2호선" || lines[1] != "4호선" {
		t.Fatalf("collectLines = %v", lines)
	}
}

func TestNearestEligibleSkipsZeroCoords(t *testing.T) {
	from := geo.Coordinate{Lat: 37.5, Lng: 127.0}
	records := []meet.StationRecord{
		{ID: "zero", Name: "zero", Class: meet.StationClassSubway, Coord: geo.Coordinate{}, HasCoord: true},
		{ID: "near", Name: "near", Class: meet.StationClassSubway, Coord: geo.Coordinate{Lat: 37.51, Lng: 127.01}, HasCoord: true},
		{ID: "bus", Name: "bus", Class: 4, Coord: from, HasCoord: true},
	}

	best, found := nearestEligible(records, from)
	if !found || best.ID != "near" {
		t.Fatalf("best = %+v found=%v", best, found)
	}
}
