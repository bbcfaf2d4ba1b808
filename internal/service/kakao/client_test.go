package kakao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.KakaoConfig{APIKey: "test-key", BaseURL: srv.URL, Timeout: time.Second})
}

func TestGeocodeFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "KakaoAK test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "강남역" {
			t.Errorf("unexpected query: %q", got)
		}
		w.Write([]byte(`{"documents":[{"place_name":"강남역 2호선","x":"127.027619","y":"37.497952"}]}`))
	})

	coord, ok, err := client.Geocode(context.Background(), "강남역")
	if err != nil {
		t.Fatalf("Geocode err: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if coord.Lat != 37.497952 || coord.Lng != 127.027619 {
		t.Fatalf("unexpected coordinate: %+v", coord)
	}
}

func TestGeocodeMiss(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents":[]}`))
	})

	_, ok, err := client.Geocode(context.Background(), "없는곳역")
	if err != nil {
		t.Fatalf("Geocode err: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestGeocodeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, _, err := client.Geocode(context.Background(), "강남역"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestSearchNearbyRankedMode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category_group_code") != "SW8" {
			t.Errorf("unexpected category: %q", q.Get("category_group_code"))
		}
		if q.Get("sort") != "distance" {
			t.Errorf("ranked mode should sort by distance, got %q", q.Get("sort"))
		}
		if q.Get("radius") != "" {
			t.Errorf("ranked mode must not send a radius, got %q", q.Get("radius"))
		}
		w.Write([]byte(`{"documents":[
			{"place_name":"사당역 2호선","x":"126.981611","y":"37.476538"},
			{"place_name":"이수역 7호선","x":"126.982329","y":"37.487521"},
			{"place_name":"broken","x":"not-a-number","y":"37.0"}
		]}`))
	})

	places, err := client.SearchNearby(context.Background(), geo.Coordinate{Lat: 37.48, Lng: 126.98}, 0)
	if err != nil {
		t.Fatalf("SearchNearby err: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 parseable places, got %d", len(places))
	}
	if places[0].Name != "사당역 2호선" {
		t.Fatalf("unexpected first place: %+v", places[0])
	}
}

func TestSearchNearbyRadiusMode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("radius") != "1000" {
			t.Errorf("expected radius=1000, got %q", q.Get("radius"))
		}
		if q.Get("sort") == "distance" {
			t.Errorf("radius mode must not request distance sort")
		}
		w.Write([]byte(`{"documents":[]}`))
	})

	places, err := client.SearchNearby(context.Background(), geo.Coordinate{Lat: 37.48, Lng: 126.98}, 1000)
	if err != nil {
		t.Fatalf("SearchNearby err: %v", err)
	}
	if len(places) != 0 {
		t.Fatalf("expected no places, got %d", len(places))
	}
}
