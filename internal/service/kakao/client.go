package kakao

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

// categorySubway is the Kakao Local category group for subway stations.
const categorySubway = "SW8"

// Client calls the Kakao Local REST API. It serves both the geocoder and the
// nearby-place search.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient builds a Kakao Local client from configuration. The HTTP timeout
// bounds every single call so one slow lookup cannot starve a whole turn.
func NewClient(cfg config.KakaoConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

// document is one Kakao Local search result. Coordinates arrive as strings.
type document struct {
	PlaceName string `json:"place_name"`
	X         string `json:"x"`
	Y         string `json:"y"`
}

type searchResponse struct {
	Documents []document `json:"documents"`
}

// Geocode resolves a free-text place name to a coordinate via keyword search.
// The second return value is false when Kakao knows no such place.
func (c *Client) Geocode(ctx context.Context, name string) (geo.Coordinate, bool, error) {
	params := url.Values{}
	params.Set("query", name)
	params.Set("size", "1")

	var body searchResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", params, &body); err != nil {
		return geo.Coordinate{}, false, err
	}
	if len(body.Documents) == 0 {
		return geo.Coordinate{}, false, nil
	}

	coord, err := body.Documents[0].coordinate()
	if err != nil {
		return geo.Coordinate{}, false, err
	}
	return coord, true, nil
}

// SearchNearby returns subway-station places around center. A zero radiusM
// runs the distance-ranked mode; a positive radiusM bounds the search instead.
func (c *Client) SearchNearby(ctx context.Context, center geo.Coordinate, radiusM int) ([]meet.CandidatePlace, error) {
	params := url.Values{}
	params.Set("category_group_code", categorySubway)
	params.Set("x", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	if radiusM > 0 {
		params.Set("radius", strconv.Itoa(radiusM))
	} else {
		params.Set("sort", "distance")
	}

	var body searchResponse
	if err := c.get(ctx, "/v2/local/search/category.json", params, &body); err != nil {
		return nil, err
	}

	places := make([]meet.CandidatePlace, 0, len(body.Documents))
	for _, doc := range body.Documents {
		coord, err := doc.coordinate()
		if err != nil {
			// Skip entries with malformed coordinates instead of failing the
			// whole search.
			continue
		}
		places = append(places, meet.CandidatePlace{Name: doc.PlaceName, Coord: coord})
	}
	return places, nil
}

func (d document) coordinate() (geo.Coordinate, error) {
	lng, err := strconv.ParseFloat(d.X, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse x %q: %w", d.X, err)
	}
	lat, err := strconv.ParseFloat(d.Y, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse y %q: %w", d.Y, err)
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build kakao request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("kakao request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("kakao responded %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode kakao response: %w", err)
	}
	return nil
}
