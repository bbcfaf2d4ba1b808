package odsay

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

// Client calls the ODsay transit-network API for station search and
// per-station line information.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient builds an ODsay client from configuration.
func NewClient(cfg config.OdsayConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

type searchStationResponse struct {
	Result struct {
		Station []struct {
			StationID    json.Number `json:"stationID"`
			StationName  string      `json:"stationName"`
			StationClass int         `json:"stationClass"`
			X            json.Number `json:"x"`
			Y            json.Number `json:"y"`
		} `json:"station"`
	} `json:"result"`
	Error json.RawMessage `json:"error,omitempty"`
}

type stationInfoResponse struct {
	Result struct {
		LaneName string `json:"laneName"`
		ExOBJ    []struct {
			LaneName string `json:"laneName"`
		} `json:"exOBJ"`
	} `json:"result"`
	Error json.RawMessage `json:"error,omitempty"`
}

// SearchStations resolves a station name to the transit network's station
// records. Records without usable coordinates are kept but flagged so the
// matcher can rank them last.
func (c *Client) SearchStations(ctx context.Context, name string) ([]meet.StationRecord, error) {
	params := url.Values{}
	params.Set("stationName", name)
	params.Set("stationClass", strconv.Itoa(meet.StationClassSubway))

	var body searchStationResponse
	if err := c.get(ctx, "/v1/api/searchStation", params, &body); err != nil {
		return nil, err
	}
	if len(body.Error) > 0 {
		return nil, fmt.Errorf("odsay searchStation error: %s", body.Error)
	}

	records := make([]meet.StationRecord, 0, len(body.Result.Station))
	for _, st := range body.Result.Station {
		rec := meet.StationRecord{
			ID:    st.StationID.String(),
			Name:  st.StationName,
			Class: st.StationClass,
		}
		lng, lngErr := st.X.Float64()
		lat, latErr := st.Y.Float64()
		if lngErr == nil && latErr == nil {
			rec.Coord = geo.Coordinate{Lat: lat, Lng: lng}
			rec.HasCoord = true
		}
		records = append(records, rec)
	}
	return records, nil
}

// StationLines returns the station's own line name plus the line names of all
// transfer stations.
func (c *Client) StationLines(ctx context.Context, stationID string) (string, []string, error) {
	params := url.Values{}
	params.Set("stationID", stationID)

	var body stationInfoResponse
	if err := c.get(ctx, "/v1/api/subwayStationInfo", params, &body); err != nil {
		return "", nil, err
	}
	if len(body.Error) > 0 {
		return "", nil, fmt.Errorf("odsay subwayStationInfo error: %s", body.Error)
	}

	transfers := make([]string, 0, len(body.Result.ExOBJ))
	for _, ex := range body.Result.ExOBJ {
		transfers = append(transfers, ex.LaneName)
	}
	return body.Result.LaneName, transfers, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build odsay request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("odsay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("odsay responded %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode odsay response: %w", err)
	}
	return nil
}
