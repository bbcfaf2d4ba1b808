package meet

import "github.com/prj-capstone-2025-syu/i-go-meet/internal/model/geo"

// StationClassSubway is the transit-lookup station class for subway stations.
const StationClassSubway = 2

// CandidatePlace is a point of interest returned by the nearby-place search,
// before it has been matched to a real transit station.
type CandidatePlace struct {
	Name  string         `json:"name"`
	Coord geo.Coordinate `json:"coordinate"`
}

// StationRecord is one result of the transit network's name-based station
// search. Only subway-class records carrying a coordinate are eligible for
// matching.
type StationRecord struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Class    int            `json:"stationClass"`
	Coord    geo.Coordinate `json:"coordinate"`
	HasCoord bool           `json:"-"`
}

// Eligible reports whether the record can take part in place matching.
func (r StationRecord) Eligible() bool {
	return r.Class == StationClassSubway && r.HasCoord
}

// RecommendedStation is one ranked output entry. LineCount is the number of
// distinct lines (own + transfers) serving the station.
type RecommendedStation struct {
	Name      string         `json:"stationName"`
	Coord     geo.Coordinate `json:"coordinate"`
	Lines     []string       `json:"lines"`
	LineCount int            `json:"lineCount"`
}

// Result is the terminal artifact of one recommendation run.
type Result struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Stations []RecommendedStation `json:"stations,omitempty"`
	Fallback bool                 `json:"fallback,omitempty"`
}

// ReplyKind discriminates the three possible outcomes of one turn.
type ReplyKind string

const (
	ReplyNeedMore       ReplyKind = "need_more"
	ReplyRecommendation ReplyKind = "recommendation"
	ReplyError          ReplyKind = "error"
)

// TurnReply is what the orchestrator hands back to the request layer for one
// inbound message.
type TurnReply struct {
	Kind    ReplyKind `json:"kind"`
	Message string    `json:"message"`
	Result  *Result   `json:"result,omitempty"`
}
