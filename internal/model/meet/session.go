package meet

import "time"

// Phase is the current step of one user's multi-turn conversation.
type Phase string

const (
	PhaseInitial       Phase = "initial"
	PhaseAwaitingCount Phase = "awaiting_count"
	PhaseCollecting    Phase = "collecting_locations"
)

// Party size bounds accepted during the awaiting-count phase.
const (
	MinPartySize = 2
	MaxPartySize = 6
)

// Session captures one user's in-flight conversation. PartySize stays zero
// until the count has been accepted, and Locations is only populated while
// collecting.
type Session struct {
	UserID    string    `json:"userId"`
	Phase     Phase     `json:"phase"`
	PartySize int       `json:"partySize,omitempty"`
	Locations []string  `json:"locations,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasLocation reports whether name has already been collected.
func (s *Session) HasLocation(name string) bool {
	for _, loc := range s.Locations {
		if loc == name {
			return true
		}
	}
	return false
}

// AddLocation appends name preserving insertion order. Re-adding an existing
// name is a no-op so repeated submissions cannot inflate the set.
func (s *Session) AddLocation(name string) bool {
	if s.HasLocation(name) {
		return false
	}
	s.Locations = append(s.Locations, name)
	return true
}
