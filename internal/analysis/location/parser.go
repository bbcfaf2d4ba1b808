package location

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSuffix is the token suffix that marks a station name.
const DefaultSuffix = "역"

// trailing punctuation stripped from tokens before the suffix check.
const trailingPunctuation = ".!?~…"

var segmentSplitter = regexp.MustCompile(`[,;\r\n]+`)

// Parsed holds the outcome of scanning one chat message for station names.
// Stations are syntactically valid names in first-seen order; Ambiguous are
// tokens that look like place names but are missing the station suffix.
type Parsed struct {
	Stations  []string
	Ambiguous []string
}

// Parser applies the station-name grammar to free-text messages.
type Parser struct {
	suffix string
}

// NewParser builds a parser for the given station suffix, falling back to the
// default when empty.
func NewParser(suffix string) *Parser {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Parser{suffix: suffix}
}

// Parse splits the message on segment separators and whitespace, accepts
// tokens carrying the station suffix, merges bare suffix tokens with their
// preceding token, and classifies the remaining multi-character tokens as
// ambiguous. Ambiguous tokens already contained in an accepted name are
// dropped.
func (p *Parser) Parse(message string) Parsed {
	var (
		stations  []string
		ambiguous []string
	)

	for _, segment := range segmentSplitter.Split(message, -1) {
		tokens := strings.Fields(segment)
		for i := 0; i < len(tokens); i++ {
			tok := strings.TrimRight(tokens[i], trailingPunctuation)
			if tok == "" || tok == p.suffix {
				// A leading bare suffix has nothing to bind to.
				continue
			}

			if i+1 < len(tokens) && strings.TrimRight(tokens[i+1], trailingPunctuation) == p.suffix {
				// "강남 역" reads as "강남역".
				stations = appendName(stations, tok+p.suffix)
				i++
				continue
			}

			if strings.HasSuffix(tok, p.suffix) {
				stations = appendName(stations, tok)
				continue
			}

			if utf8.RuneCountInString(tok) > 1 {
				ambiguous = appendName(ambiguous, tok)
			}
		}
	}

	return Parsed{
		Stations:  stations,
		Ambiguous: filterCovered(ambiguous, stations),
	}
}

// appendName normalizes inner whitespace, discards names of a single rune or
// less, and keeps the slice free of duplicates.
func appendName(names []string, name string) []string {
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) <= 1 {
		return names
	}
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}

// filterCovered drops ambiguous tokens that already appear inside an accepted
// station name, so "강남 강남역" does not ask the user about "강남" again.
func filterCovered(ambiguous, stations []string) []string {
	if len(ambiguous) == 0 {
		return nil
	}

	kept := ambiguous[:0]
	for _, amb := range ambiguous {
		covered := false
		for _, station := range stations {
			if strings.Contains(station, amb) {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, amb)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
