// Package patterns is the data-driven pattern library for legal document
// analysis.  Every named regex and keyword table the classifier, risk
// analyzer, segmenter, and summarizer consult lives here, so extending the
// library never requires touching the components that consume it.
//
// All regexes are compiled once at package init and are safe for concurrent
// use; the package holds no mutable state.
package patterns

import "regexp"

// Severity is the risk tier assigned to a pattern group.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Weight returns the aggregation weight of the tier: high=1.0, medium=0.6,
// low=0.3.  Unknown severities weigh 0.5.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 1.0
	case SeverityMedium:
		return 0.6
	case SeverityLow:
		return 0.3
	default:
		return 0.5
	}
}

// NamedPattern pairs a stable pattern name with its compiled regex.
type NamedPattern struct {
	Name string
	Re   *regexp.Regexp
}

// Match is one occurrence of a pattern in a document, with the surrounding
// context window retained for evidence reporting.
type Match struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category,omitempty"`
	Text     string `json:"matched_text"`
	Context  string `json:"context"`
	Position int    `json:"position"`
}

// FindAll scans text with re and returns every occurrence, each with a
// context window of win bytes on either side of the match.
func FindAll(name string, re *regexp.Regexp, text string, win int) []Match {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Pattern:  name,
			Text:     text[loc[0]:loc[1]],
			Context:  ContextWindow(text, loc[0], loc[1], win),
			Position: loc[0],
		})
	}
	return out
}

// ContextWindow returns text[start:end] widened by win bytes on each side,
// clamped to the text bounds and trimmed of surrounding whitespace.
func ContextWindow(text string, start, end, win int) string {
	lo := start - win
	if lo < 0 {
		lo = 0
	}
	hi := end + win
	if hi > len(text) {
		hi = len(text)
	}
	return trimSpace(text[lo:hi])
}

func trimSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	j := len(s)
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
