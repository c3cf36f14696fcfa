// Package classify assigns a legal document to one of the known document
// types using weighted keyword scoring, and reports the structural profile
// of the text.
package classify

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/clauselens/clauselens/internal/analysis/patterns"
)

// matchValue is the score contribution of a single keyword occurrence.
const matchValue = 0.2

// minScore is the floor below which a candidate type is discarded.
const minScore = 0.1

// FormattingStyle describes how formally the document is laid out.
type FormattingStyle string

const (
	StyleFormal     FormattingStyle = "FORMAL"
	StyleSemiFormal FormattingStyle = "SEMI_FORMAL"
	StyleBasic      FormattingStyle = "BASIC"
	StyleUnknown    FormattingStyle = "UNKNOWN"
)

// TypeScore pairs a document type with its score.
type TypeScore struct {
	Type  patterns.DocumentType `json:"type"`
	Score float64               `json:"score"`
}

// SectionInfo records the presence of a conventional contract section.
// Absent sections are still reported, with Present false.
type SectionInfo struct {
	Present  bool   `json:"present"`
	Count    int    `json:"count"`
	Context  string `json:"context,omitempty"`
	Position int    `json:"position"`
}

// Structure is the structural profile of the document.
type Structure struct {
	HasNumbering    bool            `json:"has_numbering"`
	HasHeaders      bool            `json:"has_headers"`
	FormattingStyle FormattingStyle `json:"formatting_style"`
	TotalSections   int             `json:"total_sections"`
	Quality         float64         `json:"structure_quality"`
}

// Result is the classification outcome.
type Result struct {
	PrimaryType  patterns.DocumentType                     `json:"primary_type"`
	Confidence   float64                                   `json:"confidence"`
	Scores       map[patterns.DocumentType]float64         `json:"scores"`
	Alternatives []TypeScore                               `json:"alternatives"`
	Evidence     map[patterns.DocumentType][]patterns.Match `json:"evidence"`
	Sections     map[string]SectionInfo                    `json:"sections"`
	Structure    Structure                                 `json:"structure"`
}

// Classifier scores text against the document-type keyword library.
// Stateless and safe for concurrent use.
type Classifier struct{}

// New returns a Classifier.
func New() *Classifier { return &Classifier{} }

// Classify scores text against every known document type.  Each whole-word
// keyword occurrence contributes 0.2 before the type weight is applied and
// the score is clamped to 1.0; types scoring at or below 0.1 are discarded.
// Ties rank by the type table's declaration order.
func (c *Classifier) Classify(text string) *Result {
	res := &Result{
		PrimaryType: patterns.DocTypeUnknown,
		Scores:      map[patterns.DocumentType]float64{},
		Evidence:    map[patterns.DocumentType][]patterns.Match{},
		Sections:    c.detectSections(text),
		Structure:   c.analyzeStructure(text),
	}

	var ranked []TypeScore
	for _, profile := range patterns.DocumentTypes {
		var count int
		var evidence []patterns.Match
		for i, re := range profile.PhraseRegexps() {
			locs := re.FindAllStringIndex(text, -1)
			count += len(locs)
			for _, loc := range locs {
				evidence = append(evidence, patterns.Match{
					Pattern:  profile.Phrases[i],
					Category: string(profile.Type),
					Text:     text[loc[0]:loc[1]],
					Context:  patterns.ContextWindow(text, loc[0], loc[1], 50),
					Position: loc[0],
				})
			}
		}
		score := math.Min(1.0, matchValue*float64(count)*profile.Weight)
		if score <= minScore {
			continue
		}
		res.Scores[profile.Type] = score
		res.Evidence[profile.Type] = evidence
		ranked = append(ranked, TypeScore{Type: profile.Type, Score: score})
	}

	// Stable sort by descending score keeps declaration order on ties.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Score > ranked[j-1].Score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > 0 {
		res.PrimaryType = ranked[0].Type
		res.Confidence = ranked[0].Score
		rest := ranked[1:]
		if len(rest) > 2 {
			rest = rest[:2]
		}
		res.Alternatives = append(res.Alternatives, rest...)
	}
	return res
}

// detectSections reports every conventional contract section, present or
// not; present sections carry the first occurrence's context and the total
// count.
func (c *Classifier) detectSections(text string) map[string]SectionInfo {
	out := map[string]SectionInfo{}
	for _, sp := range patterns.SectionPatterns {
		locs := sp.Re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			out[sp.Name] = SectionInfo{}
			continue
		}
		first := locs[0]
		out[sp.Name] = SectionInfo{
			Present:  true,
			Count:    len(locs),
			Context:  patterns.ContextWindow(text, first[0], first[1], 100),
			Position: first[0],
		}
	}
	return out
}

var numberedLineRe = regexp.MustCompile(`^(\d+\.|\([a-z]\)|[A-Z]\.)`)

func (c *Classifier) analyzeStructure(text string) Structure {
	var nonEmpty, numbered, upper int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		nonEmpty++
		if numberedLineRe.MatchString(line) {
			numbered++
		}
		if isUpperLine(line) {
			upper++
		}
	}

	st := Structure{}
	if nonEmpty == 0 {
		st.FormattingStyle = StyleUnknown
		return st
	}

	st.HasNumbering = float64(numbered) > 0.1*float64(nonEmpty)
	st.HasHeaders = upper > 0
	st.TotalSections = countSections(text)

	switch {
	case st.HasNumbering && st.HasHeaders:
		st.FormattingStyle = StyleFormal
	case st.HasNumbering:
		st.FormattingStyle = StyleSemiFormal
	case st.HasHeaders:
		st.FormattingStyle = StyleBasic
	default:
		st.FormattingStyle = StyleUnknown
	}

	if st.HasNumbering {
		st.Quality += 0.4
	}
	if st.HasHeaders {
		st.Quality += 0.3
	}
	if st.TotalSections > 5 {
		st.Quality += 0.3
	}
	return st
}

// countSections counts lines that look like section markers: fully
// upper-case or numbered.
func countSections(text string) int {
	var n int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isUpperLine(line) || numberedLineRe.MatchString(line) {
			n++
		}
	}
	return n
}

func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
