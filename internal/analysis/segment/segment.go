// Package segment splits legal text into sentences, titled sections, numbered
// heading hierarchies, and typed clauses.  Sentence boundaries come from the
// text understanding provider; everything else is deterministic rule logic.
package segment

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/clauselens/clauselens/internal/analysis/patterns"
	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// ClauseType labels the dominant legal construct of a clause.
type ClauseType string

const (
	ClauseObligation  ClauseType = "OBLIGATION"
	ClauseProhibition ClauseType = "PROHIBITION"
	ClausePermission  ClauseType = "PERMISSION"
	ClauseDefinition  ClauseType = "DEFINITION"
	ClauseCondition   ClauseType = "CONDITION"
	ClauseTermination ClauseType = "TERMINATION"
	ClauseStatement   ClauseType = "STATEMENT"
)

// Section is a titled, contiguous run of sentences.  Start and End index the
// document's sentence sequence (End exclusive); the header sentence, when one
// exists, occupies index Start and is excluded from Sentences.
type Section struct {
	Title     string                  `json:"title"`
	Start     int                     `json:"start"`
	End       int                     `json:"end"`
	Sentences []provider.SentenceSpan `json:"sentences"`
}

// HeadingKind is the numbering regime a heading belongs to.
type HeadingKind string

const (
	HeadingNumeric    HeadingKind = "NUMERIC"
	HeadingAlphabetic HeadingKind = "ALPHABETIC"
	HeadingRoman      HeadingKind = "ROMAN"
	HeadingSubsection HeadingKind = "SUBSECTION"
)

// Heading is one numbered heading found in the raw text.
type Heading struct {
	Number   string      `json:"number"`
	Title    string      `json:"title"`
	Kind     HeadingKind `json:"kind"`
	Level    int         `json:"level"`
	Position int         `json:"position"`
}

// Clause is one paragraph-level unit with its dominant type, sentiment, and
// the legal constructs it matches.
type Clause struct {
	Index     int                `json:"index"`
	Text      string             `json:"text"`
	Type      ClauseType         `json:"type"`
	Sentiment provider.Sentiment `json:"sentiment"`
	Patterns  []string           `json:"patterns,omitempty"`
	Position  int                `json:"position"`
}

// Segmenter performs all text segmentation through a single provider.
type Segmenter struct {
	provider provider.Provider
}

// New builds a Segmenter on top of p.
func New(p provider.Provider) *Segmenter {
	return &Segmenter{provider: p}
}

// Sentences tokenizes text through the provider.
func (s *Segmenter) Sentences(ctx context.Context, text string) ([]provider.SentenceSpan, error) {
	spans, err := s.provider.TokenizeSentences(ctx, text)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "sentence tokenization failed")
	}
	return spans, nil
}

// Sections groups the sentence sequence into titled sections.  A sentence
// that looks like a header opens a new section titled by it; text before the
// first header lands in "Introduction".  Sections with no content sentences
// are dropped, except that a document with no headers at all yields a single
// "Introduction" section holding everything.
//
// The returned sections partition the sentence index range: every sentence
// index belongs to exactly one section's [Start, End).
func (s *Segmenter) Sections(ctx context.Context, text string) ([]Section, error) {
	spans, err := s.Sentences(ctx, text)
	if err != nil {
		return nil, err
	}
	return buildSections(spans), nil
}

func buildSections(spans []provider.SentenceSpan) []Section {
	if len(spans) == 0 {
		return nil
	}

	var sections []Section
	current := Section{Title: "Introduction", Start: 0}
	hasHeader := false

	for i, sp := range spans {
		if IsHeader(sp.Text) {
			current.End = i
			if current.End > current.Start {
				sections = append(sections, current)
			}
			current = Section{Title: sp.Text, Start: i}
			hasHeader = true
			continue
		}
		current.Sentences = append(current.Sentences, sp)
	}
	current.End = len(spans)
	if current.End > current.Start {
		sections = append(sections, current)
	}

	if !hasHeader && len(sections) == 1 {
		sections[0].Title = "Introduction"
	}
	return sections
}

var numberedHeaderRe = regexp.MustCompile(`^\d+\.\s+[A-Z]`)

// IsHeader reports whether a sentence looks like a section header: fully
// upper-case, numbered like "3. TERMINATION", or a short capitalized line of
// at most five words.
func IsHeader(sentence string) bool {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return false
	}
	if isUpperLine(sentence) {
		return true
	}
	if numberedHeaderRe.MatchString(sentence) {
		return true
	}
	words := strings.Fields(sentence)
	first, _ := firstLetter(sentence)
	return len(words) <= 5 && unicode.IsUpper(first)
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

func firstLetter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r, true
		}
	}
	return 0, false
}

var headingRegimes = []struct {
	kind HeadingKind
	re   *regexp.Regexp
}{
	{HeadingNumeric, regexp.MustCompile(`(?m)^\s*(\d+\.)\s+([^\n]+)`)},
	{HeadingAlphabetic, regexp.MustCompile(`(?m)^\s*([A-Z]\.)\s+([^\n]+)`)},
	{HeadingRoman, regexp.MustCompile(`(?m)^\s*([IVX]+\.)\s+([^\n]+)`)},
	{HeadingSubsection, regexp.MustCompile(`(?m)^\s*(\d+\.\d+)\s+([^\n]+)`)},
}

// Headings extracts the numbered heading hierarchy from raw text across the
// four numbering regimes, ordered by position.  Level counts the
// dot-separated components of the number, so "4.2" is level 2.
func (s *Segmenter) Headings(text string) []Heading {
	var out []Heading
	seen := map[int]struct{}{}
	for _, regime := range headingRegimes {
		for _, m := range regime.re.FindAllStringSubmatchIndex(text, -1) {
			pos := m[2]
			if _, dup := seen[pos]; dup {
				continue
			}
			seen[pos] = struct{}{}
			number := text[m[2]:m[3]]
			out = append(out, Heading{
				Number:   number,
				Title:    strings.TrimSpace(text[m[4]:m[5]]),
				Kind:     regime.kind,
				Level:    headingLevel(number),
				Position: pos,
			})
		}
	}
	sortHeadings(out)
	return out
}

func headingLevel(number string) int {
	n := strings.Count(strings.Trim(number, "."), ".")
	return n + 1
}

func sortHeadings(hs []Heading) {
	// Insertion sort keeps equal positions stable; heading counts are small.
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Position < hs[j-1].Position; j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}

// Clause typing precedence.  Prohibition outranks obligation and permission
// because "shall not" and "may not" contain their positive counterparts.
var clauseTypeOrder = []struct {
	typ ClauseType
	re  *regexp.Regexp
}{
	{ClauseProhibition, regexp.MustCompile(`(?i)\b(?:shall\s+not|must\s+not|may\s+not|will\s+not|is\s+prohibited\s+from)\b`)},
	{ClauseObligation, regexp.MustCompile(`(?i)\b(?:shall|must|is\s+required\s+to|agrees\s+to)\b`)},
	{ClausePermission, regexp.MustCompile(`(?i)\b(?:may|is\s+permitted\s+to|is\s+entitled\s+to)\b`)},
	{ClauseDefinition, regexp.MustCompile(`(?i)\b(?:means|shall\s+mean|refers\s+to|is\s+defined\s+as)\b`)},
	{ClauseCondition, regexp.MustCompile(`(?i)\b(?:if|unless|provided\s+that|in\s+the\s+event)\b`)},
	{ClauseTermination, regexp.MustCompile(`(?i)\b(?:terminat(?:e|es|ed|ion)|cancel(?:lation)?|expir(?:e|es|ation))\b`)},
}

// TypeOf returns the dominant clause type of text.
func TypeOf(text string) ClauseType {
	for _, ct := range clauseTypeOrder {
		if ct.re.MatchString(text) {
			return ct.typ
		}
	}
	return ClauseStatement
}

// Clauses splits text on blank lines into paragraph clauses, typing each and
// annotating it with provider sentiment and the legal constructs it matches.
func (s *Segmenter) Clauses(ctx context.Context, text string) ([]Clause, error) {
	var clauses []Clause
	pos := 0
	for _, para := range strings.Split(text, "\n\n") {
		start := pos
		pos += len(para) + 2

		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			continue
		}

		sentiment, err := s.provider.Sentiment(ctx, trimmed)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "clause sentiment failed")
		}

		var matched []string
		for _, lp := range patterns.LegalPatterns {
			if lp.Re.MatchString(trimmed) {
				matched = append(matched, lp.Name)
			}
		}

		clauses = append(clauses, Clause{
			Index:     len(clauses),
			Text:      trimmed,
			Type:      TypeOf(trimmed),
			Sentiment: sentiment,
			Patterns:  matched,
			Position:  start + strings.Index(para, trimmed),
		})
	}
	return clauses, nil
}
