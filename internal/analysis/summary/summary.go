// Package summary produces extractive summaries of legal documents: an
// executive summary, categorized key points, per-section digests with key
// terms, and the most important clauses.  Sentence ranking combines TF-IDF
// over the document's own sentences with position, boilerplate-phrase, and
// entity bonuses.
package summary

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/clauselens/clauselens/internal/analysis/patterns"
	"github.com/clauselens/clauselens/internal/analysis/segment"
	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const (
	executiveSentences = 5
	maxKeyPoints       = 10
	maxImportantClauses = 10
	maxKeyTerms        = 5
	maxEntitiesPerLabel = 5
	keyPointThreshold  = 0.5
)

// Category labels a key point by its dominant subject.
type Category string

const (
	CategoryObligation     Category = "OBLIGATION"
	CategoryRepresentation Category = "REPRESENTATION"
	CategoryTermination    Category = "TERMINATION"
	CategoryPayment        Category = "PAYMENT"
	CategoryGeneral        Category = "GENERAL"
)

// KeyPoint is one high-scoring sentence with its category.
type KeyPoint struct {
	Text       string   `json:"text"`
	Importance float64  `json:"importance"`
	Category   Category `json:"category"`
}

// TermFreq is a key term with its occurrence count.
type TermFreq struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SectionSummary digests one document section.
type SectionSummary struct {
	Title    string     `json:"title"`
	Summary  string     `json:"summary"`
	KeyTerms []TermFreq `json:"key_terms,omitempty"`
}

// ImportantClause is one clause-bearing sentence with its importance score,
// legal construct type, and the entities it mentions.
type ImportantClause struct {
	Text       string              `json:"text"`
	Importance float64             `json:"importance"`
	Type       segment.ClauseType  `json:"type"`
	Entities   map[string][]string `json:"entities,omitempty"`
}

// Metadata describes the summarized document.
type Metadata struct {
	OriginalLength int                 `json:"original_length"`
	SummaryRatio   float64             `json:"summary_ratio"`
	KeyEntities    map[string][]string `json:"key_entities,omitempty"`
	SentenceCount  int                 `json:"sentence_count"`
	WordCount      int                 `json:"word_count"`
	EntityCount    int                 `json:"entity_count"`
}

// Result is the complete summarization output.
type Result struct {
	Executive        string            `json:"executive_summary"`
	KeyPoints        []KeyPoint        `json:"key_points,omitempty"`
	SectionSummaries []SectionSummary  `json:"section_summaries,omitempty"`
	ImportantClauses []ImportantClause `json:"important_clauses,omitempty"`
	Metadata         Metadata          `json:"metadata"`
}

// Summarizer builds extractive summaries.  Safe for concurrent use.
type Summarizer struct {
	provider  provider.Provider
	segmenter *segment.Segmenter
}

// New builds a Summarizer on top of p.
func New(p provider.Provider) *Summarizer {
	return &Summarizer{provider: p, segmenter: segment.New(p)}
}

// scoredSentence pairs a sentence with its rank score and document position.
type scoredSentence struct {
	span  provider.SentenceSpan
	index int
	score float64
}

// Summarize produces the full summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (*Result, error) {
	spans, err := s.segmenter.Sentences(ctx, text)
	if err != nil {
		return nil, err
	}

	entities, err := s.provider.ExtractEntities(ctx, text)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "entity extraction failed")
	}

	res := &Result{Metadata: buildMetadata(text, spans, entities)}
	if len(spans) == 0 {
		return res, nil
	}

	scored := scoreSentences(spans, entities)

	res.Executive = executiveSummary(scored)
	res.KeyPoints = keyPoints(scored)
	res.SectionSummaries = s.sectionSummaries(spans, scored)
	res.ImportantClauses, err = s.importantClauses(ctx, spans)
	if err != nil {
		return nil, err
	}

	if len(text) > 0 {
		res.Metadata.SummaryRatio = float64(len(res.Executive)) / float64(len(text))
	}
	return res, nil
}

// scoreSentences ranks every sentence: mean TF-IDF of its terms, plus a
// position bonus (0.3 for the first sentence, 0.2 for the last, 0.1 inside
// the first tenth), a phrase bonus (0.1 per boilerplate phrase, capped at
// 0.5), and an entity bonus (0.1 per mentioned entity, capped at 0.3).
func scoreSentences(spans []provider.SentenceSpan, entities map[string][]string) []scoredSentence {
	tfidf := buildTFIDF(spans)

	var flat []string
	for _, vals := range entities {
		flat = append(flat, vals...)
	}

	out := make([]scoredSentence, len(spans))
	for i, sp := range spans {
		score := tfidf.meanScore(i)

		switch {
		case i == 0:
			score += 0.3
		case i == len(spans)-1:
			score += 0.2
		case float64(i) < 0.1*float64(len(spans)):
			score += 0.1
		}

		score += phraseBonus(sp.Text)
		score += entityBonus(sp.Text, flat)

		out[i] = scoredSentence{span: sp, index: i, score: score}
	}
	return out
}

func phraseBonus(sentence string) float64 {
	lower := strings.ToLower(sentence)
	var bonus float64
	for _, phrase := range patterns.ImportantPhrases {
		if strings.Contains(lower, phrase) {
			bonus += 0.1
		}
	}
	return math.Min(0.5, bonus)
}

func entityBonus(sentence string, entities []string) float64 {
	var n int
	for _, e := range entities {
		if strings.Contains(sentence, e) {
			n++
		}
	}
	return math.Min(0.3, 0.1*float64(n))
}

// topByScore returns the n highest-scoring sentences restored to document
// order.  Equal scores keep the earlier sentence first.
func topByScore(scored []scoredSentence, n int) []scoredSentence {
	ranked := make([]scoredSentence, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].index < ranked[j].index })
	return ranked
}

func executiveSummary(scored []scoredSentence) string {
	top := topByScore(scored, executiveSentences)
	parts := make([]string, len(top))
	for i, sc := range top {
		parts[i] = sc.span.Text
	}
	return strings.Join(parts, " ")
}

func keyPoints(scored []scoredSentence) []KeyPoint {
	var out []KeyPoint
	for _, sc := range topByScore(scored, len(scored)) {
		if sc.score <= keyPointThreshold {
			continue
		}
		out = append(out, KeyPoint{
			Text:       sc.span.Text,
			Importance: sc.score,
			Category:   categorize(sc.span.Text),
		})
		if len(out) == maxKeyPoints {
			break
		}
	}
	return out
}

func categorize(sentence string) Category {
	lower := strings.ToLower(sentence)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("shall", "must", "will", "agrees"):
		return CategoryObligation
	case contains("represents", "warrants", "acknowledges"):
		return CategoryRepresentation
	case contains("terminate", "cancel", "end"):
		return CategoryTermination
	case contains("pay", "payment", "fee", "cost"):
		return CategoryPayment
	default:
		return CategoryGeneral
	}
}

// sectionSummaries digests each section: the top fifth of its sentences
// (at least one) in document order, plus its most frequent key terms.
func (s *Summarizer) sectionSummaries(spans []provider.SentenceSpan, scored []scoredSentence) []SectionSummary {
	sections := buildSectionIndex(spans)

	var out []SectionSummary
	for _, sec := range sections {
		content := scored[sec.Start:sec.End]
		// Drop the header sentence from the digest source when present.
		if sec.Title != "Introduction" && len(content) > 0 {
			content = content[1:]
		}
		if len(content) == 0 {
			continue
		}

		n := len(content) / 5
		if n < 1 {
			n = 1
		}
		top := topByScore(content, n)
		parts := make([]string, len(top))
		for i, sc := range top {
			parts[i] = sc.span.Text
		}

		var sb strings.Builder
		for _, sc := range content {
			sb.WriteString(sc.span.Text)
			sb.WriteString(" ")
		}

		out = append(out, SectionSummary{
			Title:    sec.Title,
			Summary:  strings.Join(parts, " "),
			KeyTerms: keyTerms(sb.String()),
		})
	}
	return out
}

// buildSectionIndex mirrors the segmenter's section grouping over an already
// tokenized sentence sequence.
func buildSectionIndex(spans []provider.SentenceSpan) []segment.Section {
	var sections []segment.Section
	current := segment.Section{Title: "Introduction", Start: 0}
	for i, sp := range spans {
		if segment.IsHeader(sp.Text) {
			current.End = i
			if current.End > current.Start {
				sections = append(sections, current)
			}
			current = segment.Section{Title: sp.Text, Start: i}
		}
	}
	current.End = len(spans)
	if current.End > current.Start {
		sections = append(sections, current)
	}
	return sections
}

// keyTerms extracts short noun-phrase candidates: runs of consecutive
// non-stopword words, trimmed to their last three words, counted by
// frequency.
func keyTerms(text string) []TermFreq {
	words := strings.Fields(strings.ToLower(text))
	counts := map[string]int{}
	order := map[string]int{}

	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) > 3 {
			run = run[len(run)-3:]
		}
		term := strings.Join(run, " ")
		if _, seen := counts[term]; !seen {
			order[term] = len(order)
		}
		counts[term]++
		run = nil
	}

	for _, w := range words {
		w = strings.Trim(w, `.,;:()"'`)
		if w == "" || IsStopword(w) || !isAlphabetic(w) {
			flush()
			continue
		}
		run = append(run, w)
	}
	flush()

	terms := make([]TermFreq, 0, len(counts))
	for term, c := range counts {
		terms = append(terms, TermFreq{Term: term, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return order[terms[i].Term] < order[terms[j].Term]
	})
	if len(terms) > maxKeyTerms {
		terms = terms[:maxKeyTerms]
	}
	return terms
}

func isAlphabetic(w string) bool {
	for _, r := range w {
		if (r < 'a' || r > 'z') && r != '-' && r != '\'' {
			return false
		}
	}
	return len(w) > 0
}

// importantClauses selects the sentences that carry legal substance and
// ranks them by their bonus profile.
func (s *Summarizer) importantClauses(ctx context.Context, spans []provider.SentenceSpan) ([]ImportantClause, error) {
	var candidates []ImportantClause
	for _, sp := range spans {
		if !isImportantClause(sp.Text) {
			continue
		}

		entities, err := s.provider.ExtractEntities(ctx, sp.Text)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "clause entity extraction failed")
		}

		importance := phraseBonus(sp.Text)
		var entityCount int
		for _, vals := range entities {
			entityCount += len(vals)
		}
		importance += math.Min(0.3, 0.1*float64(entityCount))
		if patterns.NumericTokenRe.MatchString(sp.Text) {
			importance += 0.1
		}
		if patterns.LegalReferenceRe.MatchString(sp.Text) {
			importance += 0.1
		}
		importance = math.Min(1.0, importance)

		if len(entities) == 0 {
			entities = nil
		}
		candidates = append(candidates, ImportantClause{
			Text:       sp.Text,
			Importance: importance,
			Type:       clauseType(sp.Text),
			Entities:   entities,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Importance > candidates[j].Importance
	})
	if len(candidates) > maxImportantClauses {
		candidates = candidates[:maxImportantClauses]
	}
	return candidates, nil
}

var obligationWords = []string{"shall", "must", "will", "agrees"}
var conditionalWords = []string{"if", "unless", "except", "provided"}

func isImportantClause(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, phrase := range patterns.ImportantPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, w := range append(append([]string{}, obligationWords...), conditionalWords...) {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// clauseType assigns the summarizer's clause label.  The order reflects the
// reporting convention: duty words dominate, then permissions, then explicit
// negations, then conditions.
func clauseType(sentence string) segment.ClauseType {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, "will not") || strings.Contains(lower, "shall not"):
		return segment.ClauseProhibition
	case containsWord(lower, "shall") || containsWord(lower, "must"):
		return segment.ClauseObligation
	case containsWord(lower, "may"):
		return segment.ClausePermission
	case containsWord(lower, "if"):
		return segment.ClauseCondition
	default:
		return segment.ClauseStatement
	}
}

func buildMetadata(text string, spans []provider.SentenceSpan, entities map[string][]string) Metadata {
	md := Metadata{
		OriginalLength: len(text),
		SentenceCount:  len(spans),
		WordCount:      len(strings.Fields(text)),
	}

	for _, label := range provider.EntityLabels {
		vals := entities[label]
		md.EntityCount += len(vals)
		if len(vals) == 0 {
			continue
		}
		if md.KeyEntities == nil {
			md.KeyEntities = map[string][]string{}
		}
		if len(vals) > maxEntitiesPerLabel {
			vals = vals[:maxEntitiesPerLabel]
		}
		md.KeyEntities[label] = vals
	}
	return md
}
