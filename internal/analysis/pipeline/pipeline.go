// Package pipeline orchestrates the full document analysis: segmentation,
// classification, risk assessment, summarization, and the supplemental
// NLP extractions, assembled into one report.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/analysis/classify"
	"github.com/clauselens/clauselens/internal/analysis/patterns"
	"github.com/clauselens/clauselens/internal/analysis/risk"
	"github.com/clauselens/clauselens/internal/analysis/segment"
	"github.com/clauselens/clauselens/internal/analysis/summary"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// readingWPM is the assumed reading speed for the reading-time estimate.
const readingWPM = 200.0

// maxKeyTerms caps the ranked key-term list.
const maxKeyTerms = 20

// StageObserver receives per-stage durations; the metrics collector
// implements it.
type StageObserver interface {
	ObserveAnalysisStage(stage string, elapsed time.Duration)
}

// Statistics are the document-level reading statistics.
type Statistics struct {
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	ReadingLevel       float64 `json:"reading_level"`
	ReadingTimeMinutes float64 `json:"reading_time_minutes"`
}

// KeyTerm is one ranked token.
type KeyTerm struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CrossReference is a mention of another section, clause, or paragraph.
type CrossReference struct {
	Kind     string `json:"kind"`
	Number   string `json:"number"`
	Context  string `json:"context"`
	Position int    `json:"position"`
}

// DefinedTerm is a quoted term with its inline definition.
type DefinedTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Context    string `json:"context"`
	Position   int    `json:"position"`
}

// Report is the complete analysis of one document.
type Report struct {
	Provider        string               `json:"provider"`
	Classification  *classify.Result     `json:"classification"`
	Risk            *risk.Assessment     `json:"risk"`
	Summary         *summary.Result      `json:"summary"`
	Sections        []segment.Section    `json:"sections,omitempty"`
	Headings        []segment.Heading    `json:"headings,omitempty"`
	Clauses         []segment.Clause     `json:"clauses,omitempty"`
	Entities        map[string][]string  `json:"entities,omitempty"`
	Sentiment       provider.Sentiment   `json:"sentiment"`
	Readability     provider.Readability `json:"readability"`
	Statistics      Statistics           `json:"statistics"`
	KeyTerms        []KeyTerm            `json:"key_terms,omitempty"`
	CrossReferences []CrossReference     `json:"cross_references,omitempty"`
	DefinedTerms    []DefinedTerm        `json:"defined_terms,omitempty"`
}

// Pipeline wires the analysis stages together.  Safe for concurrent use.
type Pipeline struct {
	provider   provider.Provider
	segmenter  *segment.Segmenter
	classifier *classify.Classifier
	risk       *risk.Analyzer
	summarizer *summary.Summarizer
	logger     logging.Logger
	observer   StageObserver
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStageObserver registers a per-stage duration observer.
func WithStageObserver(o StageObserver) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New builds a Pipeline on top of p.
func New(p provider.Provider, logger logging.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	pl := &Pipeline{
		provider:   p,
		segmenter:  segment.New(p),
		classifier: classify.New(),
		risk:       risk.New(p),
		summarizer: summary.New(p),
		logger:     logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// AnalyzeDocument runs the full pipeline over text.  Empty or
// whitespace-only input is rejected with ErrCodeUnsupportedInput; any stage
// failure aborts the run with no partial report.
func (pl *Pipeline) AnalyzeDocument(ctx context.Context, text string) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnsupportedInput, "document text is empty")
	}

	report := &Report{Provider: pl.provider.Name()}
	started := time.Now()

	err := pl.stage(ctx, "segment", func(ctx context.Context) error {
		var err error
		if report.Sections, err = pl.segmenter.Sections(ctx, text); err != nil {
			return err
		}
		report.Headings = pl.segmenter.Headings(text)
		report.Clauses, err = pl.segmenter.Clauses(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = pl.stage(ctx, "classify", func(context.Context) error {
		report.Classification = pl.classifier.Classify(text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = pl.stage(ctx, "risk", func(ctx context.Context) error {
		var err error
		report.Risk, err = pl.risk.Analyze(ctx, text, report.Clauses)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = pl.stage(ctx, "summarize", func(ctx context.Context) error {
		var err error
		report.Summary, err = pl.summarizer.Summarize(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = pl.stage(ctx, "enrich", func(ctx context.Context) error {
		var err error
		if report.Entities, err = pl.provider.ExtractEntities(ctx, text); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "entity extraction failed")
		}
		if report.Sentiment, err = pl.provider.Sentiment(ctx, text); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "sentiment failed")
		}
		if report.Readability, err = pl.provider.Readability(ctx, text); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "readability failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Statistics = buildStatistics(text, report)
	report.KeyTerms = rankKeyTerms(text)
	report.CrossReferences = crossReferences(text)
	report.DefinedTerms = definedTerms(text)

	pl.logger.Info("document analyzed",
		logging.String("primary_type", string(report.Classification.PrimaryType)),
		logging.Float64("risk_score", report.Risk.OverallScore),
		logging.Int("sentences", report.Statistics.SentenceCount),
		logging.Duration("elapsed", time.Since(started)))
	return report, nil
}

func (pl *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if pl.observer != nil {
		pl.observer.ObserveAnalysisStage(name, elapsed)
	}
	if err != nil {
		pl.logger.Error("analysis stage failed",
			logging.String("stage", name),
			logging.Err(err))
		if apperrors.GetCode(err) == apperrors.ErrCodeProviderFailure {
			return err
		}
		return apperrors.Wrap(err, apperrors.ErrCodeAnalysisFailed, name+" stage failed")
	}
	return nil
}

func buildStatistics(text string, report *Report) Statistics {
	words := len(strings.Fields(text))
	var sentences int
	for _, sec := range report.Sections {
		sentences += sec.End - sec.Start
	}
	return Statistics{
		WordCount:          words,
		SentenceCount:      sentences,
		ReadingLevel:       report.Readability.FleschKincaidGrade,
		ReadingTimeMinutes: float64(words) / readingWPM,
	}
}

// rankKeyTerms counts non-stopword tokens and returns the top 20 by
// frequency, first occurrence breaking ties.
func rankKeyTerms(text string) []KeyTerm {
	counts := map[string]int{}
	order := map[string]int{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?()"'`)
		if len(w) < 3 || summary.IsStopword(w) {
			continue
		}
		if _, seen := counts[w]; !seen {
			order[w] = len(order)
		}
		counts[w]++
	}

	terms := make([]KeyTerm, 0, len(counts))
	for t, c := range counts {
		terms = append(terms, KeyTerm{Term: t, Count: c})
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

func crossReferences(text string) []CrossReference {
	var out []CrossReference
	for _, m := range patterns.CrossReferenceRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, CrossReference{
			Kind:     strings.ToLower(text[m[2]:m[3]]),
			Number:   text[m[4]:m[5]],
			Context:  patterns.ContextWindow(text, m[0], m[1], 50),
			Position: m[0],
		})
	}
	return out
}

func definedTerms(text string) []DefinedTerm {
	var out []DefinedTerm
	for _, m := range patterns.DefinedTermRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, DefinedTerm{
			Term:       text[m[2]:m[3]],
			Definition: strings.TrimSpace(text[m[4]:m[5]]),
			Context:    patterns.ContextWindow(text, m[0], m[1], 30),
			Position:   m[0],
		})
	}
	return out
}
