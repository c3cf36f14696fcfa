// Package provider defines the text understanding provider: the single
// boundary through which the analysis pipeline obtains sentence boundaries,
// named entities, sentiment, and readability metrics.  Everything above this
// interface is deterministic rule logic; everything below it may be backed by
// real models.
package provider

import (
	"context"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Entity labels produced by ExtractEntities.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelDate   = "DATE"
	LabelMoney  = "MONEY"
	LabelGPE    = "GPE"
	LabelLaw    = "LAW"
)

// EntityLabels lists all labels a provider may emit, in reporting order.
var EntityLabels = []string{LabelPerson, LabelOrg, LabelDate, LabelMoney, LabelGPE, LabelLaw}

// SentenceSpan is one sentence with its byte offsets into the source text.
// Spans are ordered, non-overlapping, and lie within the source bounds.
type SentenceSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentiment is a polarity/subjectivity pair, both on the conventional
// scales: polarity in [-1, 1], subjectivity in [0, 1].
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// Readability carries the standard formula-based readability metrics.
type Readability struct {
	FleschReadingEase  float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade float64 `json:"flesch_kincaid_grade"`
	GunningFog         float64 `json:"gunning_fog"`
	SMOG               float64 `json:"smog_index"`
	ARI                float64 `json:"automated_readability_index"`
	ColemanLiau        float64 `json:"coleman_liau_index"`
	LinsearWrite       float64 `json:"linsear_write_formula"`
}

// Provider is the text understanding contract.  Implementations must be safe
// for concurrent use.  Callers treat any returned error as a provider
// failure; implementations never return partial results alongside an error.
type Provider interface {
	// Name identifies the implementation, for logs and report metadata.
	Name() string

	// TokenizeSentences splits text into ordered sentence spans.
	TokenizeSentences(ctx context.Context, text string) ([]SentenceSpan, error)

	// ExtractEntities returns detected entities grouped by label.  Values
	// are deduplicated, in first-occurrence order.
	ExtractEntities(ctx context.Context, text string) (map[string][]string, error)

	// Sentiment scores the whole text.
	Sentiment(ctx context.Context, text string) (Sentiment, error)

	// Readability computes the formula metrics over the whole text.
	Readability(ctx context.Context, text string) (Readability, error)
}

// New builds the provider selected by cfg.Kind: "heuristic" for the
// self-contained rule implementation, "serving" for the HTTP model-serving
// client.
func New(cfg config.ProviderConfig, logger logging.Logger) (Provider, error) {
	switch cfg.Kind {
	case "heuristic", "":
		return NewHeuristic(), nil
	case "serving":
		return NewServing(cfg.ServingURL, cfg.Timeout, logger)
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeValidation, "unknown provider kind %q", cfg.Kind)
	}
}
