package segment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const contractText = `EMPLOYMENT AGREEMENT

1. DEFINITIONS

"Confidential Information" means any non-public business data of the Company.

2. COMPENSATION

The Company shall pay the Employee an annual salary of $90,000. Payment is due on the last business day of each month.

3. TERMINATION

Either party may terminate this agreement with thirty days written notice. The Employee shall not disclose trade secrets after termination.`

func newSegmenter() *Segmenter {
	return New(provider.NewHeuristic())
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		sentence string
		want     bool
	}{
		{"EMPLOYMENT AGREEMENT", true},
		{"1. DEFINITIONS", true},
		{"3. Termination of Employment", true},
		{"Governing Law", true},
		{"the governing law of this agreement shall be Delaware law without regard to conflicts", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHeader(tt.sentence), tt.sentence)
	}
}

func TestSections_PartitionInvariant(t *testing.T) {
	s := newSegmenter()
	ctx := context.Background()

	spans, err := s.Sentences(ctx, contractText)
	require.NoError(t, err)
	sections, err := s.Sections(ctx, contractText)
	require.NoError(t, err)
	require.NotEmpty(t, sections)

	// Contiguous cover of [0, len(spans)) with no gaps or overlaps.
	assert.Equal(t, 0, sections[0].Start)
	for i := 1; i < len(sections); i++ {
		assert.Equal(t, sections[i-1].End, sections[i].Start)
	}
	assert.Equal(t, len(spans), sections[len(sections)-1].End)
}

func TestSections_Titles(t *testing.T) {
	s := newSegmenter()
	sections, err := s.Sections(context.Background(), contractText)
	require.NoError(t, err)

	var titles []string
	for _, sec := range sections {
		titles = append(titles, sec.Title)
	}
	assert.Contains(t, titles, "1. DEFINITIONS")
	assert.Contains(t, titles, "2. COMPENSATION")
	assert.Contains(t, titles, "3. TERMINATION")
}

func TestSections_HeaderlessDocument(t *testing.T) {
	s := newSegmenter()
	sections, err := s.Sections(context.Background(),
		"the parties wish to cooperate on the matters described below and further agree as follows in this instrument. "+
			"Each party bears its own costs in connection with the negotiation of the terms stated herein.")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Introduction", sections[0].Title)
	assert.Len(t, sections[0].Sentences, 2)
}

func TestSections_EmptyText(t *testing.T) {
	s := newSegmenter()
	sections, err := s.Sections(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestHeadings_Hierarchy(t *testing.T) {
	s := newSegmenter()
	text := "1. DEFINITIONS\nbody\n2. PAYMENT\nbody\n2.1 Late Fees\nbody\nA. Exhibit\nbody\nIV. Schedule\nbody\n"

	hs := s.Headings(text)
	require.GreaterOrEqual(t, len(hs), 5)

	byNumber := map[string]Heading{}
	for _, h := range hs {
		byNumber[h.Number] = h
	}
	assert.Equal(t, HeadingNumeric, byNumber["1."].Kind)
	assert.Equal(t, 1, byNumber["1."].Level)
	assert.Equal(t, HeadingSubsection, byNumber["2.1"].Kind)
	assert.Equal(t, 2, byNumber["2.1"].Level)
	assert.Equal(t, HeadingAlphabetic, byNumber["A."].Kind)
	assert.Equal(t, HeadingRoman, byNumber["IV."].Kind)

	// Document order.
	for i := 1; i < len(hs); i++ {
		assert.LessOrEqual(t, hs[i-1].Position, hs[i].Position)
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		text string
		want ClauseType
	}{
		{"The Employee shall report weekly.", ClauseObligation},
		{"The Employee shall not disclose trade secrets.", ClauseProhibition},
		{"The Tenant may sublet with consent.", ClausePermission},
		{`"Term" means the period defined below.`, ClauseDefinition},
		{"This clause applies only if notice is given.", ClauseCondition},
		{"This agreement expires on the anniversary date.", ClauseTermination},
		{"The parties have read this agreement.", ClauseStatement},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.text), tt.text)
	}
}

func TestClauses(t *testing.T) {
	s := newSegmenter()
	clauses, err := s.Clauses(context.Background(), contractText)
	require.NoError(t, err)
	require.NotEmpty(t, clauses)

	// Indexes are sequential and positions map back into the text.
	for i, c := range clauses {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, c.Text, contractText[c.Position:c.Position+len(c.Text)])
	}

	var prohibitionSeen bool
	for _, c := range clauses {
		if c.Type == ClauseProhibition {
			prohibitionSeen = true
			assert.Contains(t, c.Patterns, "prohibition")
		}
	}
	assert.True(t, prohibitionSeen, "termination clause mentions 'shall not disclose'")
}

func TestClauses_SkipsBlankParagraphs(t *testing.T) {
	s := newSegmenter()
	clauses, err := s.Clauses(context.Background(), "First paragraph.\n\n\n\nSecond paragraph.")
	require.NoError(t, err)
	assert.Len(t, clauses, 2)
}

func TestSentences_ProviderFailure(t *testing.T) {
	s := New(failingProvider{})
	_, err := s.Sentences(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProviderFailure))
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) TokenizeSentences(context.Context, string) ([]provider.SentenceSpan, error) {
	return nil, assert.AnError
}
func (failingProvider) ExtractEntities(context.Context, string) (map[string][]string, error) {
	return nil, assert.AnError
}
func (failingProvider) Sentiment(context.Context, string) (provider.Sentiment, error) {
	return provider.Sentiment{}, assert.AnError
}
func (failingProvider) Readability(context.Context, string) (provider.Readability, error) {
	return provider.Readability{}, assert.AnError
}
