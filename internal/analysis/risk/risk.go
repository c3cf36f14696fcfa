// Package risk scores legal text for risk exposure: tiered pattern scans,
// per-clause risk with red-flag concerns, compliance domain detection,
// drafting sub-scores, and deterministic recommendations.
package risk

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/clauselens/clauselens/internal/analysis/patterns"
	"github.com/clauselens/clauselens/internal/analysis/segment"
	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// criticalThreshold is the per-clause risk score above which a clause is
// reported as critical.
const criticalThreshold = 0.6

// Finding is one risk category's scan result.
type Finding struct {
	Category string            `json:"category"`
	Severity patterns.Severity `json:"severity"`
	Count    int               `json:"count"`
	Matches  []patterns.Match  `json:"matches"`
}

// ClauseRisk is a clause with its computed risk score and any red-flag
// concerns.
type ClauseRisk struct {
	Index    int                `json:"index"`
	Text     string             `json:"text"`
	Type     segment.ClauseType `json:"type"`
	Score    float64            `json:"score"`
	Concerns []string           `json:"concerns,omitempty"`
}

// ComplianceFinding is one regulatory domain detected in the text.
type ComplianceFinding struct {
	Domain    string           `json:"domain"`
	Count     int              `json:"count"`
	Instances []patterns.Match `json:"instances"`
}

// Complexity describes how hard the document is to process.
type Complexity struct {
	Score            float64 `json:"score"`
	Length           int     `json:"length"`
	AvgSentenceWords float64 `json:"avg_sentence_words"`
	LongSentences    int     `json:"long_sentences"`
}

// Ambiguity reports vague-term usage.
type Ambiguity struct {
	Score    float64          `json:"score"`
	Findings []patterns.Match `json:"findings,omitempty"`
}

// Enforceability reports missing essential clauses.
type Enforceability struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// Balance compares the rights-to-obligations ratio between the two party
// roles.
type Balance struct {
	Score            float64 `json:"score"`
	FirstPartyRatio  float64 `json:"first_party_ratio"`
	SecondPartyRatio float64 `json:"second_party_ratio"`
}

// SentimentProfile is the risk-oriented sentiment summary.
type SentimentProfile struct {
	OverallPolarity     float64 `json:"overall_polarity"`
	RiskContextPolarity float64 `json:"risk_context_polarity"`
	Subjectivity        float64 `json:"subjectivity"`
}

// Assessment is the complete risk analysis of a document.
type Assessment struct {
	OverallScore    float64             `json:"overall_score"`
	Findings        []Finding           `json:"findings"`
	CriticalClauses []ClauseRisk        `json:"critical_clauses,omitempty"`
	Compliance      []ComplianceFinding `json:"compliance,omitempty"`
	Complexity      Complexity          `json:"complexity"`
	Ambiguity       Ambiguity           `json:"ambiguity"`
	Enforceability  Enforceability      `json:"enforceability"`
	Balance         Balance             `json:"balance"`
	Sentiment       SentimentProfile    `json:"sentiment"`
	Recommendations []string            `json:"recommendations,omitempty"`
}

// Analyzer computes risk assessments.  Safe for concurrent use.
type Analyzer struct {
	provider provider.Provider
}

// New builds an Analyzer on top of p.
func New(p provider.Provider) *Analyzer {
	return &Analyzer{provider: p}
}

// Analyze scores text and its clauses.  Empty or whitespace-only text yields
// a zero assessment with no recommendations.
func (a *Analyzer) Analyze(ctx context.Context, text string, clauses []segment.Clause) (*Assessment, error) {
	if strings.TrimSpace(text) == "" {
		return &Assessment{Enforceability: Enforceability{Score: 1.0}}, nil
	}

	as := &Assessment{}
	as.Findings = scanTiers(text)
	as.OverallScore = overallScore(as.Findings)
	as.CriticalClauses = a.criticalClauses(clauses)
	as.Compliance = scanCompliance(text)

	var err error
	as.Complexity, err = a.complexity(ctx, text)
	if err != nil {
		return nil, err
	}
	as.Ambiguity = ambiguity(text)
	as.Enforceability = enforceability(text)
	as.Balance, err = a.balance(ctx, text)
	if err != nil {
		return nil, err
	}
	as.Sentiment, err = a.sentiment(ctx, text, as.Findings)
	if err != nil {
		return nil, err
	}
	as.Recommendations = recommendations(as)
	return as, nil
}

// scanTiers runs every risk pattern over the text with a ±100-char context
// window, tier by tier.
func scanTiers(text string) []Finding {
	var out []Finding
	for _, tier := range patterns.RiskTiers {
		for _, p := range tier.Patterns {
			matches := patterns.FindAll(p.Name, p.Re, text, 100)
			if len(matches) == 0 {
				continue
			}
			out = append(out, Finding{
				Category: p.Name,
				Severity: tier.Severity,
				Count:    len(matches),
				Matches:  matches,
			})
		}
	}
	return out
}

// overallScore aggregates findings: each non-empty tier contributes its match
// count times its weight, normalized by twice the number of non-empty tiers,
// clamped to [0, 1].
func overallScore(findings []Finding) float64 {
	counts := map[patterns.Severity]int{}
	for _, f := range findings {
		counts[f.Severity] += f.Count
	}
	var sum float64
	var tiers int
	for _, tier := range patterns.RiskTiers {
		n := counts[tier.Severity]
		if n == 0 {
			continue
		}
		tiers++
		sum += float64(n) * tier.Severity.Weight()
	}
	if tiers == 0 {
		return 0
	}
	return math.Min(1.0, sum/(float64(tiers)*2.0))
}

// criticalClauses scores each clause and keeps those above the critical
// threshold, highest first.
func (a *Analyzer) criticalClauses(clauses []segment.Clause) []ClauseRisk {
	var out []ClauseRisk
	for _, c := range clauses {
		score := clauseScore(c)
		if score <= criticalThreshold {
			continue
		}
		out = append(out, ClauseRisk{
			Index:    c.Index,
			Text:     c.Text,
			Type:     c.Type,
			Score:    score,
			Concerns: clauseConcerns(c.Text),
		})
	}
	// Highest risk first; stable for equal scores.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// clauseScore: 0.4 per matching high-severity category, 0.2 per matching
// medium category, 0.2 when the clause imposes or forbids behavior, 0.1 when
// its sentiment is clearly negative.  Clamped to 1.0.
func clauseScore(c segment.Clause) float64 {
	var score float64
	for _, tier := range patterns.RiskTiers {
		var per float64
		switch tier.Severity {
		case patterns.SeverityHigh:
			per = 0.4
		case patterns.SeverityMedium:
			per = 0.2
		default:
			continue
		}
		for _, p := range tier.Patterns {
			if p.Re.MatchString(c.Text) {
				score += per
			}
		}
	}
	if c.Type == segment.ClauseObligation || c.Type == segment.ClauseProhibition {
		score += 0.2
	}
	if c.Sentiment.Polarity < -0.2 {
		score += 0.1
	}
	return math.Min(1.0, score)
}

func clauseConcerns(text string) []string {
	var out []string
	for _, cp := range patterns.ConcernPatterns {
		if cp.Re.MatchString(text) {
			out = append(out, cp.Label)
		}
	}
	return out
}

func scanCompliance(text string) []ComplianceFinding {
	var out []ComplianceFinding
	for _, p := range patterns.CompliancePatterns {
		matches := patterns.FindAll(p.Name, p.Re, text, 50)
		if len(matches) == 0 {
			continue
		}
		out = append(out, ComplianceFinding{
			Domain:    p.Name,
			Count:     len(matches),
			Instances: matches,
		})
	}
	return out
}

// complexity: score saturates at 5000 characters; stats cover sentence
// length distribution.
func (a *Analyzer) complexity(ctx context.Context, text string) (Complexity, error) {
	spans, err := a.provider.TokenizeSentences(ctx, text)
	if err != nil {
		return Complexity{}, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "complexity tokenization failed")
	}

	c := Complexity{
		Score:  math.Min(1.0, float64(len(text))/5000.0),
		Length: len(text),
	}
	if len(spans) == 0 {
		return c, nil
	}
	var totalWords int
	for _, sp := range spans {
		n := len(strings.Fields(sp.Text))
		totalWords += n
		if n > 30 {
			c.LongSentences++
		}
	}
	c.AvgSentenceWords = float64(totalWords) / float64(len(spans))
	return c, nil
}

// ambiguity: every vague-term occurrence with a ±30-char context; ten
// findings saturate the score.
func ambiguity(text string) Ambiguity {
	var amb Ambiguity
	for i, re := range patterns.AmbiguousTermRegexps() {
		amb.Findings = append(amb.Findings, patterns.FindAll(patterns.AmbiguousTerms[i], re, text, 30)...)
	}
	amb.Score = math.Min(1.0, float64(len(amb.Findings))/10.0)
	return amb
}

// enforceability: one issue per missing essential clause category; each
// issue costs a fifth of the score.
func enforceability(text string) Enforceability {
	e := Enforceability{}
	for _, p := range patterns.EnforceabilityPatterns {
		if !p.Re.MatchString(text) {
			e.Issues = append(e.Issues, fmt.Sprintf("Missing %s clause", p.Name))
		}
	}
	e.Score = math.Max(0, 1.0-float64(len(e.Issues))/5.0)
	return e
}

// balance: for each party role, take the sentences mentioning that role and
// compute rights per obligation (floor of one obligation so a duty-free
// party still yields a finite ratio); the score is the absolute difference
// of the two ratios, clamped to [0, 1].
func (a *Analyzer) balance(ctx context.Context, text string) (Balance, error) {
	spans, err := a.provider.TokenizeSentences(ctx, text)
	if err != nil {
		return Balance{}, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "balance tokenization failed")
	}

	ratio := func(partyRe *regexp.Regexp) float64 {
		var duties, rights int
		for _, sp := range spans {
			if !partyRe.MatchString(sp.Text) {
				continue
			}
			duties += len(patterns.ObligationRe.FindAllString(sp.Text, -1))
			rights += len(patterns.RightRe.FindAllString(sp.Text, -1))
		}
		return float64(rights) / math.Max(1, float64(duties))
	}

	b := Balance{
		FirstPartyRatio:  ratio(patterns.FirstPartyRe),
		SecondPartyRatio: ratio(patterns.SecondPartyRe),
	}
	b.Score = math.Min(1.0, math.Abs(b.FirstPartyRatio-b.SecondPartyRatio))
	return b, nil
}

// sentiment: overall document polarity plus the mean polarity across every
// risk match's context window.
func (a *Analyzer) sentiment(ctx context.Context, text string, findings []Finding) (SentimentProfile, error) {
	overall, err := a.provider.Sentiment(ctx, text)
	if err != nil {
		return SentimentProfile{}, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "document sentiment failed")
	}

	sp := SentimentProfile{
		OverallPolarity: overall.Polarity,
		Subjectivity:    overall.Subjectivity,
	}

	var sum float64
	var n int
	for _, f := range findings {
		for _, m := range f.Matches {
			s, err := a.provider.Sentiment(ctx, m.Context)
			if err != nil {
				return SentimentProfile{}, apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "risk context sentiment failed")
			}
			sum += s.Polarity
			n++
		}
	}
	if n > 0 {
		sp.RiskContextPolarity = sum / float64(n)
	}
	return sp, nil
}

// recommendations derives the deterministic advice list from the assessment.
func recommendations(as *Assessment) []string {
	var recs []string
	for _, f := range as.Findings {
		if f.Severity != patterns.SeverityHigh {
			continue
		}
		// One line per match occurrence, not per category.
		for range f.Matches {
			recs = append(recs, fmt.Sprintf("Review %s clause carefully - contains high-risk elements", f.Category))
		}
	}
	for _, c := range as.CriticalClauses {
		if len(c.Concerns) > 0 {
			recs = append(recs, fmt.Sprintf("Address concerns in %s clause: %s",
				strings.ToLower(string(c.Type)), strings.Join(c.Concerns, "; ")))
		}
	}
	for _, cf := range as.Compliance {
		recs = append(recs, fmt.Sprintf("Ensure compliance with %s requirements", cf.Domain))
	}
	if as.Complexity.Score > 0.7 {
		recs = append(recs, "Consider simplifying document language and structure")
	}
	if as.Ambiguity.Score > 0.5 {
		recs = append(recs, "Clarify ambiguous terms and provide specific definitions")
	}
	if as.Enforceability.Score < 0.7 {
		recs = append(recs, "Add missing essential clauses to improve enforceability")
	}
	if as.Balance.Score > 0.3 {
		recs = append(recs, "Review rights and obligations to ensure fair balance between parties")
	}
	return recs
}
