package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 1.0, SeverityHigh.Weight())
	assert.Equal(t, 0.6, SeverityMedium.Weight())
	assert.Equal(t, 0.3, SeverityLow.Weight())
	assert.Equal(t, 0.5, Severity("odd").Weight())
}

func TestDocumentTypes_TableShape(t *testing.T) {
	require.Len(t, DocumentTypes, 7)
	// Order is part of the classifier tie-break contract.
	assert.Equal(t, DocTypeEmploymentAgreement, DocumentTypes[0].Type)
	assert.Equal(t, DocTypePurchaseAgreement, DocumentTypes[6].Type)

	for _, p := range DocumentTypes {
		assert.NotEmpty(t, p.Phrases, p.Type)
		assert.Len(t, p.PhraseRegexps(), len(p.Phrases), p.Type)
		assert.Greater(t, p.Weight, 0.0, p.Type)
	}
}

func TestDocumentTypes_WholeWordMatching(t *testing.T) {
	// "salary" must not match inside "salaryman"-style compounds.
	re := DocumentTypes[0].PhraseRegexps()[5]
	assert.True(t, re.MatchString("the annual Salary is"))
	assert.False(t, re.MatchString("salaryman"))
}

func TestRiskTiers(t *testing.T) {
	require.Len(t, RiskTiers, 3)
	assert.Equal(t, SeverityHigh, RiskTiers[0].Severity)
	assert.Len(t, RiskTiers[0].Patterns, 5)
	assert.Len(t, RiskTiers[1].Patterns, 5)
	assert.Len(t, RiskTiers[2].Patterns, 5)

	assert.True(t, RiskTiers[0].Patterns[0].Re.MatchString("The employee is restricted from competing"))
	assert.True(t, RiskTiers[1].Patterns[1].Re.MatchString("thirty days notice"))
}

func TestFindAll_ContextWindow(t *testing.T) {
	text := "aaaa TERMINATE bbbb"
	got := FindAll("termination", RiskTiers[0].Patterns[2].Re, text, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "TERMINATE", got[0].Text)
	assert.Equal(t, "a TERMINATE b", got[0].Context)
	assert.Equal(t, 5, got[0].Position)

	assert.Nil(t, FindAll("termination", RiskTiers[0].Patterns[2].Re, "nothing here", 10))
}

func TestContextWindow_Clamping(t *testing.T) {
	assert.Equal(t, "abc", ContextWindow("abc", 0, 3, 100))
	assert.Equal(t, "abc", ContextWindow(" abc ", 2, 4, 100))
}

func TestLegalPatternByName(t *testing.T) {
	require.Len(t, LegalPatterns, 20)
	re := LegalPatternByName("prohibition")
	require.NotNil(t, re)
	assert.True(t, re.MatchString("The contractor shall not disclose"))
	assert.Nil(t, LegalPatternByName("nonexistent"))
}

func TestAmbiguousTermRegexps(t *testing.T) {
	res := AmbiguousTermRegexps()
	require.Len(t, res, len(AmbiguousTerms))
	assert.True(t, res[0].MatchString("a Reasonable effort"))
	assert.False(t, res[0].MatchString("unreasonableness"))
}

func TestConcernPatterns(t *testing.T) {
	assert.True(t, ConcernPatterns[0].Re.MatchString("an unlimited license"))
	assert.True(t, ConcernPatterns[2].Re.MatchString("responsible for all consequential damages"))
}

func TestDefinedTermRe(t *testing.T) {
	m := DefinedTermRe.FindStringSubmatch(`"Confidential Information" means any non-public data. Next sentence.`)
	require.Len(t, m, 3)
	assert.Equal(t, "Confidential Information", m[1])
	assert.Equal(t, "any non-public data", m[2])
}
