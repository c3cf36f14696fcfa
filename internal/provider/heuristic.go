package provider

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// heuristic is the self-contained rule/lexicon provider.  It is fully
// deterministic: the same text always yields the same spans, entities, and
// scores, which is what makes pipeline idempotence testable.
type heuristic struct{}

// NewHeuristic returns the deterministic rule-based provider.
func NewHeuristic() Provider { return heuristic{} }

func (heuristic) Name() string { return "heuristic" }

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "jr": {}, "sr": {},
	"no": {}, "vs": {}, "e.g": {}, "i.e": {}, "etc": {}, "est": {},
	"approx": {}, "sec": {},
}

func (heuristic) TokenizeSentences(_ context.Context, text string) ([]SentenceSpan, error) {
	return splitSentences(text), nil
}

// splitSentences scans for terminal punctuation followed by whitespace and an
// upper-case letter, digit, or opening quote, skipping known abbreviations.
// A double newline always ends the current sentence.
func splitSentences(text string) []SentenceSpan {
	var spans []SentenceSpan
	start := 0

	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			spans = append(spans, SentenceSpan{
				Text:  trimmed,
				Start: start + lead,
				End:   start + lead + len(trimmed),
			})
		}
		start = end
	}

	runes := []byte(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if c == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush(i)
			continue
		}

		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if c == '.' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
			// Decimal or subsection number ("2.1", "$25,000.00").
			continue
		}
		if c == '.' && isAbbreviation(text[start:i]) {
			continue
		}
		// Consume trailing punctuation and closing quotes.
		j := i + 1
		for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?' ||
			runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
			j++
		}
		if j >= len(runes) {
			flush(len(runes))
			i = j
			continue
		}
		if runes[j] != ' ' && runes[j] != '\t' && runes[j] != '\n' {
			continue
		}
		// Peek at the first non-space character of the next fragment.
		k := j
		for k < len(runes) && (runes[k] == ' ' || runes[k] == '\t' || runes[k] == '\n') {
			k++
		}
		if k >= len(runes) {
			flush(len(runes))
			i = len(runes)
			continue
		}
		next := rune(runes[k])
		if unicode.IsUpper(next) || unicode.IsDigit(next) || next == '"' || next == '(' {
			flush(j)
			i = j - 1
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	return spans
}

func isAbbreviation(fragment string) bool {
	idx := strings.LastIndexFunc(fragment, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '('
	})
	word := strings.ToLower(fragment[idx+1:])
	word = strings.TrimRight(word, ".")
	if word == "" {
		return false
	}
	if len(word) == 1 && word[0] >= 'a' && word[0] <= 'z' {
		// Single-letter initials ("John Q. Public").
		return true
	}
	// Short enumeration markers: "1. DEFINITIONS", "12. NOTICES".
	if len(word) <= 2 && isAllDigits(word) {
		return true
	}
	_, ok := abbreviations[word]
	return ok
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Rule-based entity patterns.  Deliberately high-precision: the analysis
// layers use entities as bonuses, so a missed entity costs little while a
// false one pollutes summaries.
var (
	personRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)
	orgRe    = regexp.MustCompile(`\b(?:[A-Z][A-Za-z&]+\s+)+(?:Inc|LLC|LLP|Ltd|Corp|Corporation|Company|Group|Partners)\.?`)
	dateRe   = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	moneyRe  = regexp.MustCompile(`\$[\d,]+(?:\.\d{1,2})?(?:\s+(?:million|billion))?|\b\d[\d,]*\s+dollars\b`)
	gpeRe    = regexp.MustCompile(`\bState of [A-Z][a-z]+\b|\bUnited States\b|\bNew York\b|\bCalifornia\b|\bDelaware\b|\bTexas\b|\bFlorida\b|\bIllinois\b`)
	lawRe    = regexp.MustCompile(`\b(?:[A-Z][a-z]+\s+)+Act\b|\bGDPR\b|\bCCPA\b|\bHIPAA\b|\bUCC\b`)
)

func (heuristic) ExtractEntities(_ context.Context, text string) (map[string][]string, error) {
	out := map[string][]string{}
	collect := func(label string, re *regexp.Regexp) {
		seen := map[string]struct{}{}
		for _, m := range re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out[label] = append(out[label], m)
		}
	}
	collect(LabelPerson, personRe)
	collect(LabelOrg, orgRe)
	collect(LabelDate, dateRe)
	collect(LabelMoney, moneyRe)
	collect(LabelGPE, gpeRe)
	collect(LabelLaw, lawRe)
	return out, nil
}

// Polarity lexicon: legal vocabulary skews the scales, so the lexicon is
// tuned for contract language rather than product reviews.
var polarityLexicon = map[string]float64{
	"agree": 0.4, "agrees": 0.4, "agreement": 0.2, "benefit": 0.6,
	"benefits": 0.6, "fair": 0.6, "good": 0.7, "grant": 0.3, "grants": 0.3,
	"protect": 0.4, "reasonable": 0.4, "right": 0.3, "rights": 0.3,
	"satisfactory": 0.5, "entitled": 0.3, "compensation": 0.2,

	"breach": -0.7, "damages": -0.5, "default": -0.5, "dispute": -0.4,
	"fail": -0.6, "failure": -0.6, "liable": -0.5, "liability": -0.5,
	"loss": -0.5, "losses": -0.5, "penalty": -0.6, "prohibited": -0.5,
	"terminate": -0.4, "terminated": -0.4, "termination": -0.4,
	"violation": -0.7, "waive": -0.3, "waives": -0.3, "forfeit": -0.6,
}

var subjectiveWords = map[string]struct{}{
	"reasonable": {}, "substantial": {}, "material": {}, "appropriate": {},
	"satisfactory": {}, "fair": {}, "good": {}, "best": {}, "promptly": {},
	"significant": {}, "adequate": {}, "proper": {}, "necessary": {},
	"sole": {}, "absolute": {}, "unreasonable": {},
}

func (heuristic) Sentiment(_ context.Context, text string) (Sentiment, error) {
	words := tokenizeWords(text)
	if len(words) == 0 {
		return Sentiment{}, nil
	}
	var sum float64
	var scored int
	var subjective int
	for _, w := range words {
		if p, ok := polarityLexicon[w]; ok {
			sum += p
			scored++
		}
		if _, ok := subjectiveWords[w]; ok {
			subjective++
		}
	}
	s := Sentiment{}
	if scored > 0 {
		s.Polarity = sum / float64(scored)
	}
	// Subjectivity saturates at one subjective word per ten tokens.
	s.Subjectivity = math.Min(1.0, float64(subjective)*10.0/float64(len(words)))
	return s, nil
}

func (heuristic) Readability(_ context.Context, text string) (Readability, error) {
	words := tokenizeWords(text)
	sentences := splitSentences(text)
	if len(words) == 0 || len(sentences) == 0 {
		return Readability{}, nil
	}

	var syllables, complexWords, letters int
	for _, w := range words {
		sy := countSyllables(w)
		syllables += sy
		if sy >= 3 {
			complexWords++
		}
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
		}
	}

	nw := float64(len(words))
	ns := float64(len(sentences))
	wps := nw / ns
	spw := float64(syllables) / nw

	r := Readability{
		FleschReadingEase:  206.835 - 1.015*wps - 84.6*spw,
		FleschKincaidGrade: 0.39*wps + 11.8*spw - 15.59,
		GunningFog:         0.4 * (wps + 100.0*float64(complexWords)/nw),
		SMOG:               1.0430*math.Sqrt(float64(complexWords)*30.0/ns) + 3.1291,
		ARI:                4.71*float64(letters)/nw + 0.5*wps - 21.43,
		ColemanLiau:        0.0588*(float64(letters)/nw*100.0) - 0.296*(ns/nw*100.0) - 15.8,
		LinsearWrite:       linsearWrite(words, text),
	}
	return r, nil
}

// linsearWrite scores the first 100 words: easy words (fewer than three
// syllables) count 1, hard words count 3; the sum is divided by the number
// of sentences covering the sample, then halved (minus one grade when the
// raw ratio is 20 or below).
func linsearWrite(words []string, text string) float64 {
	sample := words
	if len(sample) > 100 {
		sample = sample[:100]
	}
	var score float64
	for _, w := range sample {
		if countSyllables(w) >= 3 {
			score += 3
		} else {
			score++
		}
	}
	// Approximate the sentence count of the sample by prorating.
	sentences := splitSentences(text)
	ns := float64(len(sentences))
	if len(words) > 100 {
		ns = math.Max(1, ns*100.0/float64(len(words)))
	}
	r := score / ns
	if r > 20 {
		return r / 2.0
	}
	return (r - 2.0) / 2.0
}

var wordRe = regexp.MustCompile(`[A-Za-z]+(?:['-][A-Za-z]+)*`)

func tokenizeWords(text string) []string {
	raw := wordRe.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, w := range raw {
		out[i] = strings.ToLower(w)
	}
	return out
}

// countSyllables estimates syllables as vowel groups, dropping a trailing
// silent "e" and flooring at one.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}
