package summary

import (
	"math"
	"strings"

	"github.com/clauselens/clauselens/internal/provider"
)

// tfidfIndex holds per-sentence term statistics computed over the document's
// own sentences; no external corpus is involved.
type tfidfIndex struct {
	sentences [][]string
	df        map[string]int
	n         int
}

func buildTFIDF(spans []provider.SentenceSpan) *tfidfIndex {
	idx := &tfidfIndex{
		df: map[string]int{},
		n:  len(spans),
	}
	idx.sentences = make([][]string, len(spans))
	for i, sp := range spans {
		terms := contentTerms(sp.Text)
		idx.sentences[i] = terms

		seen := map[string]struct{}{}
		for _, t := range terms {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			idx.df[t]++
		}
	}
	return idx
}

// meanScore is the average TF-IDF weight of sentence i's terms: term
// frequency within the sentence times log(N/df), zero for empty sentences.
func (idx *tfidfIndex) meanScore(i int) float64 {
	terms := idx.sentences[i]
	if len(terms) == 0 {
		return 0
	}

	tf := map[string]int{}
	for _, t := range terms {
		tf[t]++
	}

	var sum float64
	for _, t := range terms {
		tfw := float64(tf[t]) / float64(len(terms))
		idf := math.Log(float64(idx.n) / float64(idx.df[t]))
		sum += tfw * idf
	}
	return sum / float64(len(terms))
}

// contentTerms lowercases and strips stopwords and non-alphabetic tokens.
func contentTerms(sentence string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(sentence)) {
		w = strings.Trim(w, `.,;:!?()"'`)
		if w == "" || IsStopword(w) || !isAlphabetic(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "herself": {}, "him": {}, "himself": {}, "his": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"itself": {}, "just": {}, "me": {}, "more": {}, "most": {}, "my": {},
	"myself": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {},
	"off": {}, "on": {}, "once": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "ours": {}, "ourselves": {}, "out": {}, "over": {}, "own": {},
	"same": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "theirs": {}, "them": {},
	"themselves": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "through": {}, "to": {}, "too": {}, "under": {},
	"until": {}, "up": {}, "very": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "who": {},
	"whom": {}, "why": {}, "with": {}, "would": {}, "you": {}, "your": {},
	"yours": {}, "yourself": {}, "yourselves": {},
}

// IsStopword reports whether w is in the embedded English stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
