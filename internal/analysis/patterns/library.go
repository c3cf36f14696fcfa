package patterns

import (
	"fmt"
	"regexp"
)

// DocumentType labels the recognised legal document categories.
type DocumentType string

const (
	DocTypeEmploymentAgreement DocumentType = "EMPLOYMENT_AGREEMENT"
	DocTypeNonDisclosure       DocumentType = "NON_DISCLOSURE"
	DocTypeServiceAgreement    DocumentType = "SERVICE_AGREEMENT"
	DocTypeLeaseAgreement      DocumentType = "LEASE_AGREEMENT"
	DocTypeTermsAndConditions  DocumentType = "TERMS_AND_CONDITIONS"
	DocTypePrivacyPolicy       DocumentType = "PRIVACY_POLICY"
	DocTypePurchaseAgreement   DocumentType = "PURCHASE_AGREEMENT"
	DocTypeUnknown             DocumentType = "UNKNOWN"
)

// DocumentTypeProfile is the keyword signature of one document type.  Phrases
// are matched case-insensitively on whole-word boundaries; Weight scales the
// accumulated score for types whose vocabulary is less distinctive.
type DocumentTypeProfile struct {
	Type    DocumentType
	Weight  float64
	Phrases []string

	res []*regexp.Regexp
}

// PhraseRegexps returns the compiled whole-word regexes, index-aligned with
// Phrases.
func (p *DocumentTypeProfile) PhraseRegexps() []*regexp.Regexp { return p.res }

// DocumentTypes is ordered: when two types score identically the earlier
// entry wins, so the order is part of the classifier contract.
var DocumentTypes = []*DocumentTypeProfile{
	{Type: DocTypeEmploymentAgreement, Weight: 1.0, Phrases: []string{
		"employment agreement", "employment contract", "work agreement",
		"labor contract", "compensation", "salary", "wages", "job duties",
		"work schedule",
	}},
	{Type: DocTypeNonDisclosure, Weight: 1.0, Phrases: []string{
		"non-disclosure agreement", "confidentiality agreement",
		"confidential information", "trade secrets", "proprietary information",
		"confidentiality obligations",
	}},
	{Type: DocTypeServiceAgreement, Weight: 1.0, Phrases: []string{
		"service agreement", "consulting agreement", "professional services",
		"statement of work", "service provider", "scope of services",
	}},
	{Type: DocTypeLeaseAgreement, Weight: 1.0, Phrases: []string{
		"lease agreement", "rental agreement", "landlord", "tenant",
		"property", "rent payment", "security deposit",
	}},
	{Type: DocTypeTermsAndConditions, Weight: 0.8, Phrases: []string{
		"terms and conditions", "terms of service", "terms of use",
		"user agreement", "acceptable use", "service terms",
	}},
	{Type: DocTypePrivacyPolicy, Weight: 0.8, Phrases: []string{
		"privacy policy", "data protection", "personal information",
		"data collection", "privacy rights", "data processing",
	}},
	{Type: DocTypePurchaseAgreement, Weight: 0.9, Phrases: []string{
		"purchase agreement", "sales contract", "bill of sale",
		"purchase order", "buyer", "seller", "purchase price",
	}},
}

// SectionPatterns detect the presence of conventional contract sections.
var SectionPatterns = []NamedPattern{
	{Name: "definitions", Re: regexp.MustCompile(`(?i)(definitions|interpretation|meaning of terms)`)},
	{Name: "parties", Re: regexp.MustCompile(`(?i)(between|party|parties)`)},
	{Name: "term", Re: regexp.MustCompile(`(?i)(term|duration|period)`)},
	{Name: "payment", Re: regexp.MustCompile(`(?i)(payment terms|compensation|fees)`)},
	{Name: "termination", Re: regexp.MustCompile(`(?i)(termination|cancellation)`)},
	{Name: "governing_law", Re: regexp.MustCompile(`(?i)(governing law|jurisdiction|applicable law)`)},
}

// RiskTier groups risk patterns by severity.
type RiskTier struct {
	Severity Severity
	Patterns []NamedPattern
}

// RiskTiers is ordered high → medium → low.
var RiskTiers = []RiskTier{
	{Severity: SeverityHigh, Patterns: []NamedPattern{
		{Name: "non_compete", Re: regexp.MustCompile(`(?i)non-compete|compete|competition|competitive|restricted\s+from|prohibited\s+from\s+competing`)},
		{Name: "confidentiality", Re: regexp.MustCompile(`(?i)confidential|proprietary|trade\s+secret|non-disclosure|confidentiality`)},
		{Name: "termination", Re: regexp.MustCompile(`(?i)terminate|termination|immediate\s+termination|right\s+to\s+terminate|grounds\s+for\s+termination`)},
		{Name: "liability", Re: regexp.MustCompile(`(?i)liable|liability|indemnify|indemnification|hold\s+harmless|damages|claims`)},
		{Name: "intellectual_property", Re: regexp.MustCompile(`(?i)intellectual\s+property|patent|copyright|trademark|trade\s+secret|proprietary\s+rights`)},
	}},
	{Severity: SeverityMedium, Patterns: []NamedPattern{
		{Name: "payment", Re: regexp.MustCompile(`(?i)payment|compensation|salary|fees|penalty|late\s+payment|interest`)},
		{Name: "notice", Re: regexp.MustCompile(`(?i)notice|notification|written\s+notice|days\s+notice|advance\s+notice`)},
		{Name: "modification", Re: regexp.MustCompile(`(?i)modify|modification|amend|amendment|change|alter`)},
		{Name: "assignment", Re: regexp.MustCompile(`(?i)assign|assignment|transfer|delegate|delegation`)},
		{Name: "governing_law", Re: regexp.MustCompile(`(?i)governing\s+law|jurisdiction|venue|applicable\s+law|courts`)},
	}},
	{Severity: SeverityLow, Patterns: []NamedPattern{
		{Name: "definitions", Re: regexp.MustCompile(`(?i)definitions|means|defined\s+as|interpretation`)},
		{Name: "interpretation", Re: regexp.MustCompile(`(?i)interpret|interpretation|construe|construction`)},
		{Name: "notices", Re: regexp.MustCompile(`(?i)notices|address|contact|communication`)},
		{Name: "severability", Re: regexp.MustCompile(`(?i)severability|severable|invalid|unenforceable`)},
		{Name: "force_majeure", Re: regexp.MustCompile(`(?i)force\s+majeure|act\s+of\s+god|beyond\s+control|unforeseeable`)},
	}},
}

// ConcernPattern flags a red-flag phrasing inside a clause, with the
// human-readable concern it raises.
type ConcernPattern struct {
	Label string
	Re    *regexp.Regexp
}

var ConcernPatterns = []ConcernPattern{
	{Label: "Overly broad or unlimited scope", Re: regexp.MustCompile(`(?i)unlimited|unrestricted`)},
	{Label: "Indefinite or excessive duration", Re: regexp.MustCompile(`(?i)perpetual|forever|indefinite`)},
	{Label: "Extensive liability or damages", Re: regexp.MustCompile(`(?i)all.*damages|any.*liability`)},
	{Label: "Unilateral or absolute rights", Re: regexp.MustCompile(`(?i)sole.*discretion|absolute.*right`)},
	{Label: "Strong warranties or representations", Re: regexp.MustCompile(`(?i)warrant|represent|guarantee`)},
}

// CompliancePatterns map regulatory domains to their trigger vocabulary.
var CompliancePatterns = []NamedPattern{
	{Name: "data_privacy", Re: regexp.MustCompile(`(?i)personal\s+data|privacy|gdpr|ccpa|data\s+protection`)},
	{Name: "employment", Re: regexp.MustCompile(`(?i)equal\s+opportunity|discrimination|harassment|minimum\s+wage|overtime`)},
	{Name: "financial", Re: regexp.MustCompile(`(?i)securities|investment|banking|anti-money\s+laundering|tax`)},
	{Name: "environmental", Re: regexp.MustCompile(`(?i)environmental|pollution|emissions|hazardous|waste`)},
	{Name: "health_safety", Re: regexp.MustCompile(`(?i)health|safety|osha|workplace\s+safety|medical`)},
	{Name: "regulatory", Re: regexp.MustCompile(`(?i)regulation|regulatory|compliance|license|permit`)},
}

// AmbiguousTerms are vague words whose presence lowers drafting precision.
// Matched on whole-word boundaries, case-insensitively.
var AmbiguousTerms = []string{
	"reasonable", "substantial", "material", "appropriate",
	"satisfactory", "good faith", "fair",
}

// EnforceabilityPatterns are the clauses a contract needs to stand up; each
// missing category is reported as an enforceability issue.
var EnforceabilityPatterns = []NamedPattern{
	{Name: "jurisdiction", Re: regexp.MustCompile(`(?i)governing\s+law|jurisdiction`)},
	{Name: "severability", Re: regexp.MustCompile(`(?i)severability|severable`)},
	{Name: "consideration", Re: regexp.MustCompile(`(?i)consideration|in\s+exchange\s+for`)},
	{Name: "capacity", Re: regexp.MustCompile(`(?i)capacity|authority|power`)},
	{Name: "consent", Re: regexp.MustCompile(`(?i)consent|agree|accept`)},
}

// Party-balance vocabulary: which side a mention refers to and whether the
// surrounding language imposes a duty or grants a right.
var (
	FirstPartyRe  = regexp.MustCompile(`(?i)company|employer|lessor|licensor`)
	SecondPartyRe = regexp.MustCompile(`(?i)employee|contractor|lessee|licensee`)
	ObligationRe  = regexp.MustCompile(`(?i)shall|must|required|obligation|duty`)
	RightRe       = regexp.MustCompile(`(?i)may|entitled|right|option|discretion`)
)

// LegalPatterns are the named clause-level constructs annotated during
// segmentation.
var LegalPatterns = []NamedPattern{
	{Name: "obligation", Re: regexp.MustCompile(`(?i)\b(?:shall|must|is\s+required\s+to|agrees\s+to)\b`)},
	{Name: "prohibition", Re: regexp.MustCompile(`(?i)\b(?:shall\s+not|must\s+not|may\s+not|is\s+prohibited\s+from)\b`)},
	{Name: "permission", Re: regexp.MustCompile(`(?i)\b(?:may|is\s+permitted\s+to|is\s+entitled\s+to)\b`)},
	{Name: "definition", Re: regexp.MustCompile(`(?i)\b(?:means|shall\s+mean|refers\s+to|is\s+defined\s+as)\b`)},
	{Name: "condition", Re: regexp.MustCompile(`(?i)\b(?:if|unless|provided\s+that|subject\s+to|in\s+the\s+event)\b`)},
	{Name: "exception", Re: regexp.MustCompile(`(?i)\b(?:except|excluding|other\s+than|notwithstanding)\b`)},
	{Name: "temporal", Re: regexp.MustCompile(`(?i)\b(?:within\s+\d+\s+days|upon|prior\s+to|following|during\s+the\s+term)\b`)},
	{Name: "termination", Re: regexp.MustCompile(`(?i)\b(?:terminat(?:e|es|ed|ion)|cancel(?:lation)?|expir(?:e|es|ation))\b`)},
	{Name: "amendment", Re: regexp.MustCompile(`(?i)\b(?:amend(?:ment|ed)?|modif(?:y|ied|ication)|supplement)\b`)},
	{Name: "indemnification", Re: regexp.MustCompile(`(?i)\b(?:indemnif(?:y|ies|ication)|hold\s+harmless|defend)\b`)},
	{Name: "warranty", Re: regexp.MustCompile(`(?i)\b(?:warrant(?:s|y|ies)?|represent(?:s|ation|ations)?|guarantee(?:s)?)\b`)},
	{Name: "confidentiality", Re: regexp.MustCompile(`(?i)\b(?:confidential(?:ity)?|non-disclosure|proprietary|trade\s+secrets?)\b`)},
	{Name: "governing_law", Re: regexp.MustCompile(`(?i)\b(?:governing\s+law|governed\s+by|jurisdiction|venue)\b`)},
	{Name: "severability", Re: regexp.MustCompile(`(?i)\b(?:sever(?:able|ability)|invalid(?:ity)?|unenforceable)\b`)},
	{Name: "force_majeure", Re: regexp.MustCompile(`(?i)\b(?:force\s+majeure|act\s+of\s+god|beyond\s+(?:its|their)\s+control)\b`)},
	{Name: "assignment", Re: regexp.MustCompile(`(?i)\b(?:assign(?:s|ment|able)?|transfer(?:s|able)?|delegate)\b`)},
	{Name: "notice", Re: regexp.MustCompile(`(?i)\b(?:notice|notify|notification|written\s+notice)\b`)},
	{Name: "payment", Re: regexp.MustCompile(`(?i)\b(?:pay(?:ment|able)?|fees?|compensation|invoice)\b`)},
	{Name: "intellectual_property", Re: regexp.MustCompile(`(?i)\b(?:intellectual\s+property|patent|copyright|trademark)\b`)},
	{Name: "dispute_resolution", Re: regexp.MustCompile(`(?i)\b(?:dispute|arbitration|mediation|litigation)\b`)},
}

// ImportantPhrases are the boilerplate markers that raise a clause's or
// sentence's weight during summarization, in priority order.
var ImportantPhrases = []string{
	"agrees to", "shall", "must", "will", "represents and warrants",
	"subject to", "in accordance with", "notwithstanding", "hereby",
	"pursuant to",
}

// Supplemental extraction patterns shared by the pipeline.
var (
	CrossReferenceRe = regexp.MustCompile(`(?i)(section|clause|paragraph)\s+(\d+(\.\d+)?)`)
	DefinedTermRe    = regexp.MustCompile(`"([^"]+)"\s+(?:means|shall mean|refers to|is defined as)\s+([^.]+)`)
	LegalReferenceRe = regexp.MustCompile(`(?i)\b(?:section|article|clause|paragraph)\b`)
	NumericTokenRe   = regexp.MustCompile(`\d`)
)

var (
	ambiguousTermRes []*regexp.Regexp
	legalPatternIdx  map[string]*regexp.Regexp
)

// AmbiguousTermRegexps returns compiled whole-word regexes aligned with
// AmbiguousTerms.
func AmbiguousTermRegexps() []*regexp.Regexp { return ambiguousTermRes }

// LegalPatternByName returns the compiled legal pattern regex, or nil when
// no such pattern exists.
func LegalPatternByName(name string) *regexp.Regexp { return legalPatternIdx[name] }

func compileWord(phrase string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(phrase)))
}

func init() {
	for _, p := range DocumentTypes {
		p.res = make([]*regexp.Regexp, len(p.Phrases))
		for i, phrase := range p.Phrases {
			p.res[i] = compileWord(phrase)
		}
	}

	ambiguousTermRes = make([]*regexp.Regexp, len(AmbiguousTerms))
	for i, term := range AmbiguousTerms {
		ambiguousTermRes[i] = compileWord(term)
	}

	legalPatternIdx = make(map[string]*regexp.Regexp, len(LegalPatterns))
	for _, lp := range LegalPatterns {
		legalPatternIdx[lp.Name] = lp.Re
	}
}
