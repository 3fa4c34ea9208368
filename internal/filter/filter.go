// Package filter holds the fixed keyword lexicons used to decide whether a
// feed entry is about stablecoins and framed in a regulatory context.
//
// All matching is case-insensitive substring matching. Short entries such as
// "dai" or "aml" therefore also match inside longer words ("daily",
// "hamlet"); that behaviour is relied upon and must stay as is.
package filter

import "strings"

// SubjectKeywords name the stablecoins an entry has to mention.
var SubjectKeywords = []string{
	"stablecoin",
	"usdc",
	"usdt",
	"tether",
	"dai",
	"circle",
}

// StrongPolicyTerms are regulatory or compliance terms; one hit is enough.
var StrongPolicyTerms = []string{
	"regulation",
	"compliance",
	"oversight",
	"policy",
	"risk management",
	"aml",
	"anti-money laundering",
	"kyc",
	"licence",
	"license",
	"central bank",
	"cbdc",
	"basel",
	"governance",
	"guidance",
	"framework",
	"supervision",
	"report",
	"consultation",
	"pilot",
	"sandbox",
	"disclosure",
	"transparency",
	"prudential",
	"enforcement",
	"regulator",
	"settlement",
	"comptroller",
	"treasury",
}

// GeneralPolicyTerms are broader words; MinGeneralPolicyHits distinct
// entries must appear before they count as policy context.
var GeneralPolicyTerms = []string{
	"policy",
	"law",
	"bill",
	"legislation",
	"standard",
	"guideline",
	"consultation",
	"supervisory",
	"oversight",
	"risk",
	"framework",
	"white paper",
	"report",
	"discussion paper",
	"consultation paper",
	"governance",
	"auditing",
	"settlement",
}

// NegativeTerms raise the sentiment bar an entry has to clear.
var NegativeTerms = []string{
	"hack",
	"scam",
	"fraud",
	"ban",
	"collapse",
	"lawsuit",
	"pump",
	"dump",
	"moon",
}

// MinGeneralPolicyHits keeps single generic words like "risk" from
// qualifying on their own.
const MinGeneralPolicyHits = 2

// MentionsSubject reports whether text mentions any stablecoin keyword.
func MentionsSubject(text string) bool {
	return containsAny(strings.ToLower(text), SubjectKeywords)
}

// HasPolicyContext reports whether text contains a strong policy term or at
// least MinGeneralPolicyHits distinct general policy terms.
func HasPolicyContext(text string) bool {
	lowered := strings.ToLower(text)
	if containsAny(lowered, StrongPolicyTerms) {
		return true
	}
	return countHits(lowered, GeneralPolicyTerms) >= MinGeneralPolicyHits
}

// HasNegativeTerm reports whether text contains any negative term.
func HasNegativeTerm(text string) bool {
	return containsAny(strings.ToLower(text), NegativeTerms)
}

// containsAny expects lowered text and lower-case keywords.
func containsAny(lowered string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func countHits(lowered string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			hits++
		}
	}
	return hits
}
