package filter

import "testing"

func TestMentionsSubject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"usdc upper case", "USDC rallies", true},
		{"bitcoin only", "Bitcoin rallies", false},
		{"stablecoin plural", "New Stablecoins approved", true},
		{"tether", "Tether mints more", true},
		{"dai inside word", "daily market wrap", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MentionsSubject(tt.text); got != tt.want {
				t.Errorf("MentionsSubject(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasPolicyContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"strong term alone", "the central bank spoke", true},
		{"strong term mixed case", "New GUIDANCE issued", true},
		{"two general terms", "a note on policy and risk", true},
		{"one general term", "market risk rises", false},
		{"two general non-strong terms", "new law and legislation", true},
		{"same general term twice", "risk risk risk", false},
		{"aml inside word", "a quiet hamlet", true},
		{"nothing", "prices went up", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPolicyContext(tt.text); got != tt.want {
				t.Errorf("HasPolicyContext(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasNegativeTerm(t *testing.T) {
	if !HasNegativeTerm("this is a scam") {
		t.Error("expected scam to be negative")
	}
	if !HasNegativeTerm("USDT Hack Drains $10M") {
		t.Error("expected hack to be negative")
	}
	if !HasNegativeTerm("Banking partners") {
		t.Error("expected substring match of ban inside banking")
	}
	if HasNegativeTerm("regulators approve framework") {
		t.Error("did not expect a negative term")
	}
}

func TestLexiconsAreLowerCase(t *testing.T) {
	for _, list := range [][]string{SubjectKeywords, StrongPolicyTerms, GeneralPolicyTerms, NegativeTerms} {
		for _, k := range list {
			for _, r := range k {
				if r >= 'A' && r <= 'Z' {
					t.Errorf("lexicon entry %q must be lower case", k)
					break
				}
			}
		}
	}
}
