// Package screening implements sanctions and country-risk screening of
// trade-finance counterparties: name normalization, fuzzy matching
// against the restricted-party reference list, bounded-hop network
// exposure checks, and the recommendation state machine that fuses
// them.
package screening

import (
	"strings"
	"unicode"
)

// legalSuffixes are stripped from entity names before comparison. Order
// matters only for readability; stripping loops until no suffix
// applies.
var legalSuffixes = []string{
	" LTD", " LIMITED", " INC", " CORP", " CORPORATION",
	" LLC", " CO", " COMPANY", " PTE", " GMBH",
}

// Normalize canonicalizes an entity name for comparison: uppercase,
// non-alphanumerics collapsed to single spaces, common legal-entity
// suffixes stripped, surrounding whitespace trimmed. Normalize is
// idempotent and maps empty input to the empty string.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	name = strings.ToUpper(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	name = strings.Join(strings.Fields(b.String()), " ")

	// Strip suffixes repeatedly so stacked forms ("X TRADING CO LTD")
	// reduce to a fixed point, which is what makes Normalize idempotent.
	for {
		stripped := false
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	return name
}
