package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Acme Trading", "ACME TRADING"},
		{"suffix ltd", "Acme Trading Ltd", "ACME TRADING"},
		{"suffix with punctuation", "Acme Trading Co., Ltd.", "ACME TRADING"},
		{"stacked suffixes", "Acme Trading Company Limited", "ACME TRADING"},
		{"gmbh", "Müller Handel GmbH", "MÜLLER HANDEL"},
		{"punctuation collapses", "A.B.C-Export/Import", "A B C EXPORT IMPORT"},
		{"interior whitespace", "  Acme   Trading  ", "ACME TRADING"},
		{"suffix word mid-name survives", "Limited Horizons", "LIMITED HORIZONS"},
		{"digits kept", "Trade 24 Pte", "TRADE 24"},
		{"only punctuation", "...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Trading Co., Ltd.",
		"Tehran Trading Company",
		"Global-Horizons (HK) Limited",
		"X TRADING CO LTD",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize(Normalize(%q))", in)
	}
}
