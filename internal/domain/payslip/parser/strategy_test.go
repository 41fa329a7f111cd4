package parser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstOf(t *testing.T) {
	primary := Capture{Pattern: regexp.MustCompile(`Net payé\s*:\s*(\d+\.\d{2})`), Group: 1}
	fallback := Capture{Pattern: regexp.MustCompile(`Net payé\s*(\d+\.\d{2})`), Group: 1}
	strategies := []Strategy{primary, fallback}

	t.Run("primary wins even when fallback also matches", func(t *testing.T) {
		v := FirstOf("Net payé100.00\nNet payé : 200.00", strategies)
		require.NotNil(t, v)
		assert.Equal(t, 200.0, *v)
	})

	t.Run("fallback used when primary absent", func(t *testing.T) {
		v := FirstOf("Net payé100.00", strategies)
		require.NotNil(t, v)
		assert.Equal(t, 100.0, *v)
	})

	t.Run("absent when nothing matches", func(t *testing.T) {
		assert.Nil(t, FirstOf("Salaire brut", strategies))
	})

	t.Run("empty strategy list", func(t *testing.T) {
		assert.Nil(t, FirstOf("Net payé100.00", nil))
	})
}

func TestCapture(t *testing.T) {
	t.Run("transform applied", func(t *testing.T) {
		c := Capture{Pattern: regexp.MustCompile(`\((\d+,\d{2}) %\)`), Group: 1, Transform: Percent}
		v := c.Extract("Prélèvement (20,00 %)")
		require.NotNil(t, v)
		assert.InDelta(t, 0.2, *v, 1e-12)
	})

	t.Run("reject group skips matches", func(t *testing.T) {
		c := Capture{Pattern: regexp.MustCompile(`CP N(-[12])?\s*(-?\d[\d\s,]*)\s*jours`), Group: 2, Reject: 1}
		v := c.Extract("CP N-20,00 jours CP N-15,00 jours CP N-0,12 jours")
		require.NotNil(t, v)
		assert.Equal(t, -0.12, *v)
	})

	t.Run("reject group leaves nothing", func(t *testing.T) {
		c := Capture{Pattern: regexp.MustCompile(`CP N(-[12])?\s*(-?\d[\d\s,]*)\s*jours`), Group: 2, Reject: 1}
		assert.Nil(t, c.Extract("CP N-20,00 jours"))
	})

	t.Run("unparsable capture is absent", func(t *testing.T) {
		c := Capture{Pattern: regexp.MustCompile(`Bonus\s*(\S*)`), Group: 1}
		assert.Nil(t, c.Extract("Bonus n/a"))
	})

	t.Run("group out of range is absent", func(t *testing.T) {
		c := Capture{Pattern: regexp.MustCompile(`Bonus`), Group: 3}
		assert.Nil(t, c.Extract("Bonus"))
	})
}

func TestWithin(t *testing.T) {
	inner := Capture{Pattern: regexp.MustCompile(`Net imposable\s*(\d[\d\s]*,\d{2})`), Group: 1}
	w := Within{Section: cumulsSection, Strategy: inner}

	text := "Net imposable 1 111,11\nCumuls depuis le 01/01\nNet imposable 7 500,00\nCongés disponibles\nNet imposable 9,99"
	v := w.Extract(text)
	require.NotNil(t, v)
	assert.Equal(t, 7500.0, *v)
}

func TestCumulsSection(t *testing.T) {
	assert.Equal(t, "no section", cumulsSection("no section"))
	assert.Equal(t, "CUMULS DEPUIS janvier\nx\n", cumulsSection("a\nCUMULS DEPUIS janvier\nx\nCongés disponibles\ny"))
	assert.Equal(t, "Cumuls depuis janvier\nx", cumulsSection("a\nCumuls depuis janvier\nx"))
}

func TestPeriodPattern(t *testing.T) {
	named := PeriodPattern{Pattern: regexp.MustCompile(`(?i)EN EUROS\s*-\s*(\p{L}+)\s+(\d{4})`), MonthGroup: 1, YearGroup: 2}
	numeric := PeriodPattern{Pattern: regexp.MustCompile(`##BULLETIN##(\d{2})-(\d{4})##`), MonthGroup: 1, YearGroup: 2, NumericMonth: true}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"french month", "SALAIRE EN EUROS - Février 2024", "2024-02"},
		{"lower case label", "salaire en euros - décembre 2023", "2023-12"},
		{"unknown month", "EN EUROS - Brumaire 2024", ""},
		{"numeric fallback", "##BULLETIN##06-2024##", "2024-06"},
		{"invalid numeric month", "##BULLETIN##13-2024##", ""},
		{"no period", "BULLETIN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstPeriod(tt.text, []PeriodPattern{named, numeric}))
		})
	}
}

func TestRule_UnknownFieldPanics(t *testing.T) {
	assert.Panics(t, func() { Rule("salary") })
	assert.NotPanics(t, func() { Rule("net_pay") })
}
