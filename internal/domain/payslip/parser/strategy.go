package parser

import (
	"regexp"
	"strconv"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/normalizer"
)

// Strategy recovers one value from payslip text, or nil when its phrasing
// is not present.
type Strategy interface {
	Extract(text string) *float64
}

// Capture reads a numeric capture group after a labelled pattern.
type Capture struct {
	Pattern *regexp.Regexp
	Group   int
	// Reject names a group whose presence disqualifies a match. It stands in
	// for negative lookahead, which RE2 lacks. Zero disables it.
	Reject    int
	Transform func(float64) float64
}

// Extract returns the first qualifying match.
func (c Capture) Extract(text string) *float64 {
	if c.Reject == 0 {
		return c.parse(c.Pattern.FindStringSubmatch(text))
	}
	for _, m := range c.Pattern.FindAllStringSubmatch(text, -1) {
		if m[c.Reject] != "" {
			continue
		}
		return c.parse(m)
	}
	return nil
}

func (c Capture) parse(m []string) *float64 {
	if m == nil || c.Group >= len(m) {
		return nil
	}
	v := normalizer.ParseNumber(m[c.Group])
	if v == nil || c.Transform == nil {
		return v
	}
	out := c.Transform(*v)
	return &out
}

// Within narrows the text to a section before delegating.
type Within struct {
	Section func(text string) string
	Strategy
}

// Extract applies the inner strategy to the section.
func (w Within) Extract(text string) *float64 {
	return w.Strategy.Extract(w.Section(text))
}

// FirstOf tries strategies in order; the first value found wins. Later
// entries are fallbacks for older document revisions, never cross-checks.
func FirstOf(text string, strategies []Strategy) *float64 {
	for _, s := range strategies {
		if v := s.Extract(text); v != nil {
			return v
		}
	}
	return nil
}

// FieldRule binds an ordered strategy list to a record field.
type FieldRule struct {
	Field      payslip.Field
	Strategies []Strategy
}

// Rule builds a FieldRule, panicking on an unknown field name so a typo
// fails at package init.
func Rule(field string, strategies ...Strategy) FieldRule {
	f, ok := payslip.FieldByName(field)
	if !ok {
		panic("parser: unknown field " + field)
	}
	return FieldRule{Field: f, Strategies: strategies}
}

// Percent converts a percentage into a fraction.
func Percent(v float64) float64 {
	return v / 100
}

// PeriodPattern recognises a pay period. Month is either a name or a number
// depending on NumericMonth.
type PeriodPattern struct {
	Pattern      *regexp.Regexp
	MonthGroup   int
	YearGroup    int
	NumericMonth bool
}

// Extract returns YYYY-MM or "".
func (p PeriodPattern) Extract(text string) string {
	m := p.Pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	year, err := strconv.Atoi(m[p.YearGroup])
	if err != nil {
		return ""
	}

	var month int
	if p.NumericMonth {
		if month, err = strconv.Atoi(m[p.MonthGroup]); err != nil {
			return ""
		}
	} else {
		var ok bool
		if month, ok = normalizer.MonthNumber(m[p.MonthGroup]); !ok {
			return ""
		}
	}

	return normalizer.Period(year, month)
}

// FirstPeriod tries period patterns in order.
func FirstPeriod(text string, patterns []PeriodPattern) string {
	for _, p := range patterns {
		if period := p.Extract(text); period != "" {
			return period
		}
	}
	return ""
}
