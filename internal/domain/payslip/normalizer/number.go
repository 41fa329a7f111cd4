// Package normalizer turns locale-formatted fragments of payslip text into
// typed values: amounts, month numbers and a cleaned text blob.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// numberPrefix accepts the longest leading signed decimal, like a lenient
// float parser would. Anything after it is ignored.
var numberPrefix = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)

// ParseNumber converts a token such as "1 234,56", "1 234.56" or "- 17.20"
// into a float. All whitespace (including no-break spaces) is dropped and the
// first comma becomes the decimal mark. It returns nil when the token holds
// no number; it never substitutes zero.
func ParseNumber(token string) *float64 {
	if token == "" {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	prefix := numberPrefix.FindString(cleaned)
	if prefix == "" {
		return nil
	}

	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return nil
	}

	v := d.InexactFloat64()
	return &v
}

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
