// Package sniffer identifies which payroll platform issued a payslip by
// looking for header phrases unique to each layout.
package sniffer

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// Anchor is a phrase that only appears in documents of one layout.
type Anchor struct {
	Phrase string
	Layout payslip.Layout
}

// DefaultAnchors lists known header phrases. Silae anchors are checked
// before Payfit ones whatever their position in the text.
var DefaultAnchors = []Anchor{
	{"BULLETIN DE SALAIRE", payslip.LayoutSilae},
	{"##BULLETIN##", payslip.LayoutSilae},
	{"BULLETIN DE PAIE", payslip.LayoutPayfit},
	{"CODE DE VÉRIFICATION", payslip.LayoutPayfit},
	// Accented capitals are often decoded as Latin-1 by the PDF text layer.
	{"CODE DE VÃ‰RIFICATION", payslip.LayoutPayfit},
}

// Priority is the order layouts are tried in.
var Priority = []payslip.Layout{payslip.LayoutSilae, payslip.LayoutPayfit}

// Fallback is assumed when no anchor is found. Older Payfit exports can lose
// their anchors to encoding damage, so they are the safer guess.
const Fallback = payslip.LayoutPayfit

// Detection is the outcome of sniffing one document.
type Detection struct {
	Layout   payslip.Layout
	Anchor   string // phrase that decided, empty on fallback
	Fallback bool
}

// Detector matches all anchors in a single pass over the text.
type Detector struct {
	anchors []Anchor
	matcher *ahocorasick.Matcher
}

// NewDetector builds a detector over the given anchors.
func NewDetector(anchors []Anchor) *Detector {
	patterns := make([][]byte, len(anchors))
	for i, a := range anchors {
		patterns[i] = []byte(a.Phrase)
	}
	return &Detector{
		anchors: anchors,
		matcher: ahocorasick.NewMatcher(patterns),
	}
}

var defaultDetector = NewDetector(DefaultAnchors)

// Detect classifies text with the default anchors.
func Detect(text string) Detection {
	return defaultDetector.Detect(text)
}

// DetectLayout is Detect without the diagnostics.
func DetectLayout(text string) payslip.Layout {
	return defaultDetector.Detect(text).Layout
}

// Detect classifies text. A layout higher in Priority wins even if a lower
// one's anchor also occurs.
func (d *Detector) Detect(text string) Detection {
	hits := d.matcher.Match([]byte(text))

	for _, layout := range Priority {
		// Keep anchor declaration order within a layout.
		best := -1
		for _, idx := range hits {
			if d.anchors[idx].Layout != layout {
				continue
			}
			if best == -1 || idx < best {
				best = idx
			}
		}
		if best >= 0 {
			return Detection{Layout: layout, Anchor: d.anchors[best].Phrase}
		}
	}

	return Detection{Layout: Fallback, Fallback: true}
}
