package parser

import (
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/normalizer"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/sniffer"
)

// Extractor turns cleaned payslip text into a record for one layout.
// Extraction never fails: fields that cannot be found stay nil.
type Extractor interface {
	Layout() payslip.Layout
	Extract(text, filename string) *payslip.Record
}

type layoutExtractor struct {
	layout  payslip.Layout
	periods []PeriodPattern
	rules   []FieldRule
	window  *TokenWindow
	// finish derives composite and defaulted fields once captures are done.
	finish func(rec *payslip.Record)
}

func (e *layoutExtractor) Layout() payslip.Layout {
	return e.layout
}

func (e *layoutExtractor) Extract(text, filename string) *payslip.Record {
	rec := &payslip.Record{
		Format:        e.layout,
		Filename:      filename,
		ParserVersion: payslip.ParserVersion,
		Period:        FirstPeriod(text, e.periods),
	}

	for _, rule := range e.rules {
		if v := FirstOf(text, rule.Strategies); v != nil {
			rule.Field.Set(rec, v)
		}
	}

	if e.window != nil {
		e.window.Apply(text, rec)
	}

	if e.finish != nil {
		e.finish(rec)
	}

	return rec
}

var extractors = map[payslip.Layout]Extractor{
	payslip.LayoutPayfit: Payfit,
	payslip.LayoutSilae:  Silae,
}

// ExtractorFor returns the extractor registered for layout.
func ExtractorFor(layout payslip.Layout) (Extractor, bool) {
	e, ok := extractors[layout]
	return e, ok
}

// ParseText detects the layout of already extracted text and runs the
// matching extractor. It is pure: the same input yields the same record.
func ParseText(text, filename string) (*payslip.Record, sniffer.Detection) {
	detection := sniffer.Detect(text)

	extractor, ok := ExtractorFor(detection.Layout)
	if !ok {
		extractor = extractors[sniffer.Fallback]
	}

	return extractor.Extract(normalizer.CleanText(text), filename), detection
}
