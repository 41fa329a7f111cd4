// Package parser turns payslip PDFs into payslip records: it obtains the
// document text, detects the issuing layout and runs the layout's field
// extractor.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// DefaultTimeout bounds a single text extraction.
const DefaultTimeout = 30 * time.Second

var (
	// ErrExtractionTimeout means the PDF text layer did not answer in time.
	ErrExtractionTimeout = errors.New("pdf text extraction timed out")
	// ErrTextExtractionFailed means the PDF text layer rejected the bytes.
	ErrTextExtractionFailed = errors.New("pdf text extraction failed")
)

// TextExtractor returns the concatenated text of a PDF document.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// TextExtractorFunc adapts a function to TextExtractor.
type TextExtractorFunc func(ctx context.Context, data []byte) (string, error)

// ExtractText calls f.
func (f TextExtractorFunc) ExtractText(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Parser parses payslip PDFs. It holds no per-document state and is safe for
// concurrent use.
type Parser struct {
	extractor TextExtractor
	timeout   time.Duration
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithTracer sets the tracer used for parse spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Parser) {
		p.tracer = tracer
	}
}

// New creates a parser over a PDF text extractor.
func New(extractor TextExtractor, opts ...Option) *Parser {
	p := &Parser{
		extractor: extractor,
		timeout:   DefaultTimeout,
		tracer:    otel.Tracer("github.com/FACorreiaa/payslip-overview/parser"),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a record from PDF bytes. It fails only when the text cannot
// be obtained: ErrExtractionTimeout, ErrTextExtractionFailed, or the context
// error if ctx ends first. Once text is available a record is always
// returned, possibly sparse.
func (p *Parser) Parse(ctx context.Context, data []byte, filename string) (*payslip.Record, error) {
	ctx, span := p.tracer.Start(ctx, "parser.Parse", trace.WithAttributes(
		attribute.String("payslip.filename", filename),
		attribute.Int("payslip.size", len(data)),
	))
	defer span.End()

	text, err := p.extractText(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	rec, detection := ParseText(text, filename)

	span.SetAttributes(
		attribute.String("payslip.layout", rec.Format.String()),
		attribute.String("payslip.period", rec.Period),
		attribute.Bool("payslip.layout_fallback", detection.Fallback),
	)

	p.logger.Debug("payslip parsed",
		slog.String("filename", filename),
		slog.String("layout", rec.Format.String()),
		slog.String("anchor", detection.Anchor),
		slog.String("period", rec.Period),
		slog.Int("missing_fields", len(rec.MissingFields())),
	)

	return rec, nil
}

type extraction struct {
	text string
	err  error
}

// extractText runs the extractor once, racing it against the timeout. On
// timeout the extraction is abandoned, not cancelled; its result is dropped
// into the buffered channel and discarded.
func (p *Parser) extractText(ctx context.Context, data []byte) (string, error) {
	done := make(chan extraction, 1)
	go func() {
		text, err := p.extractor.ExtractText(context.WithoutCancel(ctx), data)
		done <- extraction{text: text, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrTextExtractionFailed, res.err)
		}
		return res.text, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", ErrExtractionTimeout, p.timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
