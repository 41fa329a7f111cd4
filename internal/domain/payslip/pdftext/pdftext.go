// Package pdftext provides the PDF text layers used by the payslip parser.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/dslipak/pdf"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/parser"
)

// Backend names accepted by New.
const (
	BackendNative = "native"
	BackendEino   = "eino"
)

// New returns the text extractor for a backend name. An empty name selects
// the native backend.
func New(ctx context.Context, backend string) (parser.TextExtractor, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendNative:
		return Native{}, nil
	case BackendEino:
		return NewEino(ctx)
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", backend)
	}
}

// Native reads the PDF content streams directly.
type Native struct{}

// ExtractText returns the plain text of every page, in page order.
func (Native) ExtractText(_ context.Context, data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Eino extracts text through the eino document parser.
type Eino struct {
	parser einoparser.Parser
}

// NewEino builds an Eino extractor producing one document per file.
func NewEino(ctx context.Context) (*Eino, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}
	return &Eino{parser: p}, nil
}

// ExtractText returns the concatenated content of the parsed documents.
func (e *Eino) ExtractText(ctx context.Context, data []byte) (string, error) {
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), einoparser.WithURI("payslip.pdf"))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}
