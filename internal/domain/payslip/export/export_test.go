package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

func records() []*payslip.Record {
	return []*payslip.Record{
		{
			Period:        "2024-02",
			Format:        payslip.LayoutPayfit,
			GrossSalary:   payslip.Float(3200),
			NetPay:        payslip.Float(2184.4),
			IncomeTaxRate: payslip.Float(0.1),
			CPN:           payslip.Float(-0.12),
			Filename:      "fevrier.pdf",
			UploadedAt:    time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			ParserVersion: 3,
		},
		{
			Period:        "2024-03",
			Format:        payslip.LayoutSilae,
			NetPay:        payslip.Float(6238.95),
			Filename:      "mars.pdf",
			ParserVersion: 2,
		},
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, records()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	header := strings.Split(lines[0], ",")
	assert.Equal(t, "period", header[0])
	assert.Equal(t, "gross_salary", header[2])
	assert.Equal(t, "parser_version", header[len(header)-1])
	assert.Len(t, header, 2+len(payslip.Fields)+3)

	first := strings.Split(lines[1], ",")
	assert.Equal(t, "2024-02", first[0])
	assert.Equal(t, "payfit", first[1])
	assert.Equal(t, "3200", first[2])
	assert.Equal(t, "", first[3], "absent base salary is blank")
	assert.Equal(t, "2024-03-01T08:00:00Z", first[len(first)-2])

	second := strings.Split(lines[2], ",")
	assert.Equal(t, "silae", second[1])
	assert.Equal(t, "", second[len(second)-2])
}

func TestCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "period,format,"))
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, records()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())

	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "period", get("A1"))
	assert.Equal(t, "gross_salary", get("C1"))
	assert.Equal(t, "2024-02", get("A2"))
	assert.Equal(t, "3200", get("C2"))
	assert.Equal(t, "", get("D2"))
	assert.Equal(t, "silae", get("B3"))
	assert.Equal(t, "6238.95", get("K3"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "csv": FormatCSV, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", nil))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}
