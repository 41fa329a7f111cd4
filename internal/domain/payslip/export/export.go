// Package export writes payslip records as CSV or XLSX.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ParseFormat accepts "csv" and "xlsx"; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []*payslip.Record) error {
	switch format {
	case FormatCSV:
		return CSV(w, records)
	case FormatXLSX:
		return XLSX(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// csvRow is the flat CSV shape of a record; empty cells are absent values.
type csvRow struct {
	Period                string   `csv:"period"`
	Format                string   `csv:"format"`
	GrossSalary           *float64 `csv:"gross_salary"`
	BaseSalary            *float64 `csv:"base_salary"`
	Bonus                 *float64 `csv:"bonus"`
	HolidayBonus          *float64 `csv:"holiday_bonus"`
	LeaveAdjustment       *float64 `csv:"leave_adjustment"`
	NetBeforeTax          *float64 `csv:"net_before_tax"`
	IncomeTax             *float64 `csv:"income_tax"`
	IncomeTaxRate         *float64 `csv:"income_tax_rate"`
	NetPay                *float64 `csv:"net_pay"`
	NetSocial             *float64 `csv:"net_social"`
	EmployeeContributions *float64 `csv:"employee_contributions"`
	EmployerContributions *float64 `csv:"employer_contributions"`
	MealVouchers          *float64 `csv:"meal_vouchers"`
	OtherDeductions       *float64 `csv:"other_deductions"`
	ExpenseReimbursement  *float64 `csv:"expense_reimbursement"`
	CPN2                  *float64 `csv:"cp_n2"`
	CPN1                  *float64 `csv:"cp_n1"`
	CPN                   *float64 `csv:"cp_n"`
	RTT                   *float64 `csv:"rtt"`
	YTDNetTaxable         *float64 `csv:"ytd_net_taxable"`
	YTDGross              *float64 `csv:"ytd_gross"`
	YTDIncomeTax          *float64 `csv:"ytd_income_tax"`
	YTDDaysWorked         *float64 `csv:"ytd_days_worked"`
	Filename              string   `csv:"filename"`
	UploadedAt            string   `csv:"uploaded_at"`
	ParserVersion         int      `csv:"parser_version"`
}

func toCSVRow(r *payslip.Record) csvRow {
	return csvRow{
		Period:                r.Period,
		Format:                r.Format.String(),
		GrossSalary:           r.GrossSalary,
		BaseSalary:            r.BaseSalary,
		Bonus:                 r.Bonus,
		HolidayBonus:          r.HolidayBonus,
		LeaveAdjustment:       r.LeaveAdjustment,
		NetBeforeTax:          r.NetBeforeTax,
		IncomeTax:             r.IncomeTax,
		IncomeTaxRate:         r.IncomeTaxRate,
		NetPay:                r.NetPay,
		NetSocial:             r.NetSocial,
		EmployeeContributions: r.EmployeeContributions,
		EmployerContributions: r.EmployerContributions,
		MealVouchers:          r.MealVouchers,
		OtherDeductions:       r.OtherDeductions,
		ExpenseReimbursement:  r.ExpenseReimbursement,
		CPN2:                  r.CPN2,
		CPN1:                  r.CPN1,
		CPN:                   r.CPN,
		RTT:                   r.RTT,
		YTDNetTaxable:         r.YTDNetTaxable,
		YTDGross:              r.YTDGross,
		YTDIncomeTax:          r.YTDIncomeTax,
		YTDDaysWorked:         r.YTDDaysWorked,
		Filename:              r.Filename,
		UploadedAt:            formatTime(r.UploadedAt),
		ParserVersion:         r.ParserVersion,
	}
}

// CSV writes one header line and one line per record.
func CSV(w io.Writer, records []*payslip.Record) error {
	rows := make([]csvRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, toCSVRow(r))
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

const sheet = "Payslips"

// XLSX writes a single-sheet workbook. Absent values are left blank.
func XLSX(w io.Writer, records []*payslip.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := []string{"period", "format"}
	for _, field := range payslip.Fields {
		headers = append(headers, field.Name)
	}
	headers = append(headers, "filename", "uploaded_at", "parser_version")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range records {
		row := i + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			return f.SetCellValue(sheet, cell, v)
		}

		values := []any{r.Period, r.Format.String()}
		for _, field := range payslip.Fields {
			if v := field.Get(r); v != nil {
				values = append(values, *v)
			} else {
				values = append(values, nil)
			}
		}
		values = append(values, r.Filename, formatTime(r.UploadedAt), r.ParserVersion)

		for col, v := range values {
			if v == nil {
				continue
			}
			if err := write(col+1, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
