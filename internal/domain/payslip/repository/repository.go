// Package repository persists payslip records, one row per pay period.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("payslip not found")

// Repository stores payslip records keyed by period.
type Repository interface {
	// Upsert inserts rec or replaces the row holding the same period, and
	// sets rec.ID.
	Upsert(ctx context.Context, rec *payslip.Record) error
	// List returns every record ordered by period ascending.
	List(ctx context.Context) ([]*payslip.Record, error)
	GetByPeriod(ctx context.Context, period string) (*payslip.Record, error)
	Delete(ctx context.Context, id int64) error
	// DeleteAll removes every row and reports how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	// ListStale returns records written by a parser older than version.
	ListStale(ctx context.Context, version int) ([]*payslip.Record, error)
}

// columns lists the stored columns after id, in insert order.
var columns = func() []string {
	cols := []string{"period", "format"}
	for _, f := range payslip.Fields {
		cols = append(cols, f.Name)
	}
	return append(cols, "filename", "uploaded_at", "parser_version", "source_file_id", "source_hash")
}()

var selectColumns = "id, " + strings.Join(columns, ", ")

// upsertQuery renders the insert-or-replace statement. Both PostgreSQL and
// SQLite accept ON CONFLICT ... RETURNING; only placeholders differ.
func upsertQuery(placeholder func(n int) string) string {
	marks := make([]string, len(columns))
	sets := make([]string, 0, len(columns)-1)
	for i, c := range columns {
		marks[i] = placeholder(i + 1)
		if c != "period" {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO payslips (%s) VALUES (%s) ON CONFLICT (period) DO UPDATE SET %s RETURNING id",
		strings.Join(columns, ", "), strings.Join(marks, ", "), strings.Join(sets, ", "),
	)
}

// rowValues returns the column values of rec; uploadedAt is supplied by the
// caller since the drivers store time differently.
func rowValues(rec *payslip.Record, uploadedAt any) []any {
	vals := []any{rec.Period, string(rec.Format)}
	for _, f := range payslip.Fields {
		vals = append(vals, f.Get(rec))
	}
	return append(vals, rec.Filename, uploadedAt, rec.ParserVersion, rec.SourceFileID, rec.SourceHash)
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads a row selected with selectColumns. uploadedAt receives
// the driver's time representation.
func scanRecord(row scanner, uploadedAt any) (*payslip.Record, error) {
	rec := &payslip.Record{}
	var format string
	values := make([]*float64, len(payslip.Fields))

	dest := []any{&rec.ID, &rec.Period, &format}
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &rec.Filename, uploadedAt, &rec.ParserVersion, &rec.SourceFileID, &rec.SourceHash)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rec.Format = payslip.Layout(format)
	for i, f := range payslip.Fields {
		f.Set(rec, values[i])
	}
	return rec, nil
}
