package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

var sqliteUpsert = upsertQuery(func(int) string { return "?" })

// SQLiteRepository implements Repository on a local SQLite file opened with
// db.OpenSQLite. Timestamps are stored as RFC 3339 text.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite payslip repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *payslip.Record) error {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}
	uploadedAt := rec.UploadedAt.UTC().Format(time.RFC3339Nano)
	err := r.db.QueryRowContext(ctx, sqliteUpsert, rowValues(rec, uploadedAt)...).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert payslip %s: %w", rec.Period, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*payslip.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM payslips ORDER BY period ASC`)
}

func (r *SQLiteRepository) ListStale(ctx context.Context, version int) ([]*payslip.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM payslips WHERE parser_version < ? ORDER BY period ASC`, version)
}

func (r *SQLiteRepository) GetByPeriod(ctx context.Context, period string) (*payslip.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM payslips WHERE period = ?`, period)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payslip: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payslips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payslip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete payslip: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payslips`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payslips: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*payslip.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var out []*payslip.Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	return out, nil
}

func scanSQLite(row scanner) (*payslip.Record, error) {
	var uploadedAt string
	rec, err := scanRecord(row, &uploadedAt)
	if err != nil {
		return nil, err
	}
	if uploadedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, uploadedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid uploaded_at %q: %w", uploadedAt, err)
		}
		rec.UploadedAt = t
	}
	return rec, nil
}
