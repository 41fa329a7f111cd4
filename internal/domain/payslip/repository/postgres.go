package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var pgUpsert = upsertQuery(func(n int) string { return fmt.Sprintf("$%d", n) })

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new PostgreSQL payslip repository.
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or supersedes the record for rec.Period.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *payslip.Record) error {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, pgUpsert, rowValues(rec, rec.UploadedAt)...).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert payslip %s: %w", rec.Period, err)
	}
	return nil
}

// List returns all payslips ordered by period.
func (r *PostgresRepository) List(ctx context.Context) ([]*payslip.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM payslips ORDER BY period ASC`)
}

// ListStale returns payslips parsed by an older parser.
func (r *PostgresRepository) ListStale(ctx context.Context, version int) ([]*payslip.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM payslips WHERE parser_version < $1 ORDER BY period ASC`, version)
}

// GetByPeriod retrieves the payslip for a YYYY-MM period.
func (r *PostgresRepository) GetByPeriod(ctx context.Context, period string) (*payslip.Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM payslips WHERE period = $1`, period)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payslip: %w", err)
	}
	return rec, nil
}

// Delete removes a payslip by id.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payslips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every payslip.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM payslips`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payslips: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]*payslip.Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var out []*payslip.Record
	for rows.Next() {
		rec, err := scanPostgres(rows)
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

func scanPostgres(row scanner) (*payslip.Record, error) {
	var uploadedAt time.Time
	rec, err := scanRecord(row, &uploadedAt)
	if err != nil {
		return nil, err
	}
	rec.UploadedAt = uploadedAt
	return rec, nil
}
