package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, NewPostgresRepository(mock)
}

func sampleRecord(period string) *payslip.Record {
	return &payslip.Record{
		Period:        period,
		Format:        payslip.LayoutPayfit,
		GrossSalary:   payslip.Float(3200),
		BaseSalary:    payslip.Float(3000),
		NetPay:        payslip.Float(2184.40),
		CPN:           payslip.Float(-0.12),
		Filename:      period + ".pdf",
		UploadedAt:    time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC),
		ParserVersion: payslip.ParserVersion,
		SourceFileID:  "file-1",
		SourceHash:    "abc",
	}
}

func recordRow(rec *payslip.Record) []any {
	row := []any{rec.ID, rec.Period, string(rec.Format)}
	for _, f := range payslip.Fields {
		row = append(row, f.Get(rec))
	}
	return append(row, rec.Filename, rec.UploadedAt, rec.ParserVersion, rec.SourceFileID, rec.SourceHash)
}

func recordRows(recs ...*payslip.Record) *pgxmock.Rows {
	rows := pgxmock.NewRows(append([]string{"id"}, columns...))
	for _, rec := range recs {
		rows.AddRow(recordRow(rec)...)
	}
	return rows
}

func TestUpsertQuery(t *testing.T) {
	assert.Contains(t, pgUpsert, "ON CONFLICT (period) DO UPDATE SET format = excluded.format")
	assert.Contains(t, pgUpsert, "$31")
	assert.NotContains(t, pgUpsert, "period = excluded.period")
	assert.Contains(t, sqliteUpsert, "VALUES (?, ?")
	assert.NotContains(t, sqliteUpsert, "$1")
	assert.Len(t, columns, 2+len(payslip.Fields)+5)
}

func TestPostgresRepository_Upsert(t *testing.T) {
	mock, repo := newMock(t)
	rec := sampleRecord("2024-03")

	mock.ExpectQuery(`INSERT INTO payslips`).
		WithArgs(rowValues(rec, rec.UploadedAt)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.Equal(t, int64(42), rec.ID)
}

func TestPostgresRepository_UpsertStampsUploadTime(t *testing.T) {
	mock, repo := newMock(t)
	rec := sampleRecord("2024-03")
	rec.UploadedAt = time.Time{}

	args := make([]any, len(columns))
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectQuery(`INSERT INTO payslips`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.False(t, rec.UploadedAt.IsZero())
}

func TestPostgresRepository_UpsertError(t *testing.T) {
	mock, repo := newMock(t)
	rec := sampleRecord("2024-03")

	mock.ExpectQuery(`INSERT INTO payslips`).
		WithArgs(rowValues(rec, rec.UploadedAt)...).
		WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-03")
}

func TestPostgresRepository_List(t *testing.T) {
	mock, repo := newMock(t)

	jan, feb := sampleRecord("2024-01"), sampleRecord("2024-02")
	jan.ID, feb.ID = 1, 2
	feb.Format = payslip.LayoutSilae
	feb.NetPay = nil

	mock.ExpectQuery(`SELECT id, period, format, .* FROM payslips ORDER BY period ASC`).
		WillReturnRows(recordRows(jan, feb))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, jan, got[0])
	assert.Equal(t, payslip.LayoutSilae, got[1].Format)
	assert.Nil(t, got[1].NetPay)
	assert.Equal(t, -0.12, *got[1].CPN)
}

func TestPostgresRepository_ListStale(t *testing.T) {
	mock, repo := newMock(t)
	old := sampleRecord("2023-12")
	old.ParserVersion = 2

	mock.ExpectQuery(`FROM payslips WHERE parser_version < \$1`).
		WithArgs(payslip.ParserVersion).
		WillReturnRows(recordRows(old))

	got, err := repo.ListStale(context.Background(), payslip.ParserVersion)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ParserVersion)
}

func TestPostgresRepository_GetByPeriod(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, repo := newMock(t)
		rec := sampleRecord("2024-03")
		rec.ID = 9

		mock.ExpectQuery(`FROM payslips WHERE period = \$1`).
			WithArgs("2024-03").
			WillReturnRows(recordRows(rec))

		got, err := repo.GetByPeriod(context.Background(), "2024-03")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := newMock(t)

		mock.ExpectQuery(`FROM payslips WHERE period = \$1`).
			WithArgs("1999-01").
			WillReturnRows(recordRows())

		_, err := repo.GetByPeriod(context.Background(), "1999-01")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectExec(`DELETE FROM payslips WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), 3))
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectExec(`DELETE FROM payslips WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrNotFound)
	})
}

func TestPostgresRepository_DeleteAll(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec(`DELETE FROM payslips`).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	n, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
