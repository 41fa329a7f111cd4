package db

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	path := filepath.Join(t.TempDir(), "nested", "payslips.db")

	sqlDB, err := OpenSQLite(ctx, path, logger)
	require.NoError(t, err)

	var count int
	err = sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payslips`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO payslips (period, format, parser_version) VALUES ('2024-01', 'payfit', 3)`)
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	t.Run("reopening keeps data and skips applied migrations", func(t *testing.T) {
		again, err := OpenSQLite(ctx, path, logger)
		require.NoError(t, err)
		defer again.Close()

		var period string
		require.NoError(t, again.QueryRowContext(ctx, `SELECT period FROM payslips`).Scan(&period))
		assert.Equal(t, "2024-01", period)
	})
}

func TestOpenSQLite_Memory(t *testing.T) {
	sqlDB, err := OpenSQLite(context.Background(), ":memory:", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.Exec(`INSERT INTO payslips (period, format, parser_version) VALUES ('2024-01', 'silae', 3)`)
	require.NoError(t, err)

	_, err = sqlDB.Exec(`INSERT INTO payslips (period, format, parser_version) VALUES ('2024-01', 'silae', 3)`)
	assert.Error(t, err, "period is unique")
}
