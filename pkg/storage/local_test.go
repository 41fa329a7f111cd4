package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection lost") }

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	content := []byte("%PDF-1.7 payslip")

	info, err := s.Upload(ctx, "../mars/2024-03.pdf", "application/pdf", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, Hash(content), info.Hash)
	assert.Equal(t, "../mars/2024-03.pdf", info.Name)
	assert.NotContains(t, info.Path, "/")
	assert.True(t, strings.HasSuffix(info.Path, "2024-03.pdf"))

	t.Run("read back", func(t *testing.T) {
		data, got, err := s.ReadAll(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, content, data)
		assert.Equal(t, info.Hash, got.Hash)
	})

	t.Run("list", func(t *testing.T) {
		second, err := s.Upload(ctx, "2024-04.pdf", "application/pdf", strings.NewReader("%PDF other"))
		require.NoError(t, err)

		files, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, info.ID, files[0].ID)
		assert.Equal(t, second.ID, files[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, info.ID))

		_, _, err := s.ReadAll(ctx, info.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, info.ID), ErrNotFound)

		_, err = os.Stat(filepath.Join(dir, info.Path))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.GetInfo(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("failed write leaves nothing behind", func(t *testing.T) {
		before, err := s.List(ctx)
		require.NoError(t, err)

		_, err = s.Upload(ctx, "broken.pdf", "application/pdf", failingReader{})
		require.Error(t, err)

		after, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))

		matches, _ := filepath.Glob(filepath.Join(dir, "*broken.pdf"))
		assert.Empty(t, matches)
	})
}

func TestNew(t *testing.T) {
	s, err := New(&Config{Type: StorageTypeNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(&Config{LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(&Config{Type: "s3", LocalPath: t.TempDir()})
	assert.Error(t, err)

	_, err = New(&Config{Type: StorageTypeLocal})
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash(nil), 64)
	assert.Equal(t, Hash([]byte("a")), Hash([]byte("a")))
	assert.NotEqual(t, Hash([]byte("a")), Hash([]byte("b")))
	// BLAKE2b-256 of the empty input
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", Hash(nil))
}
