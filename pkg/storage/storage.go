// Package storage keeps the original payslip documents so they can be
// parsed again when the extraction logic changes.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned when no file has the requested ID.
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Hash        string    `json:"hash"` // BLAKE2b-256, hex
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// ReadAll returns the content of a file
	ReadAll(ctx context.Context, fileID uuid.UUID) ([]byte, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, fileID uuid.UUID) error

	// List returns all stored files
	List(ctx context.Context) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without reading it
	GetInfo(ctx context.Context, fileID uuid.UUID) (*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	// StorageTypeNone disables keeping originals.
	StorageTypeNone StorageType = "none"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a Storage implementation based on configuration. It returns
// nil, nil when storage is disabled.
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeNone:
		return nil, nil
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// Hash returns the hex BLAKE2b-256 digest of data.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashingReader hashes everything read through it.
type hashingReader struct {
	r io.Reader
	h hash.Hash
}

func newHashingReader(r io.Reader) *hashingReader {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	return &hashingReader{r: r, h: h}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.h.Write(p[:n])
	}
	return n, err
}

func (hr *hashingReader) Sum() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}
