// Package service ingests payslip documents and serves the stored records.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/payslip-overview/internal/domain/insights"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/export"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/repository"
	"github.com/FACorreiaa/payslip-overview/pkg/metrics"
	"github.com/FACorreiaa/payslip-overview/pkg/storage"
)

const (
	// DefaultMaxUploadBytes is the largest accepted document.
	DefaultMaxUploadBytes = 10 << 20
	// DefaultConcurrency bounds simultaneous PDF extractions.
	DefaultConcurrency = 2
)

// Validation errors, reported per file.
var (
	ErrNoFiles       = errors.New("no files provided")
	ErrNotPDF        = errors.New("not a PDF file")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidPDF    = errors.New("invalid PDF file")
	ErrUnknownPeriod = errors.New("could not detect period")
)

// IsValidation reports whether err rejects the caller's input rather than
// signalling a failure on our side.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrNotPDF) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrInvalidPDF) ||
		errors.Is(err, ErrUnknownPeriod)
}

// Parser turns PDF bytes into a record.
type Parser interface {
	Parse(ctx context.Context, data []byte, filename string) (*payslip.Record, error)
}

// Config tunes ingestion.
type Config struct {
	MaxUploadBytes int64
	Concurrency    int
}

// Upload is one submitted document.
type Upload struct {
	Filename string
	Data     []byte
}

// UploadResult reports the outcome for one submitted document.
type UploadResult struct {
	Filename string          `json:"filename"`
	Period   string          `json:"period"`
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Record   *payslip.Record `json:"record,omitempty"`

	Err error `json:"-"`
}

// Stats is the dashboard view: every payslip plus the latest month compared
// with the one before.
type Stats struct {
	Payslips []*payslip.Record  `json:"payslips"`
	Latest   *payslip.Record    `json:"latest"`
	Previous *payslip.Record    `json:"previous"`
	Variance *insights.Variance `json:"variance,omitempty"`

	// Note explains a missing variance.
	Note string `json:"note,omitempty"`
}

// ReprocessSummary counts the outcome of a reprocessing run.
type ReprocessSummary struct {
	Stale       int `json:"stale"`
	Reprocessed int `json:"reprocessed"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// PayslipService coordinates parsing, storage of originals and persistence.
type PayslipService struct {
	repo    repository.Repository
	parser  Parser
	files   storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time

	periods periodLocks
}

// periodLocks serialises writes to the same period so that a replaced
// row's original is always seen, and removed, by the writer replacing it.
type periodLocks struct {
	mu    sync.Mutex
	locks map[string]*periodLock
}

type periodLock struct {
	sync.Mutex
	refs int
}

func (l *periodLocks) lock(period string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*periodLock)
	}
	pl, ok := l.locks[period]
	if !ok {
		pl = &periodLock{}
		l.locks[period] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.Lock()
	return func() {
		pl.Unlock()
		l.mu.Lock()
		if pl.refs--; pl.refs == 0 {
			delete(l.locks, period)
		}
		l.mu.Unlock()
	}
}

// NewPayslipService creates a new payslip service. files and m may be nil.
func NewPayslipService(repo repository.Repository, p Parser, files storage.Storage, m *metrics.Metrics, logger *slog.Logger, cfg Config) *PayslipService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &PayslipService{
		repo:    repo,
		parser:  p,
		files:   files,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Ingest validates, parses and stores each upload. Results are returned in
// input order; one failing file never affects the others.
func (s *PayslipService) Ingest(ctx context.Context, uploads []Upload) ([]UploadResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]UploadResult, len(uploads))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for i, up := range uploads {
		g.Go(func() error {
			rec, err := s.ingestOne(ctx, up)
			res := UploadResult{Filename: up.Filename, Success: err == nil, Record: rec, Err: err}
			if err != nil {
				res.Error = err.Error()
				s.logger.Warn("payslip rejected",
					slog.String("filename", up.Filename),
					slog.Any("error", err),
				)
			} else {
				res.Period = rec.Period
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// Validate checks an upload before any parsing: extension, size, then the
// PDF magic bytes.
func (s *PayslipService) Validate(up Upload) error {
	if !strings.EqualFold(filepath.Ext(up.Filename), ".pdf") {
		return ErrNotPDF
	}
	if int64(len(up.Data)) > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w (max %d MB)", ErrFileTooLarge, s.cfg.MaxUploadBytes>>20)
	}
	if !bytes.HasPrefix(up.Data, []byte("%PDF")) {
		return ErrInvalidPDF
	}
	return nil
}

func (s *PayslipService) ingestOne(ctx context.Context, up Upload) (*payslip.Record, error) {
	if err := s.Validate(up); err != nil {
		return nil, err
	}

	rec, err := s.parse(ctx, up.Data, up.Filename)
	if err != nil {
		return nil, err
	}

	unlock := s.periods.lock(rec.Period)
	defer unlock()

	previous, err := s.repo.GetByPeriod(ctx, rec.Period)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if s.files != nil {
		info, err := s.files.Upload(ctx, up.Filename, "application/pdf", bytes.NewReader(up.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to store original: %w", err)
		}
		rec.SourceFileID = info.ID.String()
		rec.SourceHash = info.Hash
	} else {
		rec.SourceHash = storage.Hash(up.Data)
	}
	rec.UploadedAt = s.now().UTC()

	if err := s.repo.Upsert(ctx, rec); err != nil {
		if rec.SourceFileID != "" {
			s.removeOriginal(ctx, rec.SourceFileID)
		}
		return nil, err
	}

	if previous != nil && previous.SourceFileID != "" && previous.SourceFileID != rec.SourceFileID {
		s.removeOriginal(ctx, previous.SourceFileID)
	}

	s.logger.Info("payslip stored",
		slog.String("filename", up.Filename),
		slog.String("period", rec.Period),
		slog.String("format", rec.Format.String()),
		slog.Bool("replaced", previous != nil),
	)
	return rec, nil
}

// parse runs the parser and rejects records without a period.
func (s *PayslipService) parse(ctx context.Context, data []byte, filename string) (*payslip.Record, error) {
	start := time.Now()
	rec, err := s.parser.Parse(ctx, data, filename)
	if err != nil {
		result := "failed"
		if errors.Is(err, parser.ErrExtractionTimeout) {
			result = "timeout"
		}
		s.metrics.ObserveParse("", result, time.Since(start), nil)
		return nil, err
	}

	if rec.Period == "" {
		s.metrics.ObserveParse(rec.Format.String(), "no_period", time.Since(start), rec.MissingFields())
		return nil, ErrUnknownPeriod
	}

	s.metrics.ObserveParse(rec.Format.String(), "ok", time.Since(start), rec.MissingFields())
	return rec, nil
}

// List returns all payslips ordered by period.
func (s *PayslipService) List(ctx context.Context) ([]*payslip.Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*payslip.Record{}
	}
	return recs, nil
}

// Stats returns every payslip with the latest and previous months and the
// explanation of their net pay difference.
func (s *PayslipService) Stats(ctx context.Context) (*Stats, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Payslips: recs}
	if n := len(recs); n > 0 {
		st.Latest = recs[n-1]
		if n > 1 {
			st.Previous = recs[n-2]
		}
	}

	switch {
	case st.Latest == nil:
	case st.Previous == nil:
		st.Note = "No previous month for comparison"
	default:
		v, err := insights.Compute(st.Latest, st.Previous)
		if errors.Is(err, insights.ErrMissingNetPay) {
			st.Note = "Net pay missing, no comparison"
			break
		}
		if err != nil {
			return nil, err
		}
		st.Variance = v
		if v.Unchanged() {
			st.Note = "No change in net pay compared to the previous month"
		}
	}
	return st, nil
}

// Delete removes one payslip and its stored original.
func (s *PayslipService) Delete(ctx context.Context, id int64) error {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, r := range recs {
		if r.ID == id && r.SourceFileID != "" {
			s.removeOriginal(ctx, r.SourceFileID)
		}
	}
	return nil
}

// DeleteAll removes every payslip and every stored original.
func (s *PayslipService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	if s.files != nil {
		files, err := s.files.List(ctx)
		if err != nil {
			return n, fmt.Errorf("failed to list stored files: %w", err)
		}
		for _, f := range files {
			s.removeOriginal(ctx, f.ID.String())
		}
	}

	s.logger.Info("all payslips deleted", slog.Int64("count", n))
	return n, nil
}

// Export writes every payslip in the requested format.
func (s *PayslipService) Export(ctx context.Context, format export.Format, w io.Writer) error {
	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	return export.Write(w, format, recs)
}

// Reprocess re-parses stored payslips written by an older parser from their
// original documents. Rows without a stored original are skipped.
func (s *PayslipService) Reprocess(ctx context.Context) (*ReprocessSummary, error) {
	stale, err := s.repo.ListStale(ctx, payslip.ParserVersion)
	if err != nil {
		return nil, err
	}

	sum := &ReprocessSummary{Stale: len(stale)}
	for _, old := range stale {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		outcome, err := s.reprocessOne(ctx, old)
		switch outcome {
		case "ok":
			sum.Reprocessed++
		case "skipped":
			sum.Skipped++
		default:
			sum.Failed++
			s.logger.Error("failed to reprocess payslip",
				slog.String("period", old.Period),
				slog.Any("error", err),
			)
		}
		s.metrics.ObserveReprocess(outcome)
	}

	s.logger.Info("reprocessing finished",
		slog.Int("stale", sum.Stale),
		slog.Int("reprocessed", sum.Reprocessed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (s *PayslipService) reprocessOne(ctx context.Context, old *payslip.Record) (string, error) {
	if s.files == nil || old.SourceFileID == "" {
		return "skipped", nil
	}
	fileID, err := uuid.Parse(old.SourceFileID)
	if err != nil {
		return "skipped", nil
	}

	data, _, err := s.files.ReadAll(ctx, fileID)
	if errors.Is(err, storage.ErrNotFound) {
		return "skipped", nil
	}
	if err != nil {
		return "failed", err
	}

	rec, err := s.parse(ctx, data, old.Filename)
	if err != nil {
		return "failed", err
	}

	rec.SourceFileID = old.SourceFileID
	rec.SourceHash = storage.Hash(data)
	rec.UploadedAt = old.UploadedAt

	unlock := s.periods.lock(rec.Period)
	defer unlock()

	var displaced *payslip.Record
	if rec.Period != old.Period {
		displaced, err = s.repo.GetByPeriod(ctx, rec.Period)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return "failed", err
		}
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return "failed", err
	}
	if rec.Period == old.Period {
		return "ok", nil
	}

	// The corrected parser dated the document differently; drop the old row.
	if err := s.repo.Delete(ctx, old.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "failed", err
	}
	if displaced != nil {
		s.logger.Info("payslip superseded by reprocessed document",
			slog.String("period", rec.Period),
			slog.String("previous_period", old.Period),
			slog.String("replaced_filename", displaced.Filename),
		)
		if displaced.SourceFileID != "" && displaced.SourceFileID != rec.SourceFileID {
			s.removeOriginal(ctx, displaced.SourceFileID)
		}
	}
	return "ok", nil
}

func (s *PayslipService) removeOriginal(ctx context.Context, fileID string) {
	if s.files == nil {
		return
	}
	id, err := uuid.Parse(fileID)
	if err != nil {
		return
	}
	if err := s.files.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to delete stored original",
			slog.String("file_id", fileID),
			slog.Any("error", err),
		)
	}
}
