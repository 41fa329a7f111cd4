package parser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

func staticText(text string, calls *atomic.Int32) TextExtractorFunc {
	return func(_ context.Context, _ []byte) (string, error) {
		calls.Add(1)
		return text, nil
	}
}

func TestParser_Parse(t *testing.T) {
	t.Run("returns the extracted record", func(t *testing.T) {
		var calls atomic.Int32
		p := New(staticText(silaeFixture, &calls))

		rec, err := p.Parse(context.Background(), []byte("%PDF-1.7"), "juin.pdf")

		require.NoError(t, err)
		assert.Equal(t, payslip.LayoutSilae, rec.Format)
		assert.Equal(t, "2024-06", rec.Period)
		assert.Equal(t, "juin.pdf", rec.Filename)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("empty text still yields a sparse record", func(t *testing.T) {
		var calls atomic.Int32
		p := New(staticText("", &calls))

		rec, err := p.Parse(context.Background(), nil, "blank.pdf")

		require.NoError(t, err)
		assert.Equal(t, payslip.LayoutPayfit, rec.Format)
		assert.Len(t, rec.MissingFields(), len(payslip.Fields))
	})

	t.Run("extractor failure", func(t *testing.T) {
		p := New(TextExtractorFunc(func(context.Context, []byte) (string, error) {
			return "", errors.New("xref table not found")
		}))

		rec, err := p.Parse(context.Background(), []byte("garbage"), "broken.pdf")

		require.Error(t, err)
		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrTextExtractionFailed)
		assert.Contains(t, err.Error(), "broken.pdf")
		assert.Contains(t, err.Error(), "xref table not found")
	})

	t.Run("extraction timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		var calls atomic.Int32
		p := New(TextExtractorFunc(func(context.Context, []byte) (string, error) {
			calls.Add(1)
			<-release
			return silaeFixture, nil
		}), WithTimeout(20*time.Millisecond))

		start := time.Now()
		rec, err := p.Parse(context.Background(), []byte("%PDF"), "slow.pdf")

		require.Error(t, err)
		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrExtractionTimeout)
		assert.Contains(t, err.Error(), "slow.pdf")
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("context cancellation", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		p := New(TextExtractorFunc(func(context.Context, []byte) (string, error) {
			<-release
			return "", nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Parse(ctx, nil, "cancelled.pdf")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("extractor does not observe parse cancellation", func(t *testing.T) {
		seen := make(chan error, 1)
		p := New(TextExtractorFunc(func(ctx context.Context, _ []byte) (string, error) {
			seen <- ctx.Err()
			return "", nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, err := p.Parse(ctx, nil, "x.pdf")
		require.NoError(t, err)
		assert.NoError(t, <-seen)
	})

	t.Run("non-positive timeout keeps the default", func(t *testing.T) {
		p := New(nil, WithTimeout(0), WithTimeout(-time.Second))
		assert.Equal(t, DefaultTimeout, p.timeout)
	})
}

func TestParser_ConcurrentUse(t *testing.T) {
	var calls atomic.Int32
	p := New(staticText(payfitFixture, &calls))

	const n = 8
	errs := make(chan error, n)
	for range n {
		go func() {
			rec, err := p.Parse(context.Background(), nil, "2024-03.pdf")
			if err == nil && rec.Period != "2024-03" {
				err = errors.New("unexpected period " + rec.Period)
			}
			errs <- err
		}()
	}
	for range n {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(n), calls.Load())
}
