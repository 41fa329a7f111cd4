package interceptors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-overview/pkg/metrics"
)

type ping struct{}

func TestLoggingInterceptor(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	var seen string
	next := connect.UnaryFunc(func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		seen, _ = GetRequestIDFromContext(ctx)
		return connect.NewResponse(&ping{}), nil
	})
	call := NewLoggingInterceptor(logger)(next)

	t.Run("generates an id", func(t *testing.T) {
		resp, err := call(context.Background(), connect.NewRequest(&ping{}))
		require.NoError(t, err)

		_, err = uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, resp.Header().Get(RequestIDHeader))
		assert.Contains(t, logs.String(), `"request_id":"`+seen+`"`)
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := connect.NewRequest(&ping{})
		req.Header().Set(RequestIDHeader, id)

		resp, err := call(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
		assert.Equal(t, id, resp.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a garbage id", func(t *testing.T) {
		req := connect.NewRequest(&ping{})
		req.Header().Set(RequestIDHeader, "<script>")

		_, err := call(context.Background(), req)
		require.NoError(t, err)
		assert.NotEqual(t, "<script>", seen)
	})

	t.Run("tags errors", func(t *testing.T) {
		failing := NewLoggingInterceptor(logger)(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("gone"))
		})
		_, err := failing(context.Background(), connect.NewRequest(&ping{}))

		var cerr *connect.Error
		require.ErrorAs(t, err, &cerr)
		assert.NotEmpty(t, cerr.Meta().Get(RequestIDHeader))
		assert.Contains(t, logs.String(), `"code":"not_found"`)
	})
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := NewMetricsInterceptor(m)(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	})
	bad := NewMetricsInterceptor(m)(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("no"))
	})

	_, _ = ok(context.Background(), connect.NewRequest(&ping{}))
	_, _ = ok(context.Background(), connect.NewRequest(&ping{}))
	_, _ = bad(context.Background(), connect.NewRequest(&ping{}))

	n, err := testutil.GatherAndCount(reg, "payslip_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per code")
}

func TestMetricsInterceptor_NilMetrics(t *testing.T) {
	call := NewMetricsInterceptor(nil)(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	})
	assert.NotPanics(t, func() { _, _ = call(context.Background(), connect.NewRequest(&ping{})) })
}
