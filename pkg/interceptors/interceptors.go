// Package interceptors provides Connect interceptors shared by every service.
package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/FACorreiaa/payslip-overview/pkg/metrics"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// GetRequestIDFromContext returns the request id set by NewLoggingInterceptor.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// NewLoggingInterceptor tags each call with a request id, taken from the
// incoming header when present, and logs its outcome.
func NewLoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id := req.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			ctx = context.WithValue(ctx, requestIDKey{}, id)

			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				slog.String("request_id", id),
				slog.String("procedure", req.Spec().Procedure),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				var cerr *connect.Error
				if errors.As(err, &cerr) {
					cerr.Meta().Set(RequestIDHeader, id)
				}
				attrs = append(attrs, slog.String("code", connect.CodeOf(err).String()), slog.Any("error", err))
				logger.Warn("rpc failed", attrs...)
				return nil, err
			}

			resp.Header().Set(RequestIDHeader, id)
			logger.Info("rpc completed", attrs...)
			return resp, nil
		}
	}
}

// NewMetricsInterceptor records call counts and latency per procedure.
func NewMetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.ObserveRPC(req.Spec().Procedure, code, time.Since(start))
			return resp, err
		}
	}
}
