package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/handler"
	"github.com/FACorreiaa/payslip-overview/pkg/interceptors"
)

// maxFilesPerRequest sizes the request body limit of UploadPayslips, whose
// files travel base64-encoded.
const maxFilesPerRequest = 24

// NewServer builds the HTTP server exposing the Connect API, /healthz and
// /metrics.
func NewServer(d *Dependencies) *http.Server {
	readMax := d.Config.Ingest.MaxUploadBytes*maxFilesPerRequest*4/3 + 1<<20

	path, payslipHandler := handler.NewPayslipServiceHandler(d.PayslipHandler,
		connect.WithInterceptors(
			interceptors.NewLoggingInterceptor(d.Logger),
			interceptors.NewMetricsInterceptor(d.Metrics),
		),
		connect.WithReadMaxBytes(int(readMax)),
	)

	limiter := rate.NewLimiter(rate.Limit(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst)

	mux := http.NewServeMux()
	mux.Handle(path, withRateLimit(limiter, payslipHandler))
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	mux.HandleFunc("GET /healthz", healthz(d))

	return &http.Server{
		Addr:              d.Config.Server.Addr(),
		Handler:           withCORS(d.Config.Server.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads wait for PDF extraction, which is bounded by the parse timeout.
		WriteTimeout: d.Config.Parser.Timeout*2 + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(d.Logger.Handler(), slog.LevelWarn),
	}
}

func withCORS(origins []string, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: append(connectcors.AllowedHeaders(), interceptors.RequestIDHeader),
		ExposedHeaders: append(connectcors.ExposedHeaders(), interceptors.RequestIDHeader),
		MaxAge:         7200,
	}).Handler(h)
}

// withRateLimit rejects calls beyond the process-wide token bucket with
// resource_exhausted.
func withRateLimit(limiter *rate.Limiter, h http.Handler) http.Handler {
	errWriter := connect.NewErrorWriter()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			_ = errWriter.Write(w, r, connect.NewError(connect.CodeResourceExhausted, errors.New("rate limit exceeded")))
			return
		}
		h.ServeHTTP(w, r)
	})
}

func healthz(d *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Health(ctx); err != nil {
			d.Logger.Warn("health check failed", slog.Any("error", err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
