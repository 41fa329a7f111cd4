package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/handler"
	"github.com/FACorreiaa/payslip-overview/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               0,
			AllowedOrigins:     []string{"http://localhost:3000"},
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
		},
		Database:  config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
		Storage:   config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Parser:    config.ParserConfig{Backend: "native", Timeout: 5 * time.Second},
		Ingest:    config.IngestConfig{MaxUploadBytes: 1 << 20, Concurrency: 2},
		Scheduler: config.SchedulerConfig{ReprocessSchedule: "0 3 * * *"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *Dependencies) {
	t.Helper()
	deps, err := InitDependencies(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)

	srv := httptest.NewServer(NewServer(deps).Handler)
	t.Cleanup(srv.Close)
	return srv, deps
}

func TestServer_Endpoints(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	client := handler.NewPayslipServiceClient(srv.Client(), srv.URL)
	ctx := context.Background()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := client.ListPayslips(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Payslips)

	up, err := client.UploadPayslips(ctx, &handler.UploadPayslipsRequest{Files: []handler.File{
		{Filename: "notes.txt", Data: []byte("hello")},
		{Filename: "fake.pdf", Data: []byte("hello")},
	}})
	require.NoError(t, err)
	require.Len(t, up.Results, 2)
	assert.Equal(t, "not a PDF file", up.Results[0].Error)
	assert.Equal(t, "invalid PDF file", up.Results[1].Error)

	st, err := client.GetStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Latest)

	sum, err := client.ReprocessPayslips(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Stale)

	err = client.DeletePayslip(ctx, 42)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "payslip_rpc_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+handler.ListPayslipsProcedure, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type,connect-protocol-version")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitPerSecond = 0
	cfg.Server.RateLimitBurst = 1
	srv, _ := newTestServer(t, cfg)
	client := handler.NewPayslipServiceClient(srv.Client(), srv.URL)

	_, err := client.ListPayslips(context.Background())
	require.NoError(t, err)

	_, err = client.ListPayslips(context.Background())
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}

func TestInitDependencies_BadBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Parser.Backend = "ocr"

	_, err := InitDependencies(context.Background(), cfg, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "unknown pdf backend")
}
