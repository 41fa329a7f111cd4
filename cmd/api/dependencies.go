package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/handler"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/pdftext"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/repository"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/service"
	"github.com/FACorreiaa/payslip-overview/pkg/config"
	"github.com/FACorreiaa/payslip-overview/pkg/cron"
	"github.com/FACorreiaa/payslip-overview/pkg/db"
	"github.com/FACorreiaa/payslip-overview/pkg/metrics"
	"github.com/FACorreiaa/payslip-overview/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Exactly one of DB and SQLite is set, following Config.Database.Driver.
	DB     *db.DB
	SQLite *sql.DB

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repositories
	PayslipRepo repository.Repository

	// Services
	FileStorage    storage.Storage
	Parser         *parser.Parser
	PayslipService *service.PayslipService
	Scheduler      *cron.Scheduler

	// Handlers
	PayslipHandler *handler.PayslipHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	// Initialize database
	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Initialize services
	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = metrics.New(d.Registry)
}

// initDatabase opens the configured database and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if d.Config.Database.Driver == config.DriverSQLite {
		sqlDB, err := db.OpenSQLite(ctx, d.Config.Database.SQLitePath, d.Logger)
		if err != nil {
			return err
		}
		d.SQLite = sqlDB
		d.Logger.Info("sqlite database ready", slog.String("path", d.Config.Database.SQLitePath))
		return nil
	}

	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
		DialTimeout:     10 * time.Second,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	if d.DB != nil {
		d.PayslipRepo = repository.NewPostgresRepository(d.DB.Pool)
	} else {
		d.PayslipRepo = repository.NewSQLiteRepository(d.SQLite)
	}

	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageType(d.Config.Storage.Type),
		LocalPath: d.Config.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	extractor, err := pdftext.New(ctx, d.Config.Parser.Backend)
	if err != nil {
		return fmt.Errorf("failed to init pdf backend: %w", err)
	}
	d.Parser = parser.New(extractor,
		parser.WithTimeout(d.Config.Parser.Timeout),
		parser.WithLogger(d.Logger),
	)

	d.PayslipService = service.NewPayslipService(
		d.PayslipRepo,
		d.Parser,
		d.FileStorage,
		d.Metrics,
		d.Logger,
		service.Config{
			MaxUploadBytes: d.Config.Ingest.MaxUploadBytes,
			Concurrency:    d.Config.Ingest.Concurrency,
		},
	)

	// Scheduled reprocessing of rows written by older parser versions
	d.Scheduler = cron.NewScheduler(d.PayslipService, d.Config.Scheduler.ReprocessSchedule, d.Logger)

	d.Logger.Info("services initialized",
		slog.String("pdf_backend", d.Config.Parser.Backend),
		slog.Bool("keeps_originals", d.FileStorage != nil),
	)
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.PayslipHandler = handler.NewPayslipHandler(d.PayslipService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Health reports whether the database answers.
func (d *Dependencies) Health(ctx context.Context) error {
	if d.DB != nil {
		return d.DB.Health(ctx)
	}
	if d.SQLite != nil {
		return d.SQLite.PingContext(ctx)
	}
	return fmt.Errorf("no database configured")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.SQLite != nil {
		if err := d.SQLite.Close(); err != nil {
			d.Logger.Warn("failed to close sqlite", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
