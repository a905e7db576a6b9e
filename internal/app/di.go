// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric/noop"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/allisson/kbsync/internal/alert"
	"github.com/allisson/kbsync/internal/config"
	"github.com/allisson/kbsync/internal/database"
	"github.com/allisson/kbsync/internal/http"
	knowledgeRepository "github.com/allisson/kbsync/internal/knowledge/repository"
	knowledgeService "github.com/allisson/kbsync/internal/knowledge/service"
	knowledgeUseCase "github.com/allisson/kbsync/internal/knowledge/usecase"
	"github.com/allisson/kbsync/internal/metrics"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
	outboxHTTP "github.com/allisson/kbsync/internal/outbox/http"
	outboxRepository "github.com/allisson/kbsync/internal/outbox/repository"
	outboxUseCase "github.com/allisson/kbsync/internal/outbox/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	config *config.Config

	logger          *slog.Logger
	db              *sql.DB
	bucket          *blob.Bucket
	txManager       database.TxManager
	alerter         alert.Alerter
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	outboxRepo   *outboxRepository.PostgreSQLOutboxEventRepository
	documentRepo *knowledgeRepository.PostgreSQLDocumentRepository
	kbRepo       *knowledgeRepository.PostgreSQLKnowledgeBaseRepository

	vectorStore knowledgeService.VectorStore
	objectStore knowledgeService.ObjectStore
	ingestor    knowledgeService.Ingestor

	eventHandlers knowledgeUseCase.EventHandlerUseCase
	reconciler    knowledgeUseCase.ReconcilerUseCase
	dispatcher    outboxUseCase.DispatcherUseCase
	sweeper       outboxUseCase.SweeperUseCase
	statsUseCase  outboxUseCase.StatsUseCase

	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                sync.Mutex
	loggerInit        sync.Once
	dbInit            sync.Once
	bucketInit        sync.Once
	txManagerInit     sync.Once
	alerterInit       sync.Once
	metricsInit       sync.Once
	reposInit         sync.Once
	storesInit        sync.Once
	eventHandlersInit sync.Once
	reconcilerInit    sync.Once
	dispatcherInit    sync.Once
	sweeperInit       sync.Once
	statsUseCaseInit  sync.Once
	httpServerInit    sync.Once
	metricsServerInit sync.Once
	initErrors        map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		var logLevel slog.Level
		switch c.config.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}

		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
		c.logger = slog.New(handler)
	})
	return c.logger
}

// DB returns the database connection, creating it on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	return c.db, c.initErrors["db"]
}

// Bucket returns the object-storage bucket, opened from the configured URL
// (file://, s3://, gs:// or mem:// for tests).
func (c *Container) Bucket(ctx context.Context) (*blob.Bucket, error) {
	c.bucketInit.Do(func() {
		bucket, err := blob.OpenBucket(ctx, c.config.ObjectStoreURL)
		if err != nil {
			c.initErrors["bucket"] = fmt.Errorf("failed to open object store bucket: %w", err)
			return
		}
		c.bucket = bucket
	})
	return c.bucket, c.initErrors["bucket"]
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	return c.txManager, c.initErrors["txManager"]
}

// Alerter returns the admin alerting sink.
func (c *Container) Alerter() alert.Alerter {
	c.alerterInit.Do(func() {
		c.alerter = alert.NewSlogAlerter(c.Logger())
	})
	return c.alerter
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. With metrics
// disabled it returns a recorder backed by a no-op meter provider.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

func (c *Container) initMetrics() error {
	c.metricsInit.Do(func() {
		if c.config.MetricsEnabled {
			provider, err := metrics.NewProvider(c.config.MetricsNamespace)
			if err != nil {
				c.initErrors["metrics"] = fmt.Errorf("failed to create metrics provider: %w", err)
				return
			}
			c.metricsProvider = provider
			business, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
			if err != nil {
				c.initErrors["metrics"] = fmt.Errorf("failed to create business metrics: %w", err)
				return
			}
			c.businessMetrics = business
			return
		}

		business, err := metrics.NewBusinessMetrics(noop.NewMeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = err
			return
		}
		c.businessMetrics = business
	})
	return c.initErrors["metrics"]
}

// initRepositories creates the PostgreSQL repositories.
func (c *Container) initRepositories() error {
	c.reposInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["repos"] = err
			return
		}
		c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		c.documentRepo = knowledgeRepository.NewPostgreSQLDocumentRepository(db)
		c.kbRepo = knowledgeRepository.NewPostgreSQLKnowledgeBaseRepository(db)
	})
	return c.initErrors["repos"]
}

// initStores creates the vector store, object store and ingestor.
func (c *Container) initStores(ctx context.Context) error {
	c.storesInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["stores"] = err
			return
		}
		bucket, err := c.Bucket(ctx)
		if err != nil {
			c.initErrors["stores"] = err
			return
		}
		c.vectorStore = knowledgeService.NewPgvectorStore(db)
		c.objectStore = knowledgeService.NewBlobObjectStore(bucket)
		c.ingestor = knowledgeService.NewBlobIngestor(bucket, c.vectorStore)
	})
	return c.initErrors["stores"]
}

// EventHandlers returns the outbox event handler set.
func (c *Container) EventHandlers(ctx context.Context) (knowledgeUseCase.EventHandlerUseCase, error) {
	c.eventHandlersInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.initErrors["eventHandlers"] = err
			return
		}
		if err := c.initStores(ctx); err != nil {
			c.initErrors["eventHandlers"] = err
			return
		}
		c.eventHandlers = knowledgeUseCase.NewEventHandlerUseCase(
			c.documentRepo, c.kbRepo, c.outboxRepo,
			c.vectorStore, c.objectStore, c.ingestor, c.Logger(),
		)
	})
	return c.eventHandlers, c.initErrors["eventHandlers"]
}

// Dispatcher returns the outbox dispatcher with all handlers registered.
func (c *Container) Dispatcher(ctx context.Context) (outboxUseCase.DispatcherUseCase, error) {
	c.dispatcherInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}
		handlers, err := c.EventHandlers(ctx)
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}

		registry := map[string]outboxUseCase.Handler{
			outboxDomain.EventTypeDocumentProcess:   handlers.HandleDocumentProcess,
			outboxDomain.EventTypeDocumentDelete:    handlers.HandleDocumentDelete,
			outboxDomain.EventTypeDocumentReprocess: handlers.HandleDocumentReprocess,
			outboxDomain.EventTypeKBDelete:          handlers.HandleKBDelete,
		}

		dispatcher := outboxUseCase.NewDispatcherUseCase(
			txManager, c.outboxRepo, registry, c.Alerter(), c.Logger(),
			c.config.DispatchInterval, c.config.DispatchBatchSize,
			c.config.DispatchMaxAttempts, c.config.DispatchHandlerTimeout,
		)
		c.dispatcher = outboxUseCase.NewDispatcherWithMetrics(dispatcher, businessMetrics)
	})
	return c.dispatcher, c.initErrors["dispatcher"]
}

// Reconciler returns the drift scanner.
func (c *Container) Reconciler(ctx context.Context) (knowledgeUseCase.ReconcilerUseCase, error) {
	c.reconcilerInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.initErrors["reconciler"] = err
			return
		}
		if err := c.initStores(ctx); err != nil {
			c.initErrors["reconciler"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["reconciler"] = err
			return
		}

		reconciler := knowledgeUseCase.NewReconcilerUseCase(
			c.documentRepo, c.kbRepo, c.outboxRepo,
			c.vectorStore, c.objectStore, c.Alerter(), c.Logger(),
			c.config.ReconcileStaleThreshold, c.config.ReconcileAlertThreshold,
			c.config.ReconcilePageSize,
		)
		c.reconciler = knowledgeUseCase.NewReconcilerWithMetrics(reconciler, businessMetrics)
	})
	return c.reconciler, c.initErrors["reconciler"]
}

// Sweeper returns the outbox retention sweeper.
func (c *Container) Sweeper() (outboxUseCase.SweeperUseCase, error) {
	c.sweeperInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.initErrors["sweeper"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		sweeper := outboxUseCase.NewSweeperUseCase(
			c.outboxRepo, c.Logger(),
			c.config.SweepInterval, c.config.DispatchMaxAttempts,
			c.config.SweepProcessedRetention, c.config.SweepDeadLetterRetention,
		)
		c.sweeper = outboxUseCase.NewSweeperWithMetrics(sweeper, businessMetrics)
	})
	return c.sweeper, c.initErrors["sweeper"]
}

// StatsUseCase returns the read-only outbox stats reader.
func (c *Container) StatsUseCase() (outboxUseCase.StatsUseCase, error) {
	c.statsUseCaseInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.initErrors["statsUseCase"] = err
			return
		}
		c.statsUseCase = outboxUseCase.NewStatsUseCase(c.outboxRepo, c.config.DispatchMaxAttempts)
	})
	return c.statsUseCase, c.initErrors["statsUseCase"]
}

// HTTPServer returns the admin HTTP server.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		statsUseCase, err := c.StatsUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		outboxHandler := outboxHTTP.NewOutboxHandler(statsUseCase, c.Logger())
		c.httpServer = http.NewServer(c.config, db, outboxHandler, c.Logger())
	})
	return c.httpServer, c.initErrors["httpServer"]
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider,
		)
	})
	return c.metricsServer, c.initErrors["metricsServer"]
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.bucket != nil {
		if err := c.bucket.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("bucket close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}
