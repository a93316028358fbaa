// Package app provides a dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/tokenfield/internal/config"
	"github.com/allisson/tokenfield/internal/coordinator"
	"github.com/allisson/tokenfield/internal/database"
	"github.com/allisson/tokenfield/internal/encryption"
	"github.com/allisson/tokenfield/internal/metrics"
	"github.com/allisson/tokenfield/internal/stubserver"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Encryption service access
	encryptionClient encryption.Client
	localClient      *encryption.LocalClient

	// Tokenization
	coordinator coordinator.Coordinator

	// Stub encryption service
	store         *stubserver.Store
	stubServer    *stubserver.Server
	metricsServer *stubserver.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	clientInit          sync.Once
	coordinatorInit     sync.Once
	storeInit           sync.Once
	stubServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
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
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
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
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus-backed metrics provider.
// It returns nil when metrics are disabled in configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// It falls back to a no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// EncryptionClient returns the encryption service client.
// A non-empty KeeperURI selects the keeper-backed local client; otherwise the
// HTTP client pointed at EncryptionServiceURL is used.
func (c *Container) EncryptionClient() (encryption.Client, error) {
	c.clientInit.Do(func() {
		if c.config.KeeperURI != "" {
			localClient, err := encryption.NewLocalClient(context.Background(), c.config.KeeperURI)
			if err != nil {
				c.initErrors["encryptionClient"] = fmt.Errorf("failed to create local encryption client: %w", err)
				return
			}
			c.localClient = localClient
			c.encryptionClient = localClient
			return
		}

		c.encryptionClient = encryption.NewHTTPClient(encryption.HTTPClientConfig{
			BaseURL:        c.config.EncryptionServiceURL,
			APIKey:         c.config.EncryptionServiceAPIKey,
			Timeout:        c.config.EncryptionServiceTimeout,
			RequestsPerSec: c.config.EncryptionServiceRequestsPerSec,
			Burst:          c.config.EncryptionServiceBurst,
		}, c.Logger())
	})
	if storedErr, exists := c.initErrors["encryptionClient"]; exists {
		return nil, storedErr
	}
	return c.encryptionClient, nil
}

// Coordinator returns the tokenization coordinator, instrumented with
// business metrics.
func (c *Container) Coordinator() (coordinator.Coordinator, error) {
	c.coordinatorInit.Do(func() {
		client, err := c.EncryptionClient()
		if err != nil {
			c.initErrors["coordinator"] = fmt.Errorf("failed to get encryption client for coordinator: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["coordinator"] = fmt.Errorf("failed to get business metrics for coordinator: %w", err)
			return
		}

		c.coordinator = coordinator.NewWithMetrics(coordinator.New(client, c.Logger()), businessMetrics)
	})
	if storedErr, exists := c.initErrors["coordinator"]; exists {
		return nil, storedErr
	}
	return c.coordinator, nil
}

// Store returns the in-memory token store backing the stub encryption server.
func (c *Container) Store() *stubserver.Store {
	c.storeInit.Do(func() {
		c.store = stubserver.NewStore()
	})
	return c.store
}

// StubServer returns the stub encryption service HTTP server.
func (c *Container) StubServer() (*stubserver.Server, error) {
	c.stubServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["stubServer"] = fmt.Errorf("failed to get metrics provider for stub server: %w", err)
			return
		}
		c.stubServer = stubserver.NewServer(c.config, c.Logger(), c.Store(), provider)
	})
	if storedErr, exists := c.initErrors["stubServer"]; exists {
		return nil, storedErr
	}
	return c.stubServer, nil
}

// MetricsServer returns the Prometheus metrics HTTP server.
// It returns nil when metrics are disabled in configuration.
func (c *Container) MetricsServer() (*stubserver.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = stubserver.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.stubServer != nil {
		if err := c.stubServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("stub server shutdown: %w", err))
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

	if c.localClient != nil {
		if err := c.localClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("local encryption client close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
