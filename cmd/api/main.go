package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bryanwahyu/chestlogic/internal/application"
	appanalysis "github.com/bryanwahyu/chestlogic/internal/application/analysis"
	appreview "github.com/bryanwahyu/chestlogic/internal/application/review"
	"github.com/bryanwahyu/chestlogic/internal/config"
	domai "github.com/bryanwahyu/chestlogic/internal/domain/ai"
	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
	"github.com/bryanwahyu/chestlogic/internal/infra/ai/gemini"
	aiopenai "github.com/bryanwahyu/chestlogic/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/chestlogic/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/chestlogic/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/chestlogic/internal/infra/db/sqlite"
	"github.com/bryanwahyu/chestlogic/internal/infra/db/supabase"
	"github.com/bryanwahyu/chestlogic/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/chestlogic/internal/infra/storage"
	"github.com/bryanwahyu/chestlogic/internal/middleware"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	path := "config.yaml"
	if v := os.Getenv(config.EnvConfigPath); v != "" {
		path = v
	}

	cmd := &cobra.Command{
		Use:           "chestlogic",
		Short:         "Radiology case analysis and review server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				var missing *config.MissingSecretError
				if errors.As(err, &missing) {
					fmt.Fprintln(os.Stderr, missing.Error())
				} else {
					fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
				}
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&path, "config", path, "path to the yaml config file")
	return cmd
}

// store is what the services and the readiness probe need from a backend.
type store interface {
	caselog.Repository
	middleware.Pinger
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return err
	}
	defer logger.Sync()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init error", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return err
	}
	defer closeStore()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		logger.Error("ai init error", zap.String("provider", cfg.AI.Provider), zap.Error(err))
		return err
	}

	review := &appreview.Service{
		Repo:     repo,
		Password: cfg.Admin.Password,
		Table:    cfg.Store.Table,
		Clock:    application.SystemClock{},
		Logger:   logger.Named("review"),
	}
	if cfg.ArchiveEnabled() {
		archive, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Error("minio init error", zap.Error(err))
			return err
		}
		review.Archive = archive
	}

	analysis := &appanalysis.Service{
		AI:     gen,
		Repo:   repo,
		Logger: logger.Named("analysis"),
	}

	handler, err := httpserver.NewRouter(analysis, review, httpserver.Options{
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Checkers: map[string]middleware.HealthChecker{
			"store": &middleware.StoreHealthChecker{Store: repo},
		},
	})
	if err != nil {
		logger.Error("router init error", zap.Error(err))
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("ai", cfg.AI.Provider),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("archive", cfg.ArchiveEnabled()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	case <-stop:
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openStore picks the case log backend. For the SQL drivers the store URL is the DSN.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := pgp.Connect(ctx, cfg.Store.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return pgp.NewCaseLogRepository(db, cfg.Store.Table), func() { db.Close() }, nil
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.Store.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return mysqlp.NewCaseLogRepository(db, cfg.Store.Table, application.SystemClock{}), func() { db.Close() }, nil
	case config.DriverSQLite:
		db, err := sqlitep.Connect(ctx, cfg.Store.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite connect: %w", err)
		}
		repo := sqlitep.NewCaseLogRepository(db, cfg.Store.Table, application.SystemClock{})
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return repo, func() { db.Close() }, nil
	default:
		repo := supabase.NewCaseLogRepository(cfg.Store.URL, cfg.Store.Key, cfg.Store.Table, nil, logger.Named("supabase"))
		return repo, func() {}, nil
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (domai.Generator, error) {
	if cfg.AI.Provider == config.ProviderOpenAI {
		return aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model), nil
	}
	return gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, gemini.Options{})
}
