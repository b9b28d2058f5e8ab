package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tensorcode/backend/internal/auth"
	"github.com/tensorcode/backend/internal/catalog"
	"github.com/tensorcode/backend/internal/compute"
	"github.com/tensorcode/backend/internal/config"
	"github.com/tensorcode/backend/internal/database"
	"github.com/tensorcode/backend/internal/logging"
	"github.com/tensorcode/backend/internal/monitoring"
	"github.com/tensorcode/backend/internal/roadmaps"
	"github.com/tensorcode/backend/internal/server"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tensorcode-api",
		Short: "Tensorcode compute ledger and curriculum API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations()
		},
	})

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("api-token", "", "Shared secret expected in the CF-Token header (overrides env)")
	flags.String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite, postgres, mysql)")
	flags.String("database-dsn", defaults.GetString("database.dsn"), "Database DSN or SQLite path")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("log-file", defaults.GetString("log.file"), "Optional rotated log file")
	flags.StringSlice("cors-allowed-origins", defaults.GetStringSlice("cors.allowed_origins"), "Allowed CORS origins")
	flags.Bool("strict-slugs", defaults.GetBool("content.strict_slugs"), "Reject duplicate sibling slugs")
	flags.Bool("cascade-deletes", defaults.GetBool("content.cascade_deletes"), "Delete descendants with their parent")
	flags.Int("roadmap-fanout-limit", defaults.GetInt("roadmap.fanout_limit"), "Concurrent sibling fetches when assembling a roadmap")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "auth.api_token", "api-token")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.file", "log-file")
	bindFlag(cmd, "cors.allowed_origins", "cors-allowed-origins")
	bindFlag(cmd, "content.strict_slugs", "strict-slugs")
	bindFlag(cmd, "content.cascade_deletes", "cascade-deletes")
	bindFlag(cmd, "roadmap.fanout_limit", "roadmap-fanout-limit")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// openStore loads configuration, builds the logger and opens a migrated database.
func openStore() (config.AppConfig, *zap.Logger, *gorm.DB, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFile)
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}

	db, err := database.Open(appConfig.DatabaseDriver, appConfig.DatabaseDSN, logger)
	if err != nil {
		return config.AppConfig{}, logger, nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		return config.AppConfig{}, logger, nil, err
	}
	return appConfig, logger, db, nil
}

func runMigrations() error {
	_, logger, db, err := openStore()
	if logger != nil {
		defer logger.Sync() //nolint:errcheck
	}
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func runServer(ctx context.Context) error {
	appConfig, logger, db, err := openStore()
	if logger != nil {
		defer logger.Sync() //nolint:errcheck
	}
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	validator, err := auth.NewTokenValidator(auth.TokenValidatorConfig{Secret: appConfig.APIToken})
	if err != nil {
		return err
	}

	computeService, err := compute.NewService(compute.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Database: db,
		Logger:   logger,
		Options: catalog.Options{
			StrictSlugs:    appConfig.StrictSlugs,
			CascadeDeletes: appConfig.CascadeDeletes,
		},
	})
	if err != nil {
		return err
	}

	roadmapService, err := roadmaps.NewService(roadmaps.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
		Options: roadmaps.Options{
			StrictSlugs:    appConfig.StrictSlugs,
			CascadeDeletes: appConfig.CascadeDeletes,
			FanoutLimit:    appConfig.RoadmapFanoutLimit,
		},
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Validator:      validator,
		Compute:        computeService,
		Catalog:        catalogService,
		Roadmaps:       roadmapService,
		Metrics:        monitoring.NewMetrics(),
		Logger:         logger,
		AllowedOrigins: appConfig.CORSAllowedOrigins,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("database_driver", appConfig.DatabaseDriver))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
