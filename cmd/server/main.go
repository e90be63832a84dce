package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "acemc/docs" // swagger docs

	"acemc/internal/cache"
	"acemc/internal/config"
	"acemc/internal/db"
	"acemc/internal/mail"
	"acemc/internal/repository"
	"acemc/internal/router"
	"acemc/internal/service"
	"acemc/internal/storage"
)

// Files younger than sweepGrace are never swept.
const sweepGrace = time.Hour

// @title ACEMC Billing & Admitting API
// @version 1.0
// @description Back-office API for ACEMC staff: user administration, patient admitting and statements of account.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	rootCmd := &cobra.Command{
		Use:   "acemc",
		Short: "ACEMC billing and admitting API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			if reset {
				fmt.Println("Dropping all tables...")
			}
			if err := db.Migrate(gormDB, reset); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migrations applied successfully.")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Drop every table before migrating")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale staged uploads and unreferenced statement files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			disk, err := storage.NewLocalDisk(cfg.StorageRoot)
			if err != nil {
				return err
			}

			sweeper := storage.NewSweeper(disk, service.SoaDir, repository.NewSoaRepository(gormDB), sweepGrace, 0, logger)
			res, err := sweeper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d stale staged and %d orphaned file(s).\n", res.StaleStaged, res.Orphaned)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func newSender(cfg *config.Config, logger zerolog.Logger) mail.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn().Msg("SMTP_HOST not set, outgoing mail is only logged")
		return mail.NewLogSender(logger)
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB, false); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	defer closeDB(gormDB)
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, sessions cannot be refreshed or revoked")
	}

	disk, err := storage.NewLocalDisk(cfg.StorageRoot)
	if err != nil {
		logger.Fatal().Err(err).Str("root", cfg.StorageRoot).Msg("failed to open storage")
	}

	queue := mail.NewQueue(repository.NewMailJobRepository(gormDB), newSender(cfg, logger), cfg.MailMaxAttempts, cfg.MailPollInterval, logger)
	sweeper := storage.NewSweeper(disk, service.SoaDir, repository.NewSoaRepository(gormDB), sweepGrace, cfg.StorageSweepInterval, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go queue.Run(ctx)
	go sweeper.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h, sec := router.Build(cfg, gormDB, cacheClient, disk, queue)
	router.Register(e, cfg, logger, disk, sec, h)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("starting server")
		if cfg.SwaggerHost != "" {
			logger.Info().Str("url", cfg.SwaggerHost+"/swagger/index.html").Msg("swagger documentation")
		}
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
