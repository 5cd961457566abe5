// Command setup-admin creates the default admin account if the store has
// none yet, then exits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alovak/card-activation/activation"
	"github.com/alovak/card-activation/internal/database"
	"golang.org/x/exp/slog"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", "setup-admin"))

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "configs/default.yaml"
	}
	cfg, err := activation.LoadConfig(path)
	if err != nil {
		logger.Error("loading config", slog.Any("err", err))
		os.Exit(1)
	}
	cfg.Backend = "pg"
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("setting up admin", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *activation.Config) error {
	opts := database.DefaultOptions()
	opts.DSN = cfg.DatabaseURL
	opts.ConnectTimeout = cfg.StoreConnectTimeout
	opts.RetryInterval = cfg.StoreRetryInterval
	opts.HeartbeatInterval = 0

	db, err := database.Connect(ctx, logger, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

	svc := activation.NewService(activation.NewPGRepository(db.DB), cfg, logger)
	created, err := svc.SeedAdmin(ctx)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("admin already exists; nothing to do")
	}
	return nil
}
