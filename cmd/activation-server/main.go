// Command activation-server runs the card activation HTTP service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alovak/card-activation/activation"
	"golang.org/x/exp/slog"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := activation.LoadConfig(envOr("CONFIG_PATH", "configs/default.yaml"))
	if err != nil {
		logger.Error("loading config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := activation.NewApp(logger, cfg)
	if err := app.Start(ctx); err != nil {
		logger.Error("starting app", slog.Any("err", err))
		os.Exit(1)
	}

	<-ctx.Done()

	app.Shutdown()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
