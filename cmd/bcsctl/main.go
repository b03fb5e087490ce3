package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/bcs-estimating/cmd/bcsctl/cli"
	"github.com/odyssey-erp/bcs-estimating/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	code := cli.Run(ctx, jobsCLI, os.Args[1:], os.Stdout, os.Stderr)
	if err := jobsCLI.Close(); err != nil {
		slog.Default().Warn("close jobs cli", slog.Any("error", err))
	}
	os.Exit(code)
}
