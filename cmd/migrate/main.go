package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/odyssey-erp/bcs-estimating/internal/app"
	"github.com/odyssey-erp/bcs-estimating/internal/platform/migrations"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [up|status]\n")
	}
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	sqlDB, err := migrations.Open(cfg.PGDSN)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	switch cmd {
	case "up":
		err = migrations.Up(ctx, sqlDB)
	case "status":
		err = migrations.Status(ctx, sqlDB)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migrate "+cmd, slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrate complete", slog.String("command", cmd))
}
