package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/app/botapp"
	"github.com/ivankudzin/tgapp/feedbot/internal/config"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/logger"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create bot app", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		select {
		case err := <-errCh:
			if err != nil {
				log.Error("bot stopped with error", zap.Error(err))
			}
		case <-time.After(10 * time.Second):
			log.Error("bot shutdown timed out")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatal("bot failed", zap.Error(err))
		}
	}
}
