package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chatloop/app/api"
	"chatloop/app/config"
	"chatloop/app/mcpserver"
	"chatloop/app/service/delay"
	"chatloop/app/service/history"
	"chatloop/app/service/metrics"
	"chatloop/app/service/session"
	"chatloop/app/service/settings"
	"chatloop/app/util/clock"
	"chatloop/app/util/ident"
	"chatloop/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	do.ProvideValue[clock.Clock](di, clock.Real{})
	do.ProvideValue[ident.Generator](di, ident.UUID{})
	do.Provide(di, settings.New)
	do.Provide(di, history.New)
	do.Provide(di, delay.New)
	do.Provide(di, session.New)
	do.Provide(di, api.New)
	do.Provide(di, mcpserver.New)

	// fail fast on a bad catalog or initial model
	do.MustInvoke[*session.Service](di)

	slog.Info("Service started", mylog.TelegramKey, true)

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	if !cfg.HTTP.Disabled {
		apiServer := do.MustInvoke[*api.Server](di)
		group.Go(func() error {
			return apiServer.Run(groupCtx)
		})
	}

	if cfg.MCP.Enabled {
		mcpServer := do.MustInvoke[*mcpserver.Server](di)
		group.Go(func() error {
			return mcpServer.Run(groupCtx)
		})
	}

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Service stopped with error", "error", err)
	}

	log.Info("Shutting down...")
}
