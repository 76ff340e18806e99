package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"swift-ai-market/internal/bootstrap"
	"swift-ai-market/internal/config"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/server"
	"swift-ai-market/internal/tracer"
	"swift-ai-market/pkg/database"
	pktNats "swift-ai-market/pkg/nats"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const module = "MAIN"

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, sysLogger)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.App.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		defer database.Close(gormDB)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Warm the vector index before taking traffic.
	if _, err := container.IndexService.Warm(ctx); err != nil {
		sysLogger.Error(module, "Vector index warmup failed, search starts empty", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// 5. Start Background Services
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.Hub.Run(gctx) })
	g.Go(func() error { return container.Reaper.Run(gctx) })
	g.Go(func() error { return container.ConsumerService.Consume(gctx) })
	if container.Subscriber != nil {
		g.Go(func() error {
			return container.Subscriber.Subscribe(gctx, pktNats.Subject("*"), durableName(), container.RealtimeService.HandleEvent)
		})
	}

	// 6. Run Server
	srv := server.New(cfg, container)
	g.Go(func() error {
		if err := srv.Run(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sysLogger.Error(module, "Server stopped with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	sysLogger.Info(module, "Server stopped", nil)
}

// durableName gives each instance its own consumer so every instance sees
// every lifecycle event.
func durableName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "dashboard-" + strings.NewReplacer(".", "-", "*", "-", ">", "-").Replace(host)
}
