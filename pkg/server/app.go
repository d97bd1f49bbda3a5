package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	domrepo "VolPosture/internal/domain/repository"
	"VolPosture/internal/rollingcache"
	pkgch "VolPosture/pkg/clickhouse"
	"VolPosture/pkg/config"
	xhttp "VolPosture/pkg/http"
	applogger "VolPosture/pkg/logger"
)

// App owns the application lifecycle: HTTP server, the rolling-cache
// cleanup schedule, and orderly teardown of storage and publishing.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	handler   xhttp.Handler
	repo      domrepo.RecordsRepository
	publisher domrepo.ResultPublisher
	chClient  *pkgch.Client
	rolling   *rollingcache.Cache

	httpServer *xhttp.Server
	cron       *cron.Cron
}

// New assembles the App from already-wired dependencies. publisher and
// chClient are nil when kafka / clickhouse are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	repo domrepo.RecordsRepository,
	publisher domrepo.ResultPublisher,
	chClient *pkgch.Client,
	rolling *rollingcache.Cache,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		repo:      repo,
		publisher: publisher,
		chClient:  chClient,
		rolling:   rolling,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.cron = cron.New()
	if spec := a.cfg.RollingCache.CleanupSchedule; spec != "" {
		maxAge := time.Duration(a.cfg.RollingCache.MaxAgeDays) * 24 * time.Hour
		if _, err := a.cron.AddFunc(spec, func() {
			removed, err := a.rolling.Cleanup(maxAge, time.Now())
			if err != nil {
				a.log.Warn("rolling cache cleanup failed", applogger.Error(err))
				return
			}
			if removed > 0 {
				a.log.Info("rolling cache cleanup", applogger.Int("removed_symbols", removed))
			}
		}); err != nil {
			return err
		}
	}
	a.cron.Start()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("storage", a.cfg.Storage.Type),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	cronCtx := a.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(5 * time.Second):
		a.log.Warn("cron jobs did not finish in time")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Flush aggregated logs while the producer is still open.
	a.log.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("repository close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
