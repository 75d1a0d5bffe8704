package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/api"
	"github.com/lsy88/sentinel-dash/internal/client"
	"github.com/lsy88/sentinel-dash/internal/config"
	"github.com/lsy88/sentinel-dash/internal/gateway"
	"github.com/lsy88/sentinel-dash/internal/logger"
	"github.com/lsy88/sentinel-dash/internal/metrics"
	"github.com/lsy88/sentinel-dash/internal/notify"
	"github.com/lsy88/sentinel-dash/internal/store"
	"github.com/lsy88/sentinel-dash/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("load config", zap.Error(err))
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	kv, err := store.Open(cfg.Token)
	if err != nil {
		log.Warn("token backend unavailable, credential will not survive restarts",
			zap.String("backend", cfg.Token.Backend), zap.Error(err))
		kv = store.NewMemoryKV()
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn("close token backend", zap.Error(err))
		}
	}()

	tokens := store.NewTokenStore(kv, log)
	if _, ok := tokens.Get(); !ok && cfg.Token.Initial != "" {
		tokens.Set(cfg.Token.Initial)
	}

	remote := client.New(cfg.APIBaseURL, cfg.RequestTimeout, log)
	checkServer(log, remote)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	router := notify.NewRouter(log, tokens)
	if cfg.Notify.WebhookURL != "" {
		router.AddSink(notify.NewWebhookSink(cfg.Notify, log))
	}
	router.OnSessionEnd(metrics.IncSessionExpired)

	engine := syncer.NewEngine(syncer.EngineDeps{
		Logger:      log,
		API:         remote,
		Tokens:      tokens,
		ChecksLimit: cfg.ChecksLimit,
	})
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := syncer.NewPoller(log)
	refresh := func(ctx context.Context) { _ = engine.Refresh(ctx) }
	if err := poller.Start(ctx, refresh, cfg.PollInterval); err != nil {
		log.Fatal("start poller", zap.Error(err))
	}
	defer poller.Stop()

	// The webhook list depends on the credential, so a login or a logout
	// restarts the cycle right away.
	tokens.Subscribe(func(authenticated bool) {
		log.Info("session changed", zap.Bool("authenticated", authenticated))
		go func() {
			if err := poller.Restart(); err != nil {
				log.Warn("restart poller", zap.Error(err))
			}
		}()
	})

	gw := gateway.New(gateway.Deps{
		Logger:  log,
		API:     remote,
		Tokens:  tokens,
		Sync:    engine,
		Notify:  router,
		Confirm: gateway.ContextConfirm,
	})

	r := api.NewRouter(api.Deps{
		Logger:  log,
		Config:  cfg,
		Engine:  engine,
		Gateway: gw,
		Tokens:  tokens,
		Notify:  router,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	poller.Stop()
	engine.Close()
	_ = srv.Shutdown(shutdownCtx)
}

// checkServer logs the remote version and health. Failures are not fatal;
// the poller keeps retrying on its own.
func checkServer(log *zap.Logger, remote *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := remote.Version(ctx)
	if err != nil {
		log.Warn("monitoring server unreachable", zap.Error(err))
		return
	}
	health, err := remote.Health(ctx)
	if err != nil {
		log.Warn("monitoring server health check failed", zap.String("version", version), zap.Error(err))
		return
	}
	log.Info("monitoring server reachable",
		zap.String("version", version),
		zap.String("status", health.Status),
		zap.String("database", health.Database),
	)
}
