// Toolgate is the dispatch service: it exposes registered service
// adapters (Slack, Linear, Brave Search) over HTTP with a uniform
// execute contract.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/adapter/brave"
	"github.com/smallnest/toolgate/adapter/linear"
	"github.com/smallnest/toolgate/adapter/slack"
	"github.com/smallnest/toolgate/config"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/credential/memory"
	credpostgres "github.com/smallnest/toolgate/credential/postgres"
	credredis "github.com/smallnest/toolgate/credential/redis"
	credsqlite "github.com/smallnest/toolgate/credential/sqlite"
	"github.com/smallnest/toolgate/log"
	"github.com/smallnest/toolgate/monitor"
	"github.com/smallnest/toolgate/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		golog.Fatalf("invalid config: %v", err)
	}

	golog.SetLevel(cfg.LogLevel)
	logger := log.NewGologLogger(golog.Default)
	logger.SetLevel(log.ParseLevel(cfg.LogLevel))
	log.SetDefaultLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	resolver, cleanup, err := buildResolver(ctx, cfg)
	if err != nil {
		golog.Fatalf("credential store: %v", err)
	}
	defer cleanup()

	var promRegistry *prometheus.Registry
	var mon monitor.Monitor = monitor.Nop{}
	if cfg.MetricsEnabled {
		promRegistry = prometheus.NewRegistry()
		mon = monitor.NewPrometheus(promRegistry)
	}

	registry := adapter.NewRegistry()
	if err := registerAdapters(registry, resolver, cfg, logger, mon); err != nil {
		golog.Fatalf("register adapters: %v", err)
	}

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(cfg.RequestTimeout),
	}
	if promRegistry != nil {
		serverOpts = append(serverOpts, server.WithMetrics(promRegistry))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(registry, serverOpts...).Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("toolgate starting addr=%s services=%v", cfg.HTTPAddr, registry.Services())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown error: %v", err)
	}
}

func buildResolver(ctx context.Context, cfg *config.Config) (credential.Resolver, func(), error) {
	switch cfg.CredentialStore {
	case "memory":
		return memory.NewResolver(), func() {}, nil
	case "redis":
		r := credredis.NewResolver(credredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return r, func() { _ = r.Close() }, nil
	case "postgres":
		r, err := credpostgres.NewResolver(ctx, credpostgres.Options{ConnString: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, err
		}
		if err := r.InitSchema(ctx); err != nil {
			r.Close()
			return nil, nil, err
		}
		return r, r.Close, nil
	case "sqlite":
		r, err := credsqlite.NewResolver(credsqlite.Options{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	return memory.NewResolver(), func() {}, nil
}

func registerAdapters(registry *adapter.Registry, resolver credential.Resolver, cfg *config.Config, logger log.Logger, mon monitor.Monitor) error {
	slackAdapter, err := slack.New(resolver,
		slack.WithReconnectURL(cfg.SlackReconnectURL),
		slack.WithLogger(logger),
		slack.WithMonitor(mon))
	if err != nil {
		return err
	}
	if err := registry.Register(slackAdapter); err != nil {
		return err
	}

	linearAdapter, err := linear.New(resolver,
		linear.WithReconnectURL(cfg.LinearReconnectURL),
		linear.WithLogger(logger),
		linear.WithMonitor(mon))
	if err != nil {
		return err
	}
	if err := registry.Register(linearAdapter); err != nil {
		return err
	}

	braveAdapter, err := brave.New(resolver,
		brave.WithReconnectURL(cfg.BraveReconnectURL),
		brave.WithLogger(logger),
		brave.WithMonitor(mon))
	if err != nil {
		return err
	}
	return registry.Register(braveAdapter)
}
