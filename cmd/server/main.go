package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vibeloop/ops-copilot/internal/agent"
	"github.com/vibeloop/ops-copilot/internal/analytics"
	"github.com/vibeloop/ops-copilot/internal/api"
	"github.com/vibeloop/ops-copilot/internal/config"
	"github.com/vibeloop/ops-copilot/internal/dataset"
	"github.com/vibeloop/ops-copilot/internal/pkg/logger"
	"github.com/vibeloop/ops-copilot/internal/uploads"
)

// checkPortAvailable verifies that the target port is not already in use, so
// a stale process is reported up front instead of as a bind error mid-start.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

// buildStore selects the dataset handle store from config.
func buildStore(cfg config.StoreConfig) (dataset.Store, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("dataset store: redis", "addr", cfg.RedisAddr)
		return dataset.NewRedisStore(client), nil
	case "memory", "":
		logger.Info("dataset store: memory")
		return dataset.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	store, err := buildStore(cfg.Store)
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}

	uploadMgr, err := uploads.NewManager(cfg.Uploads.Dir, cfg.Uploads.IndexCap)
	if err != nil {
		logger.Error("uploads init failed", "error", err)
		os.Exit(1)
	}

	var answerer agent.Answerer
	if cfg.OpenAI.Enabled && cfg.OpenAI.APIKey != "" {
		answerer = agent.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout())
		logger.Info("external answerer enabled", "model", cfg.OpenAI.Model)
	} else {
		logger.Info("external answerer disabled, rule-based answers only")
	}

	engine := analytics.NewEngine(analytics.Params{
		WeeklyWeeks:    cfg.Analytics.WeeklyWeeks,
		DailyDays:      cfg.Analytics.DailyDays,
		TrendingTop:    cfg.Analytics.TrendingTop,
		ReorderTop:     cfg.Analytics.ReorderTop,
		AnomalyTop:     cfg.Analytics.AnomalyTop,
		MinAnomalyDays: cfg.Analytics.MinAnomalyDays,
		AnomalySigma:   cfg.Analytics.AnomalySigma,
	})
	svc := analytics.NewService(engine, answerer)

	handlers := api.NewHandlers(store, uploadMgr, svc)
	server := api.NewServer(handlers)

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		logger.Error("startup aborted", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server exited", "error", err)
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
}
