// Package main demonstrates wiring a corenetworkkit Client: defaults
// loaded through a netconfig.Manager (its file watch is not started), an
// OIDC token refresher, and a single request through the gate/cache/retry
// pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	corenetworkkit "github.com/vimo-ai/corenetworkkit"
	"github.com/vimo-ai/corenetworkkit/internal/netconfig"
	"github.com/vimo-ai/corenetworkkit/internal/tokensource/oidc"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

func main() {
	if err := run(); err != nil {
		slog.Error("example failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/netconfig.yaml", "path to configuration file")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	issuerURL := flag.String("oidc-issuer", "", "OIDC issuer URL for client-credentials auth (optional)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfgManager, err := netconfig.NewManager(*configPath, logger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	defer func() { _ = cfgManager.Close() }()

	taskCfg, err := cfgManager.Get().DefaultTaskConfig()
	if err != nil {
		return fmt.Errorf("derive default task config: %w", err)
	}

	opts := []corenetworkkit.Option{corenetworkkit.WithLogger(logger)}
	if *issuerURL != "" {
		refresher, err := oidc.New(context.Background(), *issuerURL,
			os.Getenv("OIDC_CLIENT_ID"), os.Getenv("OIDC_CLIENT_SECRET"), []string{"api.read"})
		if err != nil {
			return fmt.Errorf("configure oidc refresher: %w", err)
		}
		opts = append(opts, corenetworkkit.WithTokenRefresher(refresher))
	}

	client, err := corenetworkkit.New(opts...)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("serving metrics", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	spec := request.Spec{
		Method:  http.MethodGet,
		BaseURL: "https://httpbin.org",
		Path:    "/get",
	}
	body, err := client.Do(ctx, spec, taskCfg)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	logger.Info("request succeeded", "bytes", len(body))
	return nil
}
