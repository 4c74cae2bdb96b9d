// quadrantd is the standalone daemon form of the pipeline: no subcommands,
// just flags, for init systems and containers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/config"
	"github.com/sameehj/quadrant/pkg/env"
	"github.com/sameehj/quadrant/pkg/gate"
	"github.com/sameehj/quadrant/pkg/httpapi"
	"github.com/sameehj/quadrant/pkg/logging"
	"github.com/sameehj/quadrant/pkg/oracle"
	"github.com/sameehj/quadrant/pkg/sandbox"
	"github.com/sameehj/quadrant/pkg/strategy"
	"github.com/sameehj/quadrant/pkg/version"
	"github.com/sameehj/quadrant/pkg/websearch"
)

var (
	configPath   = flag.String("config", "", "path to configuration file (default: ~/.quadrant/config.yaml)")
	addr         = flag.String("addr", "", "listen address (overrides config)")
	printVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		return
	}

	if wd, err := os.Getwd(); err == nil {
		_ = env.LoadFromDir(wd)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dispatcher, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("initialise pipeline", zap.Error(err))
	}

	srv := httpapi.NewServer(cfg.Server.Address, dispatcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
}

func buildPipeline(cfg *config.Config, logger *zap.Logger) (*strategy.Dispatcher, error) {
	client, err := oracle.New(oracle.Config{
		Provider: cfg.Oracle.Provider,
		APIKey:   cfg.Oracle.APIKey,
		Model:    cfg.Oracle.Model,
		Timeout:  cfg.OracleTimeout(),
	})
	if err != nil {
		return nil, err
	}

	g := gate.NewDefault()
	if cfg.GatePath != "" {
		policy, err := gate.LoadPolicy(cfg.GatePath)
		if err != nil {
			return nil, fmt.Errorf("load gate policy: %w", err)
		}
		g, err = gate.New(policy)
		if err != nil {
			return nil, fmt.Errorf("compile gate policy: %w", err)
		}
	}

	engine := sandbox.NewEngine(sandbox.NewCatalog(), cfg.ExecTimeout(), logger)

	var providers []websearch.Provider
	if cfg.Search.SerperAPIKey != "" {
		providers = append(providers, websearch.NewSerper(cfg.Search.SerperAPIKey, cfg.SearchTimeout()))
	}
	providers = append(providers, websearch.NewDuckDuckGo(cfg.SearchTimeout()))
	chain := websearch.NewChain(logger, cfg.Search.MaxResults, providers...)

	return strategy.NewDispatcher(client, g, engine, chain, logger), nil
}
