package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/config"
	"github.com/sameehj/quadrant/pkg/env"
	"github.com/sameehj/quadrant/pkg/eval"
	"github.com/sameehj/quadrant/pkg/gate"
	"github.com/sameehj/quadrant/pkg/httpapi"
	"github.com/sameehj/quadrant/pkg/logging"
	"github.com/sameehj/quadrant/pkg/oracle"
	"github.com/sameehj/quadrant/pkg/sandbox"
	"github.com/sameehj/quadrant/pkg/strategy"
	"github.com/sameehj/quadrant/pkg/version"
	"github.com/sameehj/quadrant/pkg/websearch"
)

var cfgFile string

func main() {
	if wd, err := os.Getwd(); err == nil {
		_ = env.LoadFromDir(wd)
	}

	root := &cobra.Command{
		Use:   "quadrant",
		Short: "Mode-routed query pipeline",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.quadrant/config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(replCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline assembles the dispatcher from configuration. Every command
// that answers queries goes through here.
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

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if addr != "" {
				cfg.Server.Address = addr
			}

			dispatcher, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			srv := httpapi.NewServer(cfg.Server.Address, dispatcher, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return srv.Shutdown(context.Background())
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func askCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a single query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dispatcher, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			res, err := dispatcher.Dispatch(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printEnvelope(cmd, res, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result envelope as JSON")
	return cmd
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive query loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dispatcher, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "quadrant repl. Type a query, or 'exit' to quit.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}

				res, err := dispatcher.Dispatch(cmd.Context(), line)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				if err := printEnvelope(cmd, res, false); err != nil {
					return err
				}
			}
		},
	}
}

func evalCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "eval [suite.yaml]",
		Short: "Grade the pipeline against a task suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dispatcher, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			suite, err := eval.LoadSuite(args[0])
			if err != nil {
				return err
			}

			runner := eval.NewRunner(dispatcher.Dispatch, logger)
			report := runner.Run(cmd.Context(), suite)

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, out, 0o644); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "passed %d/%d, average %.3f\n",
				report.Passed, report.Total, report.Average)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the JSON report to a file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func printEnvelope(cmd *cobra.Command, res *strategy.Envelope, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "[%s] %s\n", res.Mode, res.Answer)
	if res.Code != "" {
		fmt.Fprintf(out, "\ncode:\n%s\n", res.Code)
	}
	for _, src := range res.Sources {
		fmt.Fprintf(out, "  source: %s %s\n", src.Title, src.URL)
	}
	return nil
}
