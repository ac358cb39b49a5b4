// searchctl runs end-to-end scenarios against Azure AI Search and its
// companion services, from the command line or behind an HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/searchctl/pkg/api"
	"github.com/codeready-toolchain/searchctl/pkg/cleanup"
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/masking"
	"github.com/codeready-toolchain/searchctl/pkg/report"
	"github.com/codeready-toolchain/searchctl/pkg/scenario"
	"github.com/codeready-toolchain/searchctl/pkg/slack"
	"github.com/codeready-toolchain/searchctl/pkg/store"
	"github.com/codeready-toolchain/searchctl/pkg/version"
)

var usage = heredoc.Doc(`
	Usage: searchctl [flags] <command> [args]

	Commands:
	  run <scenario>...  run one or more scenarios and print each step
	  list               list the available scenarios
	  serve              start the HTTP API and the gRPC health service
	  version            print build information

	Flags:
`)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("searchctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	verbose := fs.Bool("v", false, "Verbose output: debug logs and full step details")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	setupLogging(stderr, *verbose, cmd == "serve")

	switch cmd {
	case "version":
		return printVersion(stdout)
	case "list":
		report.PrintScenarios(stdout, scenario.DefaultRegistry())
		return 0
	case "run", "serve":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	loadEnvFile(*configDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		return 1
	}

	deps := buildDeps(cfg, newTokenProvider())
	masker := masking.NewService(cfg.Masking.PatternGroup)

	if cmd == "serve" {
		return serve(ctx, cfg, deps, masker)
	}
	if len(cmdArgs) == 0 {
		fmt.Fprintln(stderr, "run: at least one scenario name is required")
		return 2
	}
	return runScenarios(ctx, cfg, deps, masker, cmdArgs, stdout, *verbose)
}

// setupLogging keeps the terminal quiet for CLI runs, where the printer
// reports progress, and logs at info when serving.
func setupLogging(w io.Writer, verbose, server bool) {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case server:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadEnvFile loads .env from the config directory when present.
func loadEnvFile(configDir string) {
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
		return
	}
	slog.Info("Loaded environment", "path", envPath)
}

func newTokenProvider() credential.TokenProvider {
	p, err := credential.NewDefaultProvider()
	if err != nil {
		slog.Warn("No Azure credential available, token-based scenarios are disabled", "error", err)
		return nil
	}
	return credential.NewCachingProvider(p)
}

// notifiers returns the Slack recorder when a token and channel are set.
func notifiers(cfg *config.Config) []scenario.Recorder {
	if cfg.Slack == nil {
		return nil
	}
	svc := slack.NewService(slack.ServiceConfig{
		Token:   cfg.Slack.Token,
		Channel: cfg.Slack.Channel,
		BaseURL: cfg.Slack.BaseURL,
	})
	if svc == nil {
		return nil
	}
	slog.Info("Slack notifications enabled", "channel", cfg.Slack.Channel)
	return []scenario.Recorder{svc}
}

func printVersion(w io.Writer) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(version.Get()); err != nil {
		return 1
	}
	return 0
}

// openStore returns the PostgreSQL run store when enabled, else nil.
func openStore(ctx context.Context, cfg *config.Config) (*store.Postgres, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("store configuration: %w", err)
	}
	pg, err := store.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to PostgreSQL", "host", dbCfg.Host, "database", dbCfg.Database)
	return pg, nil
}

func runScenarios(ctx context.Context, cfg *config.Config, deps *scenario.Deps, masker scenario.Masker,
	names []string, stdout io.Writer, verbose bool) int {
	reg := scenario.DefaultRegistry()

	recorders := []scenario.Recorder{report.NewPrinter(stdout, verbose)}
	pg, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open run store", "error", err)
		return 1
	}
	if pg != nil {
		defer pg.Close()
		recorders = append(recorders, store.NewRecorder(pg))
	}
	recorders = append(recorders, notifiers(cfg)...)
	runner := scenario.NewRunner(masker, cfg.Scenarios.StepTimeout, recorders...)

	exit := 0
	for _, name := range names {
		sc, err := reg.Build(name, deps)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", name, err)
			exit = 1
			continue
		}
		if r := runner.Run(ctx, sc); r.Status != scenario.StatusSucceeded {
			exit = 1
		}
		if ctx.Err() != nil {
			break
		}
	}
	return exit
}

func serve(ctx context.Context, cfg *config.Config, deps *scenario.Deps, masker scenario.Masker) int {
	opts := api.Options{
		Registry:    scenario.DefaultRegistry(),
		Deps:        deps,
		Masker:      masker,
		StepTimeout: cfg.Scenarios.StepTimeout,
		Recorders:   notifiers(cfg),
	}
	if deps.Search != nil {
		opts.Search = deps.Search
	}

	pg, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open run store", "error", err)
		return 1
	}
	var pruner store.Pruner
	if pg != nil {
		defer pg.Close()
		opts.Store, opts.DB, pruner = pg, pg.DB(), pg
	} else {
		mem := store.NewMemory(0)
		opts.Store, pruner = mem, mem
	}

	retention := cleanup.NewService(cfg.Store, pruner)
	retention.Start(ctx)
	defer retention.Stop()

	server := api.NewServer(opts)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := server.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if cfg.Server.GRPCAddr != "" {
		go func() {
			slog.Info("gRPC health server listening", "addr", cfg.Server.GRPCAddr)
			if err := server.StartGRPC(cfg.Server.GRPCAddr); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	slog.Info("searchctl started", "version", version.Full(), "http_addr", cfg.Server.HTTPAddr, "grpc_addr", cfg.Server.GRPCAddr)

	exit := 0
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
		exit = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		exit = 1
	}
	slog.Info("Shutdown complete")
	return exit
}
