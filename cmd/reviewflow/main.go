package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/jgardner/reviewflow/internal/adapter/cli"
	"github.com/jgardner/reviewflow/internal/adapter/document"
	"github.com/jgardner/reviewflow/internal/adapter/llm"
	llmhttp "github.com/jgardner/reviewflow/internal/adapter/llm/http"
	"github.com/jgardner/reviewflow/internal/adapter/observability"
	"github.com/jgardner/reviewflow/internal/adapter/source"
	"github.com/jgardner/reviewflow/internal/config"
	"github.com/jgardner/reviewflow/internal/domain"
	"github.com/jgardner/reviewflow/internal/usecase/heuristic"
	"github.com/jgardner/reviewflow/internal/usecase/session"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewflow",
		EnvPrefix:   "REVIEWFLOW",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app := newApp(cfg)

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:            app,
		Tester:            app,
		Profiles:          providerProfiles(cfg),
		DefaultRepo:       cfg.Source.RepositoryDir,
		DefaultBranch:     cfg.Source.Branch,
		DefaultCompliance: cfg.Compliance.DocumentPath,
		Version:           version,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// app wires the configured adapters into runnable sessions.
type app struct {
	cfg    config.Config
	logger llmhttp.Logger
}

func newApp(cfg config.Config) *app {
	logging := cfg.Observability.Logging
	level := llmhttp.ParseLogLevel(logging.Level)
	if !logging.Enabled {
		level = llmhttp.LogLevelError
	}
	logger := llmhttp.NewDefaultLogger(level, llmhttp.ParseLogFormat(logging.Format), logging.RedactAPIKeys)
	return &app{cfg: cfg, logger: logger}
}

// RunSession builds a fresh orchestrator per request; sessions are not
// resumable.
func (a *app) RunSession(ctx context.Context, req cli.SessionRequest) (domain.SessionResult, error) {
	client, err := a.buildClient(req.Provider, req.Mode)
	if err != nil {
		return domain.SessionResult{}, err
	}

	complianceText, err := document.NewLoader(req.CompliancePath).Load()
	if err != nil {
		return domain.SessionResult{}, err
	}

	repoDir := req.Repository
	if repoDir == "" {
		repoDir = "."
	}

	pacing, err := parsePacing(a.cfg.Session.PacingDelay)
	if err != nil {
		return domain.SessionResult{}, err
	}

	orch := session.New(session.Deps{
		Source:      source.NewProvider(repoDir, a.cfg.Source.MaxFiles),
		Analyzer:    heuristic.New(),
		Reviewer:    client,
		PacingDelay: pacing,
	})

	printer := cli.NewProgressPrinter(os.Stdout, cli.IsOutputTerminal())
	orch.SubscribeProgress(printer.Print)

	logging := a.cfg.Observability.Logging
	if logging.Enabled {
		sessionLogger := observability.NewSessionLogger(
			llmhttp.ParseLogLevel(logging.Level),
			llmhttp.ParseLogFormat(logging.Format),
		)
		orch.SubscribeLog(sessionLogger.Log)
	}

	result, err := orch.Run(ctx, repositoryName(repoDir), req.Branch, complianceText)
	if err != nil {
		return domain.SessionResult{}, err
	}

	if stats := client.Stats(); stats.Failed > 0 {
		log.Printf("warning: %d of %d remote reviews failed", stats.Failed, stats.Succeeded+stats.Failed)
	}
	return result, nil
}

// TestConnection probes the active provider endpoint.
func (a *app) TestConnection(ctx context.Context) error {
	client, err := a.buildClient("", "")
	if err != nil {
		return err
	}
	if !client.TestConnection(ctx) {
		return fmt.Errorf("no response from provider endpoint")
	}
	return nil
}

func (a *app) buildClient(override, modeOverride string) (*llm.Client, error) {
	name := override
	if name == "" {
		var err error
		name, err = a.cfg.ActiveProvider()
		if err != nil {
			return nil, err
		}
	}
	mode := a.cfg.Connection.Mode
	if modeOverride != "" {
		mode = modeOverride
	}

	profile, err := a.cfg.ProviderProfile(name)
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(a.logger)
	if a.cfg.HTTP.Timeout != "" {
		timeout, err := time.ParseDuration(a.cfg.HTTP.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse http.timeout: %w", err)
		}
		client.SetTimeout(timeout)
	}
	client.Configure(a.cfg.Providers[name].APIKey, profile, mode, a.cfg.Connection.ProxyEndpoint)
	return client, nil
}

// providerProfiles flattens the provider map for display, sorted by name.
func providerProfiles(cfg config.Config) []cli.ProfileSummary {
	active, _ := cfg.ActiveProvider()

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]cli.ProfileSummary, 0, len(names))
	for _, name := range names {
		provider := cfg.Providers[name]
		endpoint := ""
		if len(provider.Endpoints) > 0 {
			endpoint = provider.Endpoints[0]
		}
		profiles = append(profiles, cli.ProfileSummary{
			Name:     name,
			Model:    provider.Model,
			Endpoint: endpoint,
			Enabled:  provider.Enabled,
			Active:   name == active,
		})
	}
	return profiles
}

func parsePacing(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	pacing, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse session.pacingDelay: %w", err)
	}
	return pacing, nil
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewflow"))
	}
	return paths
}
