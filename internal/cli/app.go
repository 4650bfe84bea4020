package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/backend"
	"github.com/alexanderramin/estima/internal/config"
	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/estimate"
	"github.com/alexanderramin/estima/internal/graph"
	"github.com/alexanderramin/estima/internal/intelligence"
	"github.com/alexanderramin/estima/internal/llm"
)

// App holds the services CLI commands run against. When Service is nil the
// root command connects from configuration before any subcommand runs.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Service   backend.Service
	Registry  *graph.Registry
	Proposals intelligence.ProposalService
	Parser    intelligence.ParseService

	// LogOutput receives structured logs. Defaults to stderr.
	LogOutput io.Writer

	closers []io.Closer
}

// Close releases the database handle opened by connect.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) connect(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Logger = newLogger(cfg, a.LogOutput)

	if cfg.Remote != "" {
		a.Service = backend.NewClient(cfg.Remote, backend.DefaultClientTimeout)
	} else {
		database, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		a.closers = append(a.closers, database)
		local := backend.NewLocal(database, estimate.NewCalculator(cfg.Estimate))
		if cfg.Seed {
			if err := local.SeedDefaults(cmd.Context()); err != nil {
				return fmt.Errorf("seeding catalog: %w", err)
			}
		}
		a.Service = local
	}

	var client llm.LLMClient
	if cfg.LLM.Enabled {
		var observer llm.Observer = llm.NoopObserver{}
		if cfg.LLM.LogCalls {
			observer = llm.NewLogObserver(a.Logger)
		}
		client = llm.NewClient(cfg.LLM, observer)
	}
	a.Proposals = intelligence.NewProposalService(client)
	a.Parser = intelligence.NewParseService(client)
	a.ensureDefaults()
	return nil
}

// ensureDefaults fills whatever a pre-wired App left out.
func (a *App) ensureDefaults() {
	if a.Logger == nil {
		a.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.Registry == nil {
		a.Registry = graph.NewRegistry(a.Service,
			graph.WithObserver(graph.NewLogObserver(a.Logger)),
			graph.WithFanout(max(a.Config.Fanout, 1)))
	}
	if a.Proposals == nil {
		a.Proposals = intelligence.NewProposalService(nil)
	}
	if a.Parser == nil {
		a.Parser = intelligence.NewParseService(nil)
	}
}

func newLogger(cfg config.Config, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// workspace resolves the project selected by --project (or the configured
// default) and opens its workspace.
func (a *App) workspace(ctx context.Context, cmd *cobra.Command) (*graph.Workspace, error) {
	input, _ := cmd.Flags().GetString("project")
	if input == "" {
		input = a.Config.Project
	}
	id, err := resolveProjectID(ctx, a.Service, input)
	if err != nil {
		return nil, err
	}
	return a.Registry.Open(ctx, id)
}

func resolveProjectID(ctx context.Context, svc backend.Service, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no project selected (use --project or ESTIMA_PROJECT)")
	}
	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return "", err
	}

	// 1. Exact id
	for _, p := range projects {
		if p.ID == input {
			return p.ID, nil
		}
	}
	// 2. Name (case-insensitive)
	for _, p := range projects {
		if strings.EqualFold(p.Name, input) {
			return p.ID, nil
		}
	}
	// 3. Id prefix
	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
