package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/client"
	"github.com/phoenixcrm/leadview/pkg/config"
	"github.com/phoenixcrm/leadview/pkg/export"
	"github.com/phoenixcrm/leadview/pkg/loader"
	"github.com/phoenixcrm/leadview/pkg/logging"
	"github.com/phoenixcrm/leadview/pkg/model"
	"github.com/phoenixcrm/leadview/pkg/snapshot"
	"github.com/phoenixcrm/leadview/pkg/ui"
	"github.com/phoenixcrm/leadview/pkg/version"
	"github.com/phoenixcrm/leadview/pkg/viewmodel"
	"github.com/phoenixcrm/leadview/pkg/watcher"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	help, version bool
	configPath    string
	backend       string
	token         string
	file          string
	watch         bool
	offline       bool
	search        string
	stage         string
	sort          string
	robotLeads    bool
	robotStats    bool
	robotBoard    bool
	exportFunnel  string
	debug         bool
}

func (o options) robot() bool {
	return o.robotLeads || o.robotStats || o.robotBoard || o.exportFunnel != ""
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("lv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/leadview/config.yaml)")
	fs.StringVar(&o.backend, "backend", "", "CRM backend base URL")
	fs.StringVar(&o.token, "token", "", "Bearer token for the backend")
	fs.StringVar(&o.file, "file", "", "Read leads from a JSON or JSONL file instead of the backend")
	fs.BoolVar(&o.watch, "watch", false, "Reload when --file changes")
	fs.BoolVar(&o.offline, "offline", false, "Browse the last saved snapshot")
	fs.StringVar(&o.search, "search", "", "Initial search text")
	fs.StringVar(&o.stage, "stage", "", "Initial stage filter (\"all\" for none)")
	fs.StringVar(&o.sort, "sort", "", "Initial sort: name, value, priority or stage")
	fs.BoolVar(&o.robotLeads, "robot-leads", false, "Print the filtered leads as JSON and exit")
	fs.BoolVar(&o.robotStats, "robot-stats", false, "Print pipeline stats as JSON and exit")
	fs.BoolVar(&o.robotBoard, "robot-board", false, "Print pipeline columns as JSON and exit")
	fs.StringVar(&o.exportFunnel, "export-funnel", "", "Write a stage funnel chart (.svg or .png) and exit")
	fs.BoolVar(&o.debug, "debug", false, "Debug-level logging (needs log_path or LEADVIEW_LOG)")

	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	if fs.NArg() > 0 {
		return o, fs, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.file != "" && o.offline {
		return o, fs, errors.New("--file and --offline are mutually exclusive")
	}
	if o.watch && o.file == "" {
		return o, fs, errors.New("--watch requires --file")
	}
	if o.sort != "" && !analysis.SortKey(o.sort).IsKnown() {
		return o, fs, fmt.Errorf("unknown sort key %q (use name, value, priority or stage)", o.sort)
	}
	return o, fs, nil
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if o.help {
		fmt.Fprintln(stdout, "Usage: lv [options]")
		fmt.Fprintln(stdout, "\nBrowse, filter and summarize CRM leads in the terminal.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if o.version {
		fmt.Fprintf(stdout, "lv version %s\n", version.Version)
		return 0
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if o.backend != "" {
		cfg.BackendURL = o.backend
	}
	if o.token != "" {
		cfg.Token = o.token
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, closeLog, err := logging.New(cfg.LogPath, o.debug)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	query := cfg.Query()
	if o.search != "" {
		query.Search = o.search
	}
	if o.stage != "" {
		query.Stage = o.stage
	}
	if o.sort != "" {
		query.SortBy = analysis.SortKey(o.sort)
	}

	src, err := openSource(ctx, o, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer src.close()

	if o.robot() {
		if err := runRobot(ctx, o, src, query, logger, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := runTUI(ctx, o, cfg, src, query, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// source is the lead collection the session reads from.
type source struct {
	fetcher viewmodel.Fetcher
	label   string
	client  *client.Client // nil unless reading from the backend
	close   func()
}

func openSource(ctx context.Context, o options, cfg config.Config, logger *zap.Logger) (source, error) {
	switch {
	case o.file != "":
		return source{
			fetcher: loader.NewFileSource(o.file, logger),
			label:   filepath.Base(o.file),
			close:   func() {},
		}, nil

	case o.offline:
		if cfg.SnapshotPath == "" {
			return source{}, errors.New("--offline needs snapshot_path in the config or LEADVIEW_SNAPSHOT")
		}
		db, err := snapshot.OpenDB(cfg.SnapshotPath)
		if err != nil {
			return source{}, err
		}
		label := "offline snapshot"
		if at, err := db.SavedAt(ctx); err == nil {
			label = "snapshot " + at.Local().Format("2006-01-02 15:04")
		}
		return source{
			fetcher: snapshot.NewSource(db),
			label:   label,
			close:   func() { db.Close() },
		}, nil
	}

	if cfg.BackendURL == "" {
		return source{}, errors.New("no backend configured (set backend_url, BACKEND_URL or --backend)")
	}
	c := client.New(cfg.BackendURL, cfg.Token,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	)
	if cfg.Token == "" && !o.robot() && isTerminal() {
		var err error
		c, err = login(ctx, c)
		if err != nil {
			return source{}, err
		}
	}
	return source{fetcher: c, label: cfg.BackendURL, client: c, close: func() {}}, nil
}

// login prompts for credentials and returns a client carrying the issued token.
func login(ctx context.Context, c *client.Client) (*client.Client, error) {
	var email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Sign in to " + c.BaseURL()),
			huh.NewInput().Title("Email").Value(&email).Validate(func(s string) error {
				if s == "" {
					return errors.New("email is required")
				}
				return nil
			}),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("login cancelled: %w", err)
	}

	resp, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.WithToken(resp.AccessToken), nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

type robotLeads struct {
	Query analysis.Query `json:"query"`
	Count int            `json:"count"`
	Total int            `json:"total"`
	Leads []model.Lead   `json:"leads"`
}

type robotStats struct {
	Stats   analysis.Stats        `json:"stats"`
	ByStage []analysis.StageCount `json:"by_stage"`
	Value   analysis.ValueSummary `json:"value"`
	Query   analysis.Query        `json:"query"`
}

type robotBoard struct {
	Columns []analysis.StageGroup `json:"columns"`
}

// runRobot performs one load on the calling goroutine and prints the result.
func runRobot(ctx context.Context, o options, src source, query analysis.Query, logger *zap.Logger, stdout io.Writer) error {
	q := viewmodel.NewQueue(1)
	defer q.Close()
	vm := viewmodel.New(src.fetcher, q, viewmodel.WithQuery(query), viewmodel.WithLogger(logger))

	var result viewmodel.LoadResult
	vm.Load(ctx, func(res viewmodel.LoadResult) { result = res })
	if err := q.Next(ctx); err != nil {
		return err
	}
	if !result.OK() {
		return fmt.Errorf("load leads: %s", result.Message())
	}

	if o.exportFunnel != "" {
		if err := export.SaveFunnel(export.FunnelOptions{
			Path:   o.exportFunnel,
			Counts: analysis.CountByStage(vm.Raw()),
			Title:  "Lead pipeline (" + src.label + ")",
		}); err != nil {
			return err
		}
		if !o.robotLeads && !o.robotStats && !o.robotBoard {
			return writeJSON(stdout, map[string]string{"funnel": o.exportFunnel})
		}
	}

	switch {
	case o.robotStats:
		return writeJSON(stdout, robotStats{
			Stats:   vm.Stats(),
			ByStage: analysis.CountByStage(vm.Raw()),
			Value:   vm.ValueSummary(),
			Query:   vm.Query(),
		})
	case o.robotBoard:
		return writeJSON(stdout, robotBoard{Columns: vm.StageGroups()})
	case o.robotLeads:
		return writeJSON(stdout, robotLeads{
			Query: vm.Query(),
			Count: len(vm.Filtered()),
			Total: vm.Stats().Total,
			Leads: vm.Filtered(),
		})
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTUI(ctx context.Context, o options, cfg config.Config, src source, query analysis.Query, logger *zap.Logger) error {
	if !isTerminal() {
		return errors.New("stdout is not a terminal; use --robot-leads, --robot-stats or --robot-board")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	dispatcher := ui.NewProgramDispatcher()
	vm := viewmodel.New(src.fetcher, dispatcher, viewmodel.WithQuery(query), viewmodel.WithLogger(logger))

	opts := []ui.Option{ui.WithSource(src.label), ui.WithLogger(logger)}
	if src.client != nil {
		opts = append(opts, ui.WithUpdater(src.client))
		if cfg.SnapshotPath != "" {
			hook, err := startSnapshotWriter(g, gctx, cfg.SnapshotPath, logger)
			if err != nil {
				logger.Warn("snapshot disabled", zap.Error(err))
			} else {
				opts = append(opts, ui.WithLoadHook(hook))
			}
		}
	}

	m := ui.NewModel(gctx, vm, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(gctx))
	dispatcher.Attach(p)

	if o.watch {
		w, err := watcher.NewWatcher(o.file,
			watcher.WithDebounceDuration(watcher.DefaultDebounce),
			watcher.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		reason := filepath.Base(o.file) + " changed"
		g.Go(func() error {
			return w.Run(gctx, func() { p.Send(ui.ReloadMsg{Reason: reason}) })
		})
	}

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

// startSnapshotWriter saves each successful backend load in the background.
// Only the newest pending collection is kept if saves fall behind.
func startSnapshotWriter(g *errgroup.Group, ctx context.Context, path string, logger *zap.Logger) (func([]model.Lead), error) {
	db, err := snapshot.OpenDB(path)
	if err != nil {
		return nil, err
	}

	pending := make(chan []model.Lead, 1)
	g.Go(func() error {
		defer db.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case leads := <-pending:
				if err := db.Save(ctx, leads, time.Now()); err != nil && ctx.Err() == nil {
					logger.Warn("save snapshot failed", zap.Error(err))
				} else {
					logger.Debug("snapshot saved", zap.Int("leads", len(leads)))
				}
			}
		}
	})

	// Called on the program goroutine only, so drain-then-send cannot race
	// another producer.
	return func(raw []model.Lead) {
		select {
		case <-pending:
		default:
		}
		pending <- raw
	}, nil
}
