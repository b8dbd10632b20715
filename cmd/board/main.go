package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/farum-board/internal/app/board"
	"github.com/PabloGalante/farum-board/internal/config"
	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
	"github.com/PabloGalante/farum-board/internal/tui"
)

var (
	configPath string
	backend    string
	storage    string
	logFile    string
)

// rootCmd opens the interactive board
var rootCmd = &cobra.Command{
	Use:   "board",
	Short: "Terminal client for the message board",
	Long: `Log in or register, read the shared feed and post messages.

Settings come from the optional YAML file given with --config, then from
BOARD_* environment variables, then from flags.`,
	SilenceUsage: true,
	RunE:         runBoard,
}

// feedCmd prints the feed once and exits
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the current feed, newest first",
	RunE:  runFeed,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Identity backend: appwrite or memory")
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "Message storage: memory, firestore or sqlite (default: same as backend)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")

	rootCmd.AddCommand(feedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath, flagOverrides)
}

// flagOverrides applies the persistent flags on top of file and env settings.
func flagOverrides(cfg *config.Config) {
	if backend != "" {
		cfg.Backend = config.Backend(backend)
	}
	if storage != "" {
		cfg.Storage = config.Storage(storage)
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
}

// setup loads settings, points the logger at the log file and builds the
// controller. The returned cleanup closes what was opened.
func setup(ctx context.Context) (*config.Config, *board.Controller, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	// The terminal belongs to the UI, so logs never go to stdout.
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open log file: %w", err)
	}
	observability.Init(f, cfg.Log.Level)

	deps, err := newBackends(ctx, cfg)
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}

	ctrl := board.NewController(deps.identity, deps.store,
		board.WithCollection(domain.CollectionID(cfg.CollectionID())),
		board.WithRetryPolicy(retryPolicy(cfg.Feed)),
	)

	cleanup := func() {
		if err := deps.close(); err != nil {
			observability.Logger().Warn("closing backends", "error", err)
		}
		f.Close()
	}
	return cfg, ctrl, cleanup, nil
}

func retryPolicy(fc config.FeedConfig) board.RetryPolicy {
	p := board.DefaultRetryPolicy()
	p.MaxAttempts = fc.RetryAttempts
	if fc.RetryBackoff > 0 {
		p.InitialBackoff = fc.RetryBackoff
	}
	return p
}

func runBoard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, ctrl, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	observability.Logger().Info("board starting",
		"backend", cfg.Backend,
		"storage", cfg.Storage,
		"collection", cfg.CollectionID(),
	)

	m := tui.NewModel(ctx, ctrl, tui.Options{PollInterval: cfg.Feed.PollInterval})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runFeed(cmd *cobra.Command, _ []string) error {
	ctx := observability.NewTrace(cmd.Context())

	_, ctrl, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ctrl.RefreshFeed(ctx); err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	s := ctrl.Snapshot()

	out := cmd.OutOrStdout()
	if len(s.Feed) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return nil
	}
	for _, m := range s.Feed {
		fmt.Fprintf(out, "%s  %s\n  %s\n\n",
			m.AuthorName,
			m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			m.Content,
		)
	}
	return nil
}
