package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/miosa/osa-memos/app"
	"github.com/miosa/osa-memos/config"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/source"
	"github.com/miosa/osa-memos/style"
)

var (
	version = "dev"
	commit  = "none"
)

// flags holds command-line overrides applied on top of the config file.
type flags struct {
	config   string
	kind     string
	dir      string
	url      string
	db       string
	tag      string
	theme    string
	logLevel string
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "memos",
		Short: "Browse memos in the terminal",
		Long: `memos pages through a memo collection in a virtualized list,
loading more as you scroll in either direction.

Memos come from a directory of markdown files, a memos server or a
sqlite database built with "memos import".`,
		Example: `  # Browse ~/.memos/memos
  memos

  # Browse another directory, only memos tagged #go
  memos --dir ./notes --tag go

  # Browse a remote server
  memos --source remote --url http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			return runBrowse(cmd.Context(), cfg, f.config)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "Config file (default ~/.memos/config.yaml)")
	pf.StringVar(&f.kind, "source", "", "Memo source: files, remote or sqlite")
	pf.StringVar(&f.dir, "dir", "", "Memo directory for the files source")
	pf.StringVar(&f.url, "url", "", "Server URL for the remote source")
	pf.StringVar(&f.db, "db", "", "Database path for the sqlite source")
	pf.StringVarP(&f.tag, "tag", "t", "", "Only show memos carrying this tag")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&f.theme, "theme", "", "Theme: auto, dark, light, catppuccin or tokyo-night")

	rootCmd.AddCommand(serveCmd(&f), importCmd(&f), initCmd(&f))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, "memos: "+err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

// load reads the config file and applies the flags that were set.
func (f *flags) load() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Source.Kind, f.kind)
	set(&cfg.Source.Dir, f.dir)
	set(&cfg.Source.URL, f.url)
	set(&cfg.Source.DB, f.db)
	set(&cfg.Source.Tag, f.tag)
	set(&cfg.Theme, f.theme)
	set(&cfg.Log.Level, f.logLevel)
	return cfg, nil
}

func runBrowse(ctx context.Context, cfg *config.Config, configPath string) error {
	// The TUI owns the terminal, so logs go to the file only.
	log := logger.New(cfg.Logger(false))
	defer log.Close()

	// Auto-detect terminal background before any rendering.
	if cfg.Theme == config.ThemeAuto || cfg.Theme == "" {
		if lipgloss.HasDarkBackground(os.Stdin, os.Stdout) {
			style.SetTheme("dark")
		} else {
			style.SetTheme("light")
		}
	}

	src, err := source.Open(ctx, cfg, log.Component("source"))
	if err != nil {
		return err
	}
	defer src.Close()

	m := app.New(ctx, src, cfg,
		app.WithConfigPath(configPath),
		app.WithLogger(log.Component("app")),
	)
	defer m.Close()

	log.WithField(logger.FieldSource, src.Name()).Info("browse started")
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("memos: %w", err)
	}
	return nil
}
