package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miosa/osa-memos/config"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/server"
	"github.com/miosa/osa-memos/store"
)

func serveCmd(f *flags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve memos as paged JSON",
		Long: `serve loads every memo from the files or sqlite source and serves
/data/memos/info.json, /data/memos/{n}.json and /health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Logger(true))
	defer log.Close()

	memos, err := loadAll(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.With(logger.Fields{
		logger.FieldCount: len(memos),
		"addr":            cfg.Server.Addr,
	}).Info("serving memos")

	srv := server.New(memos, cfg.Server.PageSize, cfg.Server.Mode, log.Component("server"))
	return srv.Run(ctx, cfg.Server.Addr)
}

// loadAll reads the whole collection from a local source. The tag filter
// is left to the server's ?tag= parameter.
func loadAll(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]memo.Memo, error) {
	switch cfg.Source.Kind {
	case config.SourceFiles, "":
		return memo.LoadDir(ctx, cfg.Source.Dir, log.Component("memo"))
	case config.SourceSQLite:
		st, err := store.Open(cfg.Source.DB, store.WithLogger(log.Component("store")))
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.All(ctx)
	default:
		return nil, fmt.Errorf("serve: source %q cannot be served", cfg.Source.Kind)
	}
}

func importCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import a memo directory into sqlite",
		Long: `import parses every markdown file in --dir and upserts the memos
into the --db sqlite database, removing memos that are no longer there.`,
		Example: `  memos import --dir ./notes --db ./memos.db
  memos --source sqlite --db ./memos.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			n, err := runImport(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d memos into %s\n", n, cfg.Source.DB)
			return nil
		},
	}
}

func runImport(ctx context.Context, cfg *config.Config) (int, error) {
	log := logger.New(cfg.Logger(true))
	defer log.Close()

	memos, err := memo.LoadDir(ctx, cfg.Source.Dir, log.Component("memo"))
	if err != nil {
		return 0, err
	}
	st, err := store.Open(cfg.Source.DB, store.WithLogger(log.Component("store")))
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.Import(ctx, memos)
}

func initCmd(f *flags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			path, err := runInit(f.config, cfg, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(path string, cfg *config.Config, force bool) (string, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("init: %s already exists (use --force)", path)
	}
	if err := config.Save(path, cfg); err != nil {
		return "", fmt.Errorf("init: %w", err)
	}
	return path, nil
}
