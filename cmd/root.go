package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/akuzmina/ripeto/internal/catalog"
	"github.com/akuzmina/ripeto/internal/config"
	"github.com/akuzmina/ripeto/internal/engine"
	"github.com/akuzmina/ripeto/internal/remote"
	"github.com/akuzmina/ripeto/internal/store"
	"github.com/akuzmina/ripeto/internal/syncer"
)

var rootCmd = &cobra.Command{
	Use:   "ripeto",
	Short: "Spaced-repetition Russian-Italian vocabulary trainer",
	Long:  "Ripeto tracks word mastery from your answers, schedules reviews, and keeps working offline: answers queue locally and sync when the remote store is reachable again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides RIPETO_DB env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then RIPETO_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zcfg.Build()
}

// appContext holds everything a command needs, built once per run.
type appContext struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	catalog *catalog.Repo
	engine  *engine.Engine
	syncer  *syncer.Syncer

	remoteStore *remote.Store
}

// setup loads config and wires the store, remote, engine, and syncer.
// With no DATABASE_URL the remote stays nil and ripeto runs offline.
func setup(cmd *cobra.Command) (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := buildLogger(cmd)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	app := &appContext{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		catalog: catalog.New(st.DB()),
	}

	var rem engine.Remote
	if cfg.DatabaseURL != "" {
		rs, err := remote.Open(cfg.DatabaseURL, cfg.Intervals, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		app.remoteStore = rs
		rem = rs
	}

	eng, err := engine.New(st, rem, app.catalog, engine.Config{
		UserID:      cfg.UserID,
		DueSoonDays: cfg.DueSoonDays,
		Intervals:   cfg.Intervals,
		Logger:      logger,
	})
	if err != nil {
		app.close()
		return nil, err
	}
	app.engine = eng
	app.syncer = syncer.New(st, rem, cfg.UserID, logger)
	return app, nil
}

func (a *appContext) close() {
	if a.syncer != nil {
		a.syncer.Stop()
	}
	if a.remoteStore != nil {
		a.remoteStore.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
