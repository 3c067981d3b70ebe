package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/badges"
	"github.com/geunssam/dodgeballhub/internal/database"
	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/store"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dodgectl",
	Short: "Dodgeball classroom maintenance tool",
	Long:  "Inspect students and badges, run data migrations and preview team splits against the classroom database.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := os.Getenv("DB_PATH")
	if defaultDB == "" {
		defaultDB = filepath.Join("data", "dodgeball.db")
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(teamsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// env bundles what every subcommand needs once the schema is in place.
type env struct {
	db       *sql.DB
	docs     *store.DocStore
	catalog  badges.Catalog
	recorder *progress.Recorder
	logger   *slog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migrations: %w", err)
	}
	logger := newLogger()
	docs := store.NewDocStore(db)
	catalog := badges.Default()
	return &env{
		db:       db,
		docs:     docs,
		catalog:  catalog,
		recorder: progress.NewRecorder(docs, catalog, logger),
		logger:   logger,
	}, nil
}

func (e *env) Close() error { return e.db.Close() }
