package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/report"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema and data migrations",
	Long:  "Apply pending schema migrations, then run every data migration that has not completed yet. Finished migrations are skipped.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	v, err := migrations.SchemaVersion(cmd.Context(), e.db)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "schema version %d\n", v)

	runner := migrations.NewRunner(e.docs, e.logger)
	reports, err := runner.Run(cmd.Context(), migrations.Builtin(e.docs, e.catalog, time.Now)...)
	report.Migrations(os.Stdout, reports)
	if err != nil {
		return fmt.Errorf("data migrations: %w", err)
	}
	return nil
}
