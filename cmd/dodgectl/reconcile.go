package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/report"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Award any badges students qualify for but do not hold",
	Args:  cobra.NoArgs,
	RunE:  runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	awards, err := e.recorder.Reconcile(cmd.Context())
	if len(awards) > 0 {
		report.Awards(os.Stdout, awards)
	} else if err == nil {
		fmt.Fprintln(os.Stdout, "Every student is up to date.")
	}
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}
