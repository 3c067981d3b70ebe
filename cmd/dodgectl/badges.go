package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/report"
)

var badgesCmd = &cobra.Command{
	Use:   "badges <student-id>",
	Short: "Show a student's earned badges",
	Args:  cobra.ExactArgs(1),
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.recorder.Student(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	bs, err := e.recorder.Badges(cmd.Context(), s.ID)
	if err != nil {
		return fmt.Errorf("load badges: %w", err)
	}

	fmt.Fprintf(os.Stdout, "%s (%s): %d badges\n", s.Name, s.ID, len(bs))
	if len(bs) > 0 {
		report.Badges(os.Stdout, bs)
	}
	return nil
}
