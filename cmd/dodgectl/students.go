package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/report"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List students with their cumulative stats",
	Args:  cobra.NoArgs,
	RunE:  runStudents,
}

func runStudents(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	students, err := e.recorder.Students(cmd.Context())
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	if len(students) == 0 {
		fmt.Fprintln(os.Stdout, "No students yet.")
		return nil
	}
	report.Students(os.Stdout, students)
	return nil
}
