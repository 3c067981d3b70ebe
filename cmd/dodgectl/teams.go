package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geunssam/dodgeballhub/internal/report"
	"github.com/geunssam/dodgeballhub/internal/teams"
)

var (
	previewPlayers int
	previewTeams   int
	previewStyle   string
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Team balancing helpers",
}

var teamsPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview how a class splits into teams",
	Args:  cobra.NoArgs,
	RunE:  runTeamsPreview,
}

func init() {
	teamsPreviewCmd.Flags().IntVarP(&previewPlayers, "players", "n", 0, "number of players (default: all students)")
	teamsPreviewCmd.Flags().IntVarP(&previewTeams, "teams", "k", 2, "number of teams")
	teamsPreviewCmd.Flags().StringVar(&previewStyle, "style", string(teams.StyleColored), "team naming: colored or numbered")

	teamsCmd.AddCommand(teamsPreviewCmd)
}

func runTeamsPreview(cmd *cobra.Command, args []string) error {
	style := teams.NameStyle(previewStyle)
	if style != teams.StyleColored && style != teams.StyleNumbered {
		return fmt.Errorf("unknown style %q", previewStyle)
	}

	n := previewPlayers
	if !cmd.Flags().Changed("players") {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		students, err := e.recorder.Students(cmd.Context())
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		n = len(students)
	}

	sizes, err := teams.Sizes(n, previewTeams)
	if err != nil {
		return err
	}
	names := make([]string, len(sizes))
	for i := range names {
		names[i] = teams.NameFor(i, style)
	}

	fmt.Fprintf(os.Stdout, "%d players into %d teams\n", n, previewTeams)
	report.Sizes(os.Stdout, names, sizes)
	return nil
}
