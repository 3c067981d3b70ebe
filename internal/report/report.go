// Package report renders classroom data as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/stats"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// Students writes one row per student with cumulative stats and score.
func Students(w io.Writer, students []dodgeball.Student) {
	table := newTable(w)
	table.Header("ID", "NAME", "HITS", "PASSES", "SACRIFICES", "COOKIES", "GAMES", "SCORE")
	for _, s := range students {
		st := stats.Normalize(s.Stats)
		table.Append(
			s.ID,
			s.Name,
			strconv.Itoa(st.Hits),
			strconv.Itoa(st.Passes),
			strconv.Itoa(st.Sacrifices),
			strconv.Itoa(st.Cookies),
			strconv.Itoa(st.GamesPlayed),
			strconv.Itoa(st.TotalScore),
		)
	}
	table.Render()
}

// Badges writes badges in the order given.
func Badges(w io.Writer, bs []dodgeball.Badge) {
	table := newTable(w)
	table.Header(" ", "BADGE", "TIER", "REASON", "EARNED")
	for _, b := range bs {
		table.Append(b.Emoji, b.Name, b.Tier.String(), b.Reason, b.EarnedAt.Format("2006-01-02"))
	}
	table.Render()
}

// Awards writes newly awarded badges grouped by student id.
func Awards(w io.Writer, awards map[string][]dodgeball.Badge) {
	ids := make([]string, 0, len(awards))
	for id := range awards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := newTable(w)
	table.Header("STUDENT", "BADGE", "TIER")
	for _, id := range ids {
		for _, b := range awards[id] {
			table.Append(id, b.Emoji+" "+b.Name, b.Tier.String())
		}
	}
	table.Render()
}

// Migrations writes one row per data migration report.
func Migrations(w io.Writer, reports []migrations.Report) {
	table := newTable(w)
	table.Header("MIGRATION", "STATUS", "SCANNED", "UPDATED", "FAILED")
	for _, r := range reports {
		status := "applied"
		switch {
		case r.Skipped:
			status = "skipped"
		case len(r.Failures) > 0:
			status = "partial"
		}
		table.Append(r.Name, status, strconv.Itoa(r.Scanned), strconv.Itoa(r.Updated), strconv.Itoa(len(r.Failures)))
	}
	table.Render()

	for _, r := range reports {
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s: %s: %s\n", r.Name, f.Key, f.Err)
		}
	}
}

// Sizes writes the predicted team sizes.
func Sizes(w io.Writer, names []string, sizes []int) {
	table := newTable(w)
	table.Header("TEAM", "PLAYERS")
	for i, n := range sizes {
		table.Append(names[i], strconv.Itoa(n))
	}
	table.Render()
}
