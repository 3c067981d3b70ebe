package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/migrations"
)

func TestStudents(t *testing.T) {
	var buf bytes.Buffer
	Students(&buf, []dodgeball.Student{
		{ID: "s1", Name: "Minho", Stats: dodgeball.Stats{Hits: 3, Passes: 2, GamesPlayed: 1}},
	})
	out := buf.String()
	for _, want := range []string{"s1", "Minho", "3", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBadges(t *testing.T) {
	var buf bytes.Buffer
	Badges(&buf, []dodgeball.Badge{{
		ID:       "hits-beginner",
		Tier:     dodgeball.TierBeginner,
		Name:     "First Strike",
		Reason:   "10 hits",
		EarnedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}})
	out := buf.String()
	for _, want := range []string{"First Strike", "beginner", "2025-03-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAwardsSortedByStudent(t *testing.T) {
	var buf bytes.Buffer
	Awards(&buf, map[string][]dodgeball.Badge{
		"zeta":  {{Name: "Z"}},
		"alpha": {{Name: "A"}},
	})
	out := buf.String()
	if strings.Index(out, "alpha") > strings.Index(out, "zeta") {
		t.Errorf("students not sorted:\n%s", out)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name   string
		report migrations.Report
		want   string
	}{
		{"skipped", migrations.Report{Name: "m1", Skipped: true}, "skipped"},
		{"applied", migrations.Report{Name: "m2", Scanned: 4, Updated: 2}, "applied"},
		{"partial", migrations.Report{Name: "m3", Failures: []migrations.Failure{{Key: "students/x", Err: "boom"}}}, "partial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Migrations(&buf, []migrations.Report{tt.report})
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}

	var buf bytes.Buffer
	Migrations(&buf, []migrations.Report{{Name: "m3", Failures: []migrations.Failure{{Key: "students/x", Err: "boom"}}}})
	if !strings.Contains(buf.String(), "m3: students/x: boom") {
		t.Errorf("failure line missing:\n%s", buf.String())
	}
}

func TestSizes(t *testing.T) {
	var buf bytes.Buffer
	Sizes(&buf, []string{"Red Team", "Blue Team"}, []int{6, 5})
	out := buf.String()
	for _, want := range []string{"Red Team", "6", "Blue Team", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
