package teams_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/geunssam/dodgeballhub/internal/teams"
)

func roster(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("s%02d", i)
	}
	return ids
}

func TestSizes(t *testing.T) {
	tests := []struct {
		n, k int
		want []int
	}{
		{11, 2, []int{6, 5}},
		{12, 3, []int{4, 4, 4}},
		{13, 4, []int{4, 3, 3, 3}},
		{0, 2, []int{0, 0}},
		{5, 6, []int{1, 1, 1, 1, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,k=%d", tt.n, tt.k), func(t *testing.T) {
			got, err := teams.Sizes(tt.n, tt.k)
			if err != nil {
				t.Fatalf("Sizes: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Sizes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvalidTeamCount(t *testing.T) {
	b := teams.NewBalancer(rand.NewPCG(1, 2))
	for _, k := range []int{-1, 0, 1, 7, 12} {
		if _, err := b.Balance(roster(10), k, teams.StyleNumbered); !errors.Is(err, teams.ErrInvalidTeamCount) {
			t.Errorf("k=%d: err = %v, want ErrInvalidTeamCount", k, err)
		}
		if _, err := teams.Sizes(10, k); !errors.Is(err, teams.ErrInvalidTeamCount) {
			t.Errorf("Sizes k=%d: err = %v, want ErrInvalidTeamCount", k, err)
		}
	}
}

func TestBalancePartitionsRoster(t *testing.T) {
	b := teams.NewBalancer(rand.NewPCG(42, 7))
	for n := 0; n <= 40; n++ {
		for k := teams.MinTeams; k <= teams.MaxTeams; k++ {
			in := roster(n)
			got, err := b.Balance(in, k, teams.StyleNumbered)
			if err != nil {
				t.Fatalf("n=%d k=%d: %v", n, k, err)
			}
			if len(got) != k {
				t.Fatalf("n=%d k=%d: %d teams", n, k, len(got))
			}

			want, _ := teams.Sizes(n, k)
			var all []string
			for i, team := range got {
				if len(team.Members) != want[i] {
					t.Errorf("n=%d k=%d team %d: size %d, want %d", n, k, i, len(team.Members), want[i])
				}
				for _, m := range team.Members {
					all = append(all, m.StudentID)
				}
			}
			sort.Strings(all)
			if !slices.Equal(all, in) {
				t.Errorf("n=%d k=%d: union %v != roster", n, k, all)
			}
		}
	}
}

func TestBalanceElevenIntoTwo(t *testing.T) {
	got, err := teams.NewBalancer(nil).Balance(roster(11), 2, teams.StyleColored)
	if err != nil {
		t.Fatal(err)
	}
	if len(got[0].Members) != 6 || len(got[1].Members) != 5 {
		t.Errorf("sizes = [%d %d], want [6 5]", len(got[0].Members), len(got[1].Members))
	}
	if got[0].Name != "Red Team" || got[1].Name != "Blue Team" {
		t.Errorf("names = %q, %q", got[0].Name, got[1].Name)
	}
	if got[0].ID != "red-team" {
		t.Errorf("id = %q, want red-team", got[0].ID)
	}
	if got[1].Color != teams.Palette[1].Hex {
		t.Errorf("color = %q", got[1].Color)
	}
}

func TestBalanceDoesNotMutateRoster(t *testing.T) {
	in := roster(8)
	orig := append([]string(nil), in...)
	if _, err := teams.NewBalancer(rand.NewPCG(3, 3)).Balance(in, 3, teams.StyleNumbered); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(in, orig) {
		t.Errorf("roster mutated: %v", in)
	}
}

func TestNames(t *testing.T) {
	if got := teams.NameFor(2, teams.StyleNumbered); got != "Team 3" {
		t.Errorf("numbered = %q", got)
	}
	if got := teams.NameFor(5, teams.StyleColored); got != "Orange Team" {
		t.Errorf("colored = %q", got)
	}
	if got := teams.ColorFor(7); got != teams.Palette[1] {
		t.Errorf("cyclic color = %+v", got)
	}
}
