// Package teams partitions a class roster into near-equal teams.
package teams

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/gosimple/slug"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

const (
	MinTeams = 2
	MaxTeams = 6
)

var ErrInvalidTeamCount = errors.New("invalid team count")

type Color struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Palette is indexed by team position, cyclically.
var Palette = [MaxTeams]Color{
	{Key: "red", Name: "Red", Hex: "#ef4444"},
	{Key: "blue", Name: "Blue", Hex: "#3b82f6"},
	{Key: "green", Name: "Green", Hex: "#22c55e"},
	{Key: "yellow", Name: "Yellow", Hex: "#eab308"},
	{Key: "purple", Name: "Purple", Hex: "#a855f7"},
	{Key: "orange", Name: "Orange", Hex: "#f97316"},
}

type NameStyle string

const (
	StyleNumbered NameStyle = "numbered"
	StyleColored  NameStyle = "colored"
)

func ColorFor(i int) Color {
	return Palette[((i%len(Palette))+len(Palette))%len(Palette)]
}

// NameFor returns "Team N" (1-based) or "<Color> Team".
func NameFor(i int, style NameStyle) string {
	if style == StyleColored {
		return ColorFor(i).Name + " Team"
	}
	return fmt.Sprintf("Team %d", i+1)
}

func checkCount(k int) error {
	if k < MinTeams || k > MaxTeams {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidTeamCount, k, MinTeams, MaxTeams)
	}
	return nil
}

// Sizes predicts the team sizes Balance will produce: the first n mod k teams
// get one extra member.
func Sizes(n, k int) ([]int, error) {
	if err := checkCount(k); err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	base, rem := n/k, n%k
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes, nil
}

type Balancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBalancer returns a Balancer drawing from src. A nil src uses a fresh
// randomly seeded source, so repeated runs give different partitions.
func NewBalancer(src rand.Source) *Balancer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Balancer{rng: rand.New(src)}
}

// Balance shuffles the roster and splits it into k contiguous slices sized as
// Sizes(len(roster), k). The roster slice is not modified.
func (b *Balancer) Balance(roster []string, k int, style NameStyle) ([]dodgeball.Team, error) {
	sizes, err := Sizes(len(roster), k)
	if err != nil {
		return nil, err
	}

	shuffled := append([]string(nil), roster...)
	b.mu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := b.rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	b.mu.Unlock()

	teams := make([]dodgeball.Team, k)
	start := 0
	for i, size := range sizes {
		name := NameFor(i, style)
		members := make([]dodgeball.TeamMemberAssignment, 0, size)
		for _, id := range shuffled[start : start+size] {
			members = append(members, dodgeball.TeamMemberAssignment{
				StudentID: id,
				Position:  dodgeball.PositionInfield,
			})
		}
		teams[i] = dodgeball.Team{
			ID:      slug.Make(name),
			Name:    name,
			Color:   ColorFor(i).Hex,
			Members: members,
		}
		start += size
	}
	return teams, nil
}
