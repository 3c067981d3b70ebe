// Package dodgeball defines the core domain types shared by the match engine,
// the stats and badge derivation, and the persistence layer.
// It has zero external dependencies.
package dodgeball

import (
	"fmt"
	"strings"
	"time"
)

// Stats holds a student's cumulative counters. TotalScore is derived and is
// only ever set by the stats package.
type Stats struct {
	Hits        int `json:"hits"`
	Passes      int `json:"passes"`
	Sacrifices  int `json:"sacrifices"`
	Cookies     int `json:"cookies"`
	GamesPlayed int `json:"gamesPlayed"`
	TotalScore  int `json:"totalScore"`
}

// MatchRecord is one player's counter delta for one finished match.
type MatchRecord struct {
	MatchID    string    `json:"matchId"`
	StudentID  string    `json:"studentId"`
	Hits       int       `json:"hits"`
	Passes     int       `json:"passes"`
	Sacrifices int       `json:"sacrifices"`
	Cookies    int       `json:"cookies"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stats Stats  `json:"stats"`
	// AppliedMatches lists the matches already folded into Stats.
	AppliedMatches []string `json:"appliedMatches"`
	CreatedAt      string   `json:"createdAt"`
}

// HasApplied reports whether the match has already been folded into Stats.
func (s Student) HasApplied(matchID string) bool {
	for _, id := range s.AppliedMatches {
		if id == matchID {
			return true
		}
	}
	return false
}

type Tier int

const (
	TierBeginner Tier = iota
	TierSkilled
	TierMaster
	TierLegend
	TierSpecial
)

var tierNames = [...]string{"beginner", "skilled", "master", "legend", "special"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(tierNames) {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Metric names a cumulative Stats counter a badge threshold is measured on.
type Metric string

const (
	MetricHits        Metric = "hits"
	MetricPasses      Metric = "passes"
	MetricSacrifices  Metric = "sacrifices"
	MetricCookies     Metric = "cookies"
	MetricGamesPlayed Metric = "gamesPlayed"
	MetricTotalScore  Metric = "totalScore"
)

// Value returns the counter the metric refers to.
func (m Metric) Value(s Stats) (int, bool) {
	switch m {
	case MetricHits:
		return s.Hits, true
	case MetricPasses:
		return s.Passes, true
	case MetricSacrifices:
		return s.Sacrifices, true
	case MetricCookies:
		return s.Cookies, true
	case MetricGamesPlayed:
		return s.GamesPlayed, true
	case MetricTotalScore:
		return s.TotalScore, true
	}
	return 0, false
}

type BadgeDefinition struct {
	ID          string `json:"id"`
	Tier        Tier   `json:"tier"`
	Metric      Metric `json:"metric"`
	Threshold   int    `json:"threshold"`
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Badge struct {
	ID          string    `json:"id"`
	Tier        Tier      `json:"tier"`
	Emoji       string    `json:"emoji"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Reason      string    `json:"reason"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// StudentBadges is the permanent set of badges a student has earned. It is
// stored separately from the student's stats.
type StudentBadges struct {
	StudentID string  `json:"studentId"`
	Badges    []Badge `json:"badges"`
}

// Has reports whether the badge id is already recorded.
func (sb StudentBadges) Has(id string) bool {
	for _, b := range sb.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

type Position string

const (
	PositionInfield  Position = "infield"
	PositionOutfield Position = "outfield"
)

type TeamMemberAssignment struct {
	StudentID    string   `json:"studentId"`
	Position     Position `json:"position"`
	CurrentLives int      `json:"currentLives"`
}

type Team struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Color   string                 `json:"color"`
	Members []TeamMemberAssignment `json:"members"`
}

type BallAddition struct {
	MinutesBefore int `json:"minutesBefore"`
}

// Preset is a quick-start or detailed-start match configuration.
type Preset struct {
	Duration      int            `json:"duration"`
	InitialLives  int            `json:"initialLives"`
	InitialBalls  int            `json:"initialBalls"`
	BallAdditions []BallAddition `json:"ballAdditions"`
}

type Settings struct {
	Quick    Preset `json:"quick"`
	Detailed Preset `json:"detailed"`
}

type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeDetailed Mode = "detailed"
)

// Preset returns the preset for the given start mode.
func (s Settings) Preset(m Mode) (Preset, bool) {
	switch m {
	case ModeQuick:
		return s.Quick, true
	case ModeDetailed:
		return s.Detailed, true
	}
	return Preset{}, false
}

// EventKind is one of the four scored per-player events.
type EventKind string

const (
	EventHit       EventKind = "hit"
	EventPass      EventKind = "pass"
	EventSacrifice EventKind = "sacrifice"
	EventCookie    EventKind = "cookie"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventHit, EventPass, EventSacrifice, EventCookie:
		return true
	}
	return false
}

// PlayerCounters are the live counters of one player during a match.
type PlayerCounters struct {
	Hits       int `json:"hits"`
	Passes     int `json:"passes"`
	Sacrifices int `json:"sacrifices"`
	Cookies    int `json:"cookies"`
}

// Add increments the counter for kind. Unknown kinds are ignored.
func (c *PlayerCounters) Add(kind EventKind) {
	switch kind {
	case EventHit:
		c.Hits++
	case EventPass:
		c.Passes++
	case EventSacrifice:
		c.Sacrifices++
	case EventCookie:
		c.Cookies++
	}
}

type MatchSession struct {
	ID            string         `json:"id"`
	Mode          Mode           `json:"mode,omitempty"`
	Duration      int            `json:"duration"`
	RemainingTime int            `json:"remainingTime"`
	IsPaused      bool           `json:"isPaused"`
	IsCompleted   bool           `json:"isCompleted"`
	IsRecorded    bool           `json:"isRecorded"`
	BallAdditions []BallAddition `json:"ballAdditions"`
	// FiredAdditions holds the indices of BallAdditions that have fired.
	FiredAdditions []int                     `json:"firedAdditions"`
	CurrentBalls   int                       `json:"currentBalls"`
	Teams          []Team                    `json:"teams"`
	Counters       map[string]PlayerCounters `json:"counters"`
	StartedAt      time.Time                 `json:"startedAt"`
	EndedAt        *time.Time                `json:"endedAt,omitempty"`
}

// Member returns the team and member index of a student in the session.
func (m *MatchSession) Member(studentID string) (team, member int, ok bool) {
	for ti := range m.Teams {
		for mi := range m.Teams[ti].Members {
			if m.Teams[ti].Members[mi].StudentID == studentID {
				return ti, mi, true
			}
		}
	}
	return 0, 0, false
}

// Clone returns a deep copy safe to hand to another goroutine.
func (m MatchSession) Clone() MatchSession {
	out := m
	out.BallAdditions = append([]BallAddition(nil), m.BallAdditions...)
	out.FiredAdditions = append([]int(nil), m.FiredAdditions...)
	out.Teams = make([]Team, len(m.Teams))
	for i, t := range m.Teams {
		out.Teams[i] = t
		out.Teams[i].Members = append([]TeamMemberAssignment(nil), t.Members...)
	}
	out.Counters = make(map[string]PlayerCounters, len(m.Counters))
	for k, v := range m.Counters {
		out.Counters[k] = v
	}
	if m.EndedAt != nil {
		t := *m.EndedAt
		out.EndedAt = &t
	}
	return out
}
