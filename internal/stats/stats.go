// Package stats folds per-match counters into cumulative student statistics.
// Every function is pure: no function here remembers what it was given.
package stats

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

// Score is the derived total of the four scored counters.
func Score(s dodgeball.Stats) int {
	return s.Hits + s.Passes + s.Sacrifices + s.Cookies
}

// Normalize clamps every counter to zero or above and recomputes TotalScore.
func Normalize(s dodgeball.Stats) dodgeball.Stats {
	s.Hits = max(0, s.Hits)
	s.Passes = max(0, s.Passes)
	s.Sacrifices = max(0, s.Sacrifices)
	s.Cookies = max(0, s.Cookies)
	s.GamesPlayed = max(0, s.GamesPlayed)
	s.TotalScore = Score(s)
	return s
}

// Fold adds one match record to cumulative stats. The caller must make sure
// a record is folded at most once.
func Fold(cum dodgeball.Stats, rec dodgeball.MatchRecord) dodgeball.Stats {
	cum = Normalize(cum)
	cum.Hits += max(0, rec.Hits)
	cum.Passes += max(0, rec.Passes)
	cum.Sacrifices += max(0, rec.Sacrifices)
	cum.Cookies += max(0, rec.Cookies)
	cum.GamesPlayed++
	cum.TotalScore = Score(cum)
	return cum
}

func FoldAll(cum dodgeball.Stats, recs ...dodgeball.MatchRecord) dodgeball.Stats {
	cum = Normalize(cum)
	for _, r := range recs {
		cum = Fold(cum, r)
	}
	return cum
}

// FromDocument builds Stats from a loosely typed document of unknown
// provenance. Missing or malformed counters become 0 and a stored totalScore
// is ignored.
func FromDocument(doc map[string]any) dodgeball.Stats {
	return Normalize(dodgeball.Stats{
		Hits:        Int(doc["hits"]),
		Passes:      Int(doc["passes"]),
		Sacrifices:  Int(doc["sacrifices"]),
		Cookies:     Int(doc["cookies"]),
		GamesPlayed: Int(doc["gamesPlayed"]),
	})
}

// ToDocument is the inverse of FromDocument for a normalized value.
func ToDocument(s dodgeball.Stats) map[string]any {
	s = Normalize(s)
	return map[string]any{
		"hits":        s.Hits,
		"passes":      s.Passes,
		"sacrifices":  s.Sacrifices,
		"cookies":     s.Cookies,
		"gamesPlayed": s.GamesPlayed,
		"totalScore":  s.TotalScore,
	}
}

// Int coerces a decoded JSON value to a non-negative int.
func Int(v any) int {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// Records turns the live counters of a finished match into one record per
// player, ordered by student id.
func Records(matchID string, counters map[string]dodgeball.PlayerCounters, now time.Time) []dodgeball.MatchRecord {
	ids := make([]string, 0, len(counters))
	for id := range counters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recs := make([]dodgeball.MatchRecord, 0, len(ids))
	for _, id := range ids {
		c := counters[id]
		recs = append(recs, dodgeball.MatchRecord{
			MatchID:    matchID,
			StudentID:  id,
			Hits:       max(0, c.Hits),
			Passes:     max(0, c.Passes),
			Sacrifices: max(0, c.Sacrifices),
			Cookies:    max(0, c.Cookies),
			CreatedAt:  now,
		})
	}
	return recs
}
