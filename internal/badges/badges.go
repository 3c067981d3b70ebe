// Package badges evaluates a student's cumulative stats against the badge
// catalog. Evaluation is a pure function of stats, catalog and the badges
// already recorded; earned badges are permanent and are never removed here.
package badges

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

var ErrInvalidCatalog = errors.New("invalid badge catalog")

type Catalog struct {
	Version     string                      `json:"version"`
	Definitions []dodgeball.BadgeDefinition `json:"definitions"`
}

// Validate rejects duplicate ids, unknown metrics and non-positive thresholds.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Definitions))
	for _, d := range c.Definitions {
		if d.ID == "" {
			return fmt.Errorf("%w: definition without id", ErrInvalidCatalog)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, d.ID)
		}
		seen[d.ID] = true
		if _, ok := d.Metric.Value(dodgeball.Stats{}); !ok {
			return fmt.Errorf("%w: %q has unknown metric %q", ErrInvalidCatalog, d.ID, d.Metric)
		}
		if d.Threshold <= 0 {
			return fmt.Errorf("%w: %q has threshold %d", ErrInvalidCatalog, d.ID, d.Threshold)
		}
	}
	return nil
}

// Lookup returns the definition with the given id.
func (c Catalog) Lookup(id string) (dodgeball.BadgeDefinition, bool) {
	for _, d := range c.Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return dodgeball.BadgeDefinition{}, false
}

// Eligible returns the ids of every definition whose metric meets its
// threshold, in catalog order.
func Eligible(s dodgeball.Stats, c Catalog) []string {
	var ids []string
	for _, d := range c.Definitions {
		v, ok := d.Metric.Value(s)
		if ok && v >= d.Threshold {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Award merges eligible badges into the recorded set. It returns the full set
// to persist (recorded badges first, never dropped) and the newly earned ones.
func Award(s dodgeball.Stats, c Catalog, recorded []dodgeball.Badge, now time.Time) (all, newly []dodgeball.Badge) {
	have := make(map[string]bool, len(recorded))
	all = make([]dodgeball.Badge, 0, len(recorded))
	for _, b := range recorded {
		if have[b.ID] {
			continue
		}
		have[b.ID] = true
		all = append(all, b)
	}

	for _, id := range Eligible(s, c) {
		if have[id] {
			continue
		}
		d, _ := c.Lookup(id)
		v, _ := d.Metric.Value(s)
		b := dodgeball.Badge{
			ID:          d.ID,
			Tier:        d.Tier,
			Emoji:       d.Emoji,
			Name:        d.Name,
			Description: d.Description,
			Reason:      fmt.Sprintf("%s reached %d", d.Metric, v),
			EarnedAt:    now,
		}
		have[id] = true
		all = append(all, b)
		newly = append(newly, b)
	}
	return all, newly
}

// SortForDisplay orders badges by tier, then by id.
func SortForDisplay(bs []dodgeball.Badge) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Tier != bs[j].Tier {
			return bs[i].Tier < bs[j].Tier
		}
		return bs[i].ID < bs[j].ID
	})
}
