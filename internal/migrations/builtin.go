package migrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geunssam/dodgeballhub/internal/badges"
	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/stats"
	"github.com/geunssam/dodgeballhub/internal/store"
)

// Builtin returns the data migrations in the order they must run.
func Builtin(st store.Store, catalog badges.Catalog, now func() time.Time) []Migration {
	return []Migration{
		OutsToHits(),
		BadgesFromStats(st, catalog, now),
	}
}

func statsObject(doc map[string]any) (map[string]any, error) {
	raw, ok := doc["stats"]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stats is %T, want object", raw)
	}
	return m, nil
}

// OutsToHits renames the legacy stats.outs counter to stats.hits. If both are
// present the larger value is kept so nothing is counted twice. The derived
// total is recomputed, never carried over.
func OutsToHits() Migration {
	return Migration{
		Name:   "outs-to-hits-v1",
		Prefix: store.PrefixStudents,
		Transform: func(_ context.Context, _ string, doc map[string]any) (bool, error) {
			st, err := statsObject(doc)
			if err != nil || st == nil {
				return false, err
			}
			outs, ok := st["outs"]
			if !ok {
				return false, nil
			}

			hits := stats.Int(outs)
			if existing, ok := st["hits"]; ok {
				hits = max(hits, stats.Int(existing))
			}
			st["hits"] = hits
			delete(st, "outs")

			for k, v := range stats.ToDocument(stats.FromDocument(st)) {
				st[k] = v
			}
			return true, nil
		},
	}
}

// BadgesFromStats backfills badges/<id> from each student's current stats and
// moves any legacy embedded badges array there. Recorded badges are only ever
// added to.
func BadgesFromStats(st store.Store, catalog badges.Catalog, now func() time.Time) Migration {
	return Migration{
		Name:   "badges-from-stats-v1",
		Prefix: store.PrefixStudents,
		Transform: func(ctx context.Context, key string, doc map[string]any) (bool, error) {
			id := store.IDFromKey(store.PrefixStudents, key)

			var current dodgeball.StudentBadges
			err := st.Get(ctx, store.BadgesKey(id), &current)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return false, err
			}
			current.StudentID = id

			recorded := current.Badges
			legacy, hasLegacy := doc["badges"]
			if hasLegacy && legacy != nil {
				embedded, err := decodeBadges(legacy)
				if err != nil {
					return false, err
				}
				recorded = append(recorded, embedded...)
			}

			sobj, err := statsObject(doc)
			if err != nil {
				return false, err
			}
			all, _ := badges.Award(stats.FromDocument(sobj), catalog, recorded, now().UTC())

			if len(all) != len(current.Badges) {
				current.Badges = all
				if err := st.Set(ctx, store.BadgesKey(id), current); err != nil {
					return false, err
				}
			}

			if hasLegacy {
				delete(doc, "badges")
				return true, nil
			}
			return false, nil
		},
	}
}

func decodeBadges(v any) ([]dodgeball.Badge, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out []dodgeball.Badge
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding embedded badges: %w", err)
	}
	return out, nil
}
