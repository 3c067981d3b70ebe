package migrations_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/geunssam/dodgeballhub/internal/badges"
	"github.com/geunssam/dodgeballhub/internal/database"
	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/store"
)

func openStore(t *testing.T) *store.DocStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store.NewDocStore(db)
}

func TestSchema(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	for run := 1; run <= 2; run++ {
		if err := migrations.Run(ctx, db); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		v, err := migrations.SchemaVersion(ctx, db)
		if err != nil {
			t.Fatalf("run %d: SchemaVersion: %v", run, err)
		}
		if v != 2 {
			t.Errorf("run %d: schema version = %d, want 2", run, v)
		}
	}

	for _, want := range []struct{ typ, name string }{
		{"table", "documents"},
		{"index", "documents_updated_at"},
	} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type=? AND name=?", want.typ, want.name,
		).Scan(&name)
		if err != nil {
			t.Errorf("%s %s not found: %v", want.typ, want.name, err)
		}
	}
}

func put(t *testing.T, st store.Store, key string, doc any) {
	t.Helper()
	if err := st.Set(context.Background(), key, doc); err != nil {
		t.Fatalf("Set(%s): %v", key, err)
	}
}

func getDoc(t *testing.T, st store.Store, key string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := st.Get(context.Background(), key, &doc); err != nil {
		t.Fatalf("Get(%s): %v", key, err)
	}
	return doc
}

func TestOutsToHits(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	put(t, st, store.StudentKey("a"), map[string]any{
		"id": "a", "stats": map[string]any{"outs": 7, "passes": 2, "totalScore": 999},
	})
	put(t, st, store.StudentKey("b"), map[string]any{
		"id": "b", "stats": map[string]any{"outs": 3, "hits": 5},
	})
	put(t, st, store.StudentKey("c"), map[string]any{
		"id": "c", "stats": map[string]any{"hits": 4},
	})

	r := migrations.NewRunner(st, slog.Default())
	reports, err := r.Run(ctx, migrations.OutsToHits())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := reports[0]; got.Scanned != 3 || got.Updated != 2 || len(got.Failures) != 0 {
		t.Fatalf("report = %+v", got)
	}

	tests := []struct {
		key   string
		hits  float64
		total float64
	}{
		{store.StudentKey("a"), 7, 9},
		{store.StudentKey("b"), 5, 5},
	}
	for _, tt := range tests {
		s := getDoc(t, st, tt.key)["stats"].(map[string]any)
		if _, ok := s["outs"]; ok {
			t.Errorf("%s: outs still present", tt.key)
		}
		if s["hits"] != tt.hits || s["totalScore"] != tt.total {
			t.Errorf("%s: stats = %v", tt.key, s)
		}
	}

	// Marker short-circuits a second run.
	reports, err = r.Run(ctx, migrations.OutsToHits())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !reports[0].Skipped || reports[0].Updated != 0 {
		t.Errorf("second report = %+v", reports[0])
	}

	// Without the marker the transform itself finds nothing to do.
	if err := st.Delete(ctx, store.MigrationKey("outs-to-hits-v1")); err != nil {
		t.Fatalf("Delete marker: %v", err)
	}
	reports, err = r.Run(ctx, migrations.OutsToHits())
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if reports[0].Skipped || reports[0].Updated != 0 {
		t.Errorf("third report = %+v", reports[0])
	}
}

func TestPartialFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	put(t, st, store.StudentKey("good"), map[string]any{"stats": map[string]any{"outs": 1}})
	put(t, st, store.StudentKey("bad"), map[string]any{"stats": "garbage"})

	r := migrations.NewRunner(st, slog.Default())
	reports, err := r.Run(ctx, migrations.OutsToHits())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rep := reports[0]
	if rep.Updated != 1 || len(rep.Failures) != 1 || rep.Failures[0].Key != store.StudentKey("bad") {
		t.Fatalf("report = %+v", rep)
	}

	var marker migrations.Status
	if err := st.Get(ctx, store.MigrationKey("outs-to-hits-v1"), &marker); err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	if marker.State != migrations.StatePartial || len(marker.Failed) != 1 {
		t.Fatalf("marker = %+v", marker)
	}

	put(t, st, store.StudentKey("bad"), map[string]any{"stats": map[string]any{"outs": 2}})
	reports, err = r.Run(ctx, migrations.OutsToHits())
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if rep := reports[0]; rep.Scanned != 1 || rep.Updated != 1 || len(rep.Failures) != 0 {
		t.Errorf("retry report = %+v", rep)
	}
	if err := st.Get(ctx, store.MigrationKey("outs-to-hits-v1"), &marker); err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	if marker.State != migrations.StateDone || marker.Updated != 2 {
		t.Errorf("marker = %+v", marker)
	}
}

func TestBadgesFromStats(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	now := func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	put(t, st, store.StudentKey("a"), map[string]any{
		"id":    "a",
		"stats": map[string]any{"hits": 12, "gamesPlayed": 1},
		"badges": []any{
			map[string]any{"id": "legacy-star", "tier": "special", "name": "Star"},
		},
	})
	put(t, st, store.StudentKey("b"), map[string]any{
		"id":    "b",
		"stats": map[string]any{},
	})

	r := migrations.NewRunner(st, slog.Default())
	m := migrations.BadgesFromStats(st, badges.Default(), now)
	reports, err := r.Run(ctx, m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reports[0].Failures) != 0 {
		t.Fatalf("failures = %+v", reports[0].Failures)
	}

	if _, ok := getDoc(t, st, store.StudentKey("a"))["badges"]; ok {
		t.Error("embedded badges not removed")
	}

	var got dodgeball.StudentBadges
	if err := st.Get(ctx, store.BadgesKey("a"), &got); err != nil {
		t.Fatalf("reading badges: %v", err)
	}
	for _, id := range []string{"legacy-star", "hits-beginner", "games-first"} {
		if !got.Has(id) {
			t.Errorf("missing badge %s in %+v", id, got.Badges)
		}
	}
	if got.Has("hits-skilled") {
		t.Error("awarded hits-skilled below threshold")
	}

	if err := st.Get(ctx, store.BadgesKey("b"), &got); err == nil {
		t.Errorf("student without badges got a badges document: %+v", got)
	}

	// Running the transform again adds nothing.
	if err := st.Delete(ctx, store.MigrationKey(m.Name)); err != nil {
		t.Fatal(err)
	}
	reports, err = r.Run(ctx, m)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if reports[0].Updated != 0 {
		t.Errorf("second run updated %d", reports[0].Updated)
	}
	var again dodgeball.StudentBadges
	if err := st.Get(ctx, store.BadgesKey("a"), &again); err != nil {
		t.Fatal(err)
	}
	if len(again.Badges) != len(got.Badges) {
		t.Errorf("badges changed on re-run: %d -> %d", len(got.Badges), len(again.Badges))
	}
}
