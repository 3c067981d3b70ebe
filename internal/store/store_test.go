package store_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/geunssam/dodgeballhub/internal/database"
	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/store"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{store.StudentKey("s1"), "students/s1"},
		{store.BadgesKey("s1"), "badges/s1"},
		{store.MatchKey("m1"), "matches/m1"},
		{store.MigrationKey("outs-to-hits-v1"), "migrations/outs-to-hits-v1"},
		{store.RecordKey("m1", "s1"), "records/m1/s1"},
		{store.IDFromKey(store.PrefixStudents, "students/s1"), "s1"},
		{store.IDFromKey(store.PrefixStudents, "badges/s1"), "badges/s1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// exercise runs the same contract against any Store.
func exercise(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	var got doc
	if err := st.Get(ctx, "students/missing", &got); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	for _, k := range []string{"students/b", "students/a", "badges/a", "studentsx"} {
		if err := st.Set(ctx, k, doc{Name: k, Count: 1}); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := st.Set(ctx, "students/a", doc{Name: "a", Count: 2}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	if err := st.Get(ctx, "students/a", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != (doc{Name: "a", Count: 2}) {
		t.Errorf("got %+v", got)
	}

	keys, err := st.Keys(ctx, store.PrefixStudents)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if want := []string{"students/a", "students/b"}; !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestDocStore(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	if err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	st := store.NewDocStore(db)
	exercise(t, st)

	ctx := context.Background()
	if err := st.Delete(ctx, "students/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := st.Delete(ctx, "students/a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
	if err := st.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	ns := "dodgeballhub-test:" + t.Name() + ":"
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, ns+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	})

	exercise(t, store.NewRedisStore(client, ns))
}
