package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geunssam/dodgeballhub/internal/store"
)

const (
	StateDone    = "done"
	StatePartial = "partial"
)

// Transform rewrites one document in place and reports whether it changed.
// It must be safe to run again on its own output.
type Transform func(ctx context.Context, key string, doc map[string]any) (changed bool, err error)

// Migration is a named, versioned data transform over every document whose
// key starts with Prefix.
type Migration struct {
	Name      string
	Prefix    string
	Transform Transform
}

// Status is the completion marker stored at migrations/<name>. A partial
// marker lists the keys that failed so the next run retries only those.
type Status struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Updated     int       `json:"updated"`
	Failed      []string  `json:"failed,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

type Failure struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

type Report struct {
	Name     string    `json:"name"`
	Skipped  bool      `json:"skipped"`
	Scanned  int       `json:"scanned"`
	Updated  int       `json:"updated"`
	Failures []Failure `json:"failures,omitempty"`
}

type Runner struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(st store.Store, logger *slog.Logger) *Runner {
	return &Runner{store: st, logger: logger, now: time.Now}
}

// Run applies each migration in order. Per-document failures are collected in
// the report and never abort the batch; the returned error covers only the
// store itself failing to list keys or record the marker.
func (r *Runner) Run(ctx context.Context, ms ...Migration) ([]Report, error) {
	reports := make([]Report, 0, len(ms))
	for _, m := range ms {
		rep, err := r.run(ctx, m)
		if err != nil {
			return reports, fmt.Errorf("migration %s: %w", m.Name, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (r *Runner) run(ctx context.Context, m Migration) (Report, error) {
	rep := Report{Name: m.Name}

	var status Status
	err := r.store.Get(ctx, store.MigrationKey(m.Name), &status)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return rep, fmt.Errorf("reading marker: %w", err)
	case status.State == StateDone:
		rep.Skipped = true
		return rep, nil
	}

	keys := status.Failed
	if status.State != StatePartial {
		keys, err = r.store.Keys(ctx, m.Prefix)
		if err != nil {
			return rep, err
		}
	}

	var failed []string
	for _, key := range keys {
		rep.Scanned++
		changed, err := r.apply(ctx, m, key)
		if err != nil {
			r.logger.Warn("migration entity failed", "migration", m.Name, "key", key, "error", err)
			rep.Failures = append(rep.Failures, Failure{Key: key, Err: err.Error()})
			failed = append(failed, key)
			continue
		}
		if changed {
			rep.Updated++
		}
	}

	next := Status{
		Name:        m.Name,
		State:       StateDone,
		Updated:     status.Updated + rep.Updated,
		CompletedAt: r.now().UTC(),
	}
	if len(failed) > 0 {
		next.State = StatePartial
		next.Failed = failed
	}
	if err := r.store.Set(ctx, store.MigrationKey(m.Name), next); err != nil {
		return rep, fmt.Errorf("writing marker: %w", err)
	}

	r.logger.Info("migration finished",
		"migration", m.Name,
		"state", next.State,
		"scanned", rep.Scanned,
		"updated", rep.Updated,
		"failed", len(failed),
	)
	return rep, nil
}

func (r *Runner) apply(ctx context.Context, m Migration, key string) (bool, error) {
	var doc map[string]any
	if err := r.store.Get(ctx, key, &doc); err != nil {
		return false, err
	}
	if doc == nil {
		return false, fmt.Errorf("document is not an object")
	}
	changed, err := m.Transform(ctx, key, doc)
	if err != nil || !changed {
		return false, err
	}
	if err := r.store.Set(ctx, key, doc); err != nil {
		return false, err
	}
	return true, nil
}
