// Package progress persists cumulative student statistics and badges. It is
// the only writer of students/<id> and badges/<id>.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geunssam/dodgeballhub/internal/badges"
	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/stats"
	"github.com/geunssam/dodgeballhub/internal/store"
)

var ErrInvalidName = errors.New("student name is required")

// Result is the outcome of applying one match record.
type Result struct {
	StudentID string            `json:"studentId"`
	Stats     dodgeball.Stats   `json:"stats"`
	Folded    bool              `json:"folded"`
	NewBadges []dodgeball.Badge `json:"newBadges,omitempty"`
}

type Recorder struct {
	store   store.Store
	catalog badges.Catalog
	logger  *slog.Logger
	now     func() time.Time

	// mu serializes read-modify-write cycles on student documents.
	mu sync.Mutex
}

type Option func(*Recorder)

func WithNow(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(st store.Store, catalog badges.Catalog, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{store: st, catalog: catalog, logger: logger, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Recorder) Catalog() badges.Catalog { return r.catalog }

// Apply folds each record into its student's stats unless that match was
// already applied, then awards any newly earned badges. A failing student does
// not stop the others; all failures are joined into the returned error.
func (r *Recorder) Apply(ctx context.Context, recs []dodgeball.MatchRecord) ([]Result, error) {
	results := make([]Result, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		res, err := r.applyOne(ctx, rec)
		if err != nil {
			r.logger.Error("applying match record",
				"match", rec.MatchID, "student", rec.StudentID, "error", err)
			errs = append(errs, fmt.Errorf("student %s: %w", rec.StudentID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Recorder) applyOne(ctx context.Context, rec dodgeball.MatchRecord) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.loadStudent(ctx, rec.StudentID)
	if err != nil {
		return Result{}, err
	}

	res := Result{StudentID: s.ID, Stats: s.Stats}
	if !s.HasApplied(rec.MatchID) {
		s.Stats = stats.Fold(s.Stats, rec)
		s.AppliedMatches = append(s.AppliedMatches, rec.MatchID)
		if err := r.store.Set(ctx, store.StudentKey(s.ID), s); err != nil {
			return Result{}, fmt.Errorf("saving student: %w", err)
		}
		res.Stats = s.Stats
		res.Folded = true
	}

	newly, err := r.award(ctx, s)
	if err != nil {
		return res, err
	}
	res.NewBadges = newly
	return res, nil
}

// award persists the union of recorded and eligible badges for s.
func (r *Recorder) award(ctx context.Context, s dodgeball.Student) ([]dodgeball.Badge, error) {
	current, err := r.loadBadges(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	all, newly := badges.Award(s.Stats, r.catalog, current.Badges, r.now().UTC())
	if len(newly) == 0 {
		return nil, nil
	}
	current.Badges = all
	if err := r.store.Set(ctx, store.BadgesKey(s.ID), current); err != nil {
		return nil, fmt.Errorf("saving badges: %w", err)
	}
	return newly, nil
}

// Reconcile re-evaluates badges for every student and returns the badges
// awarded by this pass, keyed by student id.
func (r *Recorder) Reconcile(ctx context.Context) (map[string][]dodgeball.Badge, error) {
	keys, err := r.store.Keys(ctx, store.PrefixStudents)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}

	awarded := make(map[string][]dodgeball.Badge)
	var errs []error
	for _, key := range keys {
		id := store.IDFromKey(store.PrefixStudents, key)
		newly, err := r.reconcileOne(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("student %s: %w", id, err))
			continue
		}
		if len(newly) > 0 {
			awarded[id] = newly
		}
	}
	if len(awarded) > 0 {
		r.logger.Info("badge reconcile awarded badges", "students", len(awarded))
	}
	return awarded, errors.Join(errs...)
}

func (r *Recorder) reconcileOne(ctx context.Context, id string) ([]dodgeball.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.loadStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.award(ctx, s)
}

func (r *Recorder) CreateStudent(ctx context.Context, name string) (dodgeball.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dodgeball.Student{}, ErrInvalidName
	}
	s := dodgeball.Student{
		ID:             uuid.NewString(),
		Name:           name,
		Stats:          stats.Normalize(dodgeball.Stats{}),
		AppliedMatches: []string{},
		CreatedAt:      r.now().UTC().Format(time.RFC3339),
	}
	if err := r.store.Set(ctx, store.StudentKey(s.ID), s); err != nil {
		return dodgeball.Student{}, fmt.Errorf("creating student: %w", err)
	}
	return s, nil
}

// Student returns the student with stats normalized, or store.ErrNotFound.
func (r *Recorder) Student(ctx context.Context, id string) (dodgeball.Student, error) {
	return r.loadStudent(ctx, id)
}

// Students returns every student ordered by name.
func (r *Recorder) Students(ctx context.Context) ([]dodgeball.Student, error) {
	keys, err := r.store.Keys(ctx, store.PrefixStudents)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	out := make([]dodgeball.Student, 0, len(keys))
	for _, key := range keys {
		s, err := r.loadStudent(ctx, store.IDFromKey(store.PrefixStudents, key))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Badges returns the student's earned badges in display order.
func (r *Recorder) Badges(ctx context.Context, id string) ([]dodgeball.Badge, error) {
	if _, err := r.loadStudent(ctx, id); err != nil {
		return nil, err
	}
	sb, err := r.loadBadges(ctx, id)
	if err != nil {
		return nil, err
	}
	badges.SortForDisplay(sb.Badges)
	return sb.Badges, nil
}

// loadStudent reads a student document of unknown provenance. Stats are
// decoded loosely so malformed counters become 0.
func (r *Recorder) loadStudent(ctx context.Context, id string) (dodgeball.Student, error) {
	var doc struct {
		ID             string         `json:"id"`
		Name           string         `json:"name"`
		Stats          map[string]any `json:"stats"`
		AppliedMatches []string       `json:"appliedMatches"`
		CreatedAt      string         `json:"createdAt"`
	}
	if err := r.store.Get(ctx, store.StudentKey(id), &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dodgeball.Student{}, err
		}
		return dodgeball.Student{}, fmt.Errorf("loading student: %w", err)
	}
	s := dodgeball.Student{
		ID:             id,
		Name:           doc.Name,
		Stats:          stats.FromDocument(doc.Stats),
		AppliedMatches: doc.AppliedMatches,
		CreatedAt:      doc.CreatedAt,
	}
	if s.AppliedMatches == nil {
		s.AppliedMatches = []string{}
	}
	return s, nil
}

func (r *Recorder) loadBadges(ctx context.Context, id string) (dodgeball.StudentBadges, error) {
	sb := dodgeball.StudentBadges{StudentID: id}
	err := r.store.Get(ctx, store.BadgesKey(id), &sb)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return sb, fmt.Errorf("loading badges: %w", err)
	}
	sb.StudentID = id
	if sb.Badges == nil {
		sb.Badges = []dodgeball.Badge{}
	}
	return sb, nil
}
