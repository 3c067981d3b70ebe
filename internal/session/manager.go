// Package session runs live matches: one scheduler loop per match, the live
// counters the presentation layer reports, debounced snapshot persistence and
// the end-of-match hand-off to the progress recorder.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/match"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/stats"
	"github.com/geunssam/dodgeballhub/internal/store"
)

const DefaultDebounce = 2 * time.Second

var (
	ErrInvalidTeams    = errors.New("a match needs exactly two teams")
	ErrDuplicatePlayer = errors.New("student appears in more than one team")
	ErrUnknownPlayer   = errors.New("student is not in this match")
	ErrUnknownStudent  = errors.New("student is not registered")
	ErrInvalidEvent    = errors.New("unknown event kind")
	ErrUnknownMode     = errors.New("unknown start mode")
)

// StartRequest starts a match from a stored preset (Mode) or an explicit one.
type StartRequest struct {
	Mode   dodgeball.Mode    `json:"mode,omitempty"`
	Preset *dodgeball.Preset `json:"preset,omitempty"`
	Teams  []dodgeball.Team  `json:"teams"`
}

type Manager struct {
	// snapshots holds live session documents; docs holds everything durable.
	snapshots store.Store
	docs      store.Store
	progress  *progress.Recorder
	publisher Publisher
	defaults  dodgeball.Settings
	clock     clockwork.Clock
	debounce  time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	live map[string]*liveMatch
}

type Option func(*Manager)

func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithSnapshotStore keeps live session snapshots in st instead of the
// durable document store.
func WithSnapshotStore(st store.Store) Option {
	return func(m *Manager) { m.snapshots = st }
}

func NewManager(docs store.Store, rec *progress.Recorder, defaults dodgeball.Settings, logger *slog.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		snapshots: docs,
		docs:      docs,
		progress:  rec,
		publisher: nopPublisher{},
		defaults:  defaults,
		clock:     clockwork.NewRealClock(),
		debounce:  DefaultDebounce,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		live:      make(map[string]*liveMatch),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Start(ctx context.Context, req StartRequest) (dodgeball.MatchSession, error) {
	preset, err := m.resolvePreset(ctx, req)
	if err != nil {
		return dodgeball.MatchSession{}, err
	}
	if len(req.Teams) != 2 {
		return dodgeball.MatchSession{}, fmt.Errorf("%w: got %d", ErrInvalidTeams, len(req.Teams))
	}

	s := dodgeball.MatchSession{
		ID:             uuid.NewString(),
		Mode:           req.Mode,
		Duration:       preset.Duration,
		RemainingTime:  preset.Duration,
		BallAdditions:  append([]dodgeball.BallAddition{}, preset.BallAdditions...),
		FiredAdditions: []int{},
		CurrentBalls:   preset.InitialBalls,
		Teams:          make([]dodgeball.Team, len(req.Teams)),
		Counters:       make(map[string]dodgeball.PlayerCounters),
		StartedAt:      m.clock.Now().UTC(),
	}
	for i, t := range req.Teams {
		t.Members = append([]dodgeball.TeamMemberAssignment(nil), t.Members...)
		for j := range t.Members {
			mem := &t.Members[j]
			if _, dup := s.Counters[mem.StudentID]; dup {
				return dodgeball.MatchSession{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, mem.StudentID)
			}
			s.Counters[mem.StudentID] = dodgeball.PlayerCounters{}
			mem.CurrentLives = preset.InitialLives
			if mem.Position == "" {
				mem.Position = dodgeball.PositionInfield
			}
		}
		s.Teams[i] = t
	}
	if err := m.checkRoster(ctx, s.Counters); err != nil {
		return dodgeball.MatchSession{}, err
	}

	lm, err := m.newLive(s)
	if err != nil {
		return dodgeball.MatchSession{}, err
	}
	if err := m.snapshots.Set(ctx, store.MatchKey(s.ID), s); err != nil {
		return dodgeball.MatchSession{}, fmt.Errorf("saving match: %w", err)
	}
	m.launch(lm)

	m.logger.Info("match started", "match", s.ID, "duration", s.Duration, "players", len(s.Counters))
	return s.Clone(), nil
}

// checkRoster makes sure every player is a registered student, so the match
// can be recorded when it ends.
func (m *Manager) checkRoster(ctx context.Context, players map[string]dodgeball.PlayerCounters) error {
	for id := range players {
		if _, err := m.progress.Student(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownStudent, id)
			}
			return fmt.Errorf("loading student %s: %w", id, err)
		}
	}
	return nil
}

func (m *Manager) resolvePreset(ctx context.Context, req StartRequest) (dodgeball.Preset, error) {
	var preset dodgeball.Preset
	if req.Preset != nil {
		preset = *req.Preset
	} else {
		settings, err := m.Settings(ctx)
		if err != nil {
			return preset, err
		}
		p, ok := settings.Preset(req.Mode)
		if !ok {
			return preset, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
		}
		preset = p
	}
	return preset, ValidatePreset(preset)
}

// Resume brings a persisted match back to life after a reload or restart. A
// match that ended but was never recorded is finalized now.
func (m *Manager) Resume(ctx context.Context, id string) (dodgeball.MatchSession, error) {
	lm, err := m.lookup(ctx, id)
	if errors.Is(err, match.ErrMatchCompleted) {
		return m.Get(ctx, id)
	}
	if err != nil {
		return dodgeball.MatchSession{}, err
	}
	return lm.snapshot(), nil
}

// lookup returns the live match for id, rehydrating it from its snapshot if
// needed. It returns match.ErrMatchCompleted for a finished match.
func (m *Manager) lookup(ctx context.Context, id string) (*liveMatch, error) {
	m.mu.Lock()
	lm, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return lm, nil
	}

	var s dodgeball.MatchSession
	if err := m.snapshots.Get(ctx, store.MatchKey(id), &s); err != nil {
		return nil, err
	}
	if s.Counters == nil {
		s.Counters = make(map[string]dodgeball.PlayerCounters)
	}

	if s.IsCompleted {
		if !s.IsRecorded {
			lm, err := m.newLive(s)
			if err != nil {
				return nil, err
			}
			lm.finalize(ctx)
		}
		return nil, match.ErrMatchCompleted
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have won the race.
	if lm, ok := m.live[id]; ok {
		return lm, nil
	}
	lm, err := m.newLive(s)
	if err != nil {
		return nil, err
	}
	m.launchLocked(lm)
	m.logger.Info("match resumed", "match", id, "remaining", s.RemainingTime, "paused", s.IsPaused)
	return lm, nil
}

func (m *Manager) launch(lm *liveMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launchLocked(lm)
}

func (m *Manager) launchLocked(lm *liveMatch) {
	m.live[lm.id] = lm
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := lm.sched.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("match loop", "match", lm.id, "error", err)
		}
		if lm.sched.State().Completed {
			m.mu.Lock()
			delete(m.live, lm.id)
			m.mu.Unlock()
		}
	}()
}

// Get returns the current snapshot of a match, live or persisted.
func (m *Manager) Get(ctx context.Context, id string) (dodgeball.MatchSession, error) {
	m.mu.Lock()
	lm, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return lm.snapshot(), nil
	}
	var s dodgeball.MatchSession
	if err := m.snapshots.Get(ctx, store.MatchKey(id), &s); err != nil {
		return dodgeball.MatchSession{}, err
	}
	return s, nil
}

func (m *Manager) Pause(ctx context.Context, id string) (dodgeball.MatchSession, error) {
	return m.control(ctx, id, func(s *match.Scheduler) error { return s.Pause() })
}

func (m *Manager) Unpause(ctx context.Context, id string) (dodgeball.MatchSession, error) {
	return m.control(ctx, id, func(s *match.Scheduler) error { return s.Resume() })
}

func (m *Manager) Toggle(ctx context.Context, id string) (dodgeball.MatchSession, error) {
	return m.control(ctx, id, func(s *match.Scheduler) error {
		_, err := s.Toggle()
		return err
	})
}

func (m *Manager) control(ctx context.Context, id string, fn func(*match.Scheduler) error) (dodgeball.MatchSession, error) {
	lm, err := m.lookup(ctx, id)
	if err != nil {
		return dodgeball.MatchSession{}, err
	}
	if err := fn(lm.sched); err != nil {
		return dodgeball.MatchSession{}, err
	}
	return lm.snapshot(), nil
}

// Score records one hit, pass, sacrifice or cookie for a player.
func (m *Manager) Score(ctx context.Context, id, studentID string, kind dodgeball.EventKind) (dodgeball.PlayerCounters, error) {
	if !kind.Valid() {
		return dodgeball.PlayerCounters{}, fmt.Errorf("%w: %q", ErrInvalidEvent, kind)
	}
	lm, err := m.lookup(ctx, id)
	if err != nil {
		return dodgeball.PlayerCounters{}, err
	}
	return lm.score(studentID, kind)
}

// Eliminate takes one life from a player. Lives never drop below zero and a
// player with none left moves to the outfield.
func (m *Manager) Eliminate(ctx context.Context, id, studentID string) (dodgeball.TeamMemberAssignment, error) {
	lm, err := m.lookup(ctx, id)
	if err != nil {
		return dodgeball.TeamMemberAssignment{}, err
	}
	return lm.eliminate(studentID)
}

// Close stops every match loop and writes out pending snapshots.
func (m *Manager) Close(ctx context.Context) error {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	live := make([]*liveMatch, 0, len(m.live))
	for _, lm := range m.live {
		live = append(live, lm)
	}
	m.mu.Unlock()

	var errs []error
	for _, lm := range live {
		lm.writer.Stop()
		if err := lm.writer.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing match %s: %w", lm.id, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) newLive(s dodgeball.MatchSession) (*liveMatch, error) {
	lm := &liveMatch{m: m, id: s.ID, session: s}
	lm.writer = match.NewCoalescer(m.clock, m.debounce, m.logger,
		func(ctx context.Context, snap dodgeball.MatchSession) error {
			return m.snapshots.Set(ctx, store.MatchKey(snap.ID), snap)
		})

	remaining := s.RemainingTime
	sched, err := match.NewScheduler(match.Config{
		Duration:      s.Duration,
		BallAdditions: s.BallAdditions,
		InitialTime:   &remaining,
		InitialPaused: s.IsPaused,
		Fired:         s.FiredAdditions,
		Completed:     s.IsCompleted,
	}, lm, match.WithClock(m.clock), match.WithSink(match.SinkFunc(lm.applyState)))
	if err != nil {
		return nil, err
	}
	lm.sched = sched
	return lm, nil
}

// finalizeRecords turns the counters into match records, stores them and
// folds them into student progress.
func (m *Manager) finalizeRecords(ctx context.Context, s dodgeball.MatchSession) ([]progress.Result, error) {
	at := s.StartedAt
	if s.EndedAt != nil {
		at = *s.EndedAt
	}
	recs := stats.Records(s.ID, s.Counters, at)
	for _, rec := range recs {
		if err := m.docs.Set(ctx, store.RecordKey(rec.MatchID, rec.StudentID), rec); err != nil {
			return nil, fmt.Errorf("saving match record: %w", err)
		}
	}
	return m.progress.Apply(ctx, recs)
}
