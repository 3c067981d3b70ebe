// Package match drives the countdown of a live match: one-second ticks,
// scheduled ball additions, the imminent-end window and the end trigger.
package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

// ImminentWindow is the number of final seconds that emit OnImminentEnd.
const ImminentWindow = 10

var (
	ErrMatchCompleted  = errors.New("match already completed")
	ErrInvalidDuration = errors.New("invalid match duration")
)

// Listener receives scheduler notifications. Calls are synchronous and made
// in order, outside the scheduler's lock.
type Listener interface {
	OnBallAddition(index int, addition dodgeball.BallAddition)
	OnImminentEnd(remaining int)
	OnMatchEnd()
	OnTimeUpdate(remaining int, paused bool)
}

// NopListener can be embedded to implement only some notifications.
type NopListener struct{}

func (NopListener) OnBallAddition(int, dodgeball.BallAddition) {}
func (NopListener) OnImminentEnd(int)                          {}
func (NopListener) OnMatchEnd()                                {}
func (NopListener) OnTimeUpdate(int, bool)                     {}

// State is a point-in-time view of the scheduler.
type State struct {
	Remaining int   `json:"remaining"`
	Paused    bool  `json:"paused"`
	Completed bool  `json:"completed"`
	Fired     []int `json:"fired"`
}

// Sink receives every change of (remaining, paused). It must not block;
// a Coalescer is the usual implementation.
type Sink interface {
	Offer(State)
}

type SinkFunc func(State)

func (f SinkFunc) Offer(s State) { f(s) }

type Config struct {
	Duration      int
	BallAdditions []dodgeball.BallAddition
	// Resume support.
	InitialTime   *int
	InitialPaused bool
	Fired         []int
	Completed     bool
}

type Scheduler struct {
	clock    clockwork.Clock
	listener Listener
	sink     Sink

	mu        sync.Mutex
	duration  int
	remaining int
	paused    bool
	completed bool
	additions []dodgeball.BallAddition
	fired     []bool
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithSink(sink Sink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

func NewScheduler(cfg Config, l Listener, opts ...Option) (*Scheduler, error) {
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, cfg.Duration)
	}
	if l == nil {
		l = NopListener{}
	}

	s := &Scheduler{
		clock:     clockwork.NewRealClock(),
		listener:  l,
		duration:  cfg.Duration,
		remaining: cfg.Duration,
		paused:    cfg.InitialPaused,
		completed: cfg.Completed,
		additions: slices.Clone(cfg.BallAdditions),
		fired:     make([]bool, len(cfg.BallAdditions)),
	}
	if cfg.InitialTime != nil {
		s.remaining = min(max(*cfg.InitialTime, 0), cfg.Duration)
	}
	for _, i := range cfg.Fired {
		if i >= 0 && i < len(s.fired) {
			s.fired[i] = true
		}
	}
	if s.remaining == 0 {
		s.completed = true
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// trigger is the remaining time at which addition i fires.
func (s *Scheduler) trigger(i int) int {
	return s.additions[i].MinutesBefore * 60
}

// due reports whether addition i should fire at the current remaining time.
// Triggers at or above the duration and negative triggers never fire.
func (s *Scheduler) due(i int) bool {
	t := s.trigger(i)
	return !s.fired[i] && t >= 0 && t < s.duration && t >= s.remaining
}

type note struct {
	kind     int
	index    int
	addition dodgeball.BallAddition
	value    int
	paused   bool
}

const (
	noteTime = iota
	noteBall
	noteImminent
	noteEnd
)

// Tick advances the clock by one second. It is a no-op while paused or once
// completed.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if s.paused || s.completed {
		s.mu.Unlock()
		return
	}

	s.remaining = max(s.remaining-1, 0)
	notes := []note{{kind: noteTime, value: s.remaining, paused: s.paused}}

	if s.remaining == 0 {
		// Everything still due goes out before the end.
		for i := range s.additions {
			if s.due(i) {
				s.fired[i] = true
				notes = append(notes, note{kind: noteBall, index: i, addition: s.additions[i]})
			}
		}
		s.completed = true
		notes = append(notes, note{kind: noteEnd})
	} else {
		// At most one addition per tick; anything skipped catches up next tick.
		for i := range s.additions {
			if s.due(i) {
				s.fired[i] = true
				notes = append(notes, note{kind: noteBall, index: i, addition: s.additions[i]})
				break
			}
		}
		if s.remaining <= ImminentWindow {
			notes = append(notes, note{kind: noteImminent, value: s.remaining})
		}
	}
	st := s.stateLocked()
	s.mu.Unlock()

	s.offer(st)
	s.dispatch(notes)
}

func (s *Scheduler) Pause() error  { return s.setPaused(true) }
func (s *Scheduler) Resume() error { return s.setPaused(false) }

// Toggle flips the pause state and returns the new value.
func (s *Scheduler) Toggle() (bool, error) {
	return s.updatePaused(func(paused bool) bool { return !paused })
}

func (s *Scheduler) setPaused(p bool) error {
	_, err := s.updatePaused(func(bool) bool { return p })
	return err
}

// updatePaused reads and sets the pause state in one critical section.
func (s *Scheduler) updatePaused(next func(paused bool) bool) (bool, error) {
	s.mu.Lock()
	if s.completed {
		paused := s.paused
		s.mu.Unlock()
		return paused, ErrMatchCompleted
	}
	p := next(s.paused)
	if s.paused == p {
		s.mu.Unlock()
		return p, nil
	}
	s.paused = p
	st := s.stateLocked()
	s.mu.Unlock()

	s.offer(st)
	s.dispatch([]note{{kind: noteTime, value: st.Remaining, paused: p}})
	return p, nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Scheduler) stateLocked() State {
	var fired []int
	for i, f := range s.fired {
		if f {
			fired = append(fired, i)
		}
	}
	return State{
		Remaining: s.remaining,
		Paused:    s.paused,
		Completed: s.completed,
		Fired:     fired,
	}
}

func (s *Scheduler) offer(st State) {
	if s.sink != nil {
		s.sink.Offer(st)
	}
}

func (s *Scheduler) dispatch(notes []note) {
	for _, n := range notes {
		switch n.kind {
		case noteTime:
			s.listener.OnTimeUpdate(n.value, n.paused)
		case noteBall:
			s.listener.OnBallAddition(n.index, n.addition)
		case noteImminent:
			s.listener.OnImminentEnd(n.value)
		case noteEnd:
			s.listener.OnMatchEnd()
		}
	}
}

// Run ticks once per second until the match completes or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.State().Completed {
		return nil
	}

	ticker := s.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.Tick()
			if s.State().Completed {
				return nil
			}
		}
	}
}
