package match_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/match"
)

// recorder captures notifications as short strings, in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	ticks  chan int
}

func newRecorder() *recorder { return &recorder{ticks: make(chan int, 1024)} }

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) OnBallAddition(i int, a dodgeball.BallAddition) {
	r.add(fmt.Sprintf("ball:%d", i))
}
func (r *recorder) OnImminentEnd(rem int) { r.add(fmt.Sprintf("imminent:%d", rem)) }
func (r *recorder) OnMatchEnd()           { r.add("end") }
func (r *recorder) OnTimeUpdate(rem int, paused bool) {
	r.ticks <- rem
}

func (r *recorder) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func newScheduler(t *testing.T, cfg match.Config, l match.Listener, opts ...match.Option) *match.Scheduler {
	t.Helper()
	s, err := match.NewScheduler(cfg, l, opts...)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func ticks(s *match.Scheduler, n int) {
	for range n {
		s.Tick()
	}
}

func TestBallAdditionFiresOnce(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{
		Duration:      420,
		BallAdditions: []dodgeball.BallAddition{{MinutesBefore: 3}},
	}, rec)

	ticks(s, 239)
	if n := rec.count("ball"); n != 0 {
		t.Fatalf("fired early: %d", n)
	}
	s.Tick()
	if got := s.State().Remaining; got != 180 {
		t.Fatalf("remaining = %d, want 180", got)
	}
	if n := rec.count("ball:0"); n != 1 {
		t.Fatalf("ball additions at 180 = %d, want 1", n)
	}

	// Pause and resume at the same remaining time: no re-fire.
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	ticks(s, 5)
	if got := s.State().Remaining; got != 180 {
		t.Fatalf("remaining moved while paused: %d", got)
	}
	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	ticks(s, 180)
	if n := rec.count("ball"); n != 1 {
		t.Errorf("ball additions = %d, want 1", n)
	}
	if n := rec.count("end"); n != 1 {
		t.Errorf("ends = %d, want 1", n)
	}
}

func TestResumeDoesNotRefire(t *testing.T) {
	rec := newRecorder()
	at := 180
	s := newScheduler(t, match.Config{
		Duration:      420,
		BallAdditions: []dodgeball.BallAddition{{MinutesBefore: 3}},
		InitialTime:   &at,
		Fired:         []int{0},
	}, rec)
	ticks(s, 10)
	if n := rec.count("ball"); n != 0 {
		t.Errorf("re-fired after resume: %d", n)
	}
}

func TestResumeCatchesUpMissedAddition(t *testing.T) {
	rec := newRecorder()
	at := 100
	s := newScheduler(t, match.Config{
		Duration:      420,
		BallAdditions: []dodgeball.BallAddition{{MinutesBefore: 3}},
		InitialTime:   &at,
	}, rec)
	s.Tick()
	if n := rec.count("ball:0"); n != 1 {
		t.Errorf("missed addition not caught up: %d", n)
	}
	if got := s.State().Fired; !slices.Equal(got, []int{0}) {
		t.Errorf("Fired = %v", got)
	}
}

func TestCompletion(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{Duration: 5}, rec)

	ticks(s, 5)
	st := s.State()
	if st.Remaining != 0 || !st.Completed {
		t.Fatalf("state = %+v", st)
	}
	if n := rec.count("end"); n != 1 {
		t.Fatalf("ends = %d, want 1", n)
	}

	before := len(rec.snapshot())
	tickCount := len(rec.ticks)
	s.Tick()
	if s.State().Remaining != 0 {
		t.Errorf("remaining after 6th tick = %d", s.State().Remaining)
	}
	if len(rec.snapshot()) != before || len(rec.ticks) != tickCount {
		t.Errorf("6th tick produced notifications")
	}

	if err := s.Pause(); !errors.Is(err, match.ErrMatchCompleted) {
		t.Errorf("Pause after end = %v", err)
	}
	if err := s.Resume(); !errors.Is(err, match.ErrMatchCompleted) {
		t.Errorf("Resume after end = %v", err)
	}
}

func TestImminentWindow(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{Duration: 15}, rec)
	ticks(s, 15)

	want := []string{
		"imminent:10", "imminent:9", "imminent:8", "imminent:7", "imminent:6",
		"imminent:5", "imminent:4", "imminent:3", "imminent:2", "imminent:1", "end",
	}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestQuickStartMatch(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{Duration: 420}, rec)

	ticks(s, 419)
	if rec.count("end") != 0 {
		t.Fatal("ended early")
	}
	s.Tick()
	if rec.count("end") != 1 || rec.count("ball") != 0 {
		t.Errorf("events = %v", rec.snapshot())
	}
}

func TestMalformedAdditionsTolerated(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{
		Duration: 300,
		BallAdditions: []dodgeball.BallAddition{
			{MinutesBefore: -1}, // never
			{MinutesBefore: 2},
			{MinutesBefore: 2}, // duplicate
			{MinutesBefore: 5}, // equals duration: never
			{MinutesBefore: 9}, // beyond duration: never
		},
	}, rec)

	ticks(s, 180)
	if got := rec.snapshot(); !slices.Equal(got, []string{"ball:1"}) {
		t.Fatalf("at 120: %v", got)
	}
	s.Tick()
	if got := rec.snapshot(); !slices.Equal(got, []string{"ball:1", "ball:2"}) {
		t.Fatalf("at 119: %v", got)
	}
	ticks(s, 200)
	if n := rec.count("ball"); n != 2 {
		t.Errorf("ball additions = %d, want 2", n)
	}
}

func TestZeroOffsetFiresBeforeEnd(t *testing.T) {
	rec := newRecorder()
	s := newScheduler(t, match.Config{
		Duration:      3,
		BallAdditions: []dodgeball.BallAddition{{MinutesBefore: 0}},
	}, rec)
	ticks(s, 3)
	want := []string{"imminent:2", "imminent:1", "ball:0", "end"}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestInvalidDuration(t *testing.T) {
	for _, d := range []int{0, -5} {
		if _, err := match.NewScheduler(match.Config{Duration: d}, nil); !errors.Is(err, match.ErrInvalidDuration) {
			t.Errorf("duration %d: err = %v", d, err)
		}
	}
}

func TestToggleAndSink(t *testing.T) {
	var (
		mu     sync.Mutex
		offers []match.State
	)
	sink := match.SinkFunc(func(st match.State) {
		mu.Lock()
		offers = append(offers, st)
		mu.Unlock()
	})
	s := newScheduler(t, match.Config{Duration: 60}, nil, match.WithSink(sink))

	s.Tick()
	paused, err := s.Toggle()
	if err != nil || !paused {
		t.Fatalf("Toggle = %v, %v", paused, err)
	}
	// Pausing twice is not a change.
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	paused, _ = s.Toggle()
	if paused {
		t.Fatal("expected running after second toggle")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(offers) != 3 {
		t.Fatalf("offers = %+v, want 3", offers)
	}
	if offers[0].Remaining != 59 || offers[1].Paused != true || offers[2].Paused != false {
		t.Errorf("offers = %+v", offers)
	}
}

func TestConcurrentTogglesEachFlip(t *testing.T) {
	s := newScheduler(t, match.Config{Duration: 60}, nil)

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pauses  int
		resumes int
	)
	for range 2 * n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paused, err := s.Toggle()
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			if paused {
				pauses++
			} else {
				resumes++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if pauses != n || resumes != n {
		t.Errorf("pauses = %d, resumes = %d, want %d each", pauses, resumes, n)
	}
	if s.State().Paused {
		t.Error("an even number of toggles left the match paused")
	}
}

func TestRunWithFakeClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	s := newScheduler(t, match.Config{Duration: 3}, rec, match.WithClock(clock))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for want := 2; want >= 0; want-- {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("waiting for ticker: %v", err)
		}
		clock.Advance(time.Second)
		select {
		case got := <-rec.ticks:
			if got != want {
				t.Fatalf("remaining = %d, want %d", got, want)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for tick")
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("Run did not return after completion")
	}
	if rec.count("end") != 1 {
		t.Errorf("ends = %d", rec.count("end"))
	}
}
