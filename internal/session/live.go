package session

import (
	"context"
	"slices"
	"sync"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/match"
)

// liveMatch is one running match. It is the scheduler's listener and sink, so
// its callbacks run on the scheduler goroutine outside the scheduler lock.
type liveMatch struct {
	m      *Manager
	id     string
	sched  *match.Scheduler
	writer *match.Coalescer[dodgeball.MatchSession]

	mu        sync.Mutex
	session   dodgeball.MatchSession
	finalized bool
}

func (lm *liveMatch) snapshot() dodgeball.MatchSession {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.session.Clone()
}

// mutate applies fn under the lock and queues the resulting snapshot.
func (lm *liveMatch) mutate(fn func(s *dodgeball.MatchSession)) dodgeball.MatchSession {
	lm.mu.Lock()
	fn(&lm.session)
	snap := lm.session.Clone()
	lm.mu.Unlock()
	lm.writer.Offer(snap)
	return snap
}

func (lm *liveMatch) publish(typ string, data any) {
	lm.m.publisher.Publish(lm.id, Event{Type: typ, MatchID: lm.id, Data: data})
}

func (lm *liveMatch) applyState(st match.State) {
	lm.mutate(func(s *dodgeball.MatchSession) {
		s.RemainingTime = st.Remaining
		s.IsPaused = st.Paused
		s.IsCompleted = st.Completed
		s.FiredAdditions = slices.Clone(st.Fired)
		if s.FiredAdditions == nil {
			s.FiredAdditions = []int{}
		}
	})
}

func (lm *liveMatch) OnTimeUpdate(remaining int, paused bool) {
	lm.publish(EventTime, TimeData{Remaining: remaining, Paused: paused})
}

func (lm *liveMatch) OnBallAddition(index int, _ dodgeball.BallAddition) {
	snap := lm.mutate(func(s *dodgeball.MatchSession) { s.CurrentBalls++ })
	lm.publish(EventBallAddition, BallAdditionData{Index: index, CurrentBalls: snap.CurrentBalls})
}

func (lm *liveMatch) OnImminentEnd(remaining int) {
	lm.publish(EventImminentEnd, TimeData{Remaining: remaining})
}

func (lm *liveMatch) OnMatchEnd() {
	lm.mutate(func(s *dodgeball.MatchSession) {
		now := lm.m.clock.Now().UTC()
		s.IsCompleted = true
		s.EndedAt = &now
	})
	lm.finalize(lm.m.ctx)
}

// MatchEndData is published once a match has been recorded.
type MatchEndData struct {
	Session dodgeball.MatchSession `json:"session"`
	Results any                    `json:"results"`
	Error   string                 `json:"error,omitempty"`
}

// finalize writes the final snapshot, folds the match into student progress
// and marks the session recorded. If recording fails the session stays
// unrecorded and the next Resume retries; the fold ledger keeps the retry
// from counting anything twice.
func (lm *liveMatch) finalize(ctx context.Context) {
	lm.mu.Lock()
	if lm.finalized || lm.session.IsRecorded {
		lm.mu.Unlock()
		return
	}
	lm.finalized = true
	snap := lm.session.Clone()
	lm.mu.Unlock()

	logger := lm.m.logger.With("match", lm.id)

	lm.writer.Offer(snap)
	if err := lm.writer.Flush(ctx); err != nil {
		logger.Error("saving final snapshot", "error", err)
	}

	results, err := lm.m.finalizeRecords(ctx, snap)
	if err != nil {
		logger.Error("recording match", "error", err)
		lm.mu.Lock()
		lm.finalized = false
		lm.mu.Unlock()
		lm.publish(EventMatchEnd, MatchEndData{Session: snap, Results: results, Error: "match could not be recorded, try again"})
		return
	}

	snap = lm.mutate(func(s *dodgeball.MatchSession) { s.IsRecorded = true })
	if err := lm.writer.Flush(ctx); err != nil {
		logger.Error("saving recorded snapshot", "error", err)
	}

	lm.publish(EventMatchEnd, MatchEndData{Session: snap, Results: results})
	for _, r := range results {
		if len(r.NewBadges) > 0 {
			lm.publish(EventBadges, r)
		}
	}
	logger.Info("match recorded", "players", len(results))
}

func (lm *liveMatch) score(studentID string, kind dodgeball.EventKind) (dodgeball.PlayerCounters, error) {
	lm.mu.Lock()
	if lm.session.IsCompleted {
		lm.mu.Unlock()
		return dodgeball.PlayerCounters{}, match.ErrMatchCompleted
	}
	c, ok := lm.session.Counters[studentID]
	if !ok {
		lm.mu.Unlock()
		return dodgeball.PlayerCounters{}, ErrUnknownPlayer
	}
	c.Add(kind)
	lm.session.Counters[studentID] = c
	snap := lm.session.Clone()
	lm.mu.Unlock()

	lm.writer.Offer(snap)
	lm.publish(EventScore, ScoreData{
		StudentID:  studentID,
		Kind:       string(kind),
		Hits:       c.Hits,
		Passes:     c.Passes,
		Sacrifices: c.Sacrifices,
		Cookies:    c.Cookies,
	})
	return c, nil
}

func (lm *liveMatch) eliminate(studentID string) (dodgeball.TeamMemberAssignment, error) {
	lm.mu.Lock()
	if lm.session.IsCompleted {
		lm.mu.Unlock()
		return dodgeball.TeamMemberAssignment{}, match.ErrMatchCompleted
	}
	ti, mi, ok := lm.session.Member(studentID)
	if !ok {
		lm.mu.Unlock()
		return dodgeball.TeamMemberAssignment{}, ErrUnknownPlayer
	}
	mem := &lm.session.Teams[ti].Members[mi]
	mem.CurrentLives = max(0, mem.CurrentLives-1)
	if mem.CurrentLives == 0 {
		mem.Position = dodgeball.PositionOutfield
	}
	out := *mem
	snap := lm.session.Clone()
	lm.mu.Unlock()

	lm.writer.Offer(snap)
	lm.publish(EventElimination, EliminationData{
		StudentID:    out.StudentID,
		CurrentLives: out.CurrentLives,
		Position:     string(out.Position),
	})
	return out, nil
}
