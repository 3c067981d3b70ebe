package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/store"
)

var ErrInvalidPreset = errors.New("invalid preset")

// ValidatePreset checks the fields a match cannot start without. Ball
// additions are not checked; out-of-range offsets simply never fire.
func ValidatePreset(p dodgeball.Preset) error {
	switch {
	case p.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidPreset)
	case p.InitialLives < 1:
		return fmt.Errorf("%w: initial lives must be at least 1", ErrInvalidPreset)
	case p.InitialBalls < 0:
		return fmt.Errorf("%w: initial balls must not be negative", ErrInvalidPreset)
	}
	return nil
}

// Settings returns the stored presets, or the defaults if none were saved.
func (m *Manager) Settings(ctx context.Context) (dodgeball.Settings, error) {
	var s dodgeball.Settings
	err := m.docs.Get(ctx, store.KeySettings, &s)
	if errors.Is(err, store.ErrNotFound) {
		return m.defaults, nil
	}
	if err != nil {
		return dodgeball.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

func (m *Manager) UpdateSettings(ctx context.Context, s dodgeball.Settings) error {
	if err := ValidatePreset(s.Quick); err != nil {
		return fmt.Errorf("quick: %w", err)
	}
	if err := ValidatePreset(s.Detailed); err != nil {
		return fmt.Errorf("detailed: %w", err)
	}
	if s.Quick.BallAdditions == nil {
		s.Quick.BallAdditions = []dodgeball.BallAddition{}
	}
	if s.Detailed.BallAdditions == nil {
		s.Detailed.BallAdditions = []dodgeball.BallAddition{}
	}
	if err := m.docs.Set(ctx, store.KeySettings, s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
