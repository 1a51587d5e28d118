// Package shuffle serves random practice cases.
package shuffle

import (
	"context"
	"errors"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
)

// ErrUnknownCategory is returned when a category has no cases.
var ErrUnknownCategory = errors.New("unknown category")

// Mode picks a random case the player has not finished yet.
// Once every candidate was played the played set is ignored.
type Mode struct {
	repo *catalog.Repository
}

// New creates the shuffle mode over repo.
func New(repo *catalog.Repository) *Mode {
	return &Mode{repo: repo}
}

// Name returns the display name.
func (m *Mode) Name() string {
	return "Shuffle"
}

// Command returns the registry key of the mode.
func (m *Mode) Command() string {
	return model.ModeShuffle
}

// Description returns a brief description of the mode.
func (m *Mode) Description() string {
	return "A random practice case, optionally from one category."
}

// SelectCase picks a random case, restricted to sel.Category when set.
func (m *Mode) SelectCase(_ context.Context, sel game.Selection) (model.Case, error) {
	if sel.Category != "" {
		if len(m.repo.ByCategory(sel.Category)) == 0 {
			return model.Case{}, ErrUnknownCategory
		}
		if c, ok := m.repo.RandomCaseIn(sel.Category, sel.Played); ok {
			return c, nil
		}
		if c, ok := m.repo.RandomCaseIn(sel.Category, nil); ok {
			return c, nil
		}
		return model.Case{}, game.ErrNoCase
	}

	if c, ok := m.repo.RandomCase(sel.Played); ok {
		return c, nil
	}
	if c, ok := m.repo.RandomCase(nil); ok {
		return c, nil
	}
	return model.Case{}, game.ErrNoCase
}
