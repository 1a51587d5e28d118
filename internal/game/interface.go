// Package game defines the round state machine, scoring and the pluggable
// case-selection modes of the diagnosis game.
package game

import (
	"context"
	"errors"
	"time"

	"daily-diagnosis-bot/internal/model"
)

// ErrNoCase is returned by a Mode when no case is available to play.
var ErrNoCase = errors.New("no case available")

// Selection carries the inputs a Mode may use to choose a case.
type Selection struct {
	PlayerID int64
	// Date is the calendar day of the player, already in the game timezone.
	Date time.Time
	// Category restricts the choice when non-empty. Modes may ignore it.
	Category string
	// Played holds case ids the player has already finished.
	Played map[string]struct{}
}

// Mode decides which case a new round is played on.
// Adding a new way to play only requires implementing this interface.
type Mode interface {
	// Name returns the display name (e.g., "Daily Case").
	Name() string

	// Command returns the registry key (e.g., "daily"). It is stored as
	// the mode of every round the mode starts.
	Command() string

	// Description returns a short description for /help.
	Description() string

	// SelectCase returns the case to play, or ErrNoCase.
	SelectCase(ctx context.Context, sel Selection) (model.Case, error)
}
