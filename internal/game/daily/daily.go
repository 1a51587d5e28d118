// Package daily picks the case of the day. Every player gets the same case
// for the same calendar date and catalog order.
package daily

import (
	"context"
	"time"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
)

// LCG constants (Knuth, MMIX).
const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1442695040888963407
)

// Seed encodes the calendar date of t as year*10000 + month*100 + day.
// Only the date components in t's own location are used.
func Seed(t time.Time) uint64 {
	y, m, d := t.Date()
	return uint64(y)*10000 + uint64(m)*100 + uint64(d)
}

// Generator is a 64-bit linear congruential generator.
type Generator struct {
	state uint64
}

// NewGenerator creates a generator starting at seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{state: seed}
}

// Next advances the generator and returns the new state.
func (g *Generator) Next() uint64 {
	g.state = g.state*multiplier + increment
	return g.state
}

// Intn returns a value in [0, n) taken from the high bits of the next state.
// It returns 0 when n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int((g.Next() >> 33) % uint64(n))
}

// Case returns the case of the day for date from cases.
// It reports false when cases is empty.
func Case(date time.Time, cases []model.Case) (model.Case, bool) {
	if len(cases) == 0 {
		return model.Case{}, false
	}
	return cases[Index(date, len(cases))], true
}

// Index returns the position of the case of the day in a list of n cases.
func Index(date time.Time, n int) int {
	return NewGenerator(Seed(date)).Intn(n)
}

// Mode serves the case of the day.
type Mode struct {
	repo *catalog.Repository
}

// New creates the daily mode over repo.
func New(repo *catalog.Repository) *Mode {
	return &Mode{repo: repo}
}

// Name returns the display name.
func (m *Mode) Name() string {
	return "Daily Case"
}

// Command returns the command that starts the mode.
func (m *Mode) Command() string {
	return model.ModeDaily
}

// Description returns a brief description of the mode.
func (m *Mode) Description() string {
	return "Today's case, the same for everyone. One attempt per day."
}

// SelectCase returns the case of the day for sel.Date. Category and played
// cases are ignored.
func (m *Mode) SelectCase(_ context.Context, sel game.Selection) (model.Case, error) {
	c, ok := Case(sel.Date, m.repo.AllCases())
	if !ok {
		return model.Case{}, game.ErrNoCase
	}
	return c, nil
}
