package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/repository"
	"daily-diagnosis-bot/internal/stats"
)

// memRounds is an in-memory RoundStore with the same uniqueness rules as
// the rounds table.
type memRounds struct {
	mu     sync.Mutex
	rounds map[string]game.Round
	order  []string
	names  map[int64]string
}

func newMemRounds() *memRounds {
	return &memRounds{rounds: map[string]game.Round{}, names: map[int64]string{}}
}

func cloneRound(r game.Round) *game.Round {
	r.Guesses = append([]model.Guess(nil), r.Guesses...)
	return &r
}

func (m *memRounds) Create(_ context.Context, r *game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rounds {
		if existing.PlayerID != r.PlayerID {
			continue
		}
		if existing.State == model.StatePlaying {
			return repository.ErrRoundConflict
		}
		if existing.Mode == model.ModeDaily && r.Mode == model.ModeDaily && existing.PlayedOn.Equal(r.PlayedOn) {
			return repository.ErrRoundConflict
		}
	}
	m.rounds[r.ID] = *cloneRound(*r)
	m.order = append(m.order, r.ID)
	return nil
}

func (m *memRounds) Save(_ context.Context, r *game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[r.ID]; !ok {
		return repository.ErrRoundNotFound
	}
	m.rounds[r.ID] = *cloneRound(*r)
	return nil
}

func (m *memRounds) find(match func(game.Round) bool) (*game.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if r := m.rounds[id]; match(r) {
			return cloneRound(r), nil
		}
	}
	return nil, repository.ErrRoundNotFound
}

func (m *memRounds) GetActive(_ context.Context, playerID int64) (*game.Round, error) {
	return m.find(func(r game.Round) bool {
		return r.PlayerID == playerID && r.State == model.StatePlaying
	})
}

func (m *memRounds) GetDaily(_ context.Context, playerID int64, date time.Time) (*game.Round, error) {
	return m.find(func(r game.Round) bool {
		return r.PlayerID == playerID && r.Mode == model.ModeDaily && stats.SameDay(r.PlayedOn, date)
	})
}

func (m *memRounds) PlayedCaseIDs(_ context.Context, playerID int64) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	played := map[string]struct{}{}
	for _, r := range m.rounds {
		if r.PlayerID == playerID && r.State != model.StatePlaying {
			played[r.CaseID] = struct{}{}
		}
	}
	return played, nil
}

func (m *memRounds) DailyResults(_ context.Context, date time.Time, limit int) ([]model.DailyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DailyResult
	for _, id := range m.order {
		r := m.rounds[id]
		if r.Mode != model.ModeDaily || !stats.SameDay(r.PlayedOn, date) || r.State == model.StatePlaying {
			continue
		}
		out = append(out, model.DailyResult{
			PlayerID: r.PlayerID,
			Username: m.names[r.PlayerID],
			State:    r.State,
			Guesses:  len(r.Guesses),
			Score:    r.Score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].State == model.StateWon, out[j].State == model.StateWon
		if wi != wj {
			return wi
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Guesses < out[j].Guesses
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memStats is an in-memory StatsStore. Update fails with failWith when set.
type memStats struct {
	mu       sync.Mutex
	stats    map[int64]model.PlayerStats
	names    map[int64]string
	failWith error
}

func newMemStats() *memStats {
	return &memStats{stats: map[int64]model.PlayerStats{}, names: map[int64]string{}}
}

func (m *memStats) Get(_ context.Context, playerID int64) (*model.PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[playerID]
	if !ok {
		s = model.PlayerStats{PlayerID: playerID}
	}
	return &s, nil
}

// Update reads and writes without holding mu in between, so callers must
// serialize writers themselves.
func (m *memStats) Update(ctx context.Context, playerID int64, fn func(*model.PlayerStats) error) (*model.PlayerStats, error) {
	m.mu.Lock()
	failWith := m.failWith
	m.mu.Unlock()
	if failWith != nil {
		return nil, failWith
	}
	s, _ := m.Get(ctx, playerID)
	if err := fn(s); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.stats[playerID] = *s
	m.mu.Unlock()
	return s, nil
}

func (m *memStats) top(limit int, value func(model.PlayerStats) int) []model.LeaderboardEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LeaderboardEntry
	for id, s := range m.stats {
		out = append(out, model.LeaderboardEntry{PlayerID: id, Username: m.names[id], Value: value(s)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStats) TopByScore(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return m.top(limit, func(s model.PlayerStats) int { return s.TotalScore }), nil
}

func (m *memStats) TopByStreak(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return m.top(limit, func(s model.PlayerStats) int { return s.MaxStreak }), nil
}

// memPlayers is an in-memory PlayerStore.
type memPlayers struct {
	mu          sync.Mutex
	players     map[int64]model.Player
	failRenames bool
}

func newMemPlayers() *memPlayers {
	return &memPlayers{players: map[int64]model.Player{}}
}

func (m *memPlayers) GetOrCreate(_ context.Context, id int64, username string) (*model.Player, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[id]; ok {
		return &p, false, nil
	}
	p := model.Player{TelegramID: id, Username: username}
	m.players[id] = p
	return &p, true, nil
}

func (m *memPlayers) GetByID(_ context.Context, id int64) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	return &p, nil
}

func (m *memPlayers) UpdateUsername(_ context.Context, id int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRenames {
		return context.DeadlineExceeded
	}
	p, ok := m.players[id]
	if !ok {
		return repository.ErrPlayerNotFound
	}
	p.Username = username
	m.players[id] = p
	return nil
}
