// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"daily-diagnosis-bot/internal/model"
)

// PlayerStore persists players.
type PlayerStore interface {
	GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.Player, bool, error)
	GetByID(ctx context.Context, telegramID int64) (*model.Player, error)
	UpdateUsername(ctx context.Context, telegramID int64, username string) error
}

// PlayerService handles player registration.
type PlayerService struct {
	players PlayerStore
}

// NewPlayerService creates a new PlayerService instance.
func NewPlayerService(players PlayerStore) *PlayerService {
	return &PlayerService{players: players}
}

// EnsurePlayer makes sure a player exists and carries the current username.
// Returns the player and whether it was newly created.
func (s *PlayerService) EnsurePlayer(ctx context.Context, telegramID int64, username string) (*model.Player, bool, error) {
	p, created, err := s.players.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure player: %w", err)
	}

	if !created && username != "" && p.Username != username {
		if err := s.players.UpdateUsername(ctx, telegramID, username); err != nil {
			// The player still exists, so we can continue
			log.Warn().Err(err).Int64("player_id", telegramID).Msg("Failed to refresh username")
		} else {
			p.Username = username
		}
	}

	return p, created, nil
}

// GetPlayer retrieves a player by Telegram ID.
func (s *PlayerService) GetPlayer(ctx context.Context, telegramID int64) (*model.Player, error) {
	return s.players.GetByID(ctx, telegramID)
}
