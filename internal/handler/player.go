package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"daily-diagnosis-bot/internal/service"
)

// PlayerHandler handles profile commands.
type PlayerHandler struct {
	players *service.PlayerService
	stats   *service.StatsService
	games   *service.GameService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(players *service.PlayerService, stats *service.StatsService, games *service.GameService) *PlayerHandler {
	return &PlayerHandler{
		players: players,
		stats:   stats,
		games:   games,
	}
}

// HandleStart handles the /start command.
// Registers the sender on first use and shows the command list.
func (h *PlayerHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	name := senderName(sender)
	_, created, err := h.players.EnsurePlayer(ctx, sender.ID, name)
	if err != nil {
		return c.Reply("❌ Could not create your profile, please try again later")
	}

	greeting := fmt.Sprintf("👋 Welcome back %s!", name)
	if created {
		greeting = fmt.Sprintf("🎉 Welcome %s!", name)
	}
	return c.Reply(greeting + "\n\n" + FormatHelp(h.games.Modes().List()))
}

// HandleHelp handles the /help command.
func (h *PlayerHandler) HandleHelp(c tele.Context) error {
	return c.Reply(FormatHelp(h.games.Modes().List()))
}

// HandleStats handles the /stats command.
func (h *PlayerHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ps, err := h.stats.Get(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("player_id", sender.ID).Msg("Failed to load stats")
		return c.Reply("❌ Could not load your stats, please try again later")
	}
	return c.Reply(FormatStats(senderName(sender), ps))
}
