// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/game/shuffle"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/pkg/lock"
	"daily-diagnosis-bot/internal/service"
)

// CallbackSuggest is the unique id of suggestion buttons. The payload is the
// index into the suggestions last shown to the player.
const CallbackSuggest = "sg"

const busyText = "⏳ Busy, please try again"

// GameHandler handles round commands and guesses.
type GameHandler struct {
	games   *service.GameService
	players *service.PlayerService

	// suggestions holds the last suggestion list per player: map[int64][]string
	suggestions sync.Map
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games *service.GameService, players *service.PlayerService) *GameHandler {
	return &GameHandler{
		games:   games,
		players: players,
	}
}

// senderName returns the name stored for the sender.
func senderName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return sender.FirstName
}

func (h *GameHandler) ensurePlayer(ctx context.Context, sender *tele.User) error {
	_, _, err := h.players.EnsurePlayer(ctx, sender.ID, senderName(sender))
	return err
}

// HandleDaily handles the /daily command.
func (h *GameHandler) HandleDaily(c tele.Context) error {
	return h.start(c, model.ModeDaily, "")
}

// HandlePlay handles the /play [category] command.
func (h *GameHandler) HandlePlay(c tele.Context) error {
	return h.start(c, model.ModeShuffle, strings.TrimSpace(c.Message().Payload))
}

func (h *GameHandler) start(c tele.Context, mode, category string) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if err := h.ensurePlayer(ctx, sender); err != nil {
		return c.Reply("❌ Could not load your profile, please try again later")
	}

	view, err := h.games.Start(ctx, sender.ID, mode, category)
	if err != nil {
		return c.Reply(startErrorText(err, category))
	}

	return c.Reply(FormatResume(view) + FormatRound(view))
}

func startErrorText(err error, category string) string {
	switch {
	case errors.Is(err, service.ErrDailyAlreadyPlayed):
		return "⏰ You already played today's case. Try /play for practice or come back tomorrow."
	case errors.Is(err, service.ErrRoundInProgress):
		return "⚠️ Finish your current round first. Use /clue or send a guess."
	case errors.Is(err, shuffle.ErrUnknownCategory):
		return fmt.Sprintf("❌ Unknown category %q. See /categories", category)
	case errors.Is(err, game.ErrNoCase):
		return "❌ No cases available"
	case errors.Is(err, lock.ErrLockTimeout):
		return busyText
	default:
		log.Error().Err(err).Msg("Failed to start round")
		return "❌ Could not start a round, please try again later"
	}
}

// HandleGuess handles the /guess <diagnosis> command.
func (h *GameHandler) HandleGuess(c tele.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return c.Reply("❌ Usage: /guess <diagnosis>\nExample: /guess pulmonary embolism")
	}
	return h.guess(c, text)
}

// HandleText treats plain messages as guesses while the sender has a round in play.
func (h *GameHandler) HandleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") || c.Sender() == nil {
		return nil
	}
	if _, err := h.games.ActiveRound(context.Background(), c.Sender().ID); err != nil {
		if !errors.Is(err, service.ErrNoActiveRound) {
			log.Error().Err(err).Int64("player_id", c.Sender().ID).Msg("Failed to load active round")
		}
		return nil
	}
	return h.guess(c, text)
}

func (h *GameHandler) guess(c tele.Context, text string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	result, err := h.games.Guess(context.Background(), sender.ID, text)
	if err != nil {
		return c.Reply(guessErrorText(err, text))
	}

	if !result.Correct && !result.Round.Finished() {
		return c.Reply(fmt.Sprintf("❌ Not %s\n\n%s", text, FormatRound(result.RoundView)))
	}
	return c.Reply(FormatRound(result.RoundView))
}

func guessErrorText(err error, text string) string {
	switch {
	case errors.Is(err, service.ErrEmptyGuess):
		return "❌ Send a diagnosis to guess"
	case errors.Is(err, service.ErrDuplicateGuess):
		return fmt.Sprintf("🔁 You already guessed %q", text)
	case errors.Is(err, service.ErrNoActiveRound):
		return "💤 No round in play. Start one with /daily or /play"
	case errors.Is(err, lock.ErrLockTimeout):
		return busyText
	default:
		log.Error().Err(err).Msg("Failed to submit guess")
		return "❌ Could not submit your guess, please try again later"
	}
}

// HandleClue handles the /clue command.
func (h *GameHandler) HandleClue(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	view, revealed, err := h.games.RevealClue(context.Background(), sender.ID)
	if err != nil {
		return c.Reply(guessErrorText(err, ""))
	}
	if !revealed {
		return c.Reply("🔚 All clues are already shown\n\n" + FormatRound(view))
	}
	return c.Reply(FormatRound(view))
}

// HandleSuggest handles the /suggest <text> command.
// Each suggestion becomes a button that submits it as a guess.
func (h *GameHandler) HandleSuggest(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	query := strings.TrimSpace(c.Message().Payload)
	if query == "" {
		return c.Reply("❌ Usage: /suggest <text>\nExample: /suggest pneu")
	}

	terms := h.games.Suggest(query)
	if len(terms) == 0 {
		return c.Reply(fmt.Sprintf("🤷 No diagnoses match %q", query))
	}
	h.suggestions.Store(sender.ID, terms)
	return c.Reply("💡 Tap a diagnosis to guess it", BuildSuggestionPanel(terms))
}

// BuildSuggestionPanel lays out one button per suggestion.
func BuildSuggestionPanel(terms []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(terms))
	for i, term := range terms {
		rows = append(rows, markup.Row(markup.Data(term, CallbackSuggest, strconv.Itoa(i))))
	}
	markup.Inline(rows...)
	return markup
}

// HandleSuggestCallback submits the chosen suggestion as a guess.
// payload is the part of the callback data after "sg|".
func (h *GameHandler) HandleSuggestCallback(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	idx, err := strconv.Atoi(payload)
	stored, ok := h.suggestions.Load(sender.ID)
	if err != nil || !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Suggestion expired, send /suggest again", ShowAlert: true})
	}
	terms := stored.([]string)
	if idx < 0 || idx >= len(terms) {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Suggestion expired, send /suggest again", ShowAlert: true})
	}

	// Callback queries must be answered promptly, so don't queue behind a
	// guess that is still being processed.
	if h.games.Busy(sender.ID) {
		return c.Respond(&tele.CallbackResponse{Text: busyText})
	}

	term := terms[idx]
	result, err := h.games.Guess(context.Background(), sender.ID, term)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: guessErrorText(err, term), ShowAlert: true})
	}
	_ = c.Respond(&tele.CallbackResponse{Text: term})
	h.suggestions.Delete(sender.ID)

	text := FormatRound(result.RoundView)
	if !result.Correct && !result.Round.Finished() {
		text = fmt.Sprintf("❌ Not %s\n\n%s", term, text)
	}
	return c.Send(text)
}

// HandleCategories handles the /categories command.
func (h *GameHandler) HandleCategories(c tele.Context) error {
	cat := h.games.Catalog()
	categories := cat.Categories()
	if len(categories) == 0 {
		return c.Reply("❌ No cases available")
	}

	var b strings.Builder
	b.WriteString("🗂 Categories\n" + divider + "\n")
	for _, name := range categories {
		fmt.Fprintf(&b, "%s (%d)\n", name, len(cat.ByCategory(name)))
	}
	b.WriteString(divider + "\nPractice one with /play <category>")
	return c.Reply(b.String())
}
