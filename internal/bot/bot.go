// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"daily-diagnosis-bot/internal/config"
	"daily-diagnosis-bot/internal/handler"
	"daily-diagnosis-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	private *PrivateAccess

	gameHandler    *handler.GameHandler
	playerHandler  *handler.PlayerHandler
	rankingHandler *handler.RankingHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	PlayerService  *service.PlayerService
	GameService    *service.GameService
	StatsService   *service.StatsService
	RankingService *service.RankingService
}

// commands is the menu published to Telegram on start.
var commands = []tele.Command{
	{Text: "daily", Description: "Play today's case"},
	{Text: "play", Description: "Practice a random case"},
	{Text: "guess", Description: "Submit a diagnosis"},
	{Text: "clue", Description: "Reveal the next clue"},
	{Text: "suggest", Description: "Autocomplete a diagnosis"},
	{Text: "stats", Description: "Your statistics"},
	{Text: "top", Description: "Top players by score"},
	{Text: "streaks", Description: "Longest streaks"},
	{Text: "today", Description: "Today's daily results"},
	{Text: "categories", Description: "Case categories"},
	{Text: "help", Description: "How to play"},
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	timeout := deps.Config.Bot.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	teleBot, err := tele.NewBot(tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		private: NewPrivateAccess(),

		gameHandler:    handler.NewGameHandler(deps.GameService, deps.PlayerService),
		playerHandler:  handler.NewPlayerHandler(deps.PlayerService, deps.StatsService, deps.GameService),
		rankingHandler: handler.NewRankingHandler(deps.RankingService, deps.GameService),
		adminHandler:   handler.NewAdminHandler(deps.GameService),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.private))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.playerHandler.HandleStart)
	b.bot.Handle("/help", b.playerHandler.HandleHelp)
	b.bot.Handle("/stats", b.playerHandler.HandleStats)

	b.bot.Handle("/daily", b.gameHandler.HandleDaily)
	b.bot.Handle("/play", b.gameHandler.HandlePlay)
	b.bot.Handle("/guess", b.gameHandler.HandleGuess)
	b.bot.Handle("/clue", b.gameHandler.HandleClue)
	b.bot.Handle("/suggest", b.gameHandler.HandleSuggest)
	b.bot.Handle("/categories", b.gameHandler.HandleCategories)

	b.bot.Handle("/top", b.rankingHandler.HandleTop)
	b.bot.Handle("/streaks", b.rankingHandler.HandleStreaks)
	b.bot.Handle("/today", b.rankingHandler.HandleToday)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/case_info", b.adminHandler.HandleCaseInfo)
	adminGroup.Handle("/catalog_check", b.adminHandler.HandleCatalogCheck)

	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline button callbacks by their unique prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	unique, payload := ParseCallback(callback.Data)
	log.Debug().Str("unique", unique).Str("payload", payload).Msg("Callback received")

	switch unique {
	case handler.CallbackSuggest:
		return b.gameHandler.HandleSuggestCallback(c, payload)
	default:
		return c.Respond()
	}
}

// ParseCallback splits button data of the form "\funique|payload".
// Telebot v3 adds the \f prefix to buttons created with a unique id.
func ParseCallback(data string) (unique, payload string) {
	data = strings.TrimPrefix(data, "\f")
	unique, payload, _ = strings.Cut(data, "|")
	return unique, payload
}

// Start publishes the command menu and starts polling. It blocks until Stop.
func (b *Bot) Start() {
	if err := b.bot.SetCommands(commands); err != nil {
		log.Warn().Err(err).Msg("Failed to publish command menu")
	}
	log.Info().Str("bot", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
