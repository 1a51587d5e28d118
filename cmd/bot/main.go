// Package main is the entry point for the Daily Diagnosis Telegram bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"daily-diagnosis-bot/internal/bot"
	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/config"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/game/daily"
	"daily-diagnosis-bot/internal/game/shuffle"
	"daily-diagnosis-bot/internal/httpapi"
	"daily-diagnosis-bot/internal/pkg/db"
	"daily-diagnosis-bot/internal/pkg/lock"
	"daily-diagnosis-bot/internal/repository"
	"daily-diagnosis-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Log.ZerologLevel())
	log.Info().Msg("Configuration loaded successfully")

	tz, err := cfg.Game.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game timezone")
	}

	cases, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load case catalog")
	}
	if issues := catalog.Validate(cases.AllCases()); len(issues) > 0 {
		for _, issue := range issues {
			log.Warn().Str("case_id", issue.CaseID).Msg(issue.Message)
		}
	}
	lexicon, err := catalog.OpenLexicon(cfg.Catalog.LexiconPath, cases)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load diagnosis lexicon")
	}
	log.Info().
		Int("cases", cases.Len()).
		Int("lexicon_terms", len(lexicon)).
		Strs("categories", cases.Categories()).
		Msg("Catalog loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	playerRepo := repository.NewPlayerRepository(dbPool.Pool)
	statsRepo := repository.NewStatsRepository(dbPool.Pool)
	roundRepo := repository.NewRoundRepository(dbPool.Pool)

	modes, err := game.NewRegistry(daily.New(cases), shuffle.New(cases))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register game modes")
	}
	log.Info().Int("mode_count", modes.Count()).Msg("Game modes registered")

	// Rounds and stats each take a player lock; StatsService.Record runs while
	// the round lock is held, so the two must not share one non-reentrant lock.
	statsService := service.NewStatsService(statsRepo, lock.NewPlayerLock(), cfg.Game.LockTimeout)
	gameService := service.NewGameService(
		roundRepo,
		statsService,
		cases,
		modes,
		lexicon,
		lock.NewPlayerLock(),
		service.GameConfig{
			Timezone:        tz,
			SuggestionLimit: cfg.Game.SuggestionLimit,
			LockTimeout:     cfg.Game.LockTimeout,
		},
	)
	playerService := service.NewPlayerService(playerRepo)
	rankingService := service.NewRankingService(statsRepo, roundRepo, tz, nil)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:         cfg,
		PlayerService:  playerService,
		GameService:    gameService,
		StatsService:   statsService,
		RankingService: rankingService,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	var api *httpapi.Server
	if cfg.HTTP.Addr != "" {
		api = httpapi.New(httpapi.Dependencies{
			Health:      dbPool,
			Suggestions: gameService,
			Stats:       statsService,
			Rankings:    rankingService,
		})
		go func() {
			if err := api.Start(cfg.HTTP.Addr); err != nil {
				log.Error().Err(err).Msg("HTTP API stopped")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	if api != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP API shutdown")
		}
		shutdownCancel()
	}
	log.Info().Msg("Bot stopped gracefully")
}
