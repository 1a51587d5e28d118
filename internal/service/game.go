package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/matcher"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/pkg/lock"
	"daily-diagnosis-bot/internal/repository"
	"daily-diagnosis-bot/internal/stats"
)

// Errors for game operations.
var (
	ErrEmptyGuess         = errors.New("guess is empty")
	ErrDuplicateGuess     = errors.New("diagnosis already guessed")
	ErrNoActiveRound      = errors.New("no active round")
	ErrRoundInProgress    = errors.New("another round is in progress")
	ErrDailyAlreadyPlayed = errors.New("daily case already played today")
	ErrUnknownMode        = errors.New("unknown game mode")
	ErrCaseMissing        = errors.New("case of round is not in the catalog")
)

// RoundStore persists rounds.
type RoundStore interface {
	Create(ctx context.Context, round *game.Round) error
	Save(ctx context.Context, round *game.Round) error
	GetActive(ctx context.Context, playerID int64) (*game.Round, error)
	GetDaily(ctx context.Context, playerID int64, date time.Time) (*game.Round, error)
	PlayedCaseIDs(ctx context.Context, playerID int64) (map[string]struct{}, error)
}

// Clock returns the current time.
type Clock func() time.Time

// RoundView is a round together with what the player may currently see.
type RoundView struct {
	Round *game.Round
	Case  model.Case
	Clues []string
	// Resumed is set when Start returned a round that was already in play.
	Resumed bool
	// Stale is set when the resumed round is a daily round of an earlier day.
	Stale bool
	// Stats is set once the round is finished and recorded.
	Stats *model.PlayerStats
}

// GuessResult is the outcome of one guess.
type GuessResult struct {
	*RoundView
	Correct bool
}

// GameConfig holds gameplay settings for GameService.
type GameConfig struct {
	Timezone        *time.Location
	SuggestionLimit int
	LockTimeout     time.Duration
	Clock           Clock
	NewID           func() string
}

// GameService runs rounds: starting them, taking guesses and clue requests,
// and recording the result when a round ends.
type GameService struct {
	rounds  RoundStore
	stats   *StatsService
	catalog *catalog.Repository
	modes   *game.Registry
	lexicon matcher.Lexicon
	lock    *lock.PlayerLock

	tz              *time.Location
	suggestionLimit int
	lockTimeout     time.Duration
	now             Clock
	newID           func() string
}

// NewGameService creates a new GameService instance.
func NewGameService(
	rounds RoundStore,
	statsService *StatsService,
	cat *catalog.Repository,
	modes *game.Registry,
	lexicon matcher.Lexicon,
	playerLock *lock.PlayerLock,
	cfg GameConfig,
) *GameService {
	s := &GameService{
		rounds:          rounds,
		stats:           statsService,
		catalog:         cat,
		modes:           modes,
		lexicon:         lexicon,
		lock:            playerLock,
		tz:              cfg.Timezone,
		suggestionLimit: cfg.SuggestionLimit,
		lockTimeout:     cfg.LockTimeout,
		now:             cfg.Clock,
		newID:           cfg.NewID,
	}
	if s.lock == nil {
		s.lock = lock.NewPlayerLock()
	}
	if s.tz == nil {
		s.tz = time.UTC
	}
	if s.suggestionLimit <= 0 {
		s.suggestionLimit = matcher.DefaultSuggestionLimit
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = 5 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Today returns the current calendar date in the game timezone.
func (s *GameService) Today() time.Time {
	return stats.DayOf(s.now().In(s.tz))
}

// Catalog returns the case repository the service plays from.
func (s *GameService) Catalog() *catalog.Repository {
	return s.catalog
}

// Modes returns the registered game modes.
func (s *GameService) Modes() *game.Registry {
	return s.modes
}

// Start begins a round in the given mode. An unfinished round of the same
// mode is resumed instead; an unfinished round of another mode blocks the start.
// A resumed daily round from an earlier day is marked Stale; today's daily
// case can be started once it is finished.
func (s *GameService) Start(ctx context.Context, playerID int64, modeCommand, category string) (*RoundView, error) {
	mode, ok := s.modes.Get(modeCommand)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, modeCommand)
	}

	var view *RoundView
	err := s.lock.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		active, err := s.rounds.GetActive(ctx, playerID)
		switch {
		case err == nil:
			if active.Mode != mode.Command() {
				return ErrRoundInProgress
			}
			view, err = s.view(active)
			if err != nil {
				return err
			}
			view.Resumed = true
			view.Stale = active.Mode == model.ModeDaily && !stats.SameDay(active.PlayedOn, s.Today())
			return nil
		case !errors.Is(err, repository.ErrRoundNotFound):
			return err
		}

		today := s.Today()
		if mode.Command() == model.ModeDaily {
			if _, err := s.rounds.GetDaily(ctx, playerID, today); err == nil {
				return ErrDailyAlreadyPlayed
			} else if !errors.Is(err, repository.ErrRoundNotFound) {
				return err
			}
		}

		played, err := s.rounds.PlayedCaseIDs(ctx, playerID)
		if err != nil {
			return err
		}

		c, err := mode.SelectCase(ctx, game.Selection{
			PlayerID: playerID,
			Date:     today,
			Category: category,
			Played:   played,
		})
		if err != nil {
			return err
		}

		round := game.NewRound(s.newID(), playerID, c.ID, mode.Command(), today)
		round.StartedAt = s.now()
		if err := s.rounds.Create(ctx, round); err != nil {
			if errors.Is(err, repository.ErrRoundConflict) {
				if mode.Command() == model.ModeDaily {
					return ErrDailyAlreadyPlayed
				}
				return ErrRoundInProgress
			}
			return err
		}

		log.Info().
			Int64("player_id", playerID).
			Str("round_id", round.ID).
			Str("mode", round.Mode).
			Str("case_id", c.ID).
			Msg("Round started")

		view = &RoundView{Round: round, Case: c, Clues: game.CurrentClues(round, c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ActiveRound returns the round the player is currently playing.
func (s *GameService) ActiveRound(ctx context.Context, playerID int64) (*RoundView, error) {
	active, err := s.rounds.GetActive(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrRoundNotFound) {
			return nil, ErrNoActiveRound
		}
		return nil, err
	}
	return s.view(active)
}

// Guess submits text as a guess in the player's active round.
// Blank and repeated guesses are rejected without using an attempt.
func (s *GameService) Guess(ctx context.Context, playerID int64, text string) (*GuessResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyGuess
	}

	var result *GuessResult
	err := s.lock.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		round, c, err := s.active(ctx, playerID)
		if err != nil {
			return err
		}
		if round.HasGuessed(text) {
			return ErrDuplicateGuess
		}

		correct := matcher.IsCorrect(text, c)
		round.SubmitGuess(text, correct)

		view, err := s.persist(ctx, round, c)
		if err != nil {
			return err
		}
		result = &GuessResult{RoundView: view, Correct: correct}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevealClue shows the next clue of the active round. The boolean reports
// whether a new clue was revealed.
func (s *GameService) RevealClue(ctx context.Context, playerID int64) (*RoundView, bool, error) {
	var (
		view     *RoundView
		revealed bool
	)
	err := s.lock.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		round, c, err := s.active(ctx, playerID)
		if err != nil {
			return err
		}
		revealed = round.RevealNextClue()
		if revealed {
			if err := s.rounds.Save(ctx, round); err != nil {
				return err
			}
		}
		view = &RoundView{Round: round, Case: c, Clues: game.CurrentClues(round, c)}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return view, revealed, nil
}

// Busy reports whether a round operation for the player is in flight.
func (s *GameService) Busy(playerID int64) bool {
	return s.lock.IsLocked(playerID)
}

// Suggest returns autocomplete candidates for a partial guess.
func (s *GameService) Suggest(query string) []string {
	return matcher.Suggestions(query, s.lexicon, s.suggestionLimit)
}

func (s *GameService) active(ctx context.Context, playerID int64) (*game.Round, model.Case, error) {
	round, err := s.rounds.GetActive(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrRoundNotFound) {
			return nil, model.Case{}, ErrNoActiveRound
		}
		return nil, model.Case{}, err
	}
	c, ok := s.catalog.Get(round.CaseID)
	if !ok {
		return nil, model.Case{}, fmt.Errorf("%w: %s", ErrCaseMissing, round.CaseID)
	}
	return round, c, nil
}

// persist saves the round. A round that just finished is recorded into the
// player's stats first and only then saved as finished, so a failed stats
// write leaves the round in play and the guess can be repeated.
func (s *GameService) persist(ctx context.Context, round *game.Round, c model.Case) (*RoundView, error) {
	view := &RoundView{Round: round, Case: c, Clues: game.CurrentClues(round, c)}
	if !round.Finished() {
		if err := s.rounds.Save(ctx, round); err != nil {
			return nil, err
		}
		return view, nil
	}

	now := s.now()
	if round.FinishedAt == nil {
		round.FinishedAt = &now
	}
	ps, err := s.stats.Record(ctx, round, stats.DayOf(now.In(s.tz)))
	if err != nil {
		log.Warn().
			Err(err).
			Int64("player_id", round.PlayerID).
			Str("round_id", round.ID).
			Msg("Round not saved, stats were not recorded")
		return nil, err
	}
	if err := s.rounds.Save(ctx, round); err != nil {
		return nil, err
	}

	log.Info().
		Int64("player_id", round.PlayerID).
		Str("round_id", round.ID).
		Str("case_id", c.ID).
		Str("state", string(round.State)).
		Int("guesses", len(round.Guesses)).
		Int("score", round.Score).
		Msg("Round finished")

	view.Stats = ps
	return view, nil
}

func (s *GameService) view(round *game.Round) (*RoundView, error) {
	c, ok := s.catalog.Get(round.CaseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaseMissing, round.CaseID)
	}
	return &RoundView{Round: round, Case: c, Clues: game.CurrentClues(round, c)}, nil
}
