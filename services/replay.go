package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bracketpulse/tournament-stats/elo"
	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/repositories"
)

// ReplayConfig — параметры переигровки рейтингов.
type ReplayConfig struct {
	// StartingRating присваивается игроку без рейтингового состояния
	// по данной игре.
	StartingRating int
	// LegacyThreeGameOutcome включает историческое поведение multi-game
	// исхода (учитываются только первые три игры сета). Для сверки со
	// старыми данными; по умолчанию выключено.
	LegacyThreeGameOutcome bool
}

// ReplayService детерминированно пересчитывает рейтинги турнира,
// проигрывая его матчи в хронологическом порядке.
type ReplayService interface {
	ReplayTournament(ctx context.Context, tournament *models.Tournament, game *models.Game) error
}

type replayService struct {
	matchRepo repositories.MatchRepository
	eloRepo   repositories.EloRepository
	engine    *elo.Engine
	cfg       ReplayConfig
	gameLocks *keyedMutex
	logger    *slog.Logger
}

func NewReplayService(
	matchRepo repositories.MatchRepository,
	eloRepo repositories.EloRepository,
	engine *elo.Engine,
	cfg ReplayConfig,
	logger *slog.Logger,
) ReplayService {
	return &replayService{
		matchRepo: matchRepo,
		eloRepo:   eloRepo,
		engine:    engine,
		cfg:       cfg,
		gameLocks: newKeyedMutex(),
		logger:    logger,
	}
}

// ReplayTournament проигрывает матчи строго последовательно: рейтинговые
// состояния разделяемы и зависят от порядка, параллелизм внутри переигровки
// недопустим. Блокировка по игре сериализует переигровки разных турниров
// одной игры. Состояния мутируются в памяти и сохраняются один раз в конце.
func (s *replayService) ReplayTournament(ctx context.Context, tournament *models.Tournament, game *models.Game) error {
	s.gameLocks.Lock(game.ID)
	defer s.gameLocks.Unlock(game.ID)

	matches, err := s.matchRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("loading matches for tournament %d: %w", tournament.ID, err)
	}
	if len(matches) == 0 {
		return nil
	}

	states, err := s.loadStates(ctx, matches, game.ID)
	if err != nil {
		return err
	}

	// Снимок стартовых состояний: при сбое сохранения его можно накатить
	// обратно, чтобы повторный запуск не применил изменения дважды.
	snapshot := make(map[int]models.Elo, len(states))
	for playerID, state := range states {
		snapshot[playerID] = *state
	}

	for i := range matches {
		match := &matches[i]
		if err := s.replayMatch(ctx, match, states); err != nil {
			// Уже записанные матчи сохраняют свои значения before/after;
			// рейтинговые состояния ещё не сохранялись, повторный запуск безопасен.
			return fmt.Errorf("replay of tournament %d stopped at match %d: %w", tournament.ID, match.ID, err)
		}
	}

	persisted := make([]int, 0, len(states))
	for playerID, state := range states {
		if err := s.eloRepo.Upsert(ctx, state); err != nil {
			s.restoreStates(ctx, persisted, snapshot)
			return fmt.Errorf("persisting elo state for player %d: %w", playerID, err)
		}
		persisted = append(persisted, playerID)
	}

	return nil
}

func (s *replayService) loadStates(ctx context.Context, matches []models.Match, gameID int) (map[int]*models.Elo, error) {
	states := make(map[int]*models.Elo)
	for _, match := range matches {
		for _, playerID := range []int{match.Player1ID, match.Player2ID} {
			if _, ok := states[playerID]; ok {
				continue
			}
			state, err := s.eloRepo.GetByPlayerAndGame(ctx, playerID, gameID)
			if err != nil {
				if !errors.Is(err, repositories.ErrEloNotFound) {
					return nil, fmt.Errorf("loading elo state for player %d: %w", playerID, err)
				}
				state = &models.Elo{
					PlayerID: playerID,
					GameID:   gameID,
					Rating:   s.cfg.StartingRating,
				}
			}
			states[playerID] = state
		}
	}
	return states, nil
}

func (s *replayService) replayMatch(ctx context.Context, match *models.Match, states map[int]*models.Elo) error {
	state1 := states[match.Player1ID]
	state2 := states[match.Player2ID]

	rating1 := float64(state1.Rating)
	rating2 := float64(state2.Rating)

	expected1 := s.engine.ExpectedScore(rating1, rating2)
	expected2 := s.engine.ExpectedScore(rating2, rating1)

	outcome := s.outcome(match)

	// K-фактор каждой стороны выбирается по её собственному текущему рейтингу.
	next1 := int(s.engine.NewRating(expected1, outcome, rating1))
	next2 := int(s.engine.NewRating(expected2, 1-outcome, rating2))

	match.P1EloBefore = intPtr(state1.Rating)
	match.P1EloAfter = intPtr(next1)
	match.P1MatchesBefore = intPtr(state1.MatchesPlayed)
	match.P2EloBefore = intPtr(state2.Rating)
	match.P2EloAfter = intPtr(next2)
	match.P2MatchesBefore = intPtr(state2.MatchesPlayed)

	state1.Rating = next1
	state1.MatchesPlayed++
	state2.Rating = next2
	state2.MatchesPlayed++

	return s.matchRepo.UpdateRatings(ctx, match)
}

func (s *replayService) outcome(match *models.Match) float64 {
	games := elo.ParseScore(derefString(match.Score))
	if s.cfg.LegacyThreeGameOutcome {
		return elo.OutcomeFirstThreeGames(games)
	}
	return elo.Outcome(games)
}

// restoreStates best-effort накатывает снимок обратно на уже сохранённые
// состояния. Ошибки только логируются: исходный сбой важнее.
func (s *replayService) restoreStates(ctx context.Context, persisted []int, snapshot map[int]models.Elo) {
	for _, playerID := range persisted {
		original := snapshot[playerID]
		if err := s.eloRepo.Upsert(ctx, &original); err != nil {
			s.logger.ErrorContext(ctx, "failed to restore elo state after replay failure",
				slog.Int("player_id", playerID),
				slog.Int("game_id", original.GameID),
				slog.Any("error", err))
		}
	}
}
