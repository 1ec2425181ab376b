package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/repositories"
)

// StandingsService выводит eloBefore/eloAfter результатов из глобальной
// истории матчей игрока: рейтинг на входе в турнир отражает всю траекторию
// игрока, а не только изменения внутри этого турнира.
type StandingsService interface {
	BackfillResults(ctx context.Context, tournamentID int) error
}

type standingsService struct {
	matchRepo  repositories.MatchRepository
	resultRepo repositories.ResultRepository
	logger     *slog.Logger
}

func NewStandingsService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		matchRepo:  matchRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// BackfillResults: для каждого результата турнира берётся самый ранний матч
// игрока по всей системе (rating-before занятой им стороны) и самый поздний
// (rating-after). Результаты сохраняются по одному, fail-fast.
func (s *standingsService) BackfillResults(ctx context.Context, tournamentID int) error {
	results, err := s.resultRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("loading results for tournament %d: %w", tournamentID, err)
	}

	for i := range results {
		result := &results[i]

		matches, err := s.matchRepo.ListByPlayer(ctx, result.PlayerID)
		if err != nil {
			return fmt.Errorf("loading matches for player %d: %w", result.PlayerID, err)
		}
		if len(matches) == 0 {
			s.logger.WarnContext(ctx, "player has a result but no matches, skipping backfill",
				slog.Int("player_id", result.PlayerID),
				slog.Int("tournament_id", tournamentID))
			continue
		}

		first := matches[0]
		last := matches[len(matches)-1]

		result.EloBefore = sideEloBefore(&first, result.PlayerID)
		result.EloAfter = sideEloAfter(&last, result.PlayerID)

		if err := s.resultRepo.UpdateElo(ctx, result); err != nil {
			return fmt.Errorf("persisting backfilled result %d: %w", result.ID, err)
		}
	}

	return nil
}

func sideEloBefore(match *models.Match, playerID int) *int {
	switch match.Side(playerID) {
	case 1:
		return copyIntPtr(match.P1EloBefore)
	case 2:
		return copyIntPtr(match.P2EloBefore)
	default:
		return nil
	}
}

func sideEloAfter(match *models.Match, playerID int) *int {
	switch match.Side(playerID) {
	case 1:
		return copyIntPtr(match.P1EloAfter)
	case 2:
		return copyIntPtr(match.P2EloAfter)
	default:
		return nil
	}
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
