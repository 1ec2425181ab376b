package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/provider"
	"github.com/bracketpulse/tournament-stats/repositories"
	"golang.org/x/sync/errgroup"
)

const buildWorkers = 5

// BuilderService пересобирает внутренние записи матчей и результатов из
// данных внешней сетки и выдачи reconciler'а.
type BuilderService interface {
	BuildMatches(ctx context.Context, tournament *models.Tournament, external []provider.Match, roster []ReconciledParticipant) ([]models.Match, error)
	BuildResults(ctx context.Context, tournament *models.Tournament, roster []ReconciledParticipant) ([]models.Result, error)
}

type builderService struct {
	matchRepo  repositories.MatchRepository
	resultRepo repositories.ResultRepository
	logger     *slog.Logger
}

func NewBuilderService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) BuilderService {
	return &builderService{
		matchRepo:  matchRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// BuildMatches строит и сохраняет матчи турнира через ограниченный пул,
// fail-fast. Матчи без обеих сторон (bye, незаполненные слоты) пропускаются.
func (s *builderService) BuildMatches(ctx context.Context, tournament *models.Tournament, external []provider.Match, roster []ReconciledParticipant) ([]models.Match, error) {
	playerByParticipant := make(map[int64]*models.Player, len(roster))
	for _, rp := range roster {
		playerByParticipant[rp.ParticipantID] = rp.Player
	}

	pending := make([]provider.Match, 0, len(external))
	for _, em := range external {
		if em.Player1ID == nil || em.Player2ID == nil {
			s.logger.DebugContext(ctx, "skipping match without both sides",
				slog.Int64("external_match_id", em.ID),
				slog.Int("tournament_id", tournament.ID))
			continue
		}
		pending = append(pending, em)
	}

	matches := make([]models.Match, len(pending))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(buildWorkers)

	for i, em := range pending {
		i, em := i, em
		g.Go(func() error {
			match, err := buildMatch(tournament, em, playerByParticipant)
			if err != nil {
				return err
			}
			if err := s.matchRepo.Create(gCtx, match); err != nil {
				return fmt.Errorf("persisting match for external id %d: %w", em.ID, err)
			}
			matches[i] = *match
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

func buildMatch(tournament *models.Tournament, em provider.Match, playerByParticipant map[int64]*models.Player) (*models.Match, error) {
	player1, err := resolveSide(playerByParticipant, *em.Player1ID, em.ID)
	if err != nil {
		return nil, err
	}
	player2, err := resolveSide(playerByParticipant, *em.Player2ID, em.ID)
	if err != nil {
		return nil, err
	}

	match := &models.Match{
		TournamentID: tournament.ID,
		Player1ID:    player1.ID,
		Player2ID:    player2.ID,
		Round:        em.Round,
		StartedAt:    em.StartedAt,
		CompletedAt:  em.CompletedAt,
	}
	if em.ScoresCSV != "" {
		score := em.ScoresCSV
		match.Score = &score
	}
	if em.WinnerID != nil {
		winner, err := resolveSide(playerByParticipant, *em.WinnerID, em.ID)
		if err != nil {
			return nil, err
		}
		match.WinnerID = &winner.ID
	}
	if em.LoserID != nil {
		loser, err := resolveSide(playerByParticipant, *em.LoserID, em.ID)
		if err != nil {
			return nil, err
		}
		match.LoserID = &loser.ID
	}

	return match, nil
}

func resolveSide(playerByParticipant map[int64]*models.Player, participantID int64, externalMatchID int64) (*models.Player, error) {
	player, ok := playerByParticipant[participantID]
	if !ok {
		return nil, fmt.Errorf("%w: participant %d in external match %d", ErrUnknownSide, participantID, externalMatchID)
	}
	return player, nil
}

// BuildResults создаёт по одному результату на каждого игрока турнира
// с финальным местом из внешних данных. Тот же ограниченный пул, fail-fast.
func (s *builderService) BuildResults(ctx context.Context, tournament *models.Tournament, roster []ReconciledParticipant) ([]models.Result, error) {
	results := make([]models.Result, len(roster))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(buildWorkers)

	for i, rp := range roster {
		i, rp := i, rp
		g.Go(func() error {
			result := &models.Result{
				TournamentID: tournament.ID,
				PlayerID:     rp.Player.ID,
				Rank:         rp.FinalRank,
			}
			if err := s.resultRepo.Create(gCtx, result); err != nil {
				return fmt.Errorf("persisting result for player %d: %w", rp.Player.ID, err)
			}
			results[i] = *result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
