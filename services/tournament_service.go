package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/repositories"
	"github.com/bracketpulse/tournament-stats/storage"
	"golang.org/x/sync/errgroup"
)

// RegisterTournamentInput — данные регистрации турнира на синхронизацию.
type RegisterTournamentInput struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	GameID     int    `json:"game_id"`
	BracketRef string `json:"bracket_ref"`
}

type TournamentService interface {
	// RegisterTournament регистрирует турнир в состоянии pending; матчи и
	// результаты появятся при первой синхронизации.
	RegisterTournament(ctx context.Context, input RegisterTournamentInput) (*models.Tournament, error)
	// GetTournamentByID возвращает турнир со связанными игрой, игроками,
	// матчами и результатами.
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	GetStandings(ctx context.Context, tournamentID int) ([]models.Result, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) RegisterTournament(ctx context.Context, input RegisterTournamentInput) (*models.Tournament, error) {
	if input.Name == "" || input.Slug == "" || input.BracketRef == "" {
		return nil, errors.New("name, slug and bracket_ref are required")
	}

	if _, err := s.gameRepo.GetByID(ctx, input.GameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	tournament := &models.Tournament{
		Name:       input.Name,
		Slug:       input.Slug,
		GameID:     input.GameID,
		BracketRef: input.BracketRef,
		SyncState:  models.SyncStatePending,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, ErrTournamentSlugConflict
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament registered for sync",
		slog.Int("tournament_id", tournament.ID),
		slog.String("slug", tournament.Slug))
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.populateTournament(ctx, tournament)
}

func (s *tournamentService) GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.populateTournament(ctx, tournament)
}

func (s *tournamentService) populateTournament(ctx context.Context, tournament *models.Tournament) (*models.Tournament, error) {

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		game, err := s.gameRepo.GetByID(gCtx, tournament.GameID)
		if err != nil {
			return err
		}
		tournament.Game = game
		return nil
	})

	g.Go(func() error {
		players, err := s.playerRepo.ListByIDs(gCtx, tournament.PlayerIDs)
		if err != nil {
			return err
		}
		for i := range players {
			populatePlayerAvatarURL(&players[i], s.uploader)
		}
		tournament.Players = players
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, tournament.ID)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})

	g.Go(func() error {
		results, err := s.resultRepo.ListByTournament(gCtx, tournament.ID)
		if err != nil {
			return err
		}
		tournament.Results = results
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) GetStandings(ctx context.Context, tournamentID int) ([]models.Result, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	results, err := s.resultRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]int, 0, len(results))
	for _, result := range results {
		playerIDs = append(playerIDs, result.PlayerID)
	}
	players, err := s.playerRepo.ListByIDs(ctx, playerIDs)
	if err != nil {
		return nil, err
	}

	playersByID := make(map[int]*models.Player, len(players))
	for i := range players {
		populatePlayerAvatarURL(&players[i], s.uploader)
		playersByID[players[i].ID] = &players[i]
	}
	for i := range results {
		results[i].Player = playersByID[results[i].PlayerID]
	}

	return results, nil
}
