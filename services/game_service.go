package services

import (
	"context"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/repositories"
	"github.com/bracketpulse/tournament-stats/storage"
)

type GameService interface {
	ListGames(ctx context.Context) ([]models.Game, error)
	GetGameBySlug(ctx context.Context, slug string) (*models.Game, error)
}

type gameService struct {
	gameRepo repositories.GameRepository
	uploader storage.FileUploader
}

func NewGameService(gameRepo repositories.GameRepository, uploader storage.FileUploader) GameService {
	return &gameService{gameRepo: gameRepo, uploader: uploader}
}

func (s *gameService) ListGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range games {
		s.populateLogoURL(&games[i])
	}
	return games, nil
}

func (s *gameService) GetGameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	game, err := s.gameRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	s.populateLogoURL(game)
	return game, nil
}

func (s *gameService) populateLogoURL(game *models.Game) {
	if s.uploader == nil || game.LogoKey == nil || *game.LogoKey == "" {
		return
	}
	if url := s.uploader.GetPublicURL(*game.LogoKey); url != "" {
		game.LogoURL = &url
	}
}
