package services

import (
	"context"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/repositories"
	"github.com/bracketpulse/tournament-stats/storage"
)

// LeaderboardEntry — строка рейтинговой таблицы игры.
type LeaderboardEntry struct {
	Player        models.Player `json:"player"`
	Rating        int           `json:"rating"`
	MatchesPlayed int           `json:"matches_played"`
}

type PlayerService interface {
	GetPlayerByID(ctx context.Context, id int) (*models.Player, error)
	Leaderboard(ctx context.Context, gameID int, limit int) ([]LeaderboardEntry, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	eloRepo    repositories.EloRepository
	uploader   storage.FileUploader
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	eloRepo repositories.EloRepository,
	uploader storage.FileUploader,
) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		eloRepo:    eloRepo,
		uploader:   uploader,
	}
}

func (s *playerService) GetPlayerByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	populatePlayerAvatarURL(player, s.uploader)
	return player, nil
}

const defaultLeaderboardLimit = 50

func (s *playerService) Leaderboard(ctx context.Context, gameID int, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	elos, err := s.eloRepo.ListByGame(ctx, gameID, limit)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]int, 0, len(elos))
	for _, state := range elos {
		playerIDs = append(playerIDs, state.PlayerID)
	}

	players, err := s.playerRepo.ListByIDs(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	playersByID := make(map[int]models.Player, len(players))
	for _, player := range players {
		populatePlayerAvatarURL(&player, s.uploader)
		playersByID[player.ID] = player
	}

	entries := make([]LeaderboardEntry, 0, len(elos))
	for _, state := range elos {
		player, ok := playersByID[state.PlayerID]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Player:        player,
			Rating:        state.Rating,
			MatchesPlayed: state.MatchesPlayed,
		})
	}
	return entries, nil
}

func populatePlayerAvatarURL(player *models.Player, uploader storage.FileUploader) {
	if player == nil || uploader == nil || player.AvatarKey == nil || *player.AvatarKey == "" {
		return
	}
	if url := uploader.GetPublicURL(*player.AvatarKey); url != "" {
		player.AvatarURL = &url
	}
}
