package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/provider"
	"github.com/bracketpulse/tournament-stats/repositories"
	"github.com/bracketpulse/tournament-stats/storage"
	"golang.org/x/sync/errgroup"
)

// reconcileWorkers ограничивает число одновременных операций против
// хранилища при сопоставлении участников.
const reconcileWorkers = 5

// ReconciledParticipant связывает внутреннего игрока с участником внешней
// сетки. Порядок элементов в выдаче незначим.
type ReconciledParticipant struct {
	Player        *models.Player
	ParticipantID int64
	FinalRank     *int
	Meta          json.RawMessage
}

// ReconcilerService сопоставляет участников внешней сетки с внутренними
// игроками: найденные обновляются на месте, ненайденные создаются.
type ReconcilerService interface {
	ReconcileParticipants(ctx context.Context, participants []provider.Participant) ([]ReconciledParticipant, error)
}

type reconcilerService struct {
	playerRepo repositories.PlayerRepository
	rehoster   storage.AvatarRehoster
	logger     *slog.Logger
}

func NewReconcilerService(
	playerRepo repositories.PlayerRepository,
	rehoster storage.AvatarRehoster,
	logger *slog.Logger,
) ReconcilerService {
	return &reconcilerService{
		playerRepo: playerRepo,
		rehoster:   rehoster,
		logger:     logger,
	}
}

// ReconcileParticipants обрабатывает участников через ограниченный пул
// воркеров, fail-fast: первая ошибка останавливает приём новой работы и
// возвращается вызывающему; уже записанные игроки остаются в базе.
func (s *reconcilerService) ReconcileParticipants(ctx context.Context, participants []provider.Participant) ([]ReconciledParticipant, error) {
	reconciled := make([]ReconciledParticipant, len(participants))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileWorkers)

	for i, participant := range participants {
		i, participant := i, participant
		g.Go(func() error {
			player, err := s.reconcileOne(gCtx, participant)
			if err != nil {
				return err
			}
			reconciled[i] = ReconciledParticipant{
				Player:        player,
				ParticipantID: participant.ID,
				FinalRank:     participant.FinalRank,
				Meta:          participant.Meta,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reconciled, nil
}

func (s *reconcilerService) reconcileOne(ctx context.Context, participant provider.Participant) (*models.Player, error) {
	player, err := s.lookupPlayer(ctx, participant)
	if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil, err
	}

	if player == nil {
		return s.createPlayer(ctx, participant)
	}
	return s.updatePlayer(ctx, player, participant)
}

// lookupPlayer ищет игрока по отпечатку email, а при его отсутствии —
// по внешнему display name в истории имён. Оба сравнения без учёта регистра.
func (s *reconcilerService) lookupPlayer(ctx context.Context, participant provider.Participant) (*models.Player, error) {
	if hash := derefString(participant.EmailHash); hash != "" {
		return s.playerRepo.GetByEmailHash(ctx, hash)
	}
	return s.playerRepo.GetByName(ctx, participant.DisplayName)
}

func (s *reconcilerService) createPlayer(ctx context.Context, participant provider.Participant) (*models.Player, error) {
	player := &models.Player{
		Handle: participantHandle(participant),
		Names:  []string{participant.DisplayName},
	}
	if derefString(participant.EmailHash) != "" {
		player.EmailHash = participant.EmailHash
	}

	s.rehostAvatar(ctx, player, participant)

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *reconcilerService) updatePlayer(ctx context.Context, player *models.Player, participant provider.Participant) (*models.Player, error) {
	if handle := derefString(participant.Username); handle != "" && handle != player.Handle {
		player.Handle = handle
	}
	if participant.DisplayName != "" && !player.HasName(participant.DisplayName) {
		player.Names = append(player.Names, participant.DisplayName)
	}
	if hash := derefString(participant.EmailHash); hash != "" && hash != derefString(player.EmailHash) {
		player.EmailHash = participant.EmailHash
	}
	if derefString(participant.AvatarURL) != derefString(player.ExternalAvatarURL) {
		s.rehostAvatar(ctx, player, participant)
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// rehostAvatar перезаливает аватар best-effort: ошибка логируется и не
// прерывает reconciliation игрока.
func (s *reconcilerService) rehostAvatar(ctx context.Context, player *models.Player, participant provider.Participant) {
	externalURL := derefString(participant.AvatarURL)
	if externalURL == "" || s.rehoster == nil {
		return
	}

	key, err := s.rehoster.Rehost(ctx, externalURL)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehost participant avatar",
			slog.Int64("participant_id", participant.ID),
			slog.String("avatar_url", externalURL),
			slog.Any("error", err))
		return
	}

	player.AvatarKey = &key
	player.ExternalAvatarURL = participant.AvatarURL
}

func participantHandle(participant provider.Participant) string {
	if handle := derefString(participant.Username); handle != "" {
		return handle
	}
	return participant.DisplayName
}
