package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/provider"
	"github.com/bracketpulse/tournament-stats/repositories"
)

// SyncNotifier получает события хода синхронизации (реализуется live-хабом).
type SyncNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type SyncEvent struct {
	Type         string `json:"type"`
	TournamentID int    `json:"tournament_id"`
	Stage        string `json:"stage,omitempty"`
	Error        string `json:"error,omitempty"`
}

type SyncConfig struct {
	// FetchTimeout ограничивает запрос к провайдеру сеток.
	FetchTimeout time.Duration
	// StageTimeout ограничивает каждый батч-этап (reconcile, build).
	// Зависший один элемент не должен блокировать синхронизацию бесконечно.
	StageTimeout time.Duration
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultStageTimeout = 2 * time.Minute
)

// SyncService — точка входа пайплайна: удаляет матчи и результаты турнира,
// пересобирает их из внешней сетки и, если сетка завершена, запускает
// переигровку рейтингов и backfill результатов.
type SyncService interface {
	SyncTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
	SyncPending(ctx context.Context) error
}

type syncService struct {
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	brackets       provider.BracketClient
	reconciler     ReconcilerService
	builder        BuilderService
	replay         ReplayService
	standings      StandingsService
	notifier       SyncNotifier
	cfg            SyncConfig
	logger         *slog.Logger
}

func NewSyncService(
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	brackets provider.BracketClient,
	reconciler ReconcilerService,
	builder BuilderService,
	replay ReplayService,
	standings StandingsService,
	notifier SyncNotifier,
	cfg SyncConfig,
	logger *slog.Logger,
) SyncService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = defaultStageTimeout
	}
	return &syncService{
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		brackets:       brackets,
		reconciler:     reconciler,
		builder:        builder,
		replay:         replay,
		standings:      standings,
		notifier:       notifier,
		cfg:            cfg,
		logger:         logger,
	}
}

// SyncTournament выполняет полную пересинхронизацию. Этапы идут строго по
// очереди, каждый завершается (или падает) до начала следующего. Ошибки не
// ретраятся внутри: повторный запуск — ответственность оператора, и он
// безопасен, потому что матчи и результаты турнира пересоздаются целиком.
func (s *syncService) SyncTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if tournament.SyncState == models.SyncStateSyncing {
		return nil, ErrSyncInProgress
	}
	game, err := s.gameRepo.GetByID(ctx, tournament.GameID)
	if err != nil {
		return nil, mapGameRepoError(err)
	}

	s.setSyncState(ctx, tournament, models.SyncStateSyncing)
	s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_STARTED", TournamentID: tournament.ID})

	updated, err := s.runPipeline(ctx, tournament, game)
	if err != nil {
		s.setSyncState(ctx, tournament, models.SyncStateFailed)
		s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_FAILED", TournamentID: tournament.ID, Error: err.Error()})
		return nil, err
	}

	s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_COMPLETED", TournamentID: tournament.ID})
	return updated, nil
}

func (s *syncService) runPipeline(ctx context.Context, tournament *models.Tournament, game *models.Game) (*models.Tournament, error) {
	fetchCtx, cancelFetch := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancelFetch()

	bracket, err := s.brackets.FetchBracket(fetchCtx, tournament.BracketRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketFetch, err)
	}

	// Матчи и результаты принадлежат турниру и пересоздаются целиком при
	// каждой синхронизации. Рейтинговые состояния не трогаем: они общие.
	if err := s.matchRepo.DeleteByTournament(ctx, tournament.ID); err != nil {
		return nil, fmt.Errorf("deleting matches of tournament %d: %w", tournament.ID, err)
	}
	if err := s.resultRepo.DeleteByTournament(ctx, tournament.ID); err != nil {
		return nil, fmt.Errorf("deleting results of tournament %d: %w", tournament.ID, err)
	}

	roster, err := s.reconcileStage(ctx, bracket)
	if err != nil {
		return nil, fmt.Errorf("reconciling participants of tournament %d: %w", tournament.ID, err)
	}
	s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_STAGE", TournamentID: tournament.ID, Stage: "participants_reconciled"})

	if err := s.buildStage(ctx, tournament, bracket, roster); err != nil {
		return nil, err
	}
	s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_STAGE", TournamentID: tournament.ID, Stage: "matches_built"})

	tournament.PlayerIDs = rosterPlayerIDs(roster)

	if bracket.Complete() {
		if err := s.replay.ReplayTournament(ctx, tournament, game); err != nil {
			return nil, err
		}
		if err := s.standings.BackfillResults(ctx, tournament.ID); err != nil {
			return nil, err
		}
		s.broadcast(tournament.ID, SyncEvent{Type: "SYNC_STAGE", TournamentID: tournament.ID, Stage: "ratings_replayed"})
	} else {
		s.logger.InfoContext(ctx, "bracket not complete, skipping rating replay",
			slog.Int("tournament_id", tournament.ID),
			slog.String("bracket_state", bracket.State))
	}

	now := time.Now()
	tournament.SyncState = models.SyncStateSynced
	tournament.SyncedAt = &now
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, fmt.Errorf("persisting tournament %d after sync: %w", tournament.ID, err)
	}

	return tournament, nil
}

func (s *syncService) reconcileStage(ctx context.Context, bracket *provider.Bracket) ([]ReconciledParticipant, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
	defer cancel()
	return s.reconciler.ReconcileParticipants(stageCtx, bracket.Participants)
}

func (s *syncService) buildStage(ctx context.Context, tournament *models.Tournament, bracket *provider.Bracket, roster []ReconciledParticipant) error {
	stageCtx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
	defer cancel()

	if _, err := s.builder.BuildMatches(stageCtx, tournament, bracket.Matches, roster); err != nil {
		return fmt.Errorf("building matches of tournament %d: %w", tournament.ID, err)
	}
	if _, err := s.builder.BuildResults(stageCtx, tournament, roster); err != nil {
		return fmt.Errorf("building results of tournament %d: %w", tournament.ID, err)
	}
	return nil
}

// SyncPending синхронизирует все турниры в состоянии pending. Вызывается
// планировщиком; ошибки отдельных турниров логируются и не прерывают обход.
func (s *syncService) SyncPending(ctx context.Context) error {
	pending, err := s.tournamentRepo.ListBySyncState(ctx, models.SyncStatePending)
	if err != nil {
		return fmt.Errorf("listing pending tournaments: %w", err)
	}

	for _, tournament := range pending {
		if _, err := s.SyncTournament(ctx, tournament.ID); err != nil {
			s.logger.ErrorContext(ctx, "scheduled sync failed",
				slog.Int("tournament_id", tournament.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *syncService) setSyncState(ctx context.Context, tournament *models.Tournament, state models.SyncState) {
	tournament.SyncState = state
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		s.logger.WarnContext(ctx, "failed to persist tournament sync state",
			slog.Int("tournament_id", tournament.ID),
			slog.String("state", string(state)),
			slog.Any("error", err))
	}
}

func (s *syncService) broadcast(tournamentID int, event SyncEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastToRoom(strconv.Itoa(tournamentID), event)
}

func rosterPlayerIDs(roster []ReconciledParticipant) []int {
	ids := make([]int, 0, len(roster))
	seen := make(map[int]bool, len(roster))
	for _, rp := range roster {
		if rp.Player == nil || seen[rp.Player.ID] {
			continue
		}
		seen[rp.Player.ID] = true
		ids = append(ids, rp.Player.ID)
	}
	return ids
}

func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func mapGameRepoError(err error) error {
	if errors.Is(err, repositories.ErrGameNotFound) {
		return ErrGameNotFound
	}
	return err
}
