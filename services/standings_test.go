package services

import (
	"context"
	"testing"
	"time"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillResults_GlobalTrajectory(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	resultRepo := newFakeResultRepo()
	service := NewStandingsService(matchRepo, resultRepo, testLogger())

	// Матч более раннего турнира: игрок 1 занимал вторую сторону и пришёл
	// туда с рейтингом 980. Backfill смотрит на всю историю игрока.
	seedMatch(t, matchRepo, models.Match{
		TournamentID: 99, Player1ID: 5, Player2ID: 1,
		StartedAt:   timePtr(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)),
		P1EloBefore: intPtr(1020), P1EloAfter: intPtr(1004), P1MatchesBefore: intPtr(8),
		P2EloBefore: intPtr(980), P2EloAfter: intPtr(1000), P2MatchesBefore: intPtr(2),
	})
	seedMatch(t, matchRepo, models.Match{
		TournamentID: 1, Player1ID: 1, Player2ID: 2,
		StartedAt:   timePtr(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		P1EloBefore: intPtr(1000), P1EloAfter: intPtr(1016), P1MatchesBefore: intPtr(3),
		P2EloBefore: intPtr(1000), P2EloAfter: intPtr(984), P2MatchesBefore: intPtr(0),
	})
	seedMatch(t, matchRepo, models.Match{
		TournamentID: 1, Player1ID: 1, Player2ID: 3,
		StartedAt:   timePtr(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)),
		P1EloBefore: intPtr(1016), P1EloAfter: intPtr(1032), P1MatchesBefore: intPtr(4),
		P2EloBefore: intPtr(1016), P2EloAfter: intPtr(1000), P2MatchesBefore: intPtr(4),
	})

	rank := 1
	result := models.Result{TournamentID: 1, PlayerID: 1, Rank: &rank}
	require.NoError(t, resultRepo.Create(context.Background(), &result))

	require.NoError(t, service.BackfillResults(context.Background(), 1))

	results, err := resultRepo.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Вход — самый ранний матч игрока по всей системе, выход — самый поздний.
	require.NotNil(t, results[0].EloBefore)
	assert.Equal(t, 980, *results[0].EloBefore)
	require.NotNil(t, results[0].EloAfter)
	assert.Equal(t, 1032, *results[0].EloAfter)
}

func TestBackfillResults_PlayerWithoutMatches(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	resultRepo := newFakeResultRepo()
	service := NewStandingsService(matchRepo, resultRepo, testLogger())

	result := models.Result{TournamentID: 1, PlayerID: 42}
	require.NoError(t, resultRepo.Create(context.Background(), &result))

	require.NoError(t, service.BackfillResults(context.Background(), 1))

	results, err := resultRepo.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].EloBefore)
	assert.Nil(t, results[0].EloAfter)
}

func TestBackfillResults_UnstampedMatches(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	resultRepo := newFakeResultRepo()
	service := NewStandingsService(matchRepo, resultRepo, testLogger())

	seedMatch(t, matchRepo, models.Match{
		TournamentID: 1, Player1ID: 1, Player2ID: 2,
		StartedAt: timePtr(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	})
	result := models.Result{TournamentID: 1, PlayerID: 1}
	require.NoError(t, resultRepo.Create(context.Background(), &result))

	// Матчи без рейтинговых полей (переигровка не выполнялась) дают nil-значения.
	require.NoError(t, service.BackfillResults(context.Background(), 1))

	results, err := resultRepo.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].EloBefore)
	assert.Nil(t, results[0].EloAfter)
}
