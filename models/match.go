package models

import "time"

// Match представляет один матч турнира, пересобирается при каждой синхронизации.
// Поля рейтингов заполняются только движком переигровки (replay), ровно один
// раз за синхронизацию: сначала *EloBefore и исход, затем *EloAfter.
type Match struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Player1ID    int        `json:"player1_id" db:"player1_id"`
	Player2ID    int        `json:"player2_id" db:"player2_id"`
	WinnerID     *int       `json:"winner_id,omitempty" db:"winner_id"`
	LoserID      *int       `json:"loser_id,omitempty" db:"loser_id"`
	Score        *string    `json:"score,omitempty" db:"score"`
	Round        *int       `json:"round,omitempty" db:"round"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	P1EloBefore     *int `json:"p1_elo_before,omitempty" db:"p1_elo_before"`
	P1EloAfter      *int `json:"p1_elo_after,omitempty" db:"p1_elo_after"`
	P1MatchesBefore *int `json:"p1_matches_before,omitempty" db:"p1_matches_before"`
	P2EloBefore     *int `json:"p2_elo_before,omitempty" db:"p2_elo_before"`
	P2EloAfter      *int `json:"p2_elo_after,omitempty" db:"p2_elo_after"`
	P2MatchesBefore *int `json:"p2_matches_before,omitempty" db:"p2_matches_before"`
}

// Side returns 1 or 2 depending on which slot the player occupies, 0 if the
// player did not take part in the match.
func (m *Match) Side(playerID int) int {
	switch playerID {
	case m.Player1ID:
		return 1
	case m.Player2ID:
		return 2
	default:
		return 0
	}
}
