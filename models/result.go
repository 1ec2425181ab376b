package models

// Result представляет итог турнира для одного игрока.
// EloBefore/EloAfter выводятся из первого и последнего матча игрока
// (см. standings backfill), никогда не задаются напрямую.
type Result struct {
	ID           int  `json:"id" db:"id"`
	TournamentID int  `json:"tournament_id" db:"tournament_id"`
	PlayerID     int  `json:"player_id" db:"player_id"`
	Rank         *int `json:"rank,omitempty" db:"rank"`
	EloBefore    *int `json:"elo_before,omitempty" db:"elo_before"`
	EloAfter     *int `json:"elo_after,omitempty" db:"elo_after"`

	Player *Player `json:"player,omitempty" db:"-"`
}
