package models

import "time"

// Elo представляет рейтинговое состояние пары (игрок, игра).
// Разделяется всеми турнирами этой игры: MatchesPlayed только растёт,
// ровно на единицу за каждый переигранный матч игрока.
type Elo struct {
	ID            int       `json:"id" db:"id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	GameID        int       `json:"game_id" db:"game_id"`
	Rating        int       `json:"rating" db:"rating"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
