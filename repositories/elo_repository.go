package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
)

var ErrEloNotFound = errors.New("elo state not found")

type EloRepository interface {
	// GetByPlayerAndGame возвращает рейтинговое состояние пары (игрок, игра).
	GetByPlayerAndGame(ctx context.Context, playerID, gameID int) (*models.Elo, error)
	// Upsert создаёт или обновляет состояние по ключу (player_id, game_id).
	Upsert(ctx context.Context, elo *models.Elo) error
	ListByGame(ctx context.Context, gameID int, limit int) ([]models.Elo, error)
}

type postgresEloRepository struct {
	db *sql.DB
}

func NewPostgresEloRepository(db *sql.DB) EloRepository {
	return &postgresEloRepository{db: db}
}

func (r *postgresEloRepository) GetByPlayerAndGame(ctx context.Context, playerID, gameID int) (*models.Elo, error) {
	query := `
		SELECT id, player_id, game_id, rating, matches_played, updated_at
		FROM elos
		WHERE player_id = $1 AND game_id = $2`

	elo := &models.Elo{}
	err := r.db.QueryRowContext(ctx, query, playerID, gameID).Scan(
		&elo.ID,
		&elo.PlayerID,
		&elo.GameID,
		&elo.Rating,
		&elo.MatchesPlayed,
		&elo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEloNotFound
		}
		return nil, err
	}
	return elo, nil
}

func (r *postgresEloRepository) Upsert(ctx context.Context, elo *models.Elo) error {
	query := `
		INSERT INTO elos (player_id, game_id, rating, matches_played, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (player_id, game_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			matches_played = EXCLUDED.matches_played,
			updated_at = now()
		RETURNING id, updated_at`

	return r.db.QueryRowContext(ctx, query,
		elo.PlayerID,
		elo.GameID,
		elo.Rating,
		elo.MatchesPlayed,
	).Scan(&elo.ID, &elo.UpdatedAt)
}

func (r *postgresEloRepository) ListByGame(ctx context.Context, gameID int, limit int) ([]models.Elo, error) {
	query := `
		SELECT id, player_id, game_id, rating, matches_played, updated_at
		FROM elos
		WHERE game_id = $1
		ORDER BY rating DESC, matches_played DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	elos := make([]models.Elo, 0)
	for rows.Next() {
		var elo models.Elo
		scanErr := rows.Scan(
			&elo.ID,
			&elo.PlayerID,
			&elo.GameID,
			&elo.Rating,
			&elo.MatchesPlayed,
			&elo.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		elos = append(elos, elo)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return elos, nil
}
