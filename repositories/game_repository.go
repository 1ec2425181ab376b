package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetBySlug(ctx context.Context, slug string) (*models.Game, error)
	List(ctx context.Context) ([]models.Game, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT id, name, slug, logo_key, created_at FROM games WHERE id = $1`
	return r.scanGame(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	query := `SELECT id, name, slug, logo_key, created_at FROM games WHERE slug = $1`
	return r.scanGame(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresGameRepository) List(ctx context.Context) ([]models.Game, error) {
	query := `SELECT id, name, slug, logo_key, created_at FROM games ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := rows.Scan(&game.ID, &game.Name, &game.Slug, &game.LogoKey, &game.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) scanGame(row *sql.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(&game.ID, &game.Name, &game.Slug, &game.LogoKey, &game.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}
