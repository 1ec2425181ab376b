package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerHandleConflict = errors.New("player handle conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// GetByEmailHash ищет игрока по отпечатку email без учёта регистра.
	GetByEmailHash(ctx context.Context, emailHash string) (*models.Player, error)
	// GetByName ищет игрока, в истории имён которого есть name (без учёта регистра).
	GetByName(ctx context.Context, name string) (*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	ListByIDs(ctx context.Context, ids []int) ([]models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, handle, names, email_hash, external_avatar_url, avatar_key, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (handle, names, email_hash, external_avatar_url, avatar_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.Handle,
		pq.Array(player.Names),
		player.EmailHash,
		player.ExternalAvatarURL,
		player.AvatarKey,
	).Scan(&player.ID, &player.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "players_handle_key" {
				return ErrPlayerHandleConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByEmailHash(ctx context.Context, emailHash string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE lower(email_hash) = lower($1)`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, emailHash))
}

func (r *postgresPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE EXISTS (
			SELECT 1 FROM unnest(names) AS known_name
			WHERE lower(known_name) = lower($1)
		)
		LIMIT 1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, name))
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players SET
			handle = $1,
			names = $2,
			email_hash = $3,
			external_avatar_url = $4,
			avatar_key = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		player.Handle,
		pq.Array(player.Names),
		player.EmailHash,
		player.ExternalAvatarURL,
		player.AvatarKey,
		player.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "players_handle_key" {
				return ErrPlayerHandleConflict
			}
		}
		return err
	}

	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Player, error) {
	if len(ids) == 0 {
		return []models.Player{}, nil
	}

	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1) ORDER BY handle ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0, len(ids))
	for rows.Next() {
		var player models.Player
		var names pq.StringArray
		scanErr := rows.Scan(
			&player.ID,
			&player.Handle,
			&names,
			&player.EmailHash,
			&player.ExternalAvatarURL,
			&player.AvatarKey,
			&player.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		player.Names = names
		players = append(players, player)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) scanPlayer(row *sql.Row) (*models.Player, error) {
	player := &models.Player{}
	var names pq.StringArray
	err := row.Scan(
		&player.ID,
		&player.Handle,
		&names,
		&player.EmailHash,
		&player.ExternalAvatarURL,
		&player.AvatarKey,
		&player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	player.Names = names
	return player, nil
}
