package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/lib/pq"
)

var (
	ErrResultNotFound = errors.New("result not found")
	ErrResultConflict = errors.New("result already exists for this tournament and player")
)

type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Result, error)
	// UpdateElo записывает производные eloBefore/eloAfter (standings backfill).
	UpdateElo(ctx context.Context, result *models.Result) error
	DeleteByTournament(ctx context.Context, tournamentID int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) Create(ctx context.Context, result *models.Result) error {
	query := `
		INSERT INTO results (tournament_id, player_id, rank)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		result.TournamentID,
		result.PlayerID,
		result.Rank,
	).Scan(&result.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "results_tournament_id_player_id_key" {
				return ErrResultConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresResultRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Result, error) {
	query := `
		SELECT id, tournament_id, player_id, rank, elo_before, elo_after
		FROM results
		WHERE tournament_id = $1
		ORDER BY rank ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.Result, 0)
	for rows.Next() {
		var result models.Result
		scanErr := rows.Scan(
			&result.ID,
			&result.TournamentID,
			&result.PlayerID,
			&result.Rank,
			&result.EloBefore,
			&result.EloAfter,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *postgresResultRepository) UpdateElo(ctx context.Context, result *models.Result) error {
	query := `UPDATE results SET elo_before = $1, elo_after = $2 WHERE id = $3`

	updated, err := r.db.ExecContext(ctx, query, result.EloBefore, result.EloAfter, result.ID)
	if err != nil {
		return err
	}

	return checkAffectedRows(updated, ErrResultNotFound)
}

func (r *postgresResultRepository) DeleteByTournament(ctx context.Context, tournamentID int) error {
	query := `DELETE FROM results WHERE tournament_id = $1`
	_, err := r.db.ExecContext(ctx, query, tournamentID)
	return err
}
