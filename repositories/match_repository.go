package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// ListByTournament возвращает матчи турнира в хронологическом порядке
	// переигровки: по времени завершения, с откатом на время начала и id.
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	// ListByPlayer возвращает все матчи игрока по всей системе,
	// отсортированные по времени начала.
	ListByPlayer(ctx context.Context, playerID int) ([]models.Match, error)
	// UpdateRatings записывает проставленные replay-движком рейтинговые поля.
	UpdateRatings(ctx context.Context, match *models.Match) error
	DeleteByTournament(ctx context.Context, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, player1_id, player2_id, winner_id, loser_id,
	score, round, started_at, completed_at,
	p1_elo_before, p1_elo_after, p1_matches_before,
	p2_elo_before, p2_elo_after, p2_matches_before`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, player1_id, player2_id, winner_id, loser_id,
			score, round, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Player1ID,
		match.Player2ID,
		match.WinnerID,
		match.LoserID,
		match.Score,
		match.Round,
		match.StartedAt,
		match.CompletedAt,
	).Scan(&match.ID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	match, err := scanMatchRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	// COALESCE-откат задаёт детерминированный порядок и для матчей
	// без completed_at; id добивает оставшиеся равенства порядком вставки.
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY COALESCE(completed_at, started_at) ASC NULLS LAST, id ASC`
	return r.listMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListByPlayer(ctx context.Context, playerID int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY COALESCE(started_at, completed_at) ASC NULLS LAST, id ASC`
	return r.listMatches(ctx, query, playerID)
}

func (r *postgresMatchRepository) UpdateRatings(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches SET
			p1_elo_before = $1,
			p1_elo_after = $2,
			p1_matches_before = $3,
			p2_elo_before = $4,
			p2_elo_after = $5,
			p2_matches_before = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		match.P1EloBefore,
		match.P1EloAfter,
		match.P1MatchesBefore,
		match.P2EloBefore,
		match.P2EloAfter,
		match.P2MatchesBefore,
		match.ID,
	)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, tournamentID int) error {
	query := `DELETE FROM matches WHERE tournament_id = $1`
	_, err := r.db.ExecContext(ctx, query, tournamentID)
	return err
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, query string, arg interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatchRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, *match)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func scanMatchRow(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Player1ID,
		&match.Player2ID,
		&match.WinnerID,
		&match.LoserID,
		&match.Score,
		&match.Round,
		&match.StartedAt,
		&match.CompletedAt,
		&match.P1EloBefore,
		&match.P1EloAfter,
		&match.P1MatchesBefore,
		&match.P2EloBefore,
		&match.P2EloAfter,
		&match.P2MatchesBefore,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}
