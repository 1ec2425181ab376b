package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament slug conflict")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	ListBySyncState(ctx context.Context, state models.SyncState) ([]models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, slug, game_id, bracket_ref, sync_state, player_ids, external_meta, created_at, synced_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, slug, game_id, bracket_ref, sync_state, player_ids, external_meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	if tournament.SyncState == "" {
		tournament.SyncState = models.SyncStatePending
	}

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Slug,
		tournament.GameID,
		tournament.BracketRef,
		tournament.SyncState,
		pq.Array(tournament.PlayerIDs),
		nullableJSON(tournament.ExternalMeta),
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "tournaments_slug_key" {
				return ErrTournamentSlugConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE slug = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			slug = $2,
			game_id = $3,
			bracket_ref = $4,
			sync_state = $5,
			player_ids = $6,
			external_meta = $7,
			synced_at = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		tournament.Name,
		tournament.Slug,
		tournament.GameID,
		tournament.BracketRef,
		tournament.SyncState,
		pq.Array(tournament.PlayerIDs),
		nullableJSON(tournament.ExternalMeta),
		tournament.SyncedAt,
		tournament.ID,
	)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListBySyncState(ctx context.Context, state models.SyncState) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE sync_state = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		tournament, scanErr := scanTournamentRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *tournament)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresTournamentRepository) scanTournament(row *sql.Row) (*models.Tournament, error) {
	tournament, err := scanTournamentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func scanTournamentRow(row rowScanner) (*models.Tournament, error) {
	tournament := &models.Tournament{}
	var playerIDs pq.Int64Array
	var meta []byte

	err := row.Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Slug,
		&tournament.GameID,
		&tournament.BracketRef,
		&tournament.SyncState,
		&playerIDs,
		&meta,
		&tournament.CreatedAt,
		&tournament.SyncedAt,
	)
	if err != nil {
		return nil, err
	}

	tournament.PlayerIDs = make([]int, len(playerIDs))
	for i, id := range playerIDs {
		tournament.PlayerIDs[i] = int(id)
	}
	tournament.ExternalMeta = meta
	return tournament, nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
