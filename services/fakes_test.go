package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bracketpulse/tournament-stats/models"
	"github.com/bracketpulse/tournament-stats/provider"
	"github.com/bracketpulse/tournament-stats/repositories"
)

// In-memory doubles of the persistence layer, shaped after the repository
// interfaces. Tests drive the pipeline through these instead of postgres.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*models.Player

	failCreateForName string
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player)}
}

func (r *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateForName != "" && player.HasName(r.failCreateForName) {
		return errors.New("create failed")
	}
	r.nextID++
	player.ID = r.nextID
	player.CreatedAt = time.Now()
	stored := clonePlayer(player)
	r.players[player.ID] = stored
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return clonePlayer(player), nil
}

func (r *fakePlayerRepo) GetByEmailHash(ctx context.Context, emailHash string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.players {
		if player.EmailHash != nil && strings.EqualFold(*player.EmailHash, emailHash) {
			return clonePlayer(player), nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) GetByName(ctx context.Context, name string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.players {
		if player.HasName(name) {
			return clonePlayer(player), nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	r.players[player.ID] = clonePlayer(player)
	return nil
}

func (r *fakePlayerRepo) ListByIDs(ctx context.Context, ids []int) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		if player, ok := r.players[id]; ok {
			players = append(players, *clonePlayer(player))
		}
	}
	return players, nil
}

func (r *fakePlayerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func clonePlayer(p *models.Player) *models.Player {
	c := *p
	c.Names = append([]string(nil), p.Names...)
	return &c
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match

	failUpdateRatingsAt int // fail the N-th UpdateRatings call, 0 = never
	updateRatingsCalls  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	match.ID = r.nextID
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	c := *match
	return &c, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]models.Match, 0)
	for _, match := range r.matches {
		if match.TournamentID == tournamentID {
			matches = append(matches, *match)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		ti, tj := replayTime(&matches[i]), replayTime(&matches[j])
		if ti.Equal(tj) {
			return matches[i].ID < matches[j].ID
		}
		return ti.Before(tj)
	})
	return matches, nil
}

func (r *fakeMatchRepo) ListByPlayer(ctx context.Context, playerID int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]models.Match, 0)
	for _, match := range r.matches {
		if match.Player1ID == playerID || match.Player2ID == playerID {
			matches = append(matches, *match)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		ti, tj := startTime(&matches[i]), startTime(&matches[j])
		if ti.Equal(tj) {
			return matches[i].ID < matches[j].ID
		}
		return ti.Before(tj)
	})
	return matches, nil
}

func (r *fakeMatchRepo) UpdateRatings(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateRatingsCalls++
	if r.failUpdateRatingsAt > 0 && r.updateRatingsCalls == r.failUpdateRatingsAt {
		return errors.New("update ratings failed")
	}
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.P1EloBefore = match.P1EloBefore
	stored.P1EloAfter = match.P1EloAfter
	stored.P1MatchesBefore = match.P1MatchesBefore
	stored.P2EloBefore = match.P2EloBefore
	stored.P2EloAfter = match.P2EloAfter
	stored.P2MatchesBefore = match.P2MatchesBefore
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, match := range r.matches {
		if match.TournamentID == tournamentID {
			delete(r.matches, id)
		}
	}
	return nil
}

func (r *fakeMatchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

func replayTime(m *models.Match) time.Time {
	if m.CompletedAt != nil {
		return *m.CompletedAt
	}
	if m.StartedAt != nil {
		return *m.StartedAt
	}
	return time.Time{}
}

func startTime(m *models.Match) time.Time {
	if m.StartedAt != nil {
		return *m.StartedAt
	}
	if m.CompletedAt != nil {
		return *m.CompletedAt
	}
	return time.Time{}
}

type fakeResultRepo struct {
	mu      sync.Mutex
	nextID  int
	results map[int]*models.Result
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[int]*models.Result)}
}

func (r *fakeResultRepo) Create(ctx context.Context, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	result.ID = r.nextID
	stored := *result
	r.results[result.ID] = &stored
	return nil
}

func (r *fakeResultRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make([]models.Result, 0)
	for _, result := range r.results {
		if result.TournamentID == tournamentID {
			results = append(results, *result)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (r *fakeResultRepo) UpdateElo(ctx context.Context, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.results[result.ID]
	if !ok {
		return repositories.ErrResultNotFound
	}
	stored.EloBefore = result.EloBefore
	stored.EloAfter = result.EloAfter
	return nil
}

func (r *fakeResultRepo) DeleteByTournament(ctx context.Context, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, result := range r.results {
		if result.TournamentID == tournamentID {
			delete(r.results, id)
		}
	}
	return nil
}

type fakeEloRepo struct {
	mu     sync.Mutex
	nextID int
	elos   map[[2]int]*models.Elo

	failUpsertForPlayer int
}

func newFakeEloRepo() *fakeEloRepo {
	return &fakeEloRepo{elos: make(map[[2]int]*models.Elo)}
}

func (r *fakeEloRepo) GetByPlayerAndGame(ctx context.Context, playerID, gameID int) (*models.Elo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	elo, ok := r.elos[[2]int{playerID, gameID}]
	if !ok {
		return nil, repositories.ErrEloNotFound
	}
	c := *elo
	return &c, nil
}

func (r *fakeEloRepo) Upsert(ctx context.Context, elo *models.Elo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsertForPlayer != 0 && elo.PlayerID == r.failUpsertForPlayer {
		return errors.New("upsert failed")
	}
	key := [2]int{elo.PlayerID, elo.GameID}
	stored, ok := r.elos[key]
	if !ok {
		r.nextID++
		elo.ID = r.nextID
		c := *elo
		c.UpdatedAt = time.Now()
		r.elos[key] = &c
		return nil
	}
	elo.ID = stored.ID
	stored.Rating = elo.Rating
	stored.MatchesPlayed = elo.MatchesPlayed
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeEloRepo) ListByGame(ctx context.Context, gameID int, limit int) ([]models.Elo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	elos := make([]models.Elo, 0)
	for _, elo := range r.elos {
		if elo.GameID == gameID {
			elos = append(elos, *elo)
		}
	}
	sort.Slice(elos, func(i, j int) bool { return elos[i].Rating > elos[j].Rating })
	if limit > 0 && len(elos) > limit {
		elos = elos[:limit]
	}
	return elos, nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		c := *t
		repo.tournaments[t.ID] = &c
	}
	return repo
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tournaments {
		if existing.Slug == tournament.Slug {
			return repositories.ErrTournamentSlugConflict
		}
	}
	tournament.ID = len(r.tournaments) + 1
	tournament.CreatedAt = time.Now()
	c := *tournament
	r.tournaments[tournament.ID] = &c
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *tournament
	return &c, nil
}

func (r *fakeTournamentRepo) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tournament := range r.tournaments {
		if tournament.Slug == slug {
			c := *tournament
			return &c, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	c := *tournament
	r.tournaments[tournament.ID] = &c
	return nil
}

func (r *fakeTournamentRepo) ListBySyncState(ctx context.Context, state models.SyncState) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournaments := make([]models.Tournament, 0)
	for _, tournament := range r.tournaments {
		if tournament.SyncState == state {
			tournaments = append(tournaments, *tournament)
		}
	}
	return tournaments, nil
}

type fakeGameRepo struct {
	games map[int]*models.Game
}

func newFakeGameRepo(games ...*models.Game) *fakeGameRepo {
	repo := &fakeGameRepo{games: make(map[int]*models.Game)}
	for _, g := range games {
		repo.games[g.ID] = g
	}
	return repo
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	game, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return game, nil
}

func (r *fakeGameRepo) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	for _, game := range r.games {
		if game.Slug == slug {
			return game, nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (r *fakeGameRepo) List(ctx context.Context) ([]models.Game, error) {
	games := make([]models.Game, 0, len(r.games))
	for _, game := range r.games {
		games = append(games, *game)
	}
	return games, nil
}

type fakeBracketClient struct {
	bracket *provider.Bracket
	err     error
}

func (c *fakeBracketClient) FetchBracket(ctx context.Context, ref string) (*provider.Bracket, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.bracket, nil
}

type fakeRehoster struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *fakeRehoster) Rehost(ctx context.Context, externalURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.calls = append(r.calls, externalURL)
	return "avatars/fake-key.png", nil
}

func (r *fakeRehoster) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []SyncEvent
}

func (n *fakeNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if event, ok := message.(SyncEvent); ok {
		n.events = append(n.events, event)
	}
}

func (n *fakeNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.events))
	for _, event := range n.events {
		types = append(types, event.Type)
	}
	return types
}
