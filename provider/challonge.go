package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var ErrBracketNotFound = errors.New("bracket not found")

const defaultChallongeBaseURL = "https://api.challonge.com/v1"

type ChallongeClientConfig struct {
	BaseURL    string // например https://api.challonge.com/v1
	APIKey     string
	HTTPClient *http.Client
}

type challongeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewChallongeClient возвращает BracketClient поверх Challonge v1 API.
func NewChallongeClient(cfg ChallongeClientConfig) (BracketClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("invalid challonge configuration: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultChallongeBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &challongeClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// Challonge оборачивает каждую сущность в одноимённый объект.
type challongeTournamentEnvelope struct {
	Tournament challongeTournament `json:"tournament"`
}

type challongeTournament struct {
	State        string                         `json:"state"`
	Participants []challongeParticipantEnvelope `json:"participants"`
	Matches      []challongeMatchEnvelope       `json:"matches"`
}

type challongeParticipantEnvelope struct {
	Participant challongeParticipant `json:"participant"`
}

type challongeParticipant struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Username    *string `json:"challonge_username"`
	EmailHash   *string `json:"email_hash"`
	PortraitURL *string `json:"attached_participatable_portrait_url"`
	FinalRank   *int    `json:"final_rank"`
}

type challongeMatchEnvelope struct {
	Match challongeMatch `json:"match"`
}

type challongeMatch struct {
	ID          int64      `json:"id"`
	Player1ID   *int64     `json:"player1_id"`
	Player2ID   *int64     `json:"player2_id"`
	WinnerID    *int64     `json:"winner_id"`
	LoserID     *int64     `json:"loser_id"`
	ScoresCSV   string     `json:"scores_csv"`
	Round       *int       `json:"round"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	State       string     `json:"state"`
}

func (c *challongeClient) FetchBracket(ctx context.Context, ref string) (*Bracket, error) {
	endpoint := fmt.Sprintf("%s/tournaments/%s.json", c.baseURL, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bracket request: %w", err)
	}
	q := req.URL.Query()
	q.Set("api_key", c.apiKey)
	q.Set("include_participants", "1")
	q.Set("include_matches", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := c.doWithRetry(ctx, req, 5)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrBracketNotFound, ref)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching bracket %s: unexpected status %d", ref, resp.StatusCode)
	}

	var envelope challongeTournamentEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding bracket %s: %w", ref, err)
	}

	return envelope.toBracket(ref), nil
}

func (e *challongeTournamentEnvelope) toBracket(ref string) *Bracket {
	bracket := &Bracket{
		Ref:          ref,
		State:        e.Tournament.State,
		Participants: make([]Participant, 0, len(e.Tournament.Participants)),
		Matches:      make([]Match, 0, len(e.Tournament.Matches)),
	}

	for _, pe := range e.Tournament.Participants {
		p := pe.Participant
		meta, _ := json.Marshal(p)
		bracket.Participants = append(bracket.Participants, Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Username:    p.Username,
			EmailHash:   p.EmailHash,
			AvatarURL:   p.PortraitURL,
			FinalRank:   p.FinalRank,
			Meta:        meta,
		})
	}

	for _, me := range e.Tournament.Matches {
		m := me.Match
		bracket.Matches = append(bracket.Matches, Match{
			ID:          m.ID,
			Player1ID:   m.Player1ID,
			Player2ID:   m.Player2ID,
			WinnerID:    m.WinnerID,
			LoserID:     m.LoserID,
			ScoresCSV:   m.ScoresCSV,
			Round:       m.Round,
			StartedAt:   m.StartedAt,
			CompletedAt: m.CompletedAt,
			State:       m.State,
		})
	}

	return bracket
}

// doWithRetry executes the request with retries on transient failures:
// network errors, 429 and 5xx responses. Exponential backoff with jitter,
// honoring Retry-After when the provider sends one.
func (c *challongeClient) doWithRetry(ctx context.Context, req *http.Request, maxAttempts int) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptReq := req.Clone(ctx)

		resp, err := c.httpClient.Do(attemptReq)
		if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		if attempt == maxAttempts {
			if resp != nil {
				resp.Body.Close()
			}
			break
		}

		delay := time.Duration(1<<uint(attempt-1)) * time.Second
		if resp != nil {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
		}
		jitter := time.Duration(rand.Intn(250)) * time.Millisecond

		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("bracket request failed after %d attempts: %w", maxAttempts, lastErr)
}
