package provider

import (
	"context"
	"encoding/json"
	"time"
)

// Participant — участник турнира в терминах внешнего провайдера сеток.
type Participant struct {
	ID          int64           `json:"id"`
	DisplayName string          `json:"display_name"`
	Username    *string         `json:"username,omitempty"`
	EmailHash   *string         `json:"email_hash,omitempty"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
	FinalRank   *int            `json:"final_rank,omitempty"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// Match — матч внешней сетки. Идентификаторы сторон ссылаются на
// Participant.ID, не на внутренних игроков.
type Match struct {
	ID          int64      `json:"id"`
	Player1ID   *int64     `json:"player1_id,omitempty"`
	Player2ID   *int64     `json:"player2_id,omitempty"`
	WinnerID    *int64     `json:"winner_id,omitempty"`
	LoserID     *int64     `json:"loser_id,omitempty"`
	ScoresCSV   string     `json:"scores_csv"`
	Round       *int       `json:"round,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	State       string     `json:"state"`
}

// Bracket — полный снимок внешней сетки турнира.
type Bracket struct {
	Ref          string        `json:"ref"`
	State        string        `json:"state"`
	Participants []Participant `json:"participants"`
	Matches      []Match       `json:"matches"`
}

const stateComplete = "complete"

// Complete reports whether the provider considers the bracket finished.
// Rating replay only runs for complete brackets.
func (b *Bracket) Complete() bool {
	return b.State == stateComplete
}

// BracketClient абстрагирует провайдера сеток (например, Challonge).
type BracketClient interface {
	FetchBracket(ctx context.Context, ref string) (*Bracket, error)
}
