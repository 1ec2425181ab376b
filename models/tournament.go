package models

import (
	"encoding/json"
	"time"
)

// SyncState представляет состояние синхронизации турнира с внешней сеткой.
type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSyncing SyncState = "syncing"
	SyncStateSynced  SyncState = "synced"
	SyncStateFailed  SyncState = "failed"
)

// Tournament представляет турнир, корневой агрегат синхронизации.
// BracketRef — внешний идентификатор сетки у провайдера.
type Tournament struct {
	ID           int             `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Slug         string          `json:"slug" db:"slug"`
	GameID       int             `json:"game_id" db:"game_id"`
	BracketRef   string          `json:"bracket_ref" db:"bracket_ref"`
	SyncState    SyncState       `json:"sync_state" db:"sync_state"`
	PlayerIDs    []int           `json:"player_ids" db:"player_ids"`
	ExternalMeta json.RawMessage `json:"external_meta,omitempty" db:"external_meta"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	SyncedAt     *time.Time      `json:"synced_at,omitempty" db:"synced_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Game    *Game    `json:"game,omitempty" db:"-"`
	Players []Player `json:"players,omitempty" db:"-"`
	Matches []Match  `json:"matches,omitempty" db:"-"`
	Results []Result `json:"results,omitempty" db:"-"`
}
