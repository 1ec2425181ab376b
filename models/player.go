package models

import (
	"strings"
	"time"
)

// Player представляет игрока, собранного из внешних сеток.
// Names хранит историю внешних display name (append-only).
type Player struct {
	ID                int       `json:"id" db:"id"`
	Handle            string    `json:"handle" db:"handle"`
	Names             []string  `json:"names" db:"names"`
	EmailHash         *string   `json:"-" db:"email_hash"`
	ExternalAvatarURL *string   `json:"external_avatar_url,omitempty" db:"external_avatar_url"`
	AvatarKey         *string   `json:"-" db:"avatar_key"`
	AvatarURL         *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// HasName reports whether the given external display name is already part of
// the player's name history (case-insensitive).
func (p *Player) HasName(name string) bool {
	for _, n := range p.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
