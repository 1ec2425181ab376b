package services

import "errors"

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament with this slug already exists")
	ErrGameNotFound           = errors.New("game not found")
	ErrPlayerNotFound         = errors.New("player not found")

	ErrSyncInProgress     = errors.New("tournament sync is already in progress")
	ErrBracketFetch       = errors.New("failed to fetch bracket from provider")
	ErrUnknownSide        = errors.New("match references an unknown participant")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
