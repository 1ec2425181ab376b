package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bracketpulse/tournament-stats/services"
	"github.com/go-chi/chi/v5"
)

type GameHandler struct {
	gameService   services.GameService
	playerService services.PlayerService
}

func NewGameHandler(gameService services.GameService, playerService services.PlayerService) *GameHandler {
	return &GameHandler{gameService: gameService, playerService: playerService}
}

func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.ListGames(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		badRequestResponse(w, r, errors.New("invalid slug parameter"))
		return
	}

	game, err := h.gameService.GetGameBySlug(r.Context(), slug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetLeaderboard отдаёт рейтинговую таблицу игры, отсортированную по
// убыванию рейтинга.
func (h *GameHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		badRequestResponse(w, r, errors.New("invalid slug parameter"))
		return
	}

	game, err := h.gameService.GetGameBySlug(r.Context(), slug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
	}

	entries, err := h.playerService.Leaderboard(r.Context(), game.ID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game, "leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
