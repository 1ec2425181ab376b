package routes

import (
	"net/http"

	"github.com/bracketpulse/tournament-stats/handlers"
	"github.com/bracketpulse/tournament-stats/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	syncHandler *handlers.SyncHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Post("/auth/login", authHandler.Login)

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.ListGames)
		r.Get("/{slug}", gameHandler.GetGame)
		r.Get("/{slug}/leaderboard", gameHandler.GetLeaderboard)
	})

	router.Get("/players/{id}", playerHandler.GetPlayer)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/{id}", tournamentHandler.GetTournament)
		r.Get("/{id}/standings", tournamentHandler.GetStandings)
		r.Get("/slug/{slug}", tournamentHandler.GetTournamentBySlug)

		// Запуск синхронизации доступен только администратору
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize("admin"))

			r.Post("/", tournamentHandler.CreateTournament)
			r.Post("/{id}/sync", syncHandler.SyncTournament)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
