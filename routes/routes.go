package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Team       *handlers.TeamHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *zap.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(opts.JWTSecret))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/auth", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(10 * time.Second))
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/", h.Tournament.ListTournaments)
		r.Get("/{tournamentID}", h.Tournament.GetTournamentByID)
		r.Get("/{tournamentID}/groups", h.Tournament.GetGroups)
		r.Get("/{tournamentID}/standings", h.Tournament.GetStandings)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracket)
		r.Get("/{tournamentID}/teams", h.Tournament.ListTeams)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.With(middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin)).Post("/", h.Tournament.CreateTournament)
			r.Post("/{tournamentID}/start-group-stage", h.Tournament.StartGroupStage)
			r.Post("/{tournamentID}/advance", h.Tournament.Advance)
			r.With(middleware.RequireRole(models.RoleManager)).Post("/{tournamentID}/teams", h.Tournament.RegisterTeam)
		})
	})

	router.Route("/teams/{teamID}", func(r chi.Router) {
		r.Get("/", h.Team.GetTeamByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/players", h.Team.AddPlayer)
			r.Delete("/players", h.Team.RemovePlayer)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.Match.GetMatchByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/results", h.Match.SubmitResult)
			r.Post("/reopen", h.Match.ReopenMatch)
			r.Post("/resolve", h.Match.ResolveDispute)
			r.Post("/evidence", h.Match.UploadEvidence)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
