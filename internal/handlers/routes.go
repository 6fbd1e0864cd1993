package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouteOptions struct {
	// AllowedOrigins enables CORS when non-empty.
	AllowedOrigins []string
	Feed           http.Handler
}

func secured(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
}

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, gameHandler *GameHandler, apiKeyHandler *APIKeyHandler, opts RouteOptions) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(authHandler.AuthMiddleware)

	config := huma.DefaultConfig("LevelUp API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if opts.Feed != nil {
		r.Handle("/events/ws", opts.Feed)
	}

	// Auth
	huma.Get(api, "/auth/discord/login", authHandler.HandleLogin)
	huma.Get(api, "/auth/discord/callback", authHandler.HandleCallback)
	huma.Get(api, "/me", authHandler.HandleMe, secured)

	// Players
	huma.Get(api, "/players", gameHandler.HandleListPlayers)
	huma.Post(api, "/players", gameHandler.HandleCreatePlayer, secured)
	huma.Get(api, "/players/{id}", gameHandler.HandleGetPlayer)
	huma.Post(api, "/players/{id}/experience", gameHandler.HandleAwardExperience, secured)
	huma.Post(api, "/players/{id}/challenges/{challenge_id}", gameHandler.HandleAssignChallenge, secured)
	huma.Post(api, "/players/{id}/challenges/{challenge_id}/complete", gameHandler.HandleCompleteChallenge, secured)
	huma.Post(api, "/players/{id}/achievements/evaluate", gameHandler.HandleEvaluateAchievements, secured)
	huma.Get(api, "/players/{id}/events", gameHandler.HandleListEvents)

	// Catalog
	huma.Get(api, "/challenges", gameHandler.HandleListChallenges)
	huma.Post(api, "/challenges", gameHandler.HandleCreateChallenge, secured)
	huma.Get(api, "/achievements", gameHandler.HandleListAchievements)
	huma.Post(api, "/achievements", gameHandler.HandleCreateAchievement, secured)
	huma.Get(api, "/catalog", gameHandler.HandleExportCatalog)

	// Rankings
	huma.Get(api, "/leaderboard", gameHandler.HandleLeaderboard)
	huma.Get(api, "/leaderboard/mirror", gameHandler.HandleMirrorLeaderboard)
	huma.Get(api, "/stats", gameHandler.HandleStats)

	// API keys
	huma.Post(api, "/api-keys", apiKeyHandler.HandleCreate, secured)
	huma.Get(api, "/api-keys", apiKeyHandler.HandleList, secured)
	huma.Delete(api, "/api-keys/{id}", apiKeyHandler.HandleDelete, secured)

	return api
}
