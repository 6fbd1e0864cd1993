package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/gdg-garage/levelup-api/internal/catalog"
	"github.com/gdg-garage/levelup-api/internal/config"
	"github.com/gdg-garage/levelup-api/internal/database"
	"github.com/gdg-garage/levelup-api/internal/feed"
	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/gdg-garage/levelup-api/internal/handlers"
	"github.com/gdg-garage/levelup-api/internal/leaderboard"
	"github.com/gdg-garage/levelup-api/internal/notifier"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return err
	}
	store := database.NewStore(db)

	engine := game.New()
	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if err := c.Apply(engine); err != nil {
			return fmt.Errorf("failed to apply catalog: %w", err)
		}
	}

	if cfg.PersistState {
		snaps, err := store.LoadPlayers(ctx)
		if err != nil {
			return err
		}
		if err := engine.Restore(snaps); err != nil {
			return fmt.Errorf("failed to restore players: %w", err)
		}
		slog.Info("players restored", "count", len(snaps))
	}

	// Journal first, so a failed write is reported before anything is announced.
	if err := subscribe(engine, everyEvent(store.JournalListener(5*time.Second))); err != nil {
		return err
	}

	var session *discordgo.Session
	if cfg.DiscordBotToken != "" {
		session, err = discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			slog.Warn("discord session not initialized", "error", err)
			session = nil
		}
	}

	var roles auth.RoleChecker
	if session != nil && cfg.DiscordGuildID != "" {
		roles = auth.NewDiscordRoles(session, cfg.DiscordGuildID)
	}
	if session != nil && cfg.DiscordNotificationsChannelID != "" {
		n := notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		if err := subscribe(engine, notifier.Listeners(n)); err != nil {
			return err
		}
	}

	hub := feed.NewHub()
	if err := subscribe(engine, everyEvent(hub.Listener())); err != nil {
		return err
	}

	authHandler := auth.NewAuthHandler(cfg, db, roles)
	gameHandler, err := handlers.NewGameHandler(engine, store, authHandler, handlers.GameOptions{
		AdminRole:   cfg.AdminRole,
		Persist:     cfg.PersistState,
		CacheSize:   cfg.LeaderboardCacheSize,
		CatalogPath: cfg.CatalogPath,
	})
	if err != nil {
		return err
	}
	authHandler.SetPlayerRegistrar(gameHandler)

	if cfg.RedisAddr != "" {
		mirror, err := leaderboard.NewMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.LeaderboardKey)
		if err != nil {
			slog.Warn("leaderboard mirror disabled", "error", err)
		} else {
			defer mirror.Close()
			if err := mirror.Sync(ctx, engine.Players()); err != nil {
				slog.Warn("initial leaderboard sync failed", "error", err)
			}
			if err := subscribe(engine, everyEvent(mirror.Listener())); err != nil {
				return err
			}
			gameHandler.SetMirror(mirror)
		}
	}

	r := chi.NewRouter()
	opts := handlers.RouteOptions{Feed: hub}
	if cfg.EnableCORS {
		opts.AllowedOrigins = []string{cfg.FrontendURL}
	}
	handlers.RegisterRoutes(r, authHandler, gameHandler, handlers.NewAPIKeyHandler(db, authHandler), opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func everyEvent(l game.Listener) map[game.EventType]game.Listener {
	out := make(map[game.EventType]game.Listener)
	for _, t := range game.EventTypes() {
		out[t] = l
	}
	return out
}

// subscribe registers every listener, failing on the first one the engine
// rejects.
func subscribe(engine *game.Engine, listeners map[game.EventType]game.Listener) error {
	for t, l := range listeners {
		if _, err := engine.On(t, l); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", t, err)
		}
	}
	return nil
}
