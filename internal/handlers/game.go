package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/gdg-garage/levelup-api/internal/catalog"
	"github.com/gdg-garage/levelup-api/internal/database"
	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/gdg-garage/levelup-api/internal/leaderboard"
	"github.com/gdg-garage/levelup-api/internal/models"
	lru "github.com/hashicorp/golang-lru"
)

// Mirror serves rankings kept outside the engine.
type Mirror interface {
	Update(ctx context.Context, playerID string, points int) error
	Top(ctx context.Context, n int) ([]leaderboard.Entry, error)
}

// GameHandler exposes the engine over HTTP. Every engine call happens under
// mu, so handlers never see a half-applied change.
type GameHandler struct {
	mu        sync.Mutex
	engine    *game.Engine
	store     *database.Store
	auth      *auth.AuthHandler
	adminRole string
	persist   bool
	board     *lru.Cache
	mirror    Mirror

	catalogPath string
}

type GameOptions struct {
	AdminRole string
	Persist   bool
	CacheSize int
	// CatalogPath receives the catalog after challenges or achievements are
	// added over the API. Empty disables writing.
	CatalogPath string
}

func NewGameHandler(engine *game.Engine, store *database.Store, authHandler *auth.AuthHandler, opts GameOptions) (*GameHandler, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &GameHandler{
		engine:    engine,
		store:     store,
		auth:      authHandler,
		adminRole: opts.AdminRole,
		persist:   opts.Persist,
		board:     cache,

		catalogPath: opts.CatalogPath,
	}, nil
}

func (h *GameHandler) SetMirror(m Mirror) {
	h.mirror = m
}

// EnsurePlayer registers the player if it is not known yet. Login calls it.
func (h *GameHandler) EnsurePlayer(ctx context.Context, playerID, username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.engine.Player(playerID); ok {
		return nil
	}
	snap, err := h.engine.RegisterPlayer(playerID, username)
	if err != nil {
		return err
	}
	slog.Info("player registered", "player_id", playerID, "username", username)
	h.registered(ctx, snap)
	return nil
}

// registered runs after a new player joins. Events only reach the mirror
// once a player progresses, so new players are added here. Callers hold mu.
func (h *GameHandler) registered(ctx context.Context, snap game.Snapshot) {
	h.changed(ctx, snap.PlayerID)
	if h.mirror == nil {
		return
	}
	if err := h.mirror.Update(ctx, snap.PlayerID, snap.TotalPoints); err != nil {
		slog.Warn("failed to mirror new player", "player_id", snap.PlayerID, "error", err)
	}
}

// saveCatalog writes the live catalog back to its file. Callers hold mu.
func (h *GameHandler) saveCatalog() {
	if h.catalogPath == "" {
		return
	}
	c, skipped := catalog.FromEngine(h.engine)
	if len(skipped) > 0 {
		slog.Warn("achievements defined in code are not saved", "achievement_ids", skipped)
	}
	if err := catalog.Save(h.catalogPath, c); err != nil {
		slog.Error("failed to save catalog", "path", h.catalogPath, "error", err)
		return
	}
	slog.Info("catalog saved", "path", h.catalogPath, "challenges", len(c.Challenges), "achievements", len(c.Achievements))
}

// changed runs after every mutation. Callers hold mu.
func (h *GameHandler) changed(ctx context.Context, playerIDs ...string) {
	h.board.Purge()
	if !h.persist || h.store == nil {
		return
	}
	for _, id := range playerIDs {
		snap, ok := h.engine.Player(id)
		if !ok {
			continue
		}
		if err := h.store.SavePlayer(ctx, snap); err != nil {
			slog.Error("failed to persist player", "player_id", id, "error", err)
		}
	}
}

func (h *GameHandler) requireAdmin(ctx context.Context, cookie string) (*models.User, error) {
	return h.auth.RequireRole(ctx, cookie, h.adminRole)
}

// requirePlayerOrAdmin lets callers act on their own player; anybody else
// needs the admin role.
func (h *GameHandler) requirePlayerOrAdmin(ctx context.Context, cookie, playerID string) error {
	userID, err := h.auth.Authorize(ctx, cookie)
	if err != nil {
		return err
	}
	var user models.User
	if err := h.store.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		return huma.Error404NotFound("User not found")
	}
	if user.PlayerID == playerID {
		return nil
	}
	ok, err := h.auth.CheckRole(user.DiscordID, h.adminRole)
	if err != nil {
		return huma.Error500InternalServerError("Failed to check role: " + err.Error())
	}
	if !ok {
		return huma.Error403Forbidden("Access denied: not your player")
	}
	return nil
}

func isInputError(err error) bool {
	return errors.Is(err, game.ErrInvalidPlayer) || errors.Is(err, game.ErrInvalidAmount) || errors.Is(err, game.ErrInvalidRule)
}

// gameError maps engine errors onto HTTP errors. Listener failures arrive
// after the change was applied, which the message says.
func gameError(err error) error {
	switch {
	case errors.Is(err, game.ErrDuplicatePlayer), errors.Is(err, game.ErrDuplicateChallenge):
		return huma.Error409Conflict(err.Error())
	case isInputError(err):
		return huma.Error400BadRequest(err.Error())
	default:
		slog.Error("event delivery failed", "error", err)
		return huma.Error500InternalServerError("Change applied but event delivery failed: " + err.Error())
	}
}
