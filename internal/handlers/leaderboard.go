package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/catalog"
	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/gdg-garage/levelup-api/internal/leaderboard"
	"github.com/gdg-garage/levelup-api/internal/models"
)

type LeaderboardInput struct {
	Top int `query:"top" default:"10" minimum:"0" maximum:"100" doc:"Number of players to return"`
}

type LeaderboardOutput struct {
	Body []game.Standing
}

// HandleLeaderboard caches only the ranking, which changes on mutation.
// Summaries are rebuilt on every call since days active moves with the clock.
func (h *GameHandler) HandleLeaderboard(ctx context.Context, input *LeaderboardInput) (*LeaderboardOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cached, ok := h.board.Get(input.Top)
	if !ok {
		standings := h.engine.Leaderboard(input.Top)
		order := make([]string, 0, len(standings))
		for _, st := range standings {
			order = append(order, st.PlayerID)
		}
		h.board.Add(input.Top, order)
		return &LeaderboardOutput{Body: standings}, nil
	}

	order := cached.([]string)
	standings := make([]game.Standing, 0, len(order))
	for i, id := range order {
		sum, ok := h.engine.Summary(id)
		if !ok {
			continue
		}
		standings = append(standings, game.Standing{Rank: i + 1, ProgressSummary: sum})
	}
	return &LeaderboardOutput{Body: standings}, nil
}

type MirrorLeaderboardOutput struct {
	Body []leaderboard.Entry
}

func (h *GameHandler) HandleMirrorLeaderboard(ctx context.Context, input *LeaderboardInput) (*MirrorLeaderboardOutput, error) {
	if h.mirror == nil {
		return nil, huma.Error503ServiceUnavailable("Leaderboard mirror is not configured")
	}
	entries, err := h.mirror.Top(ctx, input.Top)
	if err != nil {
		slog.Error("failed to read leaderboard mirror", "error", err)
		return nil, huma.Error502BadGateway("Failed to read leaderboard mirror")
	}
	return &MirrorLeaderboardOutput{Body: entries}, nil
}

type StatsOutput struct {
	Body game.Stats
}

func (h *GameHandler) HandleStats(ctx context.Context, input *struct{}) (*StatsOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &StatsOutput{Body: h.engine.Stats()}, nil
}

type CatalogOutput struct {
	Body struct {
		Catalog *catalog.Catalog `json:"catalog"`
		Skipped []string         `json:"skipped" doc:"Achievements whose rules have no declarative form"`
	}
}

// HandleExportCatalog returns the live catalog in the same shape the server
// loads at startup.
func (h *GameHandler) HandleExportCatalog(ctx context.Context, input *struct{}) (*CatalogOutput, error) {
	h.mu.Lock()
	c, skipped := catalog.FromEngine(h.engine)
	h.mu.Unlock()

	res := &CatalogOutput{}
	res.Body.Catalog = c
	res.Body.Skipped = skipped
	if res.Body.Skipped == nil {
		res.Body.Skipped = []string{}
	}
	return res, nil
}

type ListEventsInput struct {
	ID    string `path:"id" doc:"Player id"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

type EventView struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	AchievementID string    `json:"achievement_id,omitempty"`
	ChallengeID   string    `json:"challenge_id,omitempty"`
	Level         int       `json:"level"`
	TotalPoints   int       `json:"total_points"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func eventView(e models.GameEvent) EventView {
	return EventView{
		ID:            e.EventID,
		Type:          e.Type,
		AchievementID: e.AchievementID,
		ChallengeID:   e.ChallengeID,
		Level:         e.Level,
		TotalPoints:   e.TotalPoints,
		OccurredAt:    e.OccurredAt,
	}
}

type ListEventsOutput struct {
	Body []EventView
}

func (h *GameHandler) HandleListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	h.mu.Lock()
	_, ok := h.engine.Player(input.ID)
	h.mu.Unlock()
	if !ok {
		return nil, huma.Error404NotFound("Player not found")
	}

	events, err := h.store.ListEvents(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list events: " + err.Error())
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, eventView(e))
	}
	return &ListEventsOutput{Body: out}, nil
}
