package handlers

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/sahilm/fuzzy"
)

type CreatePlayerInput struct {
	auth.AuthInput
	Body struct {
		ID       string `json:"id" doc:"Unique player id" required:"true" minLength:"1"`
		Username string `json:"username" doc:"Display name" required:"true"`
	}
}

type PlayerOutput struct {
	Body game.Snapshot
}

// HandleCreatePlayer registers a player that is not tied to a Discord login.
func (h *GameHandler) HandleCreatePlayer(ctx context.Context, input *CreatePlayerInput) (*PlayerOutput, error) {
	if _, err := h.requireAdmin(ctx, input.Cookie); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := h.engine.RegisterPlayer(input.Body.ID, input.Body.Username)
	if err != nil {
		return nil, gameError(err)
	}
	h.registered(ctx, snap)
	return &PlayerOutput{Body: snap}, nil
}

type GetPlayerInput struct {
	ID string `path:"id" doc:"Player id"`
}

type PlayerDetailOutput struct {
	Body struct {
		Player  game.Snapshot        `json:"player"`
		Summary game.ProgressSummary `json:"summary"`
	}
}

func (h *GameHandler) HandleGetPlayer(ctx context.Context, input *GetPlayerInput) (*PlayerDetailOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.engine.Player(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("Player not found")
	}
	summary, _ := h.engine.Summary(input.ID)

	res := &PlayerDetailOutput{}
	res.Body.Player = snap
	res.Body.Summary = summary
	return res, nil
}

type ListPlayersInput struct {
	Query string `query:"q" doc:"Fuzzy match against usernames"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"100"`
}

type ListPlayersOutput struct {
	Body []game.ProgressSummary
}

type playerNames []game.Snapshot

func (p playerNames) Len() int            { return len(p) }
func (p playerNames) String(i int) string { return strings.ToLower(p[i].Username) }

// HandleListPlayers lists players in registration order, or by match quality
// when a query is given.
func (h *GameHandler) HandleListPlayers(ctx context.Context, input *ListPlayersInput) (*ListPlayersOutput, error) {
	h.mu.Lock()
	players := h.engine.Players()
	summaries := make([]game.ProgressSummary, 0, len(players))
	for _, p := range players {
		sum, _ := h.engine.Summary(p.PlayerID)
		summaries = append(summaries, sum)
	}
	h.mu.Unlock()

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	out := summaries
	if q := strings.TrimSpace(input.Query); q != "" {
		matches := fuzzy.FindFrom(strings.ToLower(q), playerNames(players))
		out = make([]game.ProgressSummary, 0, len(matches))
		for _, m := range matches {
			out = append(out, summaries[m.Index])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return &ListPlayersOutput{Body: out}, nil
}

type AwardExperienceInput struct {
	auth.AuthInput
	ID   string `path:"id" doc:"Player id"`
	Body struct {
		Amount int `json:"amount" doc:"Experience to add" minimum:"0"`
	}
}

type ProgressOutput struct {
	Body struct {
		LeveledUp bool          `json:"leveled_up"`
		Player    game.Snapshot `json:"player"`
	}
}

func (h *GameHandler) HandleAwardExperience(ctx context.Context, input *AwardExperienceInput) (*ProgressOutput, error) {
	if _, err := h.requireAdmin(ctx, input.Cookie); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.engine.Player(input.ID); !ok {
		return nil, huma.Error404NotFound("Player not found")
	}
	leveledUp, err := h.engine.AwardExperience(input.ID, input.Body.Amount)
	if err != nil {
		if !isInputError(err) {
			h.changed(ctx, input.ID)
		}
		return nil, gameError(err)
	}
	h.changed(ctx, input.ID)

	snap, _ := h.engine.Player(input.ID)
	res := &ProgressOutput{}
	res.Body.LeveledUp = leveledUp
	res.Body.Player = snap
	return res, nil
}
