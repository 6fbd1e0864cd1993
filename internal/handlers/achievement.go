package handlers

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/gdg-garage/levelup-api/internal/catalog"
	"github.com/gdg-garage/levelup-api/internal/game"
)

type AchievementView struct {
	Achievement game.Achievement `json:"achievement"`
	Description string           `json:"description,omitempty"`
	Rule        *game.RuleDef    `json:"rule,omitempty" doc:"Absent for rules defined in code"`
}

type ListAchievementsOutput struct {
	Body []AchievementView
}

func (h *GameHandler) HandleListAchievements(ctx context.Context, input *struct{}) (*ListAchievementsOutput, error) {
	h.mu.Lock()
	rules := h.engine.Rules()
	h.mu.Unlock()

	out := make([]AchievementView, 0, len(rules))
	for _, r := range rules {
		v := AchievementView{Achievement: r.Achievement, Description: r.Description}
		if def, ok := game.DescribeRule(r.Rule); ok {
			v.Rule = &def
		}
		out = append(out, v)
	}
	return &ListAchievementsOutput{Body: out}, nil
}

type CreateAchievementInput struct {
	auth.AuthInput
	Body catalog.AchievementDef
}

type CreateAchievementOutput struct {
	Body struct {
		Achievement game.Achievement `json:"achievement"`
		GrantedTo   []string         `json:"granted_to"`
	}
}

// HandleCreateAchievement adds a rule and immediately evaluates it for every
// player, so existing players do not wait for their next progression.
func (h *GameHandler) HandleCreateAchievement(ctx context.Context, input *CreateAchievementInput) (*CreateAchievementOutput, error) {
	user, err := h.requireAdmin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	def := input.Body
	if err := (&catalog.Catalog{Achievements: []catalog.AchievementDef{def}}).Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	rule, err := def.AchievementRule()
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.engine.Rules() {
		if r.Achievement.ID == def.ID {
			return nil, huma.Error409Conflict("Achievement already exists: " + def.ID)
		}
	}
	h.engine.AddAchievementRule(rule)
	slog.Info("achievement rule added", "achievement_id", def.ID, "by", user.Username)
	h.saveCatalog()

	res := &CreateAchievementOutput{}
	res.Body.Achievement = rule.Achievement
	res.Body.GrantedTo = []string{}
	for _, p := range h.engine.Players() {
		granted, _, err := h.engine.EvaluateAchievements(p.PlayerID)
		if len(granted) > 0 {
			res.Body.GrantedTo = append(res.Body.GrantedTo, p.PlayerID)
			h.changed(ctx, p.PlayerID)
		}
		if err != nil {
			return nil, gameError(err)
		}
	}
	return res, nil
}

type EvaluateAchievementsInput struct {
	auth.AuthInput
	ID string `path:"id" doc:"Player id"`
}

type EvaluateAchievementsOutput struct {
	Body struct {
		Granted []game.Achievement `json:"granted"`
		Player  game.Snapshot      `json:"player"`
	}
}

func (h *GameHandler) HandleEvaluateAchievements(ctx context.Context, input *EvaluateAchievementsInput) (*EvaluateAchievementsOutput, error) {
	if err := h.requirePlayerOrAdmin(ctx, input.Cookie, input.ID); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	granted, found, err := h.engine.EvaluateAchievements(input.ID)
	if !found {
		return nil, huma.Error404NotFound("Player not found")
	}
	if len(granted) > 0 {
		h.changed(ctx, input.ID)
	}
	if err != nil {
		return nil, gameError(err)
	}

	res := &EvaluateAchievementsOutput{}
	res.Body.Granted = granted
	if res.Body.Granted == nil {
		res.Body.Granted = []game.Achievement{}
	}
	res.Body.Player, _ = h.engine.Player(input.ID)
	return res, nil
}
