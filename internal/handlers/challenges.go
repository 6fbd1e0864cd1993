package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/auth"
	"github.com/gdg-garage/levelup-api/internal/catalog"
	"github.com/gdg-garage/levelup-api/internal/game"
)

type ListChallengesOutput struct {
	Body []game.Challenge
}

func (h *GameHandler) HandleListChallenges(ctx context.Context, input *struct{}) (*ListChallengesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &ListChallengesOutput{Body: h.engine.Challenges()}, nil
}

type CreateChallengeInput struct {
	auth.AuthInput
	Body catalog.ChallengeDef
}

type ChallengeOutput struct {
	Body game.Challenge
}

func (h *GameHandler) HandleCreateChallenge(ctx context.Context, input *CreateChallengeInput) (*ChallengeOutput, error) {
	if _, err := h.requireAdmin(ctx, input.Cookie); err != nil {
		return nil, err
	}

	def := input.Body
	if err := (&catalog.Catalog{Challenges: []catalog.ChallengeDef{def}}).Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	ch, err := def.Challenge()
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.engine.AddChallenge(ch); err != nil {
		return nil, gameError(err)
	}
	h.saveCatalog()
	created, _ := h.engine.Challenge(ch.ID)
	return &ChallengeOutput{Body: created}, nil
}

type PlayerChallengeInput struct {
	auth.AuthInput
	ID          string `path:"id" doc:"Player id"`
	ChallengeID string `path:"challenge_id" doc:"Challenge id"`
}

// HandleAssignChallenge starts a catalog challenge for a player. Players may
// pick challenges for themselves.
func (h *GameHandler) HandleAssignChallenge(ctx context.Context, input *PlayerChallengeInput) (*PlayerOutput, error) {
	if err := h.requirePlayerOrAdmin(ctx, input.Cookie, input.ID); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.engine.AssignChallenge(input.ID, input.ChallengeID) {
		return nil, huma.Error404NotFound("Player or challenge not found")
	}
	h.changed(ctx, input.ID)

	snap, _ := h.engine.Player(input.ID)
	return &PlayerOutput{Body: snap}, nil
}

type CompleteChallengeOutput struct {
	Body struct {
		Player game.Snapshot `json:"player"`
	}
}

func (h *GameHandler) HandleCompleteChallenge(ctx context.Context, input *PlayerChallengeInput) (*CompleteChallengeOutput, error) {
	if _, err := h.requireAdmin(ctx, input.Cookie); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.engine.Player(input.ID); !ok {
		return nil, huma.Error404NotFound("Player not found")
	}
	completed, err := h.engine.CompletePlayerChallenge(input.ID, input.ChallengeID)
	if completed {
		h.changed(ctx, input.ID)
	}
	if err != nil {
		return nil, gameError(err)
	}
	if !completed {
		return nil, huma.Error409Conflict("Challenge is not active for this player")
	}

	res := &CompleteChallengeOutput{}
	res.Body.Player, _ = h.engine.Player(input.ID)
	return res, nil
}
