// Package game implements player progression: experience and levels,
// achievements granted by rules, challenges and a points leaderboard.
//
// The Engine is not safe for concurrent use. Callers sharing one across
// goroutines must serialise every call.
package game

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrDuplicatePlayer    = errors.New("player already exists")
	ErrDuplicateChallenge = errors.New("challenge already exists")
	ErrInvalidPlayer      = errors.New("invalid player")
	ErrInvalidAmount      = errors.New("experience amount must not be negative")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrInvalidRule        = errors.New("invalid rule")
)

type Option func(*Engine)

// WithClock replaces time.Now for every timestamp the engine stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns the players, the challenge catalog, the achievement rules and
// the event listeners.
type Engine struct {
	players     map[string]*Player
	playerOrder []string

	rules []AchievementRule

	challenges     map[string]Challenge
	challengeOrder []string

	listeners *registry
	now       func() time.Time
}

func New(opts ...Option) *Engine {
	e := &Engine{
		players:    make(map[string]*Player),
		challenges: make(map[string]Challenge),
		listeners:  newRegistry(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) RegisterPlayer(id, username string) (Snapshot, error) {
	if id == "" {
		return Snapshot{}, fmt.Errorf("%w: empty id", ErrInvalidPlayer)
	}
	if _, ok := e.players[id]; ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
	}
	p := newPlayer(id, username, e.now)
	e.players[id] = p
	e.playerOrder = append(e.playerOrder, id)
	return p.Snapshot(), nil
}

// Restore loads exported players. It fails without changing anything if any
// id is already registered or repeated.
func (e *Engine) Restore(snaps []Snapshot) error {
	seen := make(map[string]struct{}, len(snaps))
	for _, s := range snaps {
		if s.PlayerID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidPlayer)
		}
		if _, ok := e.players[s.PlayerID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, s.PlayerID)
		}
		if _, ok := seen[s.PlayerID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, s.PlayerID)
		}
		seen[s.PlayerID] = struct{}{}
	}
	for _, s := range snaps {
		e.players[s.PlayerID] = restorePlayer(s, e.now)
		e.playerOrder = append(e.playerOrder, s.PlayerID)
	}
	return nil
}

func (e *Engine) Player(id string) (Snapshot, bool) {
	p, ok := e.players[id]
	if !ok {
		return Snapshot{}, false
	}
	return p.Snapshot(), true
}

// Players returns every player in registration order.
func (e *Engine) Players() []Snapshot {
	out := make([]Snapshot, 0, len(e.playerOrder))
	for _, id := range e.playerOrder {
		out = append(out, e.players[id].Snapshot())
	}
	return out
}

func (e *Engine) AddAchievementRule(r AchievementRule) {
	r.Achievement = r.Achievement.clone()
	r.Achievement.EarnedAt = time.Time{}
	e.rules = append(e.rules, r)
}

func (e *Engine) Rules() []AchievementRule {
	out := make([]AchievementRule, len(e.rules))
	for i, r := range e.rules {
		r.Achievement = r.Achievement.clone()
		out[i] = r
	}
	return out
}

func (e *Engine) AddChallenge(c Challenge) error {
	if c.ID == "" {
		return errors.New("challenge id is required")
	}
	if _, ok := e.challenges[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateChallenge, c.ID)
	}
	c = c.clone()
	c.Completed = false
	c.CompletedAt = time.Time{}
	e.challenges[c.ID] = c
	e.challengeOrder = append(e.challengeOrder, c.ID)
	return nil
}

func (e *Engine) Challenge(id string) (Challenge, bool) {
	c, ok := e.challenges[id]
	if !ok {
		return Challenge{}, false
	}
	return c.clone(), true
}

// Challenges returns the catalog in insertion order.
func (e *Engine) Challenges() []Challenge {
	out := make([]Challenge, 0, len(e.challengeOrder))
	for _, id := range e.challengeOrder {
		out = append(out, e.challenges[id].clone())
	}
	return out
}

// AssignChallenge hands a catalog challenge to a player. It is false when
// either side is unknown; assigning a held challenge again is a no-op.
func (e *Engine) AssignChallenge(playerID, challengeID string) bool {
	p, ok := e.players[playerID]
	if !ok {
		return false
	}
	c, ok := e.challenges[challengeID]
	if !ok {
		return false
	}
	p.StartChallenge(c)
	return true
}

// CompletePlayerChallenge completes an assigned challenge, fires
// challenge_completed and then evaluates the achievement rules.
func (e *Engine) CompletePlayerChallenge(playerID, challengeID string) (bool, error) {
	p, ok := e.players[playerID]
	if !ok {
		return false, nil
	}
	if !p.CompleteChallenge(challengeID) {
		return false, nil
	}

	ev := newEvent(EventChallengeCompleted, p, e.now())
	ev.ChallengeID = challengeID
	if err := e.listeners.emit(ev); err != nil {
		return true, err
	}

	if _, err := e.checkAchievements(p); err != nil {
		return true, err
	}
	return true, nil
}

// AwardExperience adds experience, fires level_up when the player levels and
// always evaluates the achievement rules afterwards.
func (e *Engine) AwardExperience(playerID string, amount int) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	p, ok := e.players[playerID]
	if !ok {
		return false, nil
	}

	leveledUp := p.AddExperience(amount)
	if leveledUp {
		if err := e.listeners.emit(newEvent(EventLevelUp, p, e.now())); err != nil {
			return true, err
		}
	}

	if _, err := e.checkAchievements(p); err != nil {
		return leveledUp, err
	}
	return leveledUp, nil
}

// EvaluateAchievements runs the rules for one player outside of a
// progression change, e.g. after new rules were added.
func (e *Engine) EvaluateAchievements(playerID string) ([]Achievement, bool, error) {
	p, ok := e.players[playerID]
	if !ok {
		return nil, false, nil
	}
	granted, err := e.checkAchievements(p)
	return granted, true, err
}

// checkAchievements makes one pass over the rules in registration order.
// An achievement granted early in the pass is visible to later rules.
func (e *Engine) checkAchievements(p *Player) ([]Achievement, error) {
	var granted []Achievement
	for _, r := range e.rules {
		if p.HasAchievement(r.Achievement.ID) {
			continue
		}
		if !r.Check(p.Snapshot()) {
			continue
		}
		p.EarnAchievement(r.Achievement)
		held := p.achievements[len(p.achievements)-1].clone()
		granted = append(granted, held)

		ev := newEvent(EventAchievementEarned, p, e.now())
		ev.Achievement = &held
		if err := e.listeners.emit(ev); err != nil {
			return granted, err
		}
	}
	return granted, nil
}

// On registers a listener for one of the supported event types.
func (e *Engine) On(t EventType, l Listener) (Subscription, error) {
	return e.listeners.add(t, l)
}

func (e *Engine) Off(s Subscription) bool {
	return e.listeners.remove(s)
}

// Leaderboard ranks players by total points, highest first. Ties keep
// registration order.
func (e *Engine) Leaderboard(topN int) []Standing {
	if topN <= 0 {
		return []Standing{}
	}
	ranked := make([]*Player, 0, len(e.playerOrder))
	for _, id := range e.playerOrder {
		ranked = append(ranked, e.players[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPoints > ranked[j].TotalPoints
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	now := e.now()
	out := make([]Standing, 0, len(ranked))
	for i, p := range ranked {
		out = append(out, Standing{Rank: i + 1, ProgressSummary: p.Summary(now)})
	}
	return out
}

func (e *Engine) Stats() Stats {
	st := Stats{
		TotalPlayers:          len(e.players),
		TotalAchievementRules: len(e.rules),
		TotalChallenges:       len(e.challenges),
	}
	if len(e.players) == 0 {
		return st
	}
	total := 0
	for _, p := range e.players {
		total += p.Level
	}
	st.AveragePlayerLevel = float64(total) / float64(len(e.players))
	return st
}

// Summary is the progress summary of one player as of now.
func (e *Engine) Summary(playerID string) (ProgressSummary, bool) {
	p, ok := e.players[playerID]
	if !ok {
		return ProgressSummary{}, false
	}
	return p.Summary(e.now()), true
}
