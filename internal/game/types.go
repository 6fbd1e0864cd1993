package game

import (
	"fmt"
	"time"
)

// Skill is a progression category tracked per player.
type Skill string

const (
	SkillNLP             Skill = "nlp"
	SkillMachineLearning Skill = "machine_learning"
	SkillDataAnalysis    Skill = "data_analysis"
	SkillProgramming     Skill = "programming"
)

var skills = []Skill{SkillNLP, SkillMachineLearning, SkillDataAnalysis, SkillProgramming}

// Skills returns every known skill in a fixed order.
func Skills() []Skill {
	out := make([]Skill, len(skills))
	copy(out, skills)
	return out
}

func ParseSkill(s string) (Skill, error) {
	for _, sk := range skills {
		if string(sk) == s {
			return sk, nil
		}
	}
	return "", fmt.Errorf("unknown skill %q", s)
}

// Achievement is a catalog reward. EarnedAt is zero on catalog entries and
// set on the copy a player holds.
type Achievement struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Points      int               `json:"points"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	EarnedAt    time.Time         `json:"earned_at,omitzero"`
}

func (a Achievement) clone() Achievement {
	if a.Metadata != nil {
		md := make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			md[k] = v
		}
		a.Metadata = md
	}
	return a
}

// Challenge is a task template. Completion state only lives on the copy a
// player holds.
type Challenge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Difficulty  int       `json:"difficulty"`
	Skills      []Skill   `json:"skills"`
	Points      int       `json:"points"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

func (c Challenge) clone() Challenge {
	c.Skills = append([]Skill(nil), c.Skills...)
	return c
}

// ProgressSummary is the flat view of a player used by listings.
type ProgressSummary struct {
	PlayerID            string         `json:"player_id"`
	Username            string         `json:"username"`
	Level               int            `json:"level"`
	Experience          int            `json:"experience"`
	TotalPoints         int            `json:"total_points"`
	AchievementsCount   int            `json:"achievements_count"`
	CompletedChallenges int            `json:"completed_challenges"`
	ActiveChallenges    int            `json:"active_challenges"`
	Skills              map[string]int `json:"skills"`
	DaysActive          int            `json:"days_active"`
}

type Standing struct {
	Rank int `json:"rank"`
	ProgressSummary
}

type Stats struct {
	TotalPlayers          int     `json:"total_players"`
	TotalAchievementRules int     `json:"total_achievement_rules"`
	TotalChallenges       int     `json:"total_challenges"`
	AveragePlayerLevel    float64 `json:"average_player_level"`
}
