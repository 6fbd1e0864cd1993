package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerState is the persisted progression of one player.
type PlayerState struct {
	gorm.Model
	PlayerID    string    `json:"player_id" gorm:"uniqueIndex"`
	Username    string    `json:"username"`
	Level       int       `json:"level"`
	Experience  int       `json:"experience"`
	TotalPoints int       `json:"total_points"`
	JoinedAt    time.Time `json:"joined_at"`
	LastActive  time.Time `json:"last_active"`

	Achievements []PlayerAchievement `gorm:"foreignKey:PlayerID;references:PlayerID"`
	Challenges   []PlayerChallenge   `gorm:"foreignKey:PlayerID;references:PlayerID"`
	Skills       []PlayerSkill       `gorm:"foreignKey:PlayerID;references:PlayerID"`
}

type PlayerChallenge struct {
	gorm.Model
	PlayerID    string     `json:"player_id" gorm:"uniqueIndex:idx_player_challenge"`
	ChallengeID string     `json:"challenge_id" gorm:"uniqueIndex:idx_player_challenge"`
	Position    int        `json:"position"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Difficulty  int        `json:"difficulty"`
	Skills      string     `json:"skills"` // comma separated
	Points      int        `json:"points"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

type PlayerSkill struct {
	gorm.Model
	PlayerID string `json:"player_id" gorm:"uniqueIndex:idx_player_skill"`
	Skill    string `json:"skill" gorm:"uniqueIndex:idx_player_skill"`
	Level    int    `json:"level"`
}
