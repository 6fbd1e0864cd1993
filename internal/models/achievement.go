package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerAchievement is one earned achievement of a persisted player.
type PlayerAchievement struct {
	gorm.Model
	PlayerID      string    `json:"player_id" gorm:"uniqueIndex:idx_player_achievement"`
	AchievementID string    `json:"achievement_id" gorm:"uniqueIndex:idx_player_achievement"`
	Position      int       `json:"position"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Points        int       `json:"points"`
	Metadata      string    `json:"metadata"` // JSON encoded
	EarnedAt      time.Time `json:"earned_at"`
}
