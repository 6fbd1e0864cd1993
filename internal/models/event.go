package models

import (
	"time"

	"gorm.io/gorm"
)

// GameEvent is the journal entry for one engine event.
type GameEvent struct {
	gorm.Model
	EventID       string    `json:"event_id" gorm:"uniqueIndex"`
	Type          string    `json:"type" gorm:"index"`
	PlayerID      string    `json:"player_id" gorm:"index"`
	AchievementID string    `json:"achievement_id,omitempty"`
	ChallengeID   string    `json:"challenge_id,omitempty"`
	Level         int       `json:"level"`
	TotalPoints   int       `json:"total_points"`
	OccurredAt    time.Time `json:"occurred_at"`
}
