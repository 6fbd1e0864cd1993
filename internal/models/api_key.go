package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets scripts act as a user through the X-API-KEY header.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id" gorm:"index"`
	User       User       `json:"-"`
	Key        string     `json:"-" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
