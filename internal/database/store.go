package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/gdg-garage/levelup-api/internal/models"
	"gorm.io/gorm"
)

// Store journals engine events and, when enabled, snapshots player state.
// The engine never reads from it except through LoadPlayers at startup.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) RecordEvent(ctx context.Context, ev game.Event) error {
	row := models.GameEvent{
		EventID:     ev.ID,
		Type:        string(ev.Type),
		PlayerID:    ev.Player.PlayerID,
		ChallengeID: ev.ChallengeID,
		Level:       ev.Player.Level,
		TotalPoints: ev.Player.TotalPoints,
		OccurredAt:  ev.At,
	}
	if ev.Achievement != nil {
		row.AchievementID = ev.Achievement.ID
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", ev.Type, err)
	}
	return nil
}

// ListEvents returns a player's journal, newest first.
func (s *Store) ListEvents(ctx context.Context, playerID string, limit int) ([]models.GameEvent, error) {
	var events []models.GameEvent
	q := s.db.WithContext(ctx).Where("player_id = ?", playerID).Order("occurred_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SavePlayer replaces the stored state of one player.
func (s *Store) SavePlayer(ctx context.Context, snap game.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state models.PlayerState
		if err := tx.Unscoped().Where(models.PlayerState{PlayerID: snap.PlayerID}).FirstOrInit(&state).Error; err != nil {
			return err
		}
		state.DeletedAt = gorm.DeletedAt{}
		state.Username = snap.Username
		state.Level = snap.Level
		state.Experience = snap.Experience
		state.TotalPoints = snap.TotalPoints
		state.JoinedAt = snap.CreatedAt
		state.LastActive = snap.LastActive
		if err := tx.Unscoped().Omit("Achievements", "Challenges", "Skills").Save(&state).Error; err != nil {
			return err
		}

		for _, m := range []any{&models.PlayerAchievement{}, &models.PlayerChallenge{}, &models.PlayerSkill{}} {
			if err := tx.Unscoped().Where("player_id = ?", snap.PlayerID).Delete(m).Error; err != nil {
				return err
			}
		}

		for i, a := range snap.Achievements {
			md, err := json.Marshal(a.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata of %s: %w", a.ID, err)
			}
			row := models.PlayerAchievement{
				PlayerID:      snap.PlayerID,
				AchievementID: a.ID,
				Position:      i,
				Name:          a.Name,
				Description:   a.Description,
				Category:      a.Category,
				Points:        a.Points,
				Metadata:      string(md),
				EarnedAt:      a.EarnedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for i, c := range snap.Challenges {
			skills := make([]string, 0, len(c.Skills))
			for _, sk := range c.Skills {
				skills = append(skills, string(sk))
			}
			row := models.PlayerChallenge{
				PlayerID:    snap.PlayerID,
				ChallengeID: c.ID,
				Position:    i,
				Name:        c.Name,
				Description: c.Description,
				Difficulty:  c.Difficulty,
				Skills:      strings.Join(skills, ","),
				Points:      c.Points,
				Completed:   c.Completed,
			}
			if c.Completed {
				at := c.CompletedAt
				row.CompletedAt = &at
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for sk, lvl := range snap.Skills {
			row := models.PlayerSkill{PlayerID: snap.PlayerID, Skill: string(sk), Level: lvl}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPlayers reads every stored player, oldest first.
func (s *Store) LoadPlayers(ctx context.Context) ([]game.Snapshot, error) {
	var states []models.PlayerState
	err := s.db.WithContext(ctx).
		Preload("Achievements", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Challenges", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Skills").
		Order("id asc").
		Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	snaps := make([]game.Snapshot, 0, len(states))
	for _, st := range states {
		snap := game.Snapshot{
			PlayerID:    st.PlayerID,
			Username:    st.Username,
			Level:       st.Level,
			Experience:  st.Experience,
			TotalPoints: st.TotalPoints,
			CreatedAt:   st.JoinedAt,
			LastActive:  st.LastActive,
			Skills:      make(map[game.Skill]int, len(st.Skills)),
		}
		for _, a := range st.Achievements {
			var md map[string]string
			if a.Metadata != "" {
				if err := json.Unmarshal([]byte(a.Metadata), &md); err != nil {
					return nil, fmt.Errorf("player %s achievement %s: %w", st.PlayerID, a.AchievementID, err)
				}
			}
			snap.Achievements = append(snap.Achievements, game.Achievement{
				ID:          a.AchievementID,
				Name:        a.Name,
				Description: a.Description,
				Category:    a.Category,
				Points:      a.Points,
				Metadata:    md,
				EarnedAt:    a.EarnedAt,
			})
		}
		for _, c := range st.Challenges {
			ch := game.Challenge{
				ID:          c.ChallengeID,
				Name:        c.Name,
				Description: c.Description,
				Difficulty:  c.Difficulty,
				Points:      c.Points,
				Completed:   c.Completed,
			}
			if c.CompletedAt != nil {
				ch.CompletedAt = *c.CompletedAt
			}
			if c.Skills != "" {
				for _, raw := range strings.Split(c.Skills, ",") {
					sk, err := game.ParseSkill(raw)
					if err != nil {
						return nil, fmt.Errorf("player %s challenge %s: %w", st.PlayerID, c.ChallengeID, err)
					}
					ch.Skills = append(ch.Skills, sk)
				}
			}
			snap.Challenges = append(snap.Challenges, ch)
		}
		for _, sk := range st.Skills {
			parsed, err := game.ParseSkill(sk.Skill)
			if err != nil {
				return nil, fmt.Errorf("player %s: %w", st.PlayerID, err)
			}
			snap.Skills[parsed] = sk.Level
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// JournalListener records every event it receives. A failed write fails the
// engine call that raised the event.
func (s *Store) JournalListener(timeout time.Duration) game.Listener {
	return func(ev game.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.RecordEvent(ctx, ev)
	}
}
