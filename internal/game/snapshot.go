package game

import "time"

// Snapshot is a detached copy of a player's state. Rules evaluate against it
// and the engine hands it out instead of the live record.
type Snapshot struct {
	PlayerID     string        `json:"player_id"`
	Username     string        `json:"username"`
	Level        int           `json:"level"`
	Experience   int           `json:"experience"`
	TotalPoints  int           `json:"total_points"`
	Achievements []Achievement `json:"achievements"`
	Challenges   []Challenge   `json:"challenges"`
	Skills       map[Skill]int `json:"skills"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActive   time.Time     `json:"last_active"`
}

func (s Snapshot) SkillLevel(sk Skill) int {
	return s.Skills[sk]
}

func (s Snapshot) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s Snapshot) Challenge(id string) (Challenge, bool) {
	for _, c := range s.Challenges {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}

func (s Snapshot) CompletedChallenges() []Challenge {
	var out []Challenge
	for _, c := range s.Challenges {
		if c.Completed {
			out = append(out, c)
		}
	}
	return out
}

func (s Snapshot) ActiveChallenges() []Challenge {
	var out []Challenge
	for _, c := range s.Challenges {
		if !c.Completed {
			out = append(out, c)
		}
	}
	return out
}

// Summary flattens the snapshot. Days active counts whole days between
// creation and now.
func (s Snapshot) Summary(now time.Time) ProgressSummary {
	sum := ProgressSummary{
		PlayerID:          s.PlayerID,
		Username:          s.Username,
		Level:             s.Level,
		Experience:        s.Experience,
		TotalPoints:       s.TotalPoints,
		AchievementsCount: len(s.Achievements),
		Skills:            make(map[string]int, len(skills)),
	}
	for _, c := range s.Challenges {
		if c.Completed {
			sum.CompletedChallenges++
		} else {
			sum.ActiveChallenges++
		}
	}
	for _, sk := range skills {
		sum.Skills[string(sk)] = s.Skills[sk]
	}
	if d := now.Sub(s.CreatedAt); d > 0 {
		sum.DaysActive = int(d / (24 * time.Hour))
	}
	return sum
}
