package game

import "time"

// experiencePerLevel scales the experience needed to leave a level.
const experiencePerLevel = 100

// Player holds one player's progression. The engine owns every Player it
// registers; callers only ever see Snapshots of them.
type Player struct {
	ID          string
	Username    string
	Level       int
	Experience  int
	TotalPoints int
	CreatedAt   time.Time
	LastActive  time.Time

	achievements   []Achievement
	earned         map[string]struct{}
	challenges     map[string]*Challenge
	challengeOrder []string
	skillLevels    map[Skill]int

	now func() time.Time
}

func NewPlayer(id, username string) *Player {
	return newPlayer(id, username, time.Now)
}

func newPlayer(id, username string, now func() time.Time) *Player {
	created := now()
	p := &Player{
		ID:          id,
		Username:    username,
		Level:       1,
		CreatedAt:   created,
		LastActive:  created,
		earned:      make(map[string]struct{}),
		challenges:  make(map[string]*Challenge),
		skillLevels: make(map[Skill]int, len(skills)),
		now:         now,
	}
	for _, s := range skills {
		p.skillLevels[s] = 0
	}
	return p
}

// RequiredExperience is the experience needed to leave the current level.
func (p *Player) RequiredExperience() int {
	return experiencePerLevel * p.Level
}

// AddExperience adds amount and applies at most one level-up, carrying the
// remainder over. It reports whether the player leveled up.
func (p *Player) AddExperience(amount int) bool {
	if amount < 0 {
		return false
	}
	p.Experience += amount
	p.LastActive = p.now()

	required := p.RequiredExperience()
	if p.Experience >= required {
		p.Level++
		p.Experience -= required
		return true
	}
	return false
}

// EarnAchievement grants a copy of a stamped with the current time. Already
// held ids are ignored.
func (p *Player) EarnAchievement(a Achievement) bool {
	if p.HasAchievement(a.ID) {
		return false
	}
	earned := a.clone()
	earned.EarnedAt = p.now()
	p.achievements = append(p.achievements, earned)
	p.earned[a.ID] = struct{}{}
	p.TotalPoints += a.Points
	p.AddExperience(a.Points)
	return true
}

func (p *Player) HasAchievement(id string) bool {
	_, ok := p.earned[id]
	return ok
}

func (p *Player) StartChallenge(c Challenge) bool {
	if _, ok := p.challenges[c.ID]; ok {
		return false
	}
	held := c.clone()
	held.Completed = false
	held.CompletedAt = time.Time{}
	p.challenges[c.ID] = &held
	p.challengeOrder = append(p.challengeOrder, c.ID)
	return true
}

// CompleteChallenge finishes an assigned challenge once. Unknown or already
// completed ids return false and change nothing.
func (p *Player) CompleteChallenge(id string) bool {
	c, ok := p.challenges[id]
	if !ok || c.Completed {
		return false
	}
	c.Completed = true
	c.CompletedAt = p.now()
	p.TotalPoints += c.Points
	p.AddExperience(c.Points)
	for _, s := range c.Skills {
		p.skillLevels[s]++
	}
	return true
}

func (p *Player) SkillLevel(s Skill) int {
	return p.skillLevels[s]
}

func (p *Player) Summary(now time.Time) ProgressSummary {
	return p.Snapshot().Summary(now)
}

// Snapshot returns a deep copy of the player's state.
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		PlayerID:     p.ID,
		Username:     p.Username,
		Level:        p.Level,
		Experience:   p.Experience,
		TotalPoints:  p.TotalPoints,
		CreatedAt:    p.CreatedAt,
		LastActive:   p.LastActive,
		Achievements: make([]Achievement, 0, len(p.achievements)),
		Challenges:   make([]Challenge, 0, len(p.challengeOrder)),
		Skills:       make(map[Skill]int, len(p.skillLevels)),
	}
	for _, a := range p.achievements {
		s.Achievements = append(s.Achievements, a.clone())
	}
	for _, id := range p.challengeOrder {
		s.Challenges = append(s.Challenges, p.challenges[id].clone())
	}
	for k, v := range p.skillLevels {
		s.Skills[k] = v
	}
	return s
}

// restorePlayer rebuilds a player from an exported snapshot.
func restorePlayer(s Snapshot, now func() time.Time) *Player {
	p := newPlayer(s.PlayerID, s.Username, now)
	p.Level = s.Level
	if p.Level < 1 {
		p.Level = 1
	}
	p.Experience = s.Experience
	p.TotalPoints = s.TotalPoints
	if !s.CreatedAt.IsZero() {
		p.CreatedAt = s.CreatedAt
	}
	if !s.LastActive.IsZero() {
		p.LastActive = s.LastActive
	}
	for _, a := range s.Achievements {
		if p.HasAchievement(a.ID) {
			continue
		}
		p.achievements = append(p.achievements, a.clone())
		p.earned[a.ID] = struct{}{}
	}
	for _, c := range s.Challenges {
		if _, ok := p.challenges[c.ID]; ok {
			continue
		}
		held := c.clone()
		p.challenges[c.ID] = &held
		p.challengeOrder = append(p.challengeOrder, c.ID)
	}
	for k, v := range s.Skills {
		p.skillLevels[k] = v
	}
	return p
}
