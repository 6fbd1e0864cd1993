package game

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer("p1", "alice")

	if p.Level != 1 || p.Experience != 0 || p.TotalPoints != 0 {
		t.Fatalf("unexpected initial progression: level=%d exp=%d points=%d", p.Level, p.Experience, p.TotalPoints)
	}
	for _, s := range Skills() {
		if got := p.SkillLevel(s); got != 0 {
			t.Errorf("expected skill %s at 0, got %d", s, got)
		}
	}
	if !p.CreatedAt.Equal(p.LastActive) {
		t.Errorf("expected created_at == last_active on a new player")
	}
}

func TestAddExperience(t *testing.T) {
	tests := []struct {
		name      string
		level     int
		exp       int
		amount    int
		wantUp    bool
		wantLevel int
		wantExp   int
	}{
		{"BelowThreshold", 1, 0, 99, false, 1, 99},
		{"ZeroAmount", 3, 10, 0, false, 3, 10},
		{"ExactlyThreshold", 1, 0, 100, true, 2, 0},
		{"CarryOver", 1, 0, 150, true, 2, 50},
		{"AccumulatedCrossing", 2, 150, 60, true, 3, 10},
		{"SingleLevelUpPerCall", 1, 0, 250, true, 2, 150},
		{"NegativeIgnored", 2, 20, -5, false, 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("p1", "alice")
			p.Level = tt.level
			p.Experience = tt.exp

			got := p.AddExperience(tt.amount)
			if got != tt.wantUp {
				t.Errorf("expected leveled up %v, got %v", tt.wantUp, got)
			}
			if p.Level != tt.wantLevel {
				t.Errorf("expected level %d, got %d", tt.wantLevel, p.Level)
			}
			if p.Experience != tt.wantExp {
				t.Errorf("expected experience %d, got %d", tt.wantExp, p.Experience)
			}
		})
	}
}

func TestAddExperience_UpdatesLastActive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	p := newPlayer("p1", "alice", func() time.Time { return now })

	now = start.Add(time.Hour)
	p.AddExperience(5)

	if !p.LastActive.Equal(now) {
		t.Errorf("expected last_active %v, got %v", now, p.LastActive)
	}
	if !p.CreatedAt.Equal(start) {
		t.Errorf("created_at changed to %v", p.CreatedAt)
	}
}

func TestEarnAchievement(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newPlayer("p1", "alice", fixedClock(at))
	a := Achievement{ID: "first", Name: "First Steps", Points: 120}

	if !p.EarnAchievement(a) {
		t.Fatal("expected first grant to succeed")
	}
	if p.TotalPoints != 120 {
		t.Errorf("expected 120 points, got %d", p.TotalPoints)
	}
	// Points also flow through experience, 120 crosses the level 1 threshold.
	if p.Level != 2 || p.Experience != 20 {
		t.Errorf("expected level 2 with 20 exp, got level %d with %d exp", p.Level, p.Experience)
	}

	if p.EarnAchievement(a) {
		t.Error("expected second grant to be a no-op")
	}
	snap := p.Snapshot()
	if len(snap.Achievements) != 1 {
		t.Fatalf("expected 1 achievement, got %d", len(snap.Achievements))
	}
	if p.TotalPoints != 120 {
		t.Errorf("points changed on re-grant: %d", p.TotalPoints)
	}
	if !snap.Achievements[0].EarnedAt.Equal(at) {
		t.Errorf("expected earned_at %v, got %v", at, snap.Achievements[0].EarnedAt)
	}
	if !a.EarnedAt.IsZero() {
		t.Error("catalog achievement was stamped")
	}
}

func TestEarnAchievement_PreservesOrder(t *testing.T) {
	p := NewPlayer("p1", "alice")
	for _, id := range []string{"c", "a", "b"} {
		p.EarnAchievement(Achievement{ID: id})
	}

	snap := p.Snapshot()
	for i, want := range []string{"c", "a", "b"} {
		if snap.Achievements[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, snap.Achievements[i].ID)
		}
	}
}

func TestChallengeLifecycle(t *testing.T) {
	p := NewPlayer("p1", "alice")
	c := Challenge{
		ID:     "tokenize",
		Name:   "Tokenizer",
		Skills: []Skill{SkillNLP, SkillProgramming},
		Points: 40,
	}

	t.Run("UnknownChallenge", func(t *testing.T) {
		if p.CompleteChallenge("nope") {
			t.Error("expected completing an unknown challenge to fail")
		}
	})

	t.Run("Start", func(t *testing.T) {
		if !p.StartChallenge(c) {
			t.Fatal("expected first start to register the challenge")
		}
		if p.StartChallenge(c) {
			t.Error("expected re-start to be a no-op")
		}
		if n := len(p.Snapshot().ActiveChallenges()); n != 1 {
			t.Errorf("expected 1 active challenge, got %d", n)
		}
	})

	t.Run("Complete", func(t *testing.T) {
		if !p.CompleteChallenge("tokenize") {
			t.Fatal("expected completion to succeed")
		}
		if p.TotalPoints != 40 || p.Experience != 40 {
			t.Errorf("expected 40 points and exp, got %d/%d", p.TotalPoints, p.Experience)
		}
		if p.SkillLevel(SkillNLP) != 1 || p.SkillLevel(SkillProgramming) != 1 {
			t.Errorf("expected trained skills at 1, got nlp=%d programming=%d", p.SkillLevel(SkillNLP), p.SkillLevel(SkillProgramming))
		}
		if p.SkillLevel(SkillDataAnalysis) != 0 {
			t.Errorf("untrained skill changed")
		}
		held, ok := p.Snapshot().Challenge("tokenize")
		if !ok || !held.Completed || held.CompletedAt.IsZero() {
			t.Errorf("expected held challenge completed with timestamp, got %+v", held)
		}
	})

	t.Run("CompleteTwice", func(t *testing.T) {
		if p.CompleteChallenge("tokenize") {
			t.Error("expected re-completion to fail")
		}
		if p.TotalPoints != 40 {
			t.Errorf("points double-awarded: %d", p.TotalPoints)
		}
	})

	t.Run("RestartCompleted", func(t *testing.T) {
		p.StartChallenge(c)
		held, _ := p.Snapshot().Challenge("tokenize")
		if !held.Completed {
			t.Error("re-assigning reset a completed challenge")
		}
	})

	if c.Completed {
		t.Error("template challenge was mutated")
	}
}

func TestSummary(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newPlayer("p1", "alice", fixedClock(created))
	p.StartChallenge(Challenge{ID: "a", Skills: []Skill{SkillMachineLearning}, Points: 10})
	p.StartChallenge(Challenge{ID: "b", Points: 5})
	p.CompleteChallenge("a")
	p.EarnAchievement(Achievement{ID: "x", Points: 1})

	sum := p.Summary(created.Add(73 * time.Hour))

	if sum.Username != "alice" || sum.PlayerID != "p1" {
		t.Errorf("unexpected identity %q/%q", sum.PlayerID, sum.Username)
	}
	if sum.TotalPoints != 11 || sum.Experience != 11 || sum.Level != 1 {
		t.Errorf("unexpected progression %+v", sum)
	}
	if sum.AchievementsCount != 1 || sum.CompletedChallenges != 1 || sum.ActiveChallenges != 1 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if sum.Skills["machine_learning"] != 1 || len(sum.Skills) != len(Skills()) {
		t.Errorf("unexpected skills %v", sum.Skills)
	}
	if sum.DaysActive != 3 {
		t.Errorf("expected 3 days active, got %d", sum.DaysActive)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	p := NewPlayer("p1", "alice")
	p.StartChallenge(Challenge{ID: "a", Skills: []Skill{SkillNLP}})
	p.EarnAchievement(Achievement{ID: "x", Metadata: map[string]string{"tier": "gold"}})

	snap := p.Snapshot()
	snap.Challenges[0].Completed = true
	snap.Challenges[0].Skills[0] = SkillProgramming
	snap.Achievements[0].Metadata["tier"] = "lead"
	snap.Skills[SkillNLP] = 9

	again := p.Snapshot()
	if again.Challenges[0].Completed || again.Challenges[0].Skills[0] != SkillNLP {
		t.Error("challenge state leaked through snapshot")
	}
	if again.Achievements[0].Metadata["tier"] != "gold" {
		t.Error("achievement metadata leaked through snapshot")
	}
	if p.SkillLevel(SkillNLP) != 0 {
		t.Error("skill level leaked through snapshot")
	}
}

func TestParseSkill(t *testing.T) {
	if s, err := ParseSkill("data_analysis"); err != nil || s != SkillDataAnalysis {
		t.Errorf("expected data_analysis, got %q (%v)", s, err)
	}
	if _, err := ParseSkill("cooking"); err == nil {
		t.Error("expected error for unknown skill")
	}
}
