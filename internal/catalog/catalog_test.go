package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdg-garage/levelup-api/internal/game"
)

const sampleYAML = `
challenges:
  - id: tokenize
    name: Tokenize a corpus
    skills: [nlp, programming]
    points: 20
achievements:
  - id: first
    name: First Steps
    category: milestones
    points: 10
    rule:
      kind: challenges_completed
      value: 1
  - id: linguist
    name: Linguist
    points: 5
    rule:
      kind: all
      rules:
        - {kind: skill, skill: nlp, value: 1}
        - {kind: has_achievement, id: first}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	c, err := Load(writeFile(t, "catalog.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c.Challenges) != 1 || len(c.Achievements) != 2 {
		t.Fatalf("unexpected catalog sizes %d/%d", len(c.Challenges), len(c.Achievements))
	}
	if c.Achievements[1].Rule.Kind != game.RuleKindAll || len(c.Achievements[1].Rule.Rules) != 2 {
		t.Errorf("compound rule not decoded: %+v", c.Achievements[1].Rule)
	}
}

func TestLoadJSON(t *testing.T) {
	content := `{
  "challenges": [{"id": "c1", "name": "One", "skills": ["data_analysis"], "points": 5}],
  "achievements": [{"id": "a1", "name": "Five", "points": 1, "rule": {"kind": "points", "value": 5}}]
}`
	c, err := Load(writeFile(t, "catalog.json", content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Challenges[0].Skills[0] != "data_analysis" || c.Achievements[0].Rule.Value != 5 {
		t.Errorf("unexpected catalog %+v", c)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		_, err := Load(writeFile(t, "catalog.toml", "x = 1"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("UnknownSkill", func(t *testing.T) {
		content := "challenges:\n  - {id: c1, name: One, skills: [cooking], points: 1}\n"
		if _, err := Load(writeFile(t, "catalog.yaml", content)); err == nil {
			t.Error("expected error for unknown skill")
		}
	})

	t.Run("InvalidRule", func(t *testing.T) {
		content := "achievements:\n  - {id: a1, name: A, points: 1, rule: {kind: streak}}\n"
		_, err := Load(writeFile(t, "catalog.yaml", content))
		if !errors.Is(err, game.ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("DuplicateChallenge", func(t *testing.T) {
		content := "challenges:\n  - {id: c1, name: One, points: 1}\n  - {id: c1, name: Two, points: 1}\n"
		if _, err := Load(writeFile(t, "catalog.yaml", content)); err == nil {
			t.Error("expected error for duplicate challenge id")
		}
	})
}

func TestApply(t *testing.T) {
	c, err := Load(writeFile(t, "catalog.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e := game.New()
	if err := c.Apply(e); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st := e.Stats(); st.TotalChallenges != 1 || st.TotalAchievementRules != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}

	e.RegisterPlayer("p1", "alice")
	e.AssignChallenge("p1", "tokenize")
	if ok, err := e.CompletePlayerChallenge("p1", "tokenize"); !ok || err != nil {
		t.Fatalf("CompletePlayerChallenge failed: %v/%v", ok, err)
	}

	p, _ := e.Player("p1")
	if !p.HasAchievement("first") || !p.HasAchievement("linguist") {
		t.Errorf("expected both achievements, got %+v", p.Achievements)
	}
	if p.TotalPoints != 35 {
		t.Errorf("expected 35 points, got %d", p.TotalPoints)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	src, err := Load(writeFile(t, "catalog.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e := game.New()
	src.Apply(e)
	e.AddAchievementRule(game.AchievementRule{
		Achievement: game.Achievement{ID: "coded", Name: "Coded"},
		Rule:        game.RuleFunc(func(game.Snapshot) bool { return false }),
	})

	c, skipped := FromEngine(e)
	if len(skipped) != 1 || skipped[0] != "coded" {
		t.Errorf("expected coded rule skipped, got %v", skipped)
	}

	for _, name := range []string{"out.json", "out.yml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := Save(path, c); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		back, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if len(back.Achievements) != 2 || back.Achievements[1].Rule.Rules[1].ID != "first" {
			t.Errorf("%s: unexpected catalog %+v", name, back)
		}
	}
}

func TestBundledCatalog(t *testing.T) {
	path := filepath.Join("..", "..", "catalog.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("bundled catalog not found, skipping")
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("bundled catalog invalid: %v", err)
	}
	if err := c.Apply(game.New()); err != nil {
		t.Fatalf("bundled catalog does not apply: %v", err)
	}
}
