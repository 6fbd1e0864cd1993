// Package catalog loads challenge and achievement definitions from YAML or
// JSON files and installs them into a game engine.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gdg-garage/levelup-api/internal/game"
)

var ErrUnsupportedFormat = errors.New("unsupported catalog format")

type Catalog struct {
	Challenges   []ChallengeDef   `json:"challenges" yaml:"challenges"`
	Achievements []AchievementDef `json:"achievements" yaml:"achievements"`
}

type ChallengeDef struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty  int      `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Skills      []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Points      int      `json:"points" yaml:"points"`
}

type AchievementDef struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string            `json:"category,omitempty" yaml:"category,omitempty"`
	Points      int               `json:"points" yaml:"points"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Rule        game.RuleDef      `json:"rule" yaml:"rule"`
}

// Load reads a catalog file, picking the decoder from the extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("catalog loaded", "path", path, "challenges", len(c.Challenges), "achievements", len(c.Achievements))
	return &c, nil
}

// Save writes the catalog in the format implied by the extension.
func Save(path string, c *Catalog) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Challenges))
	for i, ch := range c.Challenges {
		if ch.ID == "" {
			return fmt.Errorf("challenges[%d]: id is required", i)
		}
		if ch.Name == "" {
			return fmt.Errorf("challenge %s: name is required", ch.ID)
		}
		if ch.Points < 0 {
			return fmt.Errorf("challenge %s: points must not be negative", ch.ID)
		}
		if _, ok := seen[ch.ID]; ok {
			return fmt.Errorf("challenge %s: duplicate id", ch.ID)
		}
		seen[ch.ID] = struct{}{}
		for _, s := range ch.Skills {
			if _, err := game.ParseSkill(s); err != nil {
				return fmt.Errorf("challenge %s: %w", ch.ID, err)
			}
		}
	}

	for i, a := range c.Achievements {
		if a.ID == "" {
			return fmt.Errorf("achievements[%d]: id is required", i)
		}
		if a.Name == "" {
			return fmt.Errorf("achievement %s: name is required", a.ID)
		}
		if a.Points < 0 {
			return fmt.Errorf("achievement %s: points must not be negative", a.ID)
		}
		if _, err := a.Rule.Build(); err != nil {
			return fmt.Errorf("achievement %s: %w", a.ID, err)
		}
	}
	return nil
}

// Apply adds every challenge and achievement rule to the engine.
func (c *Catalog) Apply(e *game.Engine) error {
	for _, def := range c.Challenges {
		ch, err := def.Challenge()
		if err != nil {
			return err
		}
		if err := e.AddChallenge(ch); err != nil {
			return err
		}
	}
	for _, def := range c.Achievements {
		r, err := def.AchievementRule()
		if err != nil {
			return err
		}
		e.AddAchievementRule(r)
	}
	return nil
}

func (d ChallengeDef) Challenge() (game.Challenge, error) {
	ch := game.Challenge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Difficulty:  d.Difficulty,
		Points:      d.Points,
	}
	for _, s := range d.Skills {
		sk, err := game.ParseSkill(s)
		if err != nil {
			return game.Challenge{}, fmt.Errorf("challenge %s: %w", d.ID, err)
		}
		ch.Skills = append(ch.Skills, sk)
	}
	return ch, nil
}

func (d AchievementDef) AchievementRule() (game.AchievementRule, error) {
	rule, err := d.Rule.Build()
	if err != nil {
		return game.AchievementRule{}, fmt.Errorf("achievement %s: %w", d.ID, err)
	}
	return game.AchievementRule{
		Achievement: game.Achievement{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			Points:      d.Points,
			Metadata:    d.Metadata,
		},
		Rule:        rule,
		Description: d.Description,
	}, nil
}

// FromEngine captures the engine's catalog. Rules without a declarative form
// are skipped and reported by id.
func FromEngine(e *game.Engine) (*Catalog, []string) {
	c := &Catalog{}
	for _, ch := range e.Challenges() {
		def := ChallengeDef{
			ID:          ch.ID,
			Name:        ch.Name,
			Description: ch.Description,
			Difficulty:  ch.Difficulty,
			Points:      ch.Points,
		}
		for _, s := range ch.Skills {
			def.Skills = append(def.Skills, string(s))
		}
		c.Challenges = append(c.Challenges, def)
	}

	var skipped []string
	for _, r := range e.Rules() {
		rd, ok := game.DescribeRule(r.Rule)
		if !ok {
			skipped = append(skipped, r.Achievement.ID)
			continue
		}
		c.Achievements = append(c.Achievements, AchievementDef{
			ID:          r.Achievement.ID,
			Name:        r.Achievement.Name,
			Description: r.Achievement.Description,
			Category:    r.Achievement.Category,
			Points:      r.Achievement.Points,
			Metadata:    r.Achievement.Metadata,
			Rule:        rd,
		})
	}
	return c, skipped
}
