package game

import (
	"fmt"
)

// Rule is a predicate over a player's current state.
type Rule interface {
	Evaluate(Snapshot) bool
}

// RuleFunc adapts a plain function to Rule. Rules built this way cannot be
// expressed as a RuleDef.
type RuleFunc func(Snapshot) bool

func (f RuleFunc) Evaluate(s Snapshot) bool { return f(s) }

type LevelAtLeast int

func (r LevelAtLeast) Evaluate(s Snapshot) bool { return s.Level >= int(r) }

type PointsAtLeast int

func (r PointsAtLeast) Evaluate(s Snapshot) bool { return s.TotalPoints >= int(r) }

type SkillAtLeast struct {
	Skill Skill
	Level int
}

func (r SkillAtLeast) Evaluate(s Snapshot) bool { return s.SkillLevel(r.Skill) >= r.Level }

type ChallengesCompleted int

func (r ChallengesCompleted) Evaluate(s Snapshot) bool {
	return len(s.CompletedChallenges()) >= int(r)
}

type AchievementsEarned int

func (r AchievementsEarned) Evaluate(s Snapshot) bool { return len(s.Achievements) >= int(r) }

type HasAchievement string

func (r HasAchievement) Evaluate(s Snapshot) bool { return s.HasAchievement(string(r)) }

// All is satisfied when every child is. An empty All is satisfied.
type All []Rule

func (r All) Evaluate(s Snapshot) bool {
	for _, c := range r {
		if !c.Evaluate(s) {
			return false
		}
	}
	return true
}

// Any is satisfied when at least one child is.
type Any []Rule

func (r Any) Evaluate(s Snapshot) bool {
	for _, c := range r {
		if c.Evaluate(s) {
			return true
		}
	}
	return false
}

type Not struct{ Rule Rule }

func (r Not) Evaluate(s Snapshot) bool { return !r.Rule.Evaluate(s) }

// AchievementRule grants Achievement once Rule holds for a player.
type AchievementRule struct {
	Achievement Achievement
	Rule        Rule
	Description string
}

func (r AchievementRule) Check(s Snapshot) bool {
	if r.Rule == nil {
		return false
	}
	return r.Rule.Evaluate(s)
}

const (
	RuleKindLevel        = "level"
	RuleKindPoints       = "points"
	RuleKindSkill        = "skill"
	RuleKindChallenges   = "challenges_completed"
	RuleKindAchievements = "achievements_earned"
	RuleKindHas          = "has_achievement"
	RuleKindAll          = "all"
	RuleKindAny          = "any"
	RuleKindNot          = "not"
)

// RuleDef is the declarative form of a Rule, as stored in catalog files.
type RuleDef struct {
	Kind  string    `json:"kind" yaml:"kind"`
	Value int       `json:"value,omitempty" yaml:"value,omitempty"`
	Skill string    `json:"skill,omitempty" yaml:"skill,omitempty"`
	ID    string    `json:"id,omitempty" yaml:"id,omitempty"`
	Rules []RuleDef `json:"rules,omitempty" yaml:"rules,omitempty"`
}

func (d RuleDef) Build() (Rule, error) {
	if d.Value < 0 {
		return nil, fmt.Errorf("%w: %s value must not be negative", ErrInvalidRule, d.Kind)
	}
	switch d.Kind {
	case RuleKindLevel:
		return LevelAtLeast(d.Value), nil
	case RuleKindPoints:
		return PointsAtLeast(d.Value), nil
	case RuleKindSkill:
		sk, err := ParseSkill(d.Skill)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		return SkillAtLeast{Skill: sk, Level: d.Value}, nil
	case RuleKindChallenges:
		return ChallengesCompleted(d.Value), nil
	case RuleKindAchievements:
		return AchievementsEarned(d.Value), nil
	case RuleKindHas:
		if d.ID == "" {
			return nil, fmt.Errorf("%w: has_achievement needs an id", ErrInvalidRule)
		}
		return HasAchievement(d.ID), nil
	case RuleKindAll, RuleKindAny:
		if len(d.Rules) == 0 {
			return nil, fmt.Errorf("%w: %s needs at least one rule", ErrInvalidRule, d.Kind)
		}
		children := make([]Rule, 0, len(d.Rules))
		for i, c := range d.Rules {
			r, err := c.Build()
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", d.Kind, i, err)
			}
			children = append(children, r)
		}
		if d.Kind == RuleKindAll {
			return All(children), nil
		}
		return Any(children), nil
	case RuleKindNot:
		if len(d.Rules) != 1 {
			return nil, fmt.Errorf("%w: not needs exactly one rule", ErrInvalidRule)
		}
		r, err := d.Rules[0].Build()
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return Not{Rule: r}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, d.Kind)
	}
}

// DescribeRule renders a rule back into its declarative form. Rules that have
// no declarative form report false.
func DescribeRule(r Rule) (RuleDef, bool) {
	switch v := r.(type) {
	case LevelAtLeast:
		return RuleDef{Kind: RuleKindLevel, Value: int(v)}, true
	case PointsAtLeast:
		return RuleDef{Kind: RuleKindPoints, Value: int(v)}, true
	case SkillAtLeast:
		return RuleDef{Kind: RuleKindSkill, Skill: string(v.Skill), Value: v.Level}, true
	case ChallengesCompleted:
		return RuleDef{Kind: RuleKindChallenges, Value: int(v)}, true
	case AchievementsEarned:
		return RuleDef{Kind: RuleKindAchievements, Value: int(v)}, true
	case HasAchievement:
		return RuleDef{Kind: RuleKindHas, ID: string(v)}, true
	case All:
		return describeChildren(RuleKindAll, v)
	case Any:
		return describeChildren(RuleKindAny, v)
	case Not:
		child, ok := DescribeRule(v.Rule)
		if !ok {
			return RuleDef{}, false
		}
		return RuleDef{Kind: RuleKindNot, Rules: []RuleDef{child}}, true
	}
	return RuleDef{}, false
}

func describeChildren(kind string, rules []Rule) (RuleDef, bool) {
	def := RuleDef{Kind: kind}
	for _, r := range rules {
		child, ok := DescribeRule(r)
		if !ok {
			return RuleDef{}, false
		}
		def.Rules = append(def.Rules, child)
	}
	return def, true
}
