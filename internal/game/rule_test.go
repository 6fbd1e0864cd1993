package game

import (
	"errors"
	"testing"
)

func TestRules(t *testing.T) {
	snap := Snapshot{
		Level:        4,
		TotalPoints:  250,
		Skills:       map[Skill]int{SkillNLP: 3},
		Achievements: []Achievement{{ID: "first"}},
		Challenges: []Challenge{
			{ID: "a", Completed: true},
			{ID: "b"},
		},
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"LevelMet", LevelAtLeast(4), true},
		{"LevelUnmet", LevelAtLeast(5), false},
		{"Points", PointsAtLeast(250), true},
		{"Skill", SkillAtLeast{Skill: SkillNLP, Level: 3}, true},
		{"UnseenSkill", SkillAtLeast{Skill: SkillProgramming, Level: 1}, false},
		{"Challenges", ChallengesCompleted(1), true},
		{"ChallengesIgnoresActive", ChallengesCompleted(2), false},
		{"Achievements", AchievementsEarned(1), true},
		{"HasAchievement", HasAchievement("first"), true},
		{"MissingAchievement", HasAchievement("second"), false},
		{"All", All{LevelAtLeast(2), PointsAtLeast(100)}, true},
		{"AllOneFails", All{LevelAtLeast(2), PointsAtLeast(1000)}, false},
		{"Any", Any{LevelAtLeast(20), HasAchievement("first")}, true},
		{"AnyNone", Any{LevelAtLeast(20)}, false},
		{"Not", Not{Rule: LevelAtLeast(20)}, true},
		{"Func", RuleFunc(func(s Snapshot) bool { return s.Level%2 == 0 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Evaluate(snap); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRuleDefBuild(t *testing.T) {
	def := RuleDef{
		Kind: RuleKindAll,
		Rules: []RuleDef{
			{Kind: RuleKindLevel, Value: 3},
			{Kind: RuleKindAny, Rules: []RuleDef{
				{Kind: RuleKindSkill, Skill: "nlp", Value: 2},
				{Kind: RuleKindHas, ID: "first"},
			}},
		},
	}

	rule, err := def.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !rule.Evaluate(Snapshot{Level: 3, Skills: map[Skill]int{SkillNLP: 2}}) {
		t.Error("expected compound rule to hold")
	}
	if rule.Evaluate(Snapshot{Level: 2, Skills: map[Skill]int{SkillNLP: 2}}) {
		t.Error("expected compound rule to fail below level 3")
	}

	back, ok := DescribeRule(rule)
	if !ok {
		t.Fatal("expected built rule to be describable")
	}
	if back.Kind != RuleKindAll || len(back.Rules) != 2 || back.Rules[1].Rules[0].Skill != "nlp" {
		t.Errorf("unexpected description %+v", back)
	}

	if _, ok := DescribeRule(RuleFunc(func(Snapshot) bool { return true })); ok {
		t.Error("expected RuleFunc to have no declarative form")
	}
}

func TestRuleDefBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  RuleDef
	}{
		{"UnknownKind", RuleDef{Kind: "streak"}},
		{"UnknownSkill", RuleDef{Kind: RuleKindSkill, Skill: "cooking", Value: 1}},
		{"NegativeValue", RuleDef{Kind: RuleKindLevel, Value: -1}},
		{"HasWithoutID", RuleDef{Kind: RuleKindHas}},
		{"EmptyAll", RuleDef{Kind: RuleKindAll}},
		{"NotArity", RuleDef{Kind: RuleKindNot}},
		{"NestedInvalid", RuleDef{Kind: RuleKindAny, Rules: []RuleDef{{Kind: "bogus"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.def.Build(); !errors.Is(err, ErrInvalidRule) {
				t.Errorf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestParseEventType(t *testing.T) {
	for _, want := range EventTypes() {
		got, err := ParseEventType(string(want))
		if err != nil || got != want {
			t.Errorf("ParseEventType(%q) = %q, %v", want, got, err)
		}
	}
	if _, err := ParseEventType("player_joined"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}
