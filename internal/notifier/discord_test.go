package notifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/levelup-api/internal/game"
)

type fakeSender struct {
	messages []string
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestListeners(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordNotifier(sender, "chan")

	e := game.New()
	for typ, l := range Listeners(n) {
		if _, err := e.On(typ, l); err != nil {
			t.Fatalf("On(%s) failed: %v", typ, err)
		}
	}

	e.RegisterPlayer("p1", "alice")
	e.AddChallenge(game.Challenge{ID: "c1", Name: "Big One", Skills: []game.Skill{game.SkillNLP}, Points: 1500})
	e.AddAchievementRule(game.AchievementRule{
		Achievement: game.Achievement{ID: "rich", Name: "Rich", Description: "Lots of points", Points: 1000},
		Rule:        game.PointsAtLeast(1000),
	})
	e.AssignChallenge("p1", "c1")
	if ok, err := e.CompletePlayerChallenge("p1", "c1"); !ok || err != nil {
		t.Fatalf("CompletePlayerChallenge failed: %v/%v", ok, err)
	}
	e.AwardExperience("p1", 1000)

	if len(sender.messages) != 3 {
		t.Fatalf("expected 3 messages, got %d: %v", len(sender.messages), sender.messages)
	}
	if !strings.Contains(sender.messages[0], "Big One (+1,500 points)") || !strings.Contains(sender.messages[0], "nlp") {
		t.Errorf("unexpected challenge message %q", sender.messages[0])
	}
	if !strings.Contains(sender.messages[1], "Rich (+1,000 points)") || !strings.Contains(sender.messages[1], "*Lots of points*") {
		t.Errorf("unexpected achievement message %q", sender.messages[1])
	}
	if !strings.Contains(sender.messages[2], "Level Up") || !strings.Contains(sender.messages[2], "2,500") {
		t.Errorf("unexpected level up message %q", sender.messages[2])
	}
}

func TestListeners_SwallowFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("discord down")}
	e := game.New()
	for typ, l := range Listeners(NewDiscordNotifier(sender, "chan")) {
		e.On(typ, l)
	}
	e.RegisterPlayer("p1", "alice")

	if _, err := e.AwardExperience("p1", 100); err != nil {
		t.Errorf("expected notification failure to be swallowed, got %v", err)
	}
}

func TestSend_Misconfigured(t *testing.T) {
	if err := NewDiscordNotifier(nil, "chan").NotifyLevelUp(game.Snapshot{}); err == nil {
		t.Error("expected error without a session")
	}
	if err := NewDiscordNotifier(&fakeSender{}, "").NotifyLevelUp(game.Snapshot{}); err == nil {
		t.Error("expected error without a channel")
	}
}
