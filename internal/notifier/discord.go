package notifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/levelup-api/internal/game"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Notifier interface {
	NotifyLevelUp(player game.Snapshot) error
	NotifyAchievement(player game.Snapshot, achievement game.Achievement) error
	NotifyChallenge(player game.Snapshot, challenge game.Challenge) error
}

// MessageSender is the part of a discordgo session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
	printer   *message.Printer
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		printer:   message.NewPrinter(language.English),
	}
}

func (n *DiscordNotifier) NotifyLevelUp(player game.Snapshot) error {
	msg := n.printer.Sprintf("⬆️ **Level Up**\n**Player:** %s\n**Level:** %d\n**Total Points:** %d",
		player.Username,
		player.Level,
		player.TotalPoints,
	)
	return n.send(msg)
}

func (n *DiscordNotifier) NotifyAchievement(player game.Snapshot, achievement game.Achievement) error {
	desc := ""
	if achievement.Description != "" {
		desc = fmt.Sprintf("\n*%s*", achievement.Description)
	}
	msg := n.printer.Sprintf("🏆 **Achievement Unlocked**\n**Player:** %s\n**Achievement:** %s (+%d points)%s\n**Total Points:** %d",
		player.Username,
		achievement.Name,
		achievement.Points,
		desc,
		player.TotalPoints,
	)
	return n.send(msg)
}

func (n *DiscordNotifier) NotifyChallenge(player game.Snapshot, challenge game.Challenge) error {
	skills := make([]string, 0, len(challenge.Skills))
	for _, s := range challenge.Skills {
		skills = append(skills, string(s))
	}
	skillStr := "none"
	if len(skills) > 0 {
		skillStr = strings.Join(skills, ", ")
	}
	msg := n.printer.Sprintf("✅ **Challenge Completed**\n**Player:** %s\n**Challenge:** %s (+%d points)\n**Skills:** %s",
		player.Username,
		challenge.Name,
		challenge.Points,
		skillStr,
	)
	return n.send(msg)
}

func (n *DiscordNotifier) send(msg string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, msg); err != nil {
		slog.Error("failed to send discord message", "error", err)
		return err
	}
	return nil
}

// Listeners adapts a Notifier to engine listeners. Delivery failures are
// logged and never fail the engine call.
func Listeners(n Notifier) map[game.EventType]game.Listener {
	return map[game.EventType]game.Listener{
		game.EventLevelUp: func(ev game.Event) error {
			if err := n.NotifyLevelUp(ev.Player); err != nil {
				slog.Warn("level up notification failed", "player_id", ev.Player.PlayerID, "error", err)
			}
			return nil
		},
		game.EventAchievementEarned: func(ev game.Event) error {
			if ev.Achievement == nil {
				return nil
			}
			if err := n.NotifyAchievement(ev.Player, *ev.Achievement); err != nil {
				slog.Warn("achievement notification failed", "player_id", ev.Player.PlayerID, "achievement_id", ev.Achievement.ID, "error", err)
			}
			return nil
		},
		game.EventChallengeCompleted: func(ev game.Event) error {
			ch, ok := ev.Player.Challenge(ev.ChallengeID)
			if !ok {
				return nil
			}
			if err := n.NotifyChallenge(ev.Player, ch); err != nil {
				slog.Warn("challenge notification failed", "player_id", ev.Player.PlayerID, "challenge_id", ev.ChallengeID, "error", err)
			}
			return nil
		},
	}
}
