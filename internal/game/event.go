package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLevelUp            EventType = "level_up"
	EventAchievementEarned  EventType = "achievement_earned"
	EventChallengeCompleted EventType = "challenge_completed"
)

var eventTypes = []EventType{EventLevelUp, EventAchievementEarned, EventChallengeCompleted}

func EventTypes() []EventType {
	return append([]EventType(nil), eventTypes...)
}

func ParseEventType(s string) (EventType, error) {
	for _, t := range eventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Event describes one progression change. Player is the state right after
// the change.
type Event struct {
	ID          string       `json:"id"`
	Type        EventType    `json:"type"`
	Player      Snapshot     `json:"player"`
	Achievement *Achievement `json:"achievement,omitempty"`
	ChallengeID string       `json:"challenge_id,omitempty"`
	At          time.Time    `json:"at"`
}

// Listener receives events synchronously. A returned error stops delivery
// and is returned from the engine call that raised the event.
type Listener func(Event) error

// Subscription identifies a registered listener.
type Subscription struct {
	Type EventType
	id   uint64
}

type subscriber struct {
	id uint64
	fn Listener
}

type registry struct {
	next uint64
	subs map[EventType][]subscriber
}

func newRegistry() *registry {
	r := &registry{subs: make(map[EventType][]subscriber, len(eventTypes))}
	for _, t := range eventTypes {
		r.subs[t] = nil
	}
	return r
}

func (r *registry) add(t EventType, fn Listener) (Subscription, error) {
	if _, ok := r.subs[t]; !ok {
		return Subscription{}, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
	}
	if fn == nil {
		return Subscription{}, fmt.Errorf("nil listener for %s", t)
	}
	r.next++
	r.subs[t] = append(r.subs[t], subscriber{id: r.next, fn: fn})
	return Subscription{Type: t, id: r.next}, nil
}

func (r *registry) remove(s Subscription) bool {
	list := r.subs[s.Type]
	for i, sub := range list {
		if sub.id == s.id {
			r.subs[s.Type] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry) emit(e Event) error {
	for _, sub := range r.subs[e.Type] {
		if err := sub.fn(e); err != nil {
			return fmt.Errorf("%s listener: %w", e.Type, err)
		}
	}
	return nil
}

func newEvent(t EventType, p *Player, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   t,
		Player: p.Snapshot(),
		At:     at,
	}
}
