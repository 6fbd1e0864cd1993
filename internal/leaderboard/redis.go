// Package leaderboard mirrors player standings into a redis sorted set so
// other services can read rankings without going through the API.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/redis/go-redis/v9"
)

type Entry struct {
	PlayerID    string `json:"player_id"`
	TotalPoints int    `json:"total_points"`
}

type Mirror struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewMirror(address, password, key string) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Mirror{client: client, key: key, timeout: 2 * time.Second}, nil
}

func (m *Mirror) Update(ctx context.Context, playerID string, points int) error {
	return m.client.ZAdd(ctx, m.key, redis.Z{Score: float64(points), Member: playerID}).Err()
}

// Sync replaces the mirrored set with the given players.
func (m *Mirror) Sync(ctx context.Context, players []game.Snapshot) error {
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, m.key)
	if len(players) > 0 {
		members := make([]redis.Z, 0, len(players))
		for _, p := range players {
			members = append(members, redis.Z{Score: float64(p.TotalPoints), Member: p.PlayerID})
		}
		pipe.ZAdd(ctx, m.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to sync leaderboard: %w", err)
	}
	return nil
}

func (m *Mirror) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	res, err := m.client.ZRevRangeWithScores(ctx, m.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(res))
	for _, z := range res {
		id, _ := z.Member.(string)
		out = append(out, Entry{PlayerID: id, TotalPoints: int(z.Score)})
	}
	return out, nil
}

// Listener keeps the mirror current. Redis failures are logged only.
func (m *Mirror) Listener() game.Listener {
	return func(ev game.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.Update(ctx, ev.Player.PlayerID, ev.Player.TotalPoints); err != nil {
			slog.Warn("failed to mirror leaderboard", "player_id", ev.Player.PlayerID, "error", err)
		}
		return nil
	}
}

func (m *Mirror) Close() error {
	return m.client.Close()
}
