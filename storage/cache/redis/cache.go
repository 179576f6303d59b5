// Package rediscache keeps built leaderboards in redis for a short TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/leaderboard"
)

// Open connects to redis and checks the connection.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

const scanCount = 100

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

type leaderboardCache struct {
	client redis.Cmdable
}

var _ leaderboard.Cache = (*leaderboardCache)(nil) // interface compliance check

func NewLeaderboardCache(client redis.Cmdable) leaderboard.Cache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) Get(ctx context.Context, key string) (leaderboard.Board, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return leaderboard.Board{}, false, nil
	}
	if err != nil {
		return leaderboard.Board{}, false, errors.Wrap(err, "getting cached leaderboard")
	}

	var board leaderboard.Board
	if err = json.Unmarshal(data, &board); err != nil {
		// a stale encoding is a miss
		return leaderboard.Board{}, false, nil
	}
	return board, true, nil
}

func (c *leaderboardCache) Set(ctx context.Context, key string, board leaderboard.Board, ttl time.Duration) error {
	data, err := json.Marshal(board)
	if err != nil {
		return errors.Wrap(err, "encoding leaderboard")
	}
	if err = c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "caching leaderboard")
	}
	return nil
}

func (c *leaderboardCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "evicting leaderboards")
	}
	return nil
}

func (c *leaderboardCache) DeletePrefix(ctx context.Context, prefixes ...string) error {
	keys := make([]string, 0)
	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, globEscaper.Replace(prefix)+"*", scanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return errors.Wrap(err, "scanning cached leaderboards")
		}
	}
	return c.Delete(ctx, keys...)
}
