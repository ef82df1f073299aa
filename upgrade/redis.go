package upgrade

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/arena-labs/bedwars-engine/types"
)

// RedisStore keeps upgrade levels in a redis hash per team so purchases
// made by an out-of-process shop service are visible to the match. A read
// that fails is treated as level 0; upgrades degrade gracefully when redis
// is unreachable.
type RedisStore struct {
	client  *redis.Client
	matchID string
}

var _ Store = (*RedisStore)(nil)

// RedisFactory returns a Factory producing redis-backed stores namespaced
// by match identity.
func RedisFactory(client *redis.Client) Factory {
	return func(matchID string) Store { return NewRedisStore(client, matchID) }
}

func NewRedisStore(client *redis.Client, matchID string) *RedisStore {
	return &RedisStore{client: client, matchID: matchID}
}

func (s *RedisStore) key(team types.TeamName) string {
	return "bedwars:upgrades:" + s.matchID + ":" + string(team)
}

func (s *RedisStore) Level(team types.TeamName, kind types.UpgradeKind) int {
	val, err := s.client.HGet(context.Background(), s.key(team), string(kind)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Logger.Warn().Err(err).Str("team", string(team)).Msg("upgrade level read failed")
		}
		return 0
	}
	level, err := strconv.Atoi(val)
	if err != nil {
		log.Logger.Warn().Err(err).Str("team", string(team)).Msg("malformed upgrade level")
		return 0
	}
	return level
}

func (s *RedisStore) SetLevel(team types.TeamName, kind types.UpgradeKind, level int) {
	err := s.client.HSet(context.Background(), s.key(team), string(kind), strconv.Itoa(level)).Err()
	if err != nil {
		log.Logger.Warn().Err(err).Str("team", string(team)).Msg("upgrade level write failed")
	}
}

// ResetAll wipes every upgrade hash under this match's namespace, including
// hashes written by other processes.
func (s *RedisStore) ResetAll() {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, "bedwars:upgrades:"+s.matchID+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Logger.Warn().Err(err).Msg("upgrade key scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		log.Logger.Warn().Err(err).Msg("upgrade reset failed")
	}
}
