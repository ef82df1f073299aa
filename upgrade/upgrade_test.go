package upgrade

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/types"
)

func TestMemoryStoreLevels(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, 0, s.Level("red", types.UpgradeForge), "unpurchased upgrades are level 0")

	s.SetLevel("red", types.UpgradeForge, 2)
	s.SetLevel("red", types.UpgradeSharpness, 1)
	s.SetLevel("blue", types.UpgradeForge, 3)

	assert.Equal(t, 2, s.Level("red", types.UpgradeForge))
	assert.Equal(t, 1, s.Level("red", types.UpgradeSharpness))
	assert.Equal(t, 3, s.Level("blue", types.UpgradeForge))

	s.ResetAll()
	assert.Equal(t, 0, s.Level("red", types.UpgradeForge))
	assert.Equal(t, 0, s.Level("blue", types.UpgradeForge))
}

func TestRedisStoreLevels(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	s := NewRedisStore(client, "stronghold-1")
	assert.Equal(t, 0, s.Level("red", types.UpgradeForge))

	s.SetLevel("red", types.UpgradeForge, 2)
	s.SetLevel("blue", types.UpgradeHaste, 1)
	assert.Equal(t, 2, s.Level("red", types.UpgradeForge))
	assert.Equal(t, 1, s.Level("blue", types.UpgradeHaste))

	s.ResetAll()
	assert.Equal(t, 0, s.Level("red", types.UpgradeForge))
	assert.Equal(t, 0, s.Level("blue", types.UpgradeHaste))
}

func TestRedisStoreIsolatedByMatch(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	first := NewRedisStore(client, "stronghold-1")
	second := NewRedisStore(client, "stronghold-2")

	first.SetLevel("red", types.UpgradeForge, 3)
	second.SetLevel("red", types.UpgradeForge, 1)
	assert.Equal(t, 3, first.Level("red", types.UpgradeForge))
	assert.Equal(t, 1, second.Level("red", types.UpgradeForge))

	first.ResetAll()
	assert.Equal(t, 0, first.Level("red", types.UpgradeForge))
	assert.Equal(t, 1, second.Level("red", types.UpgradeForge), "reset must not cross match namespaces")
}

func TestRedisStoreSurvivesOutage(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	s := NewRedisStore(client, "stronghold-1")

	mini.Close()
	s.SetLevel("red", types.UpgradeForge, 2)
	assert.Equal(t, 0, s.Level("red", types.UpgradeForge), "outages read as level 0")
	s.ResetAll()
}

func TestFactories(t *testing.T) {
	memory := MemoryFactory()("any")
	_, ok := memory.(*MemoryStore)
	assert.Check(t, ok)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	store := RedisFactory(client)("stronghold-1")
	_, ok = store.(*RedisStore)
	assert.Check(t, ok)
}
