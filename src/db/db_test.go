package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(1000)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestKey(t *testing.T) {
	assert.Equal(t, "networth:7", Key(NetWorthCache, 7))
	assert.Equal(t, "dashboard:7:2500", Key(DashboardCache, 7, "2500"))
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t)
	c.Set(NetWorthCache, 1, Key(NetWorthCache, 1), "250")
	c.Wait()

	v, ok := c.Get(Key(NetWorthCache, 1))
	require.True(t, ok)
	assert.Equal(t, "250", v)

	_, ok = c.Get(Key(NetWorthCache, 2))
	assert.False(t, ok)
}

func TestCacheInvalidateUser(t *testing.T) {
	c := newTestCache(t)
	c.Set(NetWorthCache, 1, Key(NetWorthCache, 1), 1)
	c.Set(DashboardCache, 1, Key(DashboardCache, 1), 2)
	c.Set(NetWorthCache, 2, Key(NetWorthCache, 2), 3)
	c.Wait()

	c.InvalidateUser(1)

	_, ok := c.Get(Key(NetWorthCache, 1))
	assert.False(t, ok)
	_, ok = c.Get(Key(DashboardCache, 1))
	assert.False(t, ok)
	_, ok = c.Get(Key(NetWorthCache, 2))
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t)
	c.Set(NetWorthCache, 1, Key(NetWorthCache, 1), 1)
	c.Set(ProjectionCache, 1, Key(ProjectionCache, 1, "baseline"), 2)
	c.Wait()

	require.NoError(t, c.Clear(NetWorthCache))
	_, ok := c.Get(Key(NetWorthCache, 1))
	assert.False(t, ok)
	_, ok = c.Get(Key(ProjectionCache, 1, "baseline"))
	assert.True(t, ok)

	require.NoError(t, c.Clear("all"))
	_, ok = c.Get(Key(ProjectionCache, 1, "baseline"))
	assert.False(t, ok)

	assert.ErrorIs(t, c.Clear("transactions"), ErrUnknownCache)
}

func TestMigrationsAreOrdered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_users.sql", names[0])
	assert.IsIncreasing(t, names)
	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		require.NoError(t, err)
		assert.NotEmpty(t, body, name)
	}
}
