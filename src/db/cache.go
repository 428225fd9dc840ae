package db

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache groups. Each group tracks its keys so a whole group, or every entry
// belonging to one user, can be dropped at once.
const (
	NetWorthCache   = "networth"
	DashboardCache  = "dashboard"
	ProjectionCache = "projection"
)

var ErrUnknownCache = errors.New("unknown cache")

type Cache struct {
	store *ristretto.Cache[string, any]

	mu     sync.Mutex
	groups map[string]map[string]int64
}

func NewCache(maxCost int64) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: maxCost * 10, // number of keys to track frequency of
		MaxCost:     maxCost,
		BufferItems: 64, // number of keys per Get buffer
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &Cache{
		store: store,
		groups: map[string]map[string]int64{
			NetWorthCache:   {},
			DashboardCache:  {},
			ProjectionCache: {},
		},
	}, nil
}

// Key builds a cache key scoped to a group and user.
func Key(group string, userID int64, parts ...string) string {
	key := fmt.Sprintf("%s:%d", group, userID)
	if len(parts) > 0 {
		key += ":" + strings.Join(parts, ":")
	}
	return key
}

func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

func (c *Cache) Set(group string, userID int64, key string, value any) {
	c.mu.Lock()
	if keys, ok := c.groups[group]; ok {
		keys[key] = userID
	}
	c.mu.Unlock()
	c.store.Set(key, value, 1)
}

// Wait blocks until pending writes are visible to Get.
func (c *Cache) Wait() {
	c.store.Wait()
}

// InvalidateUser drops every cached entry for userID. Call it after any
// write that changes balances, debts, goals or plans.
func (c *Cache) InvalidateUser(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, keys := range c.groups {
		for key, owner := range keys {
			if owner == userID {
				c.store.Del(key)
				delete(keys, key)
			}
		}
	}
}

// Clear drops one named group, or everything for "all".
func (c *Cache) Clear(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "all" {
		c.store.Clear()
		for group := range c.groups {
			c.groups[group] = map[string]int64{}
		}
		return nil
	}
	keys, ok := c.groups[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCache, name)
	}
	for key := range keys {
		c.store.Del(key)
	}
	c.groups[name] = map[string]int64{}
	return nil
}

func (c *Cache) Close() {
	c.store.Close()
}
