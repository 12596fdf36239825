// Package settings manages persisted configuration and its process-wide
// cache. Request-time reads go through the Cache; writes flow through the
// Service, which refreshes the cache and publishes an invalidation event.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Cache holds every setting in memory. It starts stale and serves zero
// values until the first Load.
type Cache struct {
	store storage.SettingsStore
	log   *logger.Logger

	mu    sync.RWMutex
	items map[string]setting.Setting
	stale bool
}

// NewCache creates an unloaded cache over the store.
func NewCache(store storage.SettingsStore, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewDefault("settings-cache")
	}
	return &Cache{
		store: store,
		log:   log,
		items: make(map[string]setting.Setting),
		stale: true,
	}
}

// Load fills the cache from the store.
func (c *Cache) Load(ctx context.Context) error {
	list, err := c.store.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	items := make(map[string]setting.Setting, len(list))
	for _, st := range list {
		items[st.Key] = st
	}

	c.mu.Lock()
	c.items = items
	c.stale = false
	c.mu.Unlock()

	c.log.Debugf("settings cache loaded (%d entries)", len(items))
	return nil
}

// Reload is Load, named for call sites refreshing an already-warm cache.
func (c *Cache) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// Invalidate clears the cache. Reads return zero values until the next Load.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = make(map[string]setting.Setting)
	c.stale = true
	c.mu.Unlock()
}

// Stale reports whether the cache needs a Load before serving reads.
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// Get returns the cached setting for key.
func (c *Cache) Get(key string) (setting.Setting, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.items[key]
	return st, ok
}

// GetString returns the cached value for key, or "" when absent.
func (c *Cache) GetString(key string) string {
	st, _ := c.Get(key)
	return st.Value
}

// GetBool returns the cached value for key parsed as a boolean. Absent or
// unparseable values read as false.
func (c *Cache) GetBool(key string) bool {
	v, err := strconv.ParseBool(c.GetString(key))
	if err != nil {
		return false
	}
	return v
}

// GetJSON returns the cached value for key parsed as JSON.
func (c *Cache) GetJSON(key string) gjson.Result {
	return gjson.Parse(c.GetString(key))
}

// Set upserts a single entry, keeping the cache warm after a write.
func (c *Cache) Set(st setting.Setting) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale {
		return
	}
	c.items[st.Key] = st
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
