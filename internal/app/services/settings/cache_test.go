package settings

import (
	"context"
	"testing"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/storage/memory"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	seeds := []setting.Setting{
		{Key: "title", Value: "Wisp", Type: setting.TypeString, Group: setting.GroupSite},
		{Key: "is_private", Value: "true", Type: setting.TypeBoolean, Group: setting.GroupSite},
		{Key: setting.KeyLabs, Value: `{"search":true}`, Type: setting.TypeJSON, Group: setting.GroupLabs},
	}
	for _, st := range seeds {
		if _, err := store.UpsertSetting(context.Background(), st); err != nil {
			t.Fatalf("seed setting %s: %v", st.Key, err)
		}
	}
	return store
}

func TestCacheStartsStale(t *testing.T) {
	cache := NewCache(seedStore(t), nil)
	if !cache.Stale() {
		t.Fatalf("expected fresh cache to be stale")
	}
	if got := cache.GetString("title"); got != "" {
		t.Fatalf("stale cache served %q", got)
	}
}

func TestCacheLoadAndGet(t *testing.T) {
	cache := NewCache(seedStore(t), nil)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cache.Stale() {
		t.Fatalf("expected cache warm after load")
	}
	if got := cache.GetString("title"); got != "Wisp" {
		t.Fatalf("GetString = %q", got)
	}
	if !cache.GetBool("is_private") {
		t.Fatalf("expected is_private true")
	}
	if !cache.GetJSON(setting.KeyLabs).Get("search").Bool() {
		t.Fatalf("expected labs.search true")
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
}

func TestCacheGetBoolUnparseable(t *testing.T) {
	cache := NewCache(seedStore(t), nil)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cache.GetBool("title") {
		t.Fatalf("expected unparseable boolean to read false")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(seedStore(t), nil)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	cache.Invalidate()
	if !cache.Stale() {
		t.Fatalf("expected cache stale after invalidate")
	}
	if got := cache.GetString("title"); got != "" {
		t.Fatalf("invalidated cache served %q", got)
	}

	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := cache.GetString("title"); got != "Wisp" {
		t.Fatalf("reloaded cache served %q", got)
	}
}

func TestCacheSetSkippedWhileStale(t *testing.T) {
	cache := NewCache(seedStore(t), nil)

	cache.Set(setting.Setting{Key: "title", Value: "Changed"})
	if cache.Len() != 0 {
		t.Fatalf("stale cache accepted a write")
	}

	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Set(setting.Setting{Key: "title", Value: "Changed"})
	if got := cache.GetString("title"); got != "Changed" {
		t.Fatalf("warm cache ignored Set, got %q", got)
	}
}
