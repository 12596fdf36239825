package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/events"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// ErrUnknownSetting is returned when a write names a setting that was never
// installed. New settings only appear through defaults or migrations.
var ErrUnknownSetting = errors.New("unknown setting")

// Update is one requested settings change.
type Update struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Service owns the settings write path. Every write lands in the store,
// refreshes the cache, and publishes an invalidation event for other
// processes.
type Service struct {
	store storage.SettingsStore
	cache *Cache
	bus   events.Bus
	log   *logger.Logger
}

// NewService constructs a settings service over the store, cache, and bus.
func NewService(store storage.SettingsStore, cache *Cache, bus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settings")
	}
	return &Service{store: store, cache: cache, bus: bus, log: log}
}

// Cache exposes the read-side cache backing this service.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Get returns a single setting, from the cache when warm.
func (s *Service) Get(ctx context.Context, key string) (setting.Setting, error) {
	if !s.cache.Stale() {
		if st, ok := s.cache.Get(key); ok {
			return st, nil
		}
		return setting.Setting{}, fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return s.store.GetSetting(ctx, key)
}

// List returns every setting.
func (s *Service) List(ctx context.Context) ([]setting.Setting, error) {
	return s.store.ListSettings(ctx)
}

// Apply validates and persists a batch of updates, returning the saved
// settings. The whole batch is validated before anything is written, so a
// bad update rejects the batch. After a successful write the cache is
// refreshed and one invalidation event is published.
func (s *Service) Apply(ctx context.Context, updates []Update) ([]setting.Setting, error) {
	pending := make([]setting.Setting, 0, len(updates))
	for _, u := range updates {
		existing, err := s.store.GetSetting(ctx, u.Key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("setting %s: %w", u.Key, ErrUnknownSetting)
			}
			return nil, fmt.Errorf("failed to read setting %s: %w", u.Key, err)
		}

		value, err := s.validate(existing, u.Value)
		if err != nil {
			return nil, err
		}
		existing.Value = value
		pending = append(pending, existing)
	}

	applied := make([]setting.Setting, 0, len(pending))
	for _, st := range pending {
		saved, err := s.store.UpsertSetting(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("failed to save setting %s: %w", st.Key, err)
		}
		s.cache.Set(saved)
		applied = append(applied, saved)
		s.log.Infof("setting %s updated", saved.Key)
	}

	if len(applied) > 0 && s.bus != nil {
		if err := s.bus.Publish(ctx, events.TopicSettingsInvalidated, events.PayloadAll); err != nil {
			s.log.WithError(err).Warnf("failed to publish settings invalidation")
		}
	}
	return applied, nil
}

// validate normalizes value against the setting's declared type. The labs
// setting additionally passes through the writable-flag filter.
func (s *Service) validate(st setting.Setting, value string) (string, error) {
	if st.Key == setting.KeyLabs {
		filtered, err := labs.FilterWritable(value)
		if err != nil {
			return "", fmt.Errorf("setting %s: %w", st.Key, err)
		}
		return filtered, nil
	}

	switch st.Type {
	case setting.TypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return "", fmt.Errorf("setting %s expects a boolean value", st.Key)
		}
	case setting.TypeJSON:
		if !json.Valid([]byte(value)) {
			return "", fmt.Errorf("setting %s expects a JSON value", st.Key)
		}
	}
	return value, nil
}
