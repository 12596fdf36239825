package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Defaults returns the settings installed on first boot. Keys absent from
// the store are created with these values; existing keys are left alone.
func Defaults() []setting.Setting {
	return []setting.Setting{
		{Key: "title", Value: "Wisp", Type: setting.TypeString, Group: setting.GroupSite},
		{Key: "description", Value: "Thoughts, stories and ideas", Type: setting.TypeString, Group: setting.GroupSite},
		{Key: "active_theme", Value: "paperlight", Type: setting.TypeString, Group: setting.GroupTheme},
		{Key: setting.KeyLabs, Value: "{}", Type: setting.TypeJSON, Group: setting.GroupLabs},
	}
}

// EnsureDefaults installs any default setting missing from the store.
func EnsureDefaults(ctx context.Context, store storage.SettingsStore, log *logger.Logger) error {
	if log == nil {
		log = logger.NewDefault("settings")
	}
	for _, def := range Defaults() {
		_, err := store.GetSetting(ctx, def.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check setting %s: %w", def.Key, err)
		}
		if _, err := store.UpsertSetting(ctx, def); err != nil {
			return fmt.Errorf("failed to install setting %s: %w", def.Key, err)
		}
		log.Infof("default setting %s installed", def.Key)
	}
	return nil
}
