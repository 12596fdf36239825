// Package fixtures seeds the stores from declarative YAML sets. Rows are
// matched by natural key (setting key, user email, post slug) so loading a
// set twice leaves the first load's data in place.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/services/auth"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

//go:embed default.yaml
var defaultYAML []byte

// Set is one parsed fixture file.
type Set struct {
	Settings []SettingFixture `yaml:"settings"`
	Users    []UserFixture    `yaml:"users"`
	Posts    []PostFixture    `yaml:"posts"`
}

// SettingFixture seeds one settings row.
type SettingFixture struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	Type  string `yaml:"type"`
	Group string `yaml:"group"`
}

// UserFixture seeds one staff account. Password is hashed at load time.
type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Status   string `yaml:"status"`
}

// PostFixture seeds one post.
type PostFixture struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	HTML     string `yaml:"html"`
	Status   string `yaml:"status"`
	Featured bool   `yaml:"featured"`
}

// Parse reads a YAML fixture set.
func Parse(data []byte) (Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse fixture set: %w", err)
	}
	return set, nil
}

// ParseFile reads a YAML fixture set from disk.
func ParseFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded set: default settings, the owner account,
// and the welcome post.
func Default() Set {
	set, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture set invalid: %v", err))
	}
	return set
}

// Loader applies fixture sets to a store.
type Loader struct {
	store storage.Store
	log   *logger.Logger
}

// NewLoader constructs a loader over the store.
func NewLoader(store storage.Store, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewDefault("fixtures")
	}
	return &Loader{store: store, log: log}
}

// Load applies the sets in order, skipping rows already present.
func (l *Loader) Load(ctx context.Context, sets ...Set) error {
	for _, set := range sets {
		if err := l.loadSettings(ctx, set.Settings); err != nil {
			return err
		}
		if err := l.loadUsers(ctx, set.Users); err != nil {
			return err
		}
		if err := l.loadPosts(ctx, set.Posts); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadSettings(ctx context.Context, fixtures []SettingFixture) error {
	for _, f := range fixtures {
		_, err := l.store.GetSetting(ctx, f.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check setting %s: %w", f.Key, err)
		}

		st := setting.Setting{Key: f.Key, Value: f.Value, Type: f.Type, Group: f.Group}
		if st.Type == "" {
			st.Type = setting.TypeString
		}
		if st.Group == "" {
			st.Group = setting.GroupSite
		}
		if _, err := l.store.UpsertSetting(ctx, st); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", f.Key, err)
		}
		l.log.Debugf("setting %s seeded", f.Key)
	}
	return nil
}

func (l *Loader) loadUsers(ctx context.Context, fixtures []UserFixture) error {
	for _, f := range fixtures {
		_, err := l.store.GetUserByEmail(ctx, f.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check user %s: %w", f.Email, err)
		}

		hash, err := auth.HashPassword(f.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", f.Email, err)
		}
		u := user.User{
			Name:         f.Name,
			Email:        f.Email,
			PasswordHash: hash,
			Role:         f.Role,
			Status:       f.Status,
		}
		if u.Role == "" {
			u.Role = user.RoleEditor
		}
		if u.Status == "" {
			u.Status = user.StatusActive
		}
		if _, err := l.store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", f.Email, err)
		}
		l.log.Debugf("user %s seeded", f.Email)
	}
	return nil
}

func (l *Loader) loadPosts(ctx context.Context, fixtures []PostFixture) error {
	for _, f := range fixtures {
		_, err := l.store.GetPostBySlug(ctx, f.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check post %s: %w", f.Slug, err)
		}

		p := post.Post{
			Title:    f.Title,
			Slug:     f.Slug,
			HTML:     f.HTML,
			Status:   f.Status,
			Featured: f.Featured,
		}
		if p.Status == "" {
			p.Status = post.StatusPublished
		}
		if p.Status == post.StatusPublished && p.PublishedAt == nil {
			now := time.Now().UTC()
			p.PublishedAt = &now
		}
		if _, err := l.store.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("failed to seed post %s: %w", f.Slug, err)
		}
		l.log.Debugf("post %s seeded", f.Slug)
	}
	return nil
}
