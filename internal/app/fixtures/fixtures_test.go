package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage/memory"
)

func TestDefaultSet(t *testing.T) {
	set := Default()
	if len(set.Settings) != 4 {
		t.Fatalf("expected 4 default settings, got %d", len(set.Settings))
	}
	if len(set.Users) != 1 || set.Users[0].Role != user.RoleOwner {
		t.Fatalf("expected one owner user, got %+v", set.Users)
	}
	if len(set.Posts) != 1 || set.Posts[0].Slug != "welcome" {
		t.Fatalf("expected the welcome post, got %+v", set.Posts)
	}
}

func TestLoadDefaultSet(t *testing.T) {
	store := memory.New()
	loader := NewLoader(store, nil)

	if err := loader.Load(context.Background(), Default()); err != nil {
		t.Fatalf("load: %v", err)
	}

	st, err := store.GetSetting(context.Background(), "labs")
	if err != nil {
		t.Fatalf("get labs setting: %v", err)
	}
	if st.Value != "{}" {
		t.Fatalf("labs seeded as %q", st.Value)
	}

	owner, err := store.GetUserByEmail(context.Background(), "owner@wisp.local")
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte("OwnerPass123!")); err != nil {
		t.Fatalf("owner password not hashed from fixture: %v", err)
	}

	p, err := store.GetPostBySlug(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("get welcome post: %v", err)
	}
	if !p.Published() || p.PublishedAt == nil {
		t.Fatalf("welcome post not published: %+v", p)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	store := memory.New()
	loader := NewLoader(store, nil)

	for i := 0; i < 2; i++ {
		if err := loader.Load(context.Background(), Default()); err != nil {
			t.Fatalf("load pass %d: %v", i+1, err)
		}
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user after reload, got %d", len(users))
	}

	settings, err := store.ListSettings(context.Background())
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	if len(settings) != 4 {
		t.Fatalf("expected 4 settings after reload, got %d", len(settings))
	}
}

func TestLoadKeepsExistingRows(t *testing.T) {
	store := memory.New()
	loader := NewLoader(store, nil)

	if err := loader.Load(context.Background(), Default()); err != nil {
		t.Fatalf("load: %v", err)
	}

	set := Default()
	set.Settings[0].Value = "Changed"
	if err := loader.Load(context.Background(), set); err != nil {
		t.Fatalf("reload: %v", err)
	}

	st, err := store.GetSetting(context.Background(), set.Settings[0].Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Value == "Changed" {
		t.Fatalf("reload overwrote existing setting")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := []byte("posts:\n  - title: Extra\n    slug: extra\n    html: \"<p>x</p>\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	set, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(set.Posts) != 1 || set.Posts[0].Slug != "extra" {
		t.Fatalf("unexpected set: %+v", set)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
