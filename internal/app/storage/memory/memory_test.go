package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage"
)

func TestUpsertSettingCreatesAndUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.UpsertSetting(ctx, setting.Setting{
		Key:   "title",
		Value: "Wisp",
		Type:  setting.TypeString,
		Group: setting.GroupSite,
	})
	if err != nil {
		t.Fatalf("UpsertSetting create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	updated, err := s.UpsertSetting(ctx, setting.Setting{
		Key:   "title",
		Value: "Wisp Weekly",
		Type:  setting.TypeString,
		Group: setting.GroupSite,
	})
	if err != nil {
		t.Fatalf("UpsertSetting update: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("ID changed on upsert: %s != %s", updated.ID, created.ID)
	}
	if updated.Value != "Wisp Weekly" {
		t.Errorf("Value = %q, want updated value", updated.Value)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on upsert")
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := New()
	_, err := s.GetSetting(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserEmailLookupIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, user.User{
		Name:  "Owner",
		Email: "Owner@Example.com",
		Role:  user.RoleOwner,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got user %s, want %s", got.ID, created.ID)
	}

	if _, err := s.CreateUser(ctx, user.User{Email: "OWNER@example.com"}); err == nil {
		t.Fatal("expected duplicate email error")
	}
}

func TestUpdateUserRebindsEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, user.User{Name: "Ed", Email: "ed@example.com", Role: user.RoleEditor})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.Email = "editor@example.com"
	if _, err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, err := s.GetUserByEmail(ctx, "ed@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old email still resolves: %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "editor@example.com"); err != nil {
		t.Errorf("new email does not resolve: %v", err)
	}
}

func TestListPostsFiltersAndLimits(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, p := range []post.Post{
		{Title: "One", Slug: "one", Status: post.StatusPublished},
		{Title: "Two", Slug: "two", Status: post.StatusDraft},
		{Title: "Three", Slug: "three", Status: post.StatusPublished},
	} {
		if _, err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost %s: %v", p.Slug, err)
		}
	}

	published, err := s.ListPosts(ctx, storage.ListPostsOptions{Status: post.StatusPublished})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("published count = %d, want 2", len(published))
	}

	limited, err := s.ListPosts(ctx, storage.ListPostsOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListPosts limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited count = %d, want 1", len(limited))
	}
}

func TestDeletePostFreesSlug(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreatePost(ctx, post.Post{Title: "Hello", Slug: "hello", Status: post.StatusDraft})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.CreatePost(ctx, post.Post{Title: "Hello again", Slug: "hello"}); err != nil {
		t.Errorf("slug not freed after delete: %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.UpsertSetting(ctx, setting.Setting{Key: "title", Value: "x"}); err != nil {
		t.Fatalf("UpsertSetting: %v", err)
	}
	s.Reset()

	list, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("settings survived reset: %d", len(list))
	}
}
