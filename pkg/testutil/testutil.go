// Package testutil provides seeding helpers shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage"
)

// SeedUser creates an active account with a bcrypt-hashed password. The
// hash uses the minimum cost so suites stay fast.
func SeedUser(t *testing.T, store storage.UserStore, email, role, password string) user.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	u, err := store.CreateUser(context.Background(), user.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       user.StatusActive,
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return u
}

// SeedPost creates a post, defaulting to published with PublishedAt set.
func SeedPost(t *testing.T, store storage.PostStore, p post.Post) post.Post {
	t.Helper()

	if p.Status == "" {
		p.Status = post.StatusPublished
	}
	if p.Status == post.StatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	created, err := store.CreatePost(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to seed post %s: %v", p.Slug, err)
	}
	return created
}
