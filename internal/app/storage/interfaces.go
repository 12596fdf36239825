package storage

import (
	"context"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
)

// SettingsStore persists configuration settings keyed by name.
type SettingsStore interface {
	UpsertSetting(ctx context.Context, s setting.Setting) (setting.Setting, error)
	GetSetting(ctx context.Context, key string) (setting.Setting, error)
	ListSettings(ctx context.Context) ([]setting.Setting, error)
}

// UserStore persists staff accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ListPostsOptions filters ListPosts. Zero values mean no filter.
type ListPostsOptions struct {
	Status string
	Limit  int
}

// PostStore persists posts.
type PostStore interface {
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	UpdatePost(ctx context.Context, p post.Post) (post.Post, error)
	GetPost(ctx context.Context, id string) (post.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (post.Post, error)
	ListPosts(ctx context.Context, opts ListPostsOptions) ([]post.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// Store groups every aggregate store behind one handle. Both the memory and
// the SQL implementations satisfy it; the fixture loader takes this.
type Store interface {
	SettingsStore
	UserStore
	PostStore
}
