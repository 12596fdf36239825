// Package posts serves the published-content read side of the API.
package posts

import (
	"context"
	"fmt"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// DefaultLimit caps content API listings when the caller does not set one.
const DefaultLimit = 15

// Service reads published posts for the content API and the site.
type Service struct {
	store storage.PostStore
	log   *logger.Logger
}

// New constructs a posts service over the store.
func New(store storage.PostStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("posts")
	}
	return &Service{store: store, log: log}
}

// Published returns published posts, newest first. limit <= 0 applies
// DefaultLimit.
func (s *Service) Published(ctx context.Context, limit int) ([]post.Post, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.store.ListPosts(ctx, storage.ListPostsOptions{Status: post.StatusPublished, Limit: limit})
}

// BySlug returns the published post with slug. Drafts read as not found.
func (s *Service) BySlug(ctx context.Context, slug string) (post.Post, error) {
	p, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		return post.Post{}, err
	}
	if !p.Published() {
		return post.Post{}, fmt.Errorf("post %s: %w", slug, storage.ErrNotFound)
	}
	return p, nil
}

// Collection groups published posts under a named view.
type Collection struct {
	Slug  string      `json:"slug"`
	Title string      `json:"title"`
	Posts []post.Post `json:"posts"`
}

// Collections returns the built-in views: featured posts and the latest
// published posts.
func (s *Service) Collections(ctx context.Context) ([]Collection, error) {
	published, err := s.store.ListPosts(ctx, storage.ListPostsOptions{Status: post.StatusPublished})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	featured := make([]post.Post, 0)
	for _, p := range published {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	latest := published
	if len(latest) > DefaultLimit {
		latest = latest[:DefaultLimit]
	}

	return []Collection{
		{Slug: "featured", Title: "Featured", Posts: featured},
		{Slug: "latest", Title: "Latest", Posts: latest},
	}, nil
}
