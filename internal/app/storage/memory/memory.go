package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	settings     map[string]setting.Setting
	users        map[string]user.User
	usersByEmail map[string]string
	posts        map[string]post.Post
	postsBySlug  map[string]string
}

var _ storage.SettingsStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	s := &Store{nextID: 1}
	s.reset()
	return s
}

// Reset drops every record, returning the store to its initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.settings = make(map[string]setting.Setting)
	s.users = make(map[string]user.User)
	s.usersByEmail = make(map[string]string)
	s.posts = make(map[string]post.Post)
	s.postsBySlug = make(map[string]string)
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) UpsertSetting(_ context.Context, st setting.Setting) (setting.Setting, error) {
	if st.Key == "" {
		return setting.Setting{}, fmt.Errorf("setting key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.settings[st.Key]; ok {
		st.ID = existing.ID
		st.CreatedAt = existing.CreatedAt
	} else {
		if st.ID == "" {
			st.ID = s.nextIDLocked()
		}
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	s.settings[st.Key] = st
	return st, nil
}

func (s *Store) GetSetting(_ context.Context, key string) (setting.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[key]
	if !ok {
		return setting.Setting{}, fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListSettings(_ context.Context) ([]setting.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]setting.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	delete(s.usersByEmail, strings.ToLower(original.Email))
	s.users[u.ID] = u
	s.usersByEmail[strings.ToLower(u.Email)] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	delete(s.usersByEmail, strings.ToLower(u.Email))
	delete(s.users, id)
	return nil
}

// PostStore implementation ----------------------------------------------------

func (s *Store) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postsBySlug[p.Slug]; exists {
		return post.Post{}, fmt.Errorf("post with slug %s already exists", p.Slug)
	}
	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.posts[p.ID]; exists {
		return post.Post{}, fmt.Errorf("post %s already exists", p.ID)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.posts[p.ID] = p
	s.postsBySlug[p.Slug] = p.ID
	return p, nil
}

func (s *Store) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.posts[p.ID]
	if !ok {
		return post.Post{}, fmt.Errorf("post %s: %w", p.ID, storage.ErrNotFound)
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	delete(s.postsBySlug, original.Slug)
	s.posts[p.ID] = p
	s.postsBySlug[p.Slug] = p.ID
	return p, nil
}

func (s *Store) GetPost(_ context.Context, id string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return post.Post{}, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetPostBySlug(_ context.Context, slug string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.postsBySlug[slug]
	if !ok {
		return post.Post{}, fmt.Errorf("post %s: %w", slug, storage.ErrNotFound)
	}
	return s.posts[id], nil
}

func (s *Store) ListPosts(_ context.Context, opts storage.ListPostsOptions) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]post.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	delete(s.postsBySlug, p.Slug)
	delete(s.posts, id)
	return nil
}
