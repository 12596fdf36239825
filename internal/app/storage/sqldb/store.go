// Package sqldb implements the storage interfaces on a SQL database.
//
// The same statements serve PostgreSQL (lib/pq) and SQLite
// (modernc.org/sqlite). Queries are written with ? bindvars and rebound per
// driver, so the store never branches on the backend.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wisp-cms/wisp/internal/app/domain/post"
	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage"
)

// Store implements the storage interfaces backed by a SQL database.
type Store struct {
	db *sqlx.DB
}

var _ storage.SettingsStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// --- SettingsStore ----------------------------------------------------------

type settingRow struct {
	ID        string    `db:"id"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	Type      string    `db:"type"`
	Group     string    `db:"group_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r settingRow) toDomain() setting.Setting {
	return setting.Setting{
		ID:        r.ID,
		Key:       r.Key,
		Value:     r.Value,
		Type:      r.Type,
		Group:     r.Group,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const settingColumns = `id, key, value, type, group_name, created_at, updated_at`

func (s *Store) UpsertSetting(ctx context.Context, st setting.Setting) (setting.Setting, error) {
	if st.Key == "" {
		return setting.Setting{}, fmt.Errorf("setting key is required")
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	q := s.db.Rebind(`
		INSERT INTO settings (id, key, value, type, group_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			type = excluded.type,
			group_name = excluded.group_name,
			updated_at = excluded.updated_at
	`)
	_, err := s.db.ExecContext(ctx, q, st.ID, st.Key, st.Value, st.Type, st.Group, now, now)
	if err != nil {
		return setting.Setting{}, err
	}

	// The conflict path keeps the original id and created_at.
	return s.GetSetting(ctx, st.Key)
}

func (s *Store) GetSetting(ctx context.Context, key string) (setting.Setting, error) {
	var row settingRow
	q := s.db.Rebind(`SELECT ` + settingColumns + ` FROM settings WHERE key = ?`)
	if err := s.db.GetContext(ctx, &row, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return setting.Setting{}, fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
		}
		return setting.Setting{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListSettings(ctx context.Context) ([]setting.Setting, error) {
	var rows []settingRow
	q := `SELECT ` + settingColumns + ` FROM settings ORDER BY key`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	result := make([]setting.Setting, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- UserStore --------------------------------------------------------------

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const userColumns = `id, name, email, password_hash, role, status, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	q := s.db.Rebind(`
		INSERT INTO users (id, name, email, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, q,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	q := s.db.Rebind(`
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, status = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := s.db.ExecContext(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return user.User{}, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
		}
		return user.User{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(?)`)
	if err := s.db.GetContext(ctx, &row, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
		}
		return user.User{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM users ORDER BY email`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	result := make([]user.User, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	q := s.db.Rebind(`DELETE FROM users WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- PostStore --------------------------------------------------------------

type postRow struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Slug        string     `db:"slug"`
	HTML        string     `db:"html"`
	Status      string     `db:"status"`
	Featured    bool       `db:"featured"`
	PublishedAt *time.Time `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r postRow) toDomain() post.Post {
	return post.Post{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		HTML:        r.HTML,
		Status:      r.Status,
		Featured:    r.Featured,
		PublishedAt: r.PublishedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const postColumns = `id, title, slug, html, status, featured, published_at, created_at, updated_at`

func (s *Store) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	q := s.db.Rebind(`
		INSERT INTO posts (id, title, slug, html, status, featured, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.Title, p.Slug, p.HTML, p.Status, p.Featured, p.PublishedAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	p.UpdatedAt = time.Now().UTC()

	q := s.db.Rebind(`
		UPDATE posts
		SET title = ?, slug = ?, html = ?, status = ?, featured = ?, published_at = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := s.db.ExecContext(ctx, q,
		p.Title, p.Slug, p.HTML, p.Status, p.Featured, p.PublishedAt, p.UpdatedAt, p.ID)
	if err != nil {
		return post.Post{}, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return post.Post{}, fmt.Errorf("post %s: %w", p.ID, storage.ErrNotFound)
	}
	return s.GetPost(ctx, p.ID)
}

func (s *Store) GetPost(ctx context.Context, id string) (post.Post, error) {
	var row postRow
	q := s.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return post.Post{}, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
		}
		return post.Post{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (post.Post, error) {
	var row postRow
	q := s.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE slug = ?`)
	if err := s.db.GetContext(ctx, &row, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return post.Post{}, fmt.Errorf("post %s: %w", slug, storage.ErrNotFound)
		}
		return post.Post{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListPosts(ctx context.Context, opts storage.ListPostsOptions) ([]post.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts`
	args := []interface{}{}
	if opts.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	q += ` ORDER BY created_at DESC, id`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	result := make([]post.Post, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	q := s.db.Rebind(`DELETE FROM posts WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
