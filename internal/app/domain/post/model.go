package post

import "time"

// Statuses a post can be in.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post represents a piece of published content rendered by the site
// frontend and listed by the content API.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	HTML        string     `json:"html"`
	Status      string     `json:"status"`
	Featured    bool       `json:"featured"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Published reports whether the post is visible on the site.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}
