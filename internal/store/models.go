package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Post is a blog entry. Content holds the raw stored blob: a document tree,
// a legacy block array, or Markdown.
type Post struct {
	Slug      string
	Title     string
	Summary   string
	Content   string
	BodyText  string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Section is a keyed content blob such as the about page.
type Section struct {
	Key       string
	Content   string
	UpdatedAt time.Time
}

type Project struct {
	ID          string
	Title       string
	Description string
	Icon        string
	URL         string
	SortOrder   int
}
