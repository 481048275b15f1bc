// Package repository holds the storage side of the blog: the post query
// builder and the user/post repositories for gorm and MongoDB backends.
package repository

import (
	"context"
	"errors"

	"github.com/cppla/blogapi/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// PostRepository persists blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// FindByID returns the post in any state.
	FindByID(ctx context.Context, id string) (*models.Post, error)
	// IncrementReadCount atomically bumps read_count of a published post
	// and returns the post after the increment.
	IncrementReadCount(ctx context.Context, id string) (*models.Post, error)
	// FindFiltered returns one page of matching posts plus the total match count.
	FindFiltered(ctx context.Context, q PostQuery) ([]models.Post, int64, error)
	// Update writes all non-nil changes in a single unit and returns the stored post.
	Update(ctx context.Context, id string, changes PostChanges) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostChanges lists the mutable post fields; nil means unchanged.
type PostChanges struct {
	Title          *string
	Description    *string
	Body           *string
	State          *string
	ReadingTime    *string
	ReadingMinutes *int
	Tags           []string
}

// Empty reports whether no field is set.
func (c PostChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Body == nil && c.State == nil &&
		c.ReadingTime == nil && c.ReadingMinutes == nil && c.Tags == nil
}

// fields maps the set changes to their stored field names.
func (c PostChanges) fields() map[string]interface{} {
	out := map[string]interface{}{}
	if c.Title != nil {
		out["title"] = *c.Title
	}
	if c.Description != nil {
		out["description"] = *c.Description
	}
	if c.Body != nil {
		out["body"] = *c.Body
	}
	if c.State != nil {
		out["state"] = *c.State
	}
	if c.ReadingTime != nil {
		out["reading_time"] = *c.ReadingTime
	}
	if c.ReadingMinutes != nil {
		out["reading_minutes"] = *c.ReadingMinutes
	}
	return out
}
