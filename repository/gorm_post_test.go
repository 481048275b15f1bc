package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    config.DriverSQLite,
		DatabaseURI: filepath.Join(t.TempDir(), "blog.db"),
		LogLevel:    "silent",
	}, &models.User{}, &models.Post{}, &models.PostTag{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newPost(title, state string, minute int, tags ...string) *models.Post {
	return &models.Post{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    title + " description",
		Tags:           tags,
		Author:         "Ada Lovelace",
		AuthorID:       "author-1",
		State:          state,
		ReadingTime:    "1 min",
		ReadingMinutes: 1,
		Body:           "body of " + title,
		CreatedAt:      base.Add(time.Duration(minute) * time.Minute),
	}
}

func TestGormPost_CreateAndFind(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	p := newPost("First", models.StateDraft, 0, "go", "web")
	require.NoError(t, r.Create(ctx, p))

	got, err := r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, []string{"go", "web"}, got.Tags)
	assert.Equal(t, models.StateDraft, got.State)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormPost_DuplicateTitleAllowed(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newPost("Same", models.StateDraft, 0)))
	require.NoError(t, r.Create(ctx, newPost("Same", models.StateDraft, 1)))
}

func TestGormPost_IncrementReadCount(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	draft := newPost("Draft", models.StateDraft, 0)
	pub := newPost("Pub", models.StatePublished, 1, "x")
	require.NoError(t, r.Create(ctx, draft))
	require.NoError(t, r.Create(ctx, pub))

	_, err := r.IncrementReadCount(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := r.IncrementReadCount(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ReadCount)
	assert.Equal(t, []string{"x"}, got.Tags)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncrementReadCount(ctx, pub.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := r.FindByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), stored.ReadCount)
}

func TestGormPost_FindFiltered(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	a := newPost("Alpha", models.StatePublished, 0, "go")
	b := newPost("Beta", models.StatePublished, 1, "web")
	c := newPost("Gamma 100%", models.StatePublished, 2, "go", "db")
	d := newPost("Delta", models.StateDraft, 3, "go")
	b.Author = "Grace Hopper"
	b.AuthorID = "author-2"
	b.ReadingMinutes = 5
	c.ReadingMinutes = 3
	for _, p := range []*models.Post{a, b, c, d} {
		require.NoError(t, r.Create(ctx, p))
	}

	q, _ := BuildPublishedQuery(ListParams{})
	posts, total, err := r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Gamma 100%", "Beta", "Alpha"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{Tags: []string{"go"}})
	posts, total, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Gamma 100%", "Alpha"}, titles(posts))
	assert.Equal(t, []string{"go", "db"}, posts[0].Tags)

	q, _ = BuildPublishedQuery(ListParams{Author: "Grace Hopper"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{OrderBy: SortReadingTime, Order: OrderAsc})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Gamma 100%", "Beta"}, titles(posts))

	// search is case-insensitive and treats wildcards literally
	q, _ = BuildPublishedQuery(ListParams{Search: "GAMMA"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma 100%"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{Search: "0%"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma 100%"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{Search: "%"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma 100%"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{Search: "hopper"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, titles(posts))

	q, _ = BuildOwnQuery(OwnParams{AuthorID: "author-1"})
	posts, total, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Delta", "Gamma 100%", "Alpha"}, titles(posts))

	q, _ = BuildOwnQuery(OwnParams{AuthorID: "author-1", State: models.StateDraft})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Delta"}, titles(posts))
}

func TestGormPost_FindFilteredPaging(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, r.Create(ctx, newPost("P", models.StatePublished, i)))
	}

	q, page := BuildPublishedQuery(ListParams{Page: 2})
	posts, total, err := r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Len(t, posts, 5)
	assert.Equal(t, Pagination{CurrentPage: 2, PageSize: 20, TotalCount: 25, TotalPages: 2}, page.Paginate(total))

	q, _ = BuildPublishedQuery(ListParams{Page: 9})
	posts, total, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int64(25), total)
}

func TestGormPost_UpdateAndDelete(t *testing.T) {
	r := NewGormPostRepository(setupDB(t))
	ctx := context.Background()

	p := newPost("Old", models.StateDraft, 0, "a", "b")
	require.NoError(t, r.Create(ctx, p))

	title, state := "New", models.StatePublished
	got, err := r.Update(ctx, p.ID, PostChanges{Title: &title, State: &state, Tags: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, models.StatePublished, got.State)
	assert.Equal(t, []string{"c"}, got.Tags)
	assert.Equal(t, "Old description", got.Description)

	got, err = r.Update(ctx, p.ID, PostChanges{Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	_, err = r.Update(ctx, "missing", PostChanges{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, p.ID))
	_, err = r.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, p.ID), ErrNotFound)
}

func TestGormUser(t *testing.T) {
	r := NewGormUserRepository(setupDB(t))
	ctx := context.Background()

	u := &models.User{ID: uuid.NewString(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, r.Create(ctx, u))

	got, err := r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.DisplayName())

	dup := &models.User{ID: uuid.NewString(), FirstName: "A", LastName: "L", Email: "ada@example.com", PasswordHash: "y"}
	assert.ErrorIs(t, r.Create(ctx, dup), ErrDuplicate)

	_, err = r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
