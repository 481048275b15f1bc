package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/repository"
)

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	res, err := f.accounts.Register(context.Background(), signup(email))
	require.NoError(t, err)
	return res.User
}

func postInput(title, state string) PostInput {
	return PostInput{
		Title:       title,
		Description: "A description long enough",
		Tags:        []string{"go", "testing"},
		Body:        words(40),
		State:       state,
	}
}

func strPtr(s string) *string { return &s }

func TestCreate_DefaultsAndReadingTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "ada@example.com")

	in := postInput("Hello <b>World</b>", "")
	in.Body = words(366)
	post, err := f.posts.Create(ctx, author, in)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, models.StateDraft, post.State)
	assert.Equal(t, "2 min", post.ReadingTime)
	assert.Equal(t, int64(0), post.ReadCount)
	assert.Equal(t, "Ada Lovelace", post.Author)
	assert.Equal(t, author.ID, post.AuthorID)

	res, err := f.posts.Update(ctx, author.ID, post.ID, PostPatch{State: strPtr(models.StatePublished)})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.StatePublished, res.Post.State)
	assert.Equal(t, "2 min", res.Post.ReadingTime)
	assert.Equal(t, "Hello World", res.Post.Title)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "ada@example.com")

	mutate := map[string]func(*PostInput){
		"short title":     func(in *PostInput) { in.Title = "ab" },
		"short desc":      func(in *PostInput) { in.Description = "short" },
		"no tags":         func(in *PostInput) { in.Tags = nil },
		"empty tag":       func(in *PostInput) { in.Tags = []string{" "} },
		"short body":      func(in *PostInput) { in.Body = "too short" },
		"unknown state":   func(in *PostInput) { in.State = "archived" },
		"markup title":    func(in *PostInput) { in.Title = "<script>x</script>" },
		"very long title": func(in *PostInput) { in.Title = words(30) },
	}
	for name, m := range mutate {
		in := postInput("Valid title", "")
		m(&in)
		_, err := f.posts.Create(ctx, author, in)
		assert.True(t, IsKind(err, KindValidation), name)
	}
}

func TestGetByID_IncrementsPublishedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "ada@example.com")

	draft, err := f.posts.Create(ctx, author, postInput("Draft post", ""))
	require.NoError(t, err)
	pub, err := f.posts.Create(ctx, author, postInput("Published post", models.StatePublished))
	require.NoError(t, err)

	_, err = f.posts.GetByID(ctx, draft.ID)
	assert.True(t, IsKind(err, KindNotFound))
	_, err = f.posts.GetByID(ctx, "missing")
	assert.True(t, IsKind(err, KindNotFound))

	for i := 1; i <= 3; i++ {
		got, err := f.posts.GetByID(ctx, pub.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(i), got.ReadCount)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.posts.GetByID(ctx, pub.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.posts.GetByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3+n+1), got.ReadCount)
}

func TestListPublished_Pages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "ada@example.com")

	for i := 0; i < 45; i++ {
		state := models.StatePublished
		if i%5 == 0 {
			state = models.StateDraft
		}
		_, err := f.posts.Create(ctx, author, postInput(fmt.Sprintf("Post number %d", i), state))
		require.NoError(t, err)
	}

	first, err := f.posts.ListPublished(ctx, repository.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(36), first.Pagination.TotalCount)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.Equal(t, repository.Sorting{OrderBy: "createdAt", Order: "desc"}, *first.Sorting)

	seen := map[string]bool{}
	for page := 1; page <= first.Pagination.TotalPages; page++ {
		list, err := f.posts.ListPublished(ctx, repository.ListParams{Page: page})
		require.NoError(t, err)
		for _, p := range list.Items {
			assert.Equal(t, models.StatePublished, p.State)
			assert.False(t, seen[p.ID], "duplicate %s", p.ID)
			seen[p.ID] = true
		}
	}
	assert.Len(t, seen, 36)

	empty, err := f.posts.ListPublished(ctx, repository.ListParams{Page: 3})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestListOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com")
	grace := f.user(t, "grace@example.com")

	_, err := f.posts.Create(ctx, ada, postInput("Ada draft", ""))
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, ada, postInput("Ada published", models.StatePublished))
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, grace, postInput("Grace published", models.StatePublished))
	require.NoError(t, err)

	all, err := f.posts.ListOwn(ctx, ada.ID, "", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.TotalCount)
	assert.Equal(t, repository.DefaultLimit, all.Pagination.PageSize)
	assert.Nil(t, all.Sorting)

	drafts, err := f.posts.ListOwn(ctx, ada.ID, models.StateDraft, 1, 10)
	require.NoError(t, err)
	require.Len(t, drafts.Items, 1)
	assert.Equal(t, "Ada draft", drafts.Items[0].Title)

	ignored, err := f.posts.ListOwn(ctx, ada.ID, "bogus", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ignored.Pagination.TotalCount)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com")
	grace := f.user(t, "grace@example.com")

	post, err := f.posts.Create(ctx, ada, postInput("Original title", ""))
	require.NoError(t, err)

	_, err = f.posts.Update(ctx, ada.ID, post.ID, PostPatch{})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.posts.Update(ctx, ada.ID, "missing", PostPatch{Title: strPtr("Whatever")})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.posts.Update(ctx, grace.ID, post.ID, PostPatch{Title: strPtr("Hijacked")})
	assert.True(t, IsKind(err, KindForbidden))

	_, err = f.posts.Update(ctx, ada.ID, post.ID, PostPatch{Title: strPtr("no")})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.posts.Update(ctx, ada.ID, post.ID, PostPatch{State: strPtr("")})
	assert.True(t, IsKind(err, KindValidation))

	res, err := f.posts.Update(ctx, ada.ID, post.ID, PostPatch{Title: strPtr("Original title")})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	tags := []string{"rewritten"}
	res, err = f.posts.Update(ctx, ada.ID, post.ID, PostPatch{Body: strPtr(words(400)), Tags: &tags})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "3 min", res.Post.ReadingTime)
	assert.Equal(t, []string{"rewritten"}, res.Post.Tags)
	assert.Equal(t, "Original title", res.Post.Title)
	assert.Equal(t, ada.ID, res.Post.AuthorID)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com")
	grace := f.user(t, "grace@example.com")

	post, err := f.posts.Create(ctx, ada, postInput("To be deleted", models.StatePublished))
	require.NoError(t, err)

	assert.True(t, IsKind(f.posts.Delete(ctx, grace.ID, post.ID), KindForbidden))
	require.NoError(t, f.posts.Delete(ctx, ada.ID, post.ID))

	_, err = f.posts.GetByID(ctx, post.ID)
	assert.True(t, IsKind(err, KindNotFound))

	own, err := f.posts.ListOwn(ctx, ada.ID, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, own.Items)

	assert.True(t, IsKind(f.posts.Delete(ctx, ada.ID, post.ID), KindNotFound))
}

func TestListPublished_PunctuationRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Register(ctx, SignupInput{FirstName: "Conan", LastName: "O'Brien", Email: "conan@example.com", Password: "secret123"})
	require.NoError(t, err)
	author := res.User
	assert.Equal(t, "O'Brien", author.LastName)

	in := postInput("R&D at <b>Team Coco</b>", models.StatePublished)
	in.Body = "<p>Notes on R&D and what's next. " + words(20) + "</p>"
	post, err := f.posts.Create(ctx, author, in)
	require.NoError(t, err)
	assert.Equal(t, "R&D at Team Coco", post.Title)
	assert.Equal(t, "Conan O'Brien", post.Author)

	queries := map[string]repository.ListParams{
		"author":      {Author: "Conan O'Brien"},
		"title":       {Title: "R&D at Team Coco"},
		"search name": {Search: "o'brien"},
		"search body": {Search: "what's next"},
		"search amp":  {Search: "r&d"},
	}
	for name, params := range queries {
		list, err := f.posts.ListPublished(ctx, params)
		require.NoError(t, err, name)
		if assert.Len(t, list.Items, 1, name) {
			assert.Equal(t, post.ID, list.Items[0].ID, name)
		}
	}
}

func TestCreate_LengthCountsPlainCharacters(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "ada@example.com")

	// 100 characters including apostrophes and an ampersand
	title := "It's R&D's " + strings.Repeat("x", 89)
	require.Len(t, title, 100)
	post, err := f.posts.Create(context.Background(), author, postInput(title, ""))
	require.NoError(t, err)
	assert.Equal(t, title, post.Title)
}
