package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/repository"
)

// PostInput is the create payload.
type PostInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Body        string   `json:"body"`
	State       string   `json:"state"`
}

// PostPatch is the update payload; nil fields are left alone.
type PostPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Body        *string   `json:"body"`
	State       *string   `json:"state"`
}

// Empty reports whether the patch names no field.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil && p.Body == nil && p.State == nil
}

// PostList is one page of posts with its metadata.
type PostList struct {
	Items      []models.Post         `json:"items"`
	Pagination repository.Pagination `json:"pagination"`
	Sorting    *repository.Sorting   `json:"sorting,omitempty"`
}

// UpdateResult reports the stored post and whether anything was written.
type UpdateResult struct {
	Post    *models.Post
	Changed bool
}

var errEmptyPatch = errors.New("provide at least one field to update")

// Posts implements the post lifecycle.
type Posts struct {
	repo repository.PostRepository
}

// NewPosts creates the post service.
func NewPosts(repo repository.PostRepository) *Posts {
	return &Posts{repo: repo}
}

// Create stores a new post authored by author. State defaults to draft.
func (s *Posts) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	in.Title = cleanText(in.Title)
	in.Description = cleanText(in.Description)
	in.Tags = cleanTags(in.Tags)
	in.Body = cleanBody(in.Body)

	if err := checkFields(
		fieldCheck{"title", in.Title, ruleTitle},
		fieldCheck{"description", in.Description, ruleDescription},
		fieldCheck{"tags", in.Tags, ruleTags},
		fieldCheck{"body", in.Body, ruleBody},
		fieldCheck{"state", in.State, ruleState},
	); err != nil {
		return nil, err
	}

	state := in.State
	if state == "" {
		state = models.StateDraft
	}
	minutes := ReadingMinutes(in.Body)
	now := time.Now()
	post := &models.Post{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Tags:           in.Tags,
		Author:         author.DisplayName(),
		AuthorID:       author.ID,
		State:          state,
		ReadingTime:    FormatReadingTime(minutes),
		ReadingMinutes: minutes,
		Body:           in.Body,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, internal("create post", err)
	}
	return post, nil
}

// ListPublished returns one page of published posts.
func (s *Posts) ListPublished(ctx context.Context, params repository.ListParams) (*PostList, error) {
	q, page := repository.BuildPublishedQuery(params)
	items, total, err := s.repo.FindFiltered(ctx, q)
	if err != nil {
		return nil, internal("list posts", err)
	}
	sorting := q.Sorting()
	return &PostList{Items: nonNil(items), Pagination: page.Paginate(total), Sorting: &sorting}, nil
}

// GetByID returns a published post and counts the read. Drafts are not found.
func (s *Posts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.repo.IncrementReadCount(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Post not found")
		}
		return nil, internal("get post", err)
	}
	return post, nil
}

// ListOwn returns the requester's posts, newest first.
func (s *Posts) ListOwn(ctx context.Context, requesterID, state string, page, limit int) (*PostList, error) {
	q, pg := repository.BuildOwnQuery(repository.OwnParams{
		AuthorID: requesterID,
		State:    state,
		Page:     page,
		Limit:    limit,
	})
	items, total, err := s.repo.FindFiltered(ctx, q)
	if err != nil {
		return nil, internal("list own posts", err)
	}
	return &PostList{Items: nonNil(items), Pagination: pg.Paginate(total)}, nil
}

// Update applies the fields of patch that differ from the stored post.
func (s *Posts) Update(ctx context.Context, requesterID, postID string, patch PostPatch) (*UpdateResult, error) {
	if patch.Empty() {
		return nil, &Error{Kind: KindValidation, Message: ValidationMessage, Err: errEmptyPatch}
	}

	post, err := s.owned(ctx, requesterID, postID, "You are not authorized to update this post")
	if err != nil {
		return nil, err
	}

	var checks []fieldCheck
	if patch.Title != nil {
		*patch.Title = cleanText(*patch.Title)
		checks = append(checks, fieldCheck{"title", *patch.Title, ruleTitle})
	}
	if patch.Description != nil {
		*patch.Description = cleanText(*patch.Description)
		checks = append(checks, fieldCheck{"description", *patch.Description, ruleDescription})
	}
	if patch.Tags != nil {
		*patch.Tags = cleanTags(*patch.Tags)
		checks = append(checks, fieldCheck{"tags", *patch.Tags, ruleTags})
	}
	if patch.Body != nil {
		*patch.Body = cleanBody(*patch.Body)
		checks = append(checks, fieldCheck{"body", *patch.Body, ruleBody})
	}
	if patch.State != nil {
		checks = append(checks, fieldCheck{"state", *patch.State, "required," + ruleState})
	}
	if err := checkFields(checks...); err != nil {
		return nil, err
	}

	changes := diff(post, patch)
	if changes.Empty() {
		return &UpdateResult{Post: post, Changed: false}, nil
	}

	updated, err := s.repo.Update(ctx, postID, changes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Post not found")
		}
		return nil, internal("update post", err)
	}
	return &UpdateResult{Post: updated, Changed: true}, nil
}

// Delete permanently removes a post owned by the requester.
func (s *Posts) Delete(ctx context.Context, requesterID, postID string) error {
	if _, err := s.owned(ctx, requesterID, postID, "You are not authorized to delete this post"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "Post not found")
		}
		return internal("delete post", err)
	}
	return nil
}

// owned loads the post and checks that requesterID wrote it.
func (s *Posts) owned(ctx context.Context, requesterID, postID, forbidden string) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Post not found")
		}
		return nil, internal("load post", err)
	}
	if post.AuthorID != requesterID {
		return nil, newError(KindForbidden, forbidden)
	}
	return post, nil
}

// diff keeps only the patch fields whose value differs from post.
// A changed body brings its reading time along.
func diff(post *models.Post, patch PostPatch) repository.PostChanges {
	var ch repository.PostChanges
	if patch.Title != nil && *patch.Title != post.Title {
		ch.Title = patch.Title
	}
	if patch.Description != nil && *patch.Description != post.Description {
		ch.Description = patch.Description
	}
	if patch.Tags != nil && !slices.Equal(*patch.Tags, post.Tags) {
		ch.Tags = *patch.Tags
	}
	if patch.State != nil && *patch.State != post.State {
		ch.State = patch.State
	}
	if patch.Body != nil && *patch.Body != post.Body {
		minutes := ReadingMinutes(*patch.Body)
		rt := FormatReadingTime(minutes)
		ch.Body = patch.Body
		ch.ReadingMinutes = &minutes
		ch.ReadingTime = &rt
	}
	return ch
}

func nonNil(items []models.Post) []models.Post {
	if items == nil {
		return []models.Post{}
	}
	return items
}
