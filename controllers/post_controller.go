package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/repository"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// ListCachePrefix namespaces cached public listing responses.
const ListCachePrefix = "cache:blogposts:list:"

// PostController manages CRUD operations for blog posts.
type PostController struct {
	posts  *services.Posts
	cache  *utils.Cache
	logger *zap.Logger
}

// NewPostController creates a new PostController instance. cache may be nil.
func NewPostController(posts *services.Posts, cache *utils.Cache, logger *zap.Logger) *PostController {
	return &PostController{posts: posts, cache: cache, logger: logger}
}

// ListPosts returns one page of published posts. Responses are cached
// briefly, so read counts in listings may lag by up to the cache TTL.
func (p *PostController) ListPosts(ctx *gin.Context) {
	params := repository.ListParams{
		Author:  ctx.Query("author"),
		Title:   ctx.Query("title"),
		Tags:    ctx.QueryArray("tags"),
		Search:  ctx.Query("search"),
		OrderBy: ctx.Query("order_by"),
		Order:   ctx.Query("order"),
		Page:    atoi(ctx.Query("page")),
	}

	cacheKey := listCacheKey(params)
	if p.cache.Enabled() {
		if b, ok := p.cache.GetBytes(ctx.Request.Context(), cacheKey); ok {
			middleware.ListCacheHits.Inc()
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
		middleware.ListCacheMisses.Inc()
	}

	list, err := p.posts.ListPublished(ctx.Request.Context(), params)
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	resp := utils.JSONResponse{
		Status:  http.StatusOK,
		Success: true,
		Code:    utils.CodeOK,
		Message: "Posts retrieved successfully",
		Data:    list,
	}
	p.cache.SetJSON(ctx.Request.Context(), cacheKey, resp)
	ctx.JSON(http.StatusOK, resp)
}

// ListMine returns the requester's posts, optionally filtered by state.
func (p *PostController) ListMine(ctx *gin.Context) {
	userID := ctx.GetString(middleware.ContextUserIDKey)
	list, err := p.posts.ListOwn(ctx.Request.Context(), userID,
		strings.TrimSpace(ctx.Query("state")), atoi(ctx.Query("page")), atoi(ctx.Query("limit")))
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}
	utils.Success(ctx, "Posts retrieved successfully", list)
}

// GetPost returns a published post and counts the read.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}
	utils.Success(ctx, "Blog retrieved successfully", gin.H{"post": post})
}

// CreatePost stores a new post for the authenticated user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req services.PostInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx, err)
		return
	}

	author, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeMissingAuth, "Authorization failed", "")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), author, req)
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	p.cache.InvalidateByPrefix(ctx.Request.Context(), ListCachePrefix)
	utils.Created(ctx, "Post created successfully", gin.H{"post": post})
}

// UpdatePost applies a partial update. Unknown fields in the body are ignored.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req services.PostPatch
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx, err)
		return
	}

	userID := ctx.GetString(middleware.ContextUserIDKey)
	res, err := p.posts.Update(ctx.Request.Context(), userID, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	if !res.Changed {
		utils.Success(ctx, "No changes detected", gin.H{"post": res.Post, "changed": false})
		return
	}
	p.cache.InvalidateByPrefix(ctx.Request.Context(), ListCachePrefix)
	utils.Success(ctx, "Post updated successfully", gin.H{"post": res.Post, "changed": true})
}

// DeletePost permanently removes a post owned by the requester.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID := ctx.GetString(middleware.ContextUserIDKey)
	postID := ctx.Param("id")
	if err := p.posts.Delete(ctx.Request.Context(), userID, postID); err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	p.cache.InvalidateByPrefix(ctx.Request.Context(), ListCachePrefix)
	utils.Success(ctx, "Post deleted successfully", gin.H{"id": postID})
}

// listCacheKey is stable for equal parameters: url.Values encodes sorted.
func listCacheKey(params repository.ListParams) string {
	v := url.Values{}
	v.Set("author", strings.TrimSpace(params.Author))
	v.Set("title", strings.TrimSpace(params.Title))
	v.Set("tags", strings.Join(repository.ParseTags(params.Tags...), ","))
	v.Set("search", strings.TrimSpace(params.Search))
	v.Set("order_by", params.OrderBy)
	v.Set("order", strings.ToLower(params.Order))
	v.Set("page", strconv.Itoa(min(max(params.Page, 1), repository.MaxPage)))
	return ListCachePrefix + v.Encode()
}

// atoi returns 0 for anything that is not an integer; the query builder
// normalizes 0 to its default.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
