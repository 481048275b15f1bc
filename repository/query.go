package repository

import (
	"html"
	"math"
	"strings"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

const (
	// PublicPageSize is the fixed page size of the public listing.
	PublicPageSize = 20
	// DefaultLimit is the own-posts page size when none is given.
	DefaultLimit = 20
	// MaxLimit caps a caller supplied own-posts page size.
	MaxLimit = 100
	// MaxPage caps the page number so offsets stay far from overflow.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Sortable keys accepted in order_by.
const (
	SortCreatedAt   = "createdAt"
	SortReadCount   = "read_count"
	SortReadingTime = "reading_time"
)

// Sort directions accepted in order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// sortFields maps public sort keys to stored field names.
var sortFields = map[string]string{
	SortCreatedAt:   "created_at",
	SortReadCount:   "read_count",
	SortReadingTime: "reading_minutes",
}

// PostFilter is the predicate half of a PostQuery. Zero values do not restrict.
type PostFilter struct {
	State    string
	AuthorID string
	Author   string
	Title    string
	// Tags match when a post carries any of them.
	Tags []string
	// Search is a case-insensitive literal substring over title, author and body.
	Search string
}

// bodySearch is Search as it appears inside a stored HTML body.
func (f PostFilter) bodySearch() string {
	return html.EscapeString(f.Search)
}

// Sort orders results by a public sort key.
type Sort struct {
	Key  string
	Desc bool
}

// Field returns the stored field name for the sort key.
func (s Sort) Field() string {
	if f, ok := sortFields[s.Key]; ok {
		return f
	}
	return sortFields[SortCreatedAt]
}

// PostQuery is a store-independent description of one page of posts.
type PostQuery struct {
	Filter PostFilter
	Sort   Sort
	Offset int
	Limit  int
}

// Sorting echoes the effective sort back to the caller.
type Sorting struct {
	OrderBy string `json:"order_by"`
	Order   string `json:"order"`
}

// Sorting returns the effective sort as reported to callers.
func (q PostQuery) Sorting() Sorting {
	order := OrderAsc
	if q.Sort.Desc {
		order = OrderDesc
	}
	return Sorting{OrderBy: q.Sort.Key, Order: order}
}

// Page is the requested page before the total count is known.
type Page struct {
	Number int
	Size   int
}

// Pagination is the page metadata returned with list results.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
}

// Paginate completes the page metadata with the total match count.
func (p Page) Paginate(total int64) Pagination {
	return Pagination{
		CurrentPage: p.Number,
		PageSize:    p.Size,
		TotalCount:  total,
		TotalPages:  TotalPages(total, p.Size),
	}
}

// TotalPages is ceil(total / size).
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ListParams are the public listing parameters as received.
type ListParams struct {
	Author  string
	Title   string
	Tags    []string
	Search  string
	OrderBy string
	Order   string
	Page    int
}

// BuildPublishedQuery translates public listing parameters into a query
// that only ever matches published posts.
func BuildPublishedQuery(p ListParams) (PostQuery, Page) {
	page := Page{Number: normalizePage(p.Page), Size: PublicPageSize}

	key := strings.TrimSpace(p.OrderBy)
	if _, ok := sortFields[key]; !ok {
		key = SortCreatedAt
	}

	q := PostQuery{
		Filter: PostFilter{
			State:  models.StatePublished,
			Author: plainText(p.Author),
			Title:  plainText(p.Title),
			Tags:   ParseTags(p.Tags...),
			Search: plainText(p.Search),
		},
		Sort: Sort{
			Key:  key,
			Desc: !strings.EqualFold(strings.TrimSpace(p.Order), OrderAsc),
		},
		Offset: (page.Number - 1) * page.Size,
		Limit:  page.Size,
	}
	return q, page
}

// OwnParams are the own-posts listing parameters.
type OwnParams struct {
	AuthorID string
	State    string
	Page     int
	Limit    int
}

// BuildOwnQuery restricts to the requester's posts and, when state is
// exactly draft or published, to that state.
func BuildOwnQuery(p OwnParams) (PostQuery, Page) {
	size := p.Limit
	if size <= 0 {
		size = DefaultLimit
	}
	if size > MaxLimit {
		size = MaxLimit
	}
	page := Page{Number: normalizePage(p.Page), Size: size}

	filter := PostFilter{AuthorID: p.AuthorID}
	if models.ValidState(p.State) {
		filter.State = p.State
	}

	q := PostQuery{
		Filter: filter,
		Sort:   Sort{Key: SortCreatedAt, Desc: true},
		Offset: (page.Number - 1) * page.Size,
		Limit:  page.Size,
	}
	return q, page
}

// ParseTags splits comma separated tag values, trims them and drops
// empties and duplicates while keeping first-seen order.
func ParseTags(raw ...string) []string {
	var tags []string
	seen := map[string]struct{}{}
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			t = plainText(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}

func normalizePage(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPage {
		return MaxPage
	}
	return n
}

// plainText cleans a filter value the same way stored titles, names and
// tags are cleaned, so exact matches compare like with like.
func plainText(s string) string {
	return strings.TrimSpace(utils.SanitizeText(s))
}
