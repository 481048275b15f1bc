package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogapi/models"
)

// GormPostRepository stores posts and their tag rows through gorm.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a GormPostRepository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	post.TagRows = tagRows(post.ID, post.Tags)
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translateGormError(err)
	}
	return nil
}

func (r *GormPostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("TagRows", orderByPosition).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, translateGormError(err)
	}
	post.Tags = tagsOf(post.TagRows)
	return &post, nil
}

// IncrementReadCount locks the published row, bumps read_count in SQL and
// returns the post as of the bump. Concurrent callers serialize on the lock.
func (r *GormPostRepository) IncrementReadCount(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND state = ?", id, models.StatePublished).
			First(&post).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", id).
			UpdateColumn("read_count", gorm.Expr("read_count + ?", 1)).Error; err != nil {
			return err
		}
		post.ReadCount++
		return tx.Where("post_id = ?", id).Order("position").Find(&post.TagRows).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	post.Tags = tagsOf(post.TagRows)
	return &post, nil
}

func (r *GormPostRepository) FindFiltered(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	scoped := func() *gorm.DB {
		return r.applyFilter(ctx, r.db.WithContext(ctx).Model(&models.Post{}), q.Filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if total > 0 {
		err := scoped().
			Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Field()}, Desc: q.Sort.Desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Sort.Desc}).
			Offset(q.Offset).
			Limit(q.Limit).
			Preload("TagRows", orderByPosition).
			Find(&posts).Error
		if err != nil {
			return nil, 0, err
		}
	}
	for i := range posts {
		posts[i].Tags = tagsOf(posts[i].TagRows)
	}
	return posts, total, nil
}

func (r *GormPostRepository) applyFilter(ctx context.Context, q *gorm.DB, f PostFilter) *gorm.DB {
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Author != "" {
		q = q.Where("author = ?", f.Author)
	}
	if f.Title != "" {
		q = q.Where("title = ?", f.Title)
	}
	if len(f.Tags) > 0 {
		tagged := r.db.WithContext(ctx).Model(&models.PostTag{}).Select("post_id").Where("tag IN ?", f.Tags)
		q = q.Where("id IN (?)", tagged)
	}
	if f.Search != "" {
		like := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		bodyLike := "%" + escapeLike(strings.ToLower(f.bodySearch())) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!' OR LOWER(body) LIKE ? ESCAPE '!')",
			like, like, bodyLike)
	}
	return q
}

// Update applies the column changes and, when set, replaces the tag rows
// inside one transaction.
func (r *GormPostRepository) Update(ctx context.Context, id string, changes PostChanges) (*models.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := changes.fields()
		cols["updated_at"] = time.Now()
		res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if changes.Tags == nil {
			return nil
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if rows := tagRows(id, changes.Tags); len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return r.FindByID(ctx, id)
}

func (r *GormPostRepository) Delete(ctx context.Context, id string) error {
	return translateGormError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func tagRows(postID string, tags []string) []models.PostTag {
	rows := make([]models.PostTag, 0, len(tags))
	for i, t := range tags {
		rows = append(rows, models.PostTag{PostID: postID, Position: i, Tag: t})
	}
	return rows
}

func tagsOf(rows []models.PostTag) []string {
	tags := make([]string, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, r.Tag)
	}
	return tags
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
