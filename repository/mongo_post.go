package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/blogapi/models"
)

// MongoPostRepository stores posts in the "posts" collection with tags
// embedded as an array.
type MongoPostRepository struct {
	coll *mongo.Collection
}

// NewMongoPostRepository creates a MongoPostRepository on db.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{coll: db.Collection("posts")}
}

// EnsureIndexes creates the indexes backing the listing filters and sorts.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
	})
	return err
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Tags == nil {
		post.Tags = []string{}
	}
	_, err := r.coll.InsertOne(ctx, post)
	return translateMongoError(err)
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translateMongoError(err)
	}
	return &post, nil
}

// IncrementReadCount uses a single $inc so concurrent reads never lose an update.
func (r *MongoPostRepository) IncrementReadCount(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "state": models.StatePublished},
		bson.M{"$inc": bson.M{"read_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &post, nil
}

func (r *MongoPostRepository) FindFiltered(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	filter := mongoFilter(q.Filter)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	posts := []models.Post{}
	if total == 0 {
		return posts, 0, nil
	}

	dir := 1
	if q.Sort.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.Sort.Field(), Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func mongoFilter(f PostFilter) bson.M {
	filter := bson.M{}
	if f.State != "" {
		filter["state"] = f.State
	}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if f.Author != "" {
		filter["author"] = f.Author
	}
	if f.Title != "" {
		filter["title"] = f.Title
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
			bson.M{"body": bson.M{"$regex": regexp.QuoteMeta(f.bodySearch()), "$options": "i"}},
		}
	}
	return filter
}

// Update sets all changed fields, tags included, in one document update.
func (r *MongoPostRepository) Update(ctx context.Context, id string, changes PostChanges) (*models.Post, error) {
	set := bson.M{}
	for k, v := range changes.fields() {
		set[k] = v
	}
	if changes.Tags != nil {
		set["tags"] = changes.Tags
	}
	set["updated_at"] = time.Now()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
