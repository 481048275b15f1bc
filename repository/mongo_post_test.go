package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/blogapi/models"
)

// setupMongo connects to MONGODB_URI and hands out a throwaway database.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("blogapi_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestMongoPost(t *testing.T) {
	db := setupMongo(t)
	r := NewMongoPostRepository(db)
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))

	a := newPost("Alpha", models.StatePublished, 0, "go")
	b := newPost("Beta (draft)", models.StateDraft, 1, "go")
	c := newPost("Gamma.*", models.StatePublished, 2, "web")
	for _, p := range []*models.Post{a, b, c} {
		require.NoError(t, r.Create(ctx, p))
	}

	q, page := BuildPublishedQuery(ListParams{})
	posts, total, err := r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Gamma.*", "Alpha"}, titles(posts))
	assert.Equal(t, 1, page.Paginate(total).TotalPages)

	q, _ = BuildPublishedQuery(ListParams{Search: ".*"})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma.*"}, titles(posts))

	q, _ = BuildPublishedQuery(ListParams{Tags: []string{"go"}})
	posts, _, err = r.FindFiltered(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, titles(posts))

	_, err = r.IncrementReadCount(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncrementReadCount(ctx, a.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ReadCount)

	title := "Alpha 2"
	got, err = r.Update(ctx, a.ID, PostChanges{Title: &title, Tags: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "Alpha 2", got.Title)
	assert.Equal(t, []string{"x", "y"}, got.Tags)

	require.NoError(t, r.Delete(ctx, a.ID))
	assert.ErrorIs(t, r.Delete(ctx, a.ID), ErrNotFound)
}

func TestMongoUser(t *testing.T) {
	db := setupMongo(t)
	r := NewMongoUserRepository(db)
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))

	u := &models.User{ID: uuid.NewString(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, r.Create(ctx, u))

	got, err := r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &models.User{ID: uuid.NewString(), Email: "ada@example.com"}
	assert.ErrorIs(t, r.Create(ctx, dup), ErrDuplicate)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
