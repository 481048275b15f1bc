package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/repository"
)

type fixture struct {
	accounts *Accounts
	posts    *Posts
	creds    *Credentials
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    config.DriverSQLite,
		DatabaseURI: filepath.Join(t.TempDir(), "services.db"),
		LogLevel:    "silent",
	}, &models.User{}, &models.Post{}, &models.PostTag{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	creds := newCredentials(t)
	return &fixture{
		accounts: NewAccounts(repository.NewGormUserRepository(db), creds),
		posts:    NewPosts(repository.NewGormPostRepository(db)),
		creds:    creds,
	}
}
