package testkit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/pkg/cache"
	"github.com/shashiranjanraj/nearcart/pkg/database"
	"github.com/shashiranjanraj/nearcart/pkg/migration"
)

// NewDB opens a private in-memory SQLite database and applies every
// registered migration. Import database/migrations for the schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)

	_, err = migration.New(db, io.Discard).Run(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and points pkg/cache at it for the
// duration of the test.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.Use(client)
	t.Cleanup(func() {
		cache.Use(nil)
		client.Close()
	})
	return mr, client
}
