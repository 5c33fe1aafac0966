package seeders_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/app/models"
	_ "github.com/shashiranjanraj/nearcart/database/migrations"
	"github.com/shashiranjanraj/nearcart/database/seeders"
	"github.com/shashiranjanraj/nearcart/pkg/auth"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

func TestRunAllIsRepeatable(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, seeders.RunAll(ctx, db, &out))
	assert.Contains(t, out.String(), "Running seeder: inventory")
	require.NoError(t, seeders.RunAll(ctx, db, io.Discard))

	counts := map[any]int64{
		&models.User{}:           3,
		&models.Address{}:        2,
		&models.Shop{}:           2,
		&models.Product{}:        3,
		&models.InventoryEntry{}: 4,
	}
	for model, want := range counts {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Equal(t, want, n, "%T", model)
	}
}

func TestSeededAccountsUseDemoPassword(t *testing.T) {
	db := testkit.NewDB(t)
	require.NoError(t, seeders.RunAll(context.Background(), db, io.Discard))

	var u models.User
	require.NoError(t, db.Where("email = ?", "asha@example.com").First(&u).Error)
	assert.NotEqual(t, seeders.DemoPassword, u.Password)
	assert.True(t, auth.CheckPassword(u.Password, seeders.DemoPassword))
}
