package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListNewestFirst(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		_, err := m.Create(ctx, Project{Name: name, CurrentView: "full"})
		require.NoError(t, err)
	}
	got, err := m.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Name)
	assert.Equal(t, "first", got[2].Name)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p, err := m.Create(ctx, Project{Name: "a", CurrentView: "shirt"})
	require.NoError(t, err)
	p.Name = "changed"
	got, err := m.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestDSNFromEnv(t *testing.T) {
	t.Run("should prefer DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://u@h/db")
		assert.Equal(t, "postgres://u@h/db", DSNFromEnv())
	})
	t.Run("should build from DB variables", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_USER", "kits")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "configurator")
		t.Setenv("DB_PORT", "")
		t.Setenv("DB_SSLMODE", "")
		assert.Equal(t, "host=db port=5432 user=kits password=secret dbname=configurator sslmode=disable", DSNFromEnv())
	})
	t.Run("should be empty when unconfigured", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "")
		assert.Equal(t, "", DSNFromEnv())
	})
}
