package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSupplier_JSONShape(t *testing.T) {
	s := Supplier{
		ID:            "S1",
		Name:          "GreenCo",
		TransportType: ptr("Électrique"),
		RenewablePct:  ptr(78.5),
		Score:         ptr(82.7),
	}

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "GreenCo", decoded["supplier_name"])
	assert.Equal(t, 82.7, decoded["sustainability_score"])
	assert.Contains(t, decoded, "avg_carbon_footprint")
	assert.Nil(t, decoded["avg_carbon_footprint"], "missing metrics are null, never 0")
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestRepository_Integration(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id := "it-" + time.Now().Format("150405.000000")
	require.NoError(t, repo.Upsert(ctx, Supplier{ID: id, Name: "Integration Co", Score: ptr(101.0)}))

	got, err := repo.Supplier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Integration Co", got.Name)
	assert.Nil(t, got.RenewablePct)

	top, err := repo.TopSuppliers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, id, top[0].ID)

	_, err = repo.Supplier(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}
