package model

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medidose/internal/synthetic"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Kind:      KindDosage,
		Key:       "ibuprofen",
		Schema:    "abc123",
		Network:   NewNetwork(synthetic.NewRand(1), []int{3, 4, 1}, Linear),
		TrainedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func assertSameSnapshot(t *testing.T, want, got *Snapshot) {
	t.Helper()
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Key, got.Key)
	assert.Equal(t, want.Schema, got.Schema)
	assert.Equal(t, want.Network, got.Network)
	assert.True(t, want.TrainedAt.Equal(got.TrainedAt))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(ctx, "drug-dosage-model-ibuprofen")
	assert.ErrorIs(t, err, ErrModelNotFound)

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, "drug-dosage-model-ibuprofen", snap))

	got, err := store.Load(ctx, "drug-dosage-model-ibuprofen")
	require.NoError(t, err)
	assertSameSnapshot(t, snap, got)
}

func TestFileStoreEscapesKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "../escape/attempt", testSnapshot()))
	_, err = store.Load(ctx, "../escape/attempt")
	require.NoError(t, err)
	_, err = store.Load(ctx, "attempt")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, "medidose:", time.Hour)

	_, err := store.Load(ctx, "disease-prediction-model")
	assert.ErrorIs(t, err, ErrModelNotFound)

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, "drug-dosage-model-ibuprofen", snap))
	assert.True(t, mr.Exists("medidose:drug-dosage-model-ibuprofen"))
	assert.Equal(t, time.Hour, mr.TTL("medidose:drug-dosage-model-ibuprofen"))

	got, err := store.Load(ctx, "drug-dosage-model-ibuprofen")
	require.NoError(t, err)
	assertSameSnapshot(t, snap, got)

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "drug-dosage-model-ibuprofen")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, mr.Set("m:broken", "{not json"))
	_, err := NewRedisStore(client, "m:", 0).Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelNotFound)
}
