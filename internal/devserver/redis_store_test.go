package devserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		SessionID: "sess-1",
		Items: []domain.CartLine{
			{ID: 1, ProductID: 7, Quantity: 2},
		},
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Put(ctx, "sess-1", cart))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.SessionID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(7), got.Items[0].ProductID)
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestRedisStore_GetCorruptPayload(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(cartKey("sess-1"), "{not json"))
	_, err := store.Get(context.Background(), "sess-1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisStore_PutSetsJitteredTTL(t *testing.T) {
	store, mr := setupTestRedis(t)

	cart := &domain.Cart{SessionID: "sess-2"}
	require.NoError(t, store.Put(context.Background(), "sess-2", cart))

	ttl := mr.TTL(cartKey("sess-2"))
	assert.True(t, ttl >= 30*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 35*time.Minute, "TTL should be base + max jitter")
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "sess-3"}
	data, _ := json.Marshal(cart)
	require.NoError(t, mr.Set(cartKey("sess-3"), string(data)))

	require.NoError(t, store.Delete(ctx, "sess-3"))
	assert.False(t, mr.Exists(cartKey("sess-3")))

	// Deleting a missing cart is not an error.
	assert.NoError(t, store.Delete(ctx, "sess-3"))
}

func TestCartKey_Format(t *testing.T) {
	assert.Equal(t, "cart:sess-9", cartKey("sess-9"))
}
