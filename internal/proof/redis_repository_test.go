package proof

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
)

type fakeRedis struct {
	redis.Cmdable
	values map[string][]byte
	ttls   map[string]time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	raw, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(raw), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = value.([]byte)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSaveAndFind(t *testing.T) {
	client := &fakeRedis{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
	repo := NewRedisRepository(client, time.Hour)

	proof := &StoredProof{
		Kind:      extraction.KindSubmission,
		Response:  json.RawMessage(`{"zkProof":"0x01","journalDataAbi":"0x02"}`),
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.Save(context.Background(), "abc", proof))
	assert.Equal(t, time.Hour, client.ttls["campaign:proof:abc"])

	got, err := repo.Find(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, proof.Kind, got.Kind)
	assert.JSONEq(t, string(proof.Response), string(got.Response))
}

func TestRedisFindMissing(t *testing.T) {
	repo := NewRedisRepository(&fakeRedis{values: map[string][]byte{}}, 0)
	got, err := repo.Find(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "cache.internal:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	bare, err := ConnectRedis("localhost:6379")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bare.Close() })
	assert.Equal(t, "localhost:6379", bare.Options().Addr)
}
