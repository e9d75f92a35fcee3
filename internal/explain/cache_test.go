package explain

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/health-analytics-server/internal/domain"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(2, time.Minute)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "a", "first"))
	require.NoError(t, cache.Set(ctx, "b", "second"))
	require.NoError(t, cache.Set(ctx, "c", "third"))

	// "a" was evicted as least recently used
	_, ok, _ = cache.Get(ctx, "a")
	assert.False(t, ok)
	v, ok, _ := cache.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, "third", v)
	assert.Equal(t, 2, cache.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(10, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	time.Sleep(60 * time.Millisecond)

	_, ok, _ := cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewMemoryCache_InvalidSize(t *testing.T) {
	_, err := NewMemoryCache(0, time.Minute)
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis tests")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	cache := NewRedisCacheFromClient(client, time.Minute)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Ping(ctx))
	key := "test-" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, "cached explanation"))
	v, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached explanation", v)

	// corrupted entries read as misses and are removed
	require.NoError(t, client.Set(ctx, redisKeyPrefix+key, "not json", time.Minute).Err())
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(domain.CacheConfig{RedisURL: "not-a-url"})
	assert.Error(t, err)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func TestCachedExplainer_HitSkipsProvider(t *testing.T) {
	logger, _ := test.NewNullLogger()
	req := creditRequest()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, CacheKey(req)).Return("from cache", true, nil)
	next := new(MockExplainer)

	text, err := NewCachedExplainer(next, cache, logger).Explain(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "from cache", text)
	next.AssertNotCalled(t, "Explain", mock.Anything, mock.Anything)
}

func TestCachedExplainer_MissStoresResult(t *testing.T) {
	logger, _ := test.NewNullLogger()
	req := creditRequest()
	memory, err := NewMemoryCache(10, time.Minute)
	require.NoError(t, err)

	next := new(MockExplainer)
	next.On("Explain", mock.Anything, req).Return("Your score is 740.", nil).Once()

	explainer := NewCachedExplainer(next, memory, logger)
	for i := 0; i < 3; i++ {
		text, err := explainer.Explain(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Your score is 740.", text)
	}
	next.AssertNumberOfCalls(t, "Explain", 1)
}

func TestCachedExplainer_CacheErrorsAreMisses(t *testing.T) {
	logger, hook := test.NewNullLogger()
	req := creditRequest()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything).Return("", false, errors.New("redis down"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	next := new(MockExplainer)
	next.On("Explain", mock.Anything, req).Return("Your score is 740.", nil)

	text, err := NewCachedExplainer(next, cache, logger).Explain(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Your score is 740.", text)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestCachedExplainer_ProviderErrorNotCached(t *testing.T) {
	logger, _ := test.NewNullLogger()
	req := creditRequest()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	next := new(MockExplainer)
	next.On("Explain", mock.Anything, req).Return("", errors.New("timeout"))

	_, err := NewCachedExplainer(next, cache, logger).Explain(context.Background(), req)

	assert.Error(t, err)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedExplainer_UngroundedAnswerNotCached(t *testing.T) {
	logger, _ := test.NewNullLogger()
	req := creditRequest()
	memory, err := NewMemoryCache(10, time.Minute)
	require.NoError(t, err)

	next := new(MockExplainer)
	next.On("Explain", mock.Anything, req).Return("Your score is 9999.", nil).Once()
	next.On("Explain", mock.Anything, req).Return("Your score is 740.", nil).Once()

	explainer := NewCachedExplainer(next, memory, logger)

	text, err := explainer.Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Your score is 9999.", text)
	_, ok, err := memory.Get(context.Background(), CacheKey(req))
	require.NoError(t, err)
	assert.False(t, ok)

	text, err = explainer.Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Your score is 740.", text)
	next.AssertNumberOfCalls(t, "Explain", 2)

	cached, ok, err := memory.Get(context.Background(), CacheKey(req))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Your score is 740.", cached)
}

func TestCacheKeyIsStable(t *testing.T) {
	a := Request{Topic: TopicLifestyle, Score: 80, Fields: map[string]string{"x": "1", "y": "2"}}
	b := Request{Topic: TopicLifestyle, Score: 80, Fields: map[string]string{"y": "2", "x": "1"}}
	c := Request{Topic: TopicLifestyle, Score: 81, Fields: map[string]string{"x": "1", "y": "2"}}

	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Len(t, CacheKey(a), 64)
}
