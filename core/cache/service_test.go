package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
	"pirss-api/infrastructure/cache/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Namespaces: map[interfaces.Namespace]NamespaceConfig{
			interfaces.NamespaceFeed:    {Store: memory.NewMemoryCache(DefaultFeedTTL, DefaultFeedSweep), TTL: DefaultFeedTTL},
			interfaces.NamespaceArticle: {Store: memory.NewMemoryCache(DefaultArticleTTL, DefaultArticleSweep), TTL: DefaultArticleTTL},
			interfaces.NamespaceImage:   {Store: memory.NewMemoryCache(DefaultImageTTL, DefaultImageSweep), TTL: DefaultImageTTL},
		},
	})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresEveryNamespace(t *testing.T) {
	_, err := NewService(Options{
		Namespaces: map[interfaces.Namespace]NamespaceConfig{
			interfaces.NamespaceFeed: {Store: memory.NewMemoryCache(time.Minute, time.Minute), TTL: time.Minute},
		},
	})
	assert.Error(t, err)
}

func TestFeedKey(t *testing.T) {
	tests := []struct {
		baseURL  string
		expected string
	}{
		{"http://localhost:3000", "full-rss-feed:http://localhost:3000"},
		{"http://localhost:3000/", "full-rss-feed:http://localhost:3000"},
		{"https://feeds.example.com//", "full-rss-feed:https://feeds.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			assert.Equal(t, tt.expected, FeedKey("full-rss-feed", tt.baseURL))
		})
	}
}

func TestService_SetGetRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, interfaces.NamespaceArticle, "summary:https://a", []byte("<p>x</p>"), 0))

	got, err := svc.Get(ctx, interfaces.NamespaceArticle, "summary:https://a")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(got))

	_, err = svc.Get(ctx, interfaces.NamespaceFeed, "summary:https://a")
	assert.True(t, coreerrors.IsCacheMiss(err), "namespaces are isolated")
}

func TestService_ExplicitTTLExpires(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, interfaces.NamespaceFeed, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, err := svc.Get(ctx, interfaces.NamespaceFeed, "k")
	assert.True(t, coreerrors.IsCacheMiss(err))
}

func TestService_GetOrGenerate_RegeneratesAfterTTL(t *testing.T) {
	const ttl = 20 * time.Millisecond
	svc, err := NewService(Options{
		Namespaces: map[interfaces.Namespace]NamespaceConfig{
			interfaces.NamespaceFeed:    {Store: memory.NewMemoryCache(ttl, time.Minute), TTL: ttl},
			interfaces.NamespaceArticle: {Store: memory.NewMemoryCache(DefaultArticleTTL, DefaultArticleSweep), TTL: DefaultArticleTTL},
			interfaces.NamespaceImage:   {Store: memory.NewMemoryCache(DefaultImageTTL, DefaultImageSweep), TTL: DefaultImageTTL},
		},
	})
	require.NoError(t, err)
	ctx := context.Background()

	var calls int32
	gen := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("<rss/>"), nil
	}

	_, err = svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", gen)
	require.NoError(t, err)
	_, err = svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", gen)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fresh entry is served from cache")

	time.Sleep(3 * ttl)

	value, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", gen)
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(value))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "expired entry is regenerated")
}

func TestService_GetOrGenerate_AbandonedCallerDoesNotFailOthers(t *testing.T) {
	svc := newTestService(t)

	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	genErr := make(chan error, 1)
	gen := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-release
		genErr <- ctx.Err()
		return []byte("generated"), nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := svc.GetOrGenerate(leaderCtx, interfaces.NamespaceFeed, "hot", gen)
		leaderDone <- err
	}()
	<-entered

	type outcome struct {
		value []byte
		err   error
	}
	waiterDone := make(chan outcome, 1)
	go func() {
		value, err := svc.GetOrGenerate(context.Background(), interfaces.NamespaceFeed, "hot", gen)
		waiterDone <- outcome{value, err}
	}()

	cancelLeader()
	assert.ErrorIs(t, <-leaderDone, context.Canceled)

	close(release)
	got := <-waiterDone
	require.NoError(t, got.err)
	assert.Equal(t, "generated", string(got.value))
	assert.NoError(t, <-genErr, "generation is not cancelled with its first caller")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	cached, err := svc.Get(context.Background(), interfaces.NamespaceFeed, "hot")
	require.NoError(t, err)
	assert.Equal(t, "generated", string(cached))
}

func TestService_GetOrGenerate_GenerateTimeout(t *testing.T) {
	svc, err := NewService(Options{
		Namespaces: map[interfaces.Namespace]NamespaceConfig{
			interfaces.NamespaceFeed:    {Store: memory.NewMemoryCache(DefaultFeedTTL, DefaultFeedSweep), TTL: DefaultFeedTTL},
			interfaces.NamespaceArticle: {Store: memory.NewMemoryCache(DefaultArticleTTL, DefaultArticleSweep), TTL: DefaultArticleTTL},
			interfaces.NamespaceImage:   {Store: memory.NewMemoryCache(DefaultImageTTL, DefaultImageSweep), TTL: DefaultImageTTL},
		},
		GenerateTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = svc.GetOrGenerate(context.Background(), interfaces.NamespaceFeed, "slow", func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_UnknownNamespace(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), interfaces.Namespace("bogus"), "k")
	assert.Error(t, err)
	assert.False(t, coreerrors.IsCacheMiss(err))
}

func TestService_GetOrGenerate_CachesResult(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var calls int32
	gen := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("<rss/>"), nil
	}

	first, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", gen)
	require.NoError(t, err)
	second, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", gen)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	stats := svc.Stats(ctx)[interfaces.NamespaceFeed]
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Keys)
}

func TestService_GetOrGenerate_SingleFlight(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	gen := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("generated"), nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	started := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			value, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "hot", gen)
			if err == nil {
				results[i] = string(value)
			}
		}(i)
	}

	for i := 0; i < callers; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent misses share one generation")
	for i, r := range results {
		assert.Equal(t, "generated", r, "caller %d", i)
	}
}

func TestService_GetOrGenerate_ErrorsNotCached(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	value, err := svc.GetOrGenerate(ctx, interfaces.NamespaceFeed, "feed", func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(value))
}

func TestService_ClearAndStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, ns := range interfaces.Namespaces {
		require.NoError(t, svc.Set(ctx, ns, "k", []byte("v"), 0))
	}
	svc.Get(ctx, interfaces.NamespaceImage, "k")
	svc.Get(ctx, interfaces.NamespaceImage, "missing")

	require.NoError(t, svc.Clear(ctx))

	stats := svc.Stats(ctx)
	require.Len(t, stats, 3)
	for _, ns := range interfaces.Namespaces {
		assert.Equal(t, 0, stats[ns].Keys, "namespace %s", ns)
	}
	assert.Equal(t, int64(1), stats[interfaces.NamespaceImage].Hits)
	assert.Equal(t, int64(1), stats[interfaces.NamespaceImage].Misses)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestService_Close(t *testing.T) {
	closed := false
	svc, err := NewService(Options{
		Namespaces: map[interfaces.Namespace]NamespaceConfig{
			interfaces.NamespaceFeed:    {Store: memory.NewMemoryCache(time.Minute, time.Minute), TTL: time.Minute},
			interfaces.NamespaceArticle: {Store: memory.NewMemoryCache(time.Minute, time.Minute), TTL: time.Minute},
			interfaces.NamespaceImage:   {Store: memory.NewMemoryCache(time.Minute, time.Minute), TTL: time.Minute},
		},
		Closer: closerFunc(func() error { closed = true; return nil }),
	})
	require.NoError(t, err)

	ctx := context.Background()
	svc.Set(ctx, interfaces.NamespaceFeed, "k", []byte("v"), 0)

	require.NoError(t, svc.Close(ctx))
	assert.True(t, closed)
	assert.Equal(t, 0, svc.Stats(ctx)[interfaces.NamespaceFeed].Keys)
}
