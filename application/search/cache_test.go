package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardpilot/domain/cards"
)

func TestResultCache_Key_Normalization(t *testing.T) {
	cache := NewResultCache(time.Minute)

	assert.Equal(t, "refund|all|s1", cache.Key("  Refund ", cards.ModeAll, "s1"))
	assert.Equal(t,
		cache.Key("refund", cards.ModeAll, "s1"),
		cache.Key("REFUND", cards.ModeAll, "s1"),
	)
	assert.NotEqual(t,
		cache.Key("refund", cards.ModeAll, "s1"),
		cache.Key("refund", cards.ModeCurrent, "s1"),
	)
	assert.NotEqual(t,
		cache.Key("refund", cards.ModeAll, "s1"),
		cache.Key("refund", cards.ModeAll, "s2"),
	)
}

func TestResultCache_GetOrLoad_CachesWithinTTL(t *testing.T) {
	// Arrange
	cache := NewResultCache(time.Minute)
	var calls int32
	load := func(ctx context.Context) (*SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return EmptyResponse(SearchTypeSemantic), nil
	}

	// Act
	first, err1 := cache.GetOrLoad(context.Background(), "k", load)
	second, err2 := cache.GetOrLoad(context.Background(), "k", load)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultCache_GetOrLoad_ExpiresAfterTTL(t *testing.T) {
	// Arrange
	cache := NewResultCache(10 * time.Millisecond)
	var calls int32
	load := func(ctx context.Context) (*SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return EmptyResponse(SearchTypeSemantic), nil
	}

	// Act
	_, err := cache.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = cache.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResultCache_GetOrLoad_ErrorsNotCached(t *testing.T) {
	// Arrange
	cache := NewResultCache(time.Minute)
	var calls int32
	boom := errors.New("remote down")
	load := func(ctx context.Context) (*SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	// Act
	_, err1 := cache.GetOrLoad(context.Background(), "k", load)
	_, err2 := cache.GetOrLoad(context.Background(), "k", load)

	// Assert
	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_GetOrLoad_CollapsesConcurrentMisses(t *testing.T) {
	// Arrange
	cache := NewResultCache(time.Minute)
	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (*SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return EmptyResponse(SearchTypeSemantic), nil
	}

	// Act: many goroutines race the same cold key.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultCache_Clear(t *testing.T) {
	// Arrange
	cache := NewResultCache(time.Minute)
	_, err := cache.GetOrLoad(context.Background(), "k", func(ctx context.Context) (*SearchResponse, error) {
		return EmptyResponse(SearchTypeSemantic), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	// Act
	cache.Clear()

	// Assert
	assert.Equal(t, 0, cache.Len())
}
