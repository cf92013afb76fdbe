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
)

type item struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Price string   `json:"price"`
}

func newMemory(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(s.Close)
	return s
}

func TestGetOrLoad_CachesAndReturnsCopies(t *testing.T) {
	c := New(newMemory(t))
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]item, error) {
		calls++
		return []item{{Name: "Плитка", Tags: []string{"керамика"}, Price: "12.50"}}, nil
	}

	first, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	first[0].Tags[0] = "изменено"

	second, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "керамика", second[0].Tags[0])
}

func TestGetOrLoad_ErrorIsNotCached(t *testing.T) {
	c := New(newMemory(t))
	boom := errors.New("db down")
	calls := 0
	load := func(context.Context) (*item, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &item{Name: "ok"}, nil
	}

	_, err := GetOrLoad(context.Background(), c, "k", time.Minute, load)
	assert.ErrorIs(t, err, boom)

	v, err := GetOrLoad(context.Background(), c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "ok", v.Name)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, ...string) error     { return errors.New("connection refused") }
func (brokenStore) DeletePrefix(context.Context, string) error { return errors.New("connection refused") }

func TestGetOrLoad_StoreFailureFallsBackToLoad(t *testing.T) {
	c := New(brokenStore{})

	v, err := GetOrLoad(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	c.Invalidate(context.Background(), "k")
	c.InvalidatePrefix(context.Background(), "k")
}

func TestGetOrLoad_CoalescesConcurrentMisses(t *testing.T) {
	c := New(newMemory(t))
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrLoad(context.Background(), c, "hot", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	// даём горутинам дойти до singleflight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestMemoryStore_ExpiryAndPrefix(t *testing.T) {
	s := newMemory(t)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "categories:all", []byte("[]"), time.Minute))
	require.NoError(t, s.Set(ctx, "categories:1", []byte("{}"), time.Minute))
	require.NoError(t, s.Set(ctx, "seller:1", []byte("{}"), time.Second))

	now = now.Add(2 * time.Second)
	_, ok, _ := s.Get(ctx, "seller:1")
	assert.False(t, ok)

	s.sweep()
	s.mu.RLock()
	_, stillThere := s.entries["seller:1"]
	s.mu.RUnlock()
	assert.False(t, stillThere)

	require.NoError(t, s.DeletePrefix(ctx, "categories:"))
	_, ok, _ = s.Get(ctx, "categories:all")
	assert.False(t, ok)
}
