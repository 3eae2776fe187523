package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestMemoryClient(t *testing.T, maxSize int) (*MemoryClient, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryClient(maxSize)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryClient_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryClient(t, 10)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte("fever")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fever"), got)

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fever"), again)
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemoryClient(t, 10)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("2"), 0))

	clock.Advance(2 * time.Second)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	assert.Equal(t, 2, c.Len())
	c.purgeExpired()
	assert.Equal(t, 1, c.Len())
}

func TestMemoryClient_EvictsEarliestExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryClient(t, 2)

	require.NoError(t, c.Set(ctx, "a", []byte("a"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "c", []byte("c"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "a", []byte("a2"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryClient(t, 10)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("answer:%d", i), []byte("x"), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "session:1", []byte("y"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "answer:"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "session:1"))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryClient(0)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantNil bool
		wantErr bool
	}{
		{"default is memory", Options{}, false, false},
		{"memory", Options{Backend: BackendMemory}, false, false},
		{"none", Options{Backend: BackendNone}, true, false},
		{"redis without url", Options{Backend: BackendRedis}, true, true},
		{"unknown", Options{Backend: "memcached"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, c)
			} else {
				require.NotNil(t, c)
				_ = c.Close()
			}
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "answer:abc", Key("answer", "abc"))
	assert.Equal(t, "solo", Key("solo"))
}

func TestParseRedisURL(t *testing.T) {
	cfg, err := ParseRedisURL("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", cfg.Addr)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 2, cfg.DB)

	_, err = ParseRedisURL("")
	assert.Error(t, err)

	_, err = ParseRedisURL("http://localhost")
	assert.Error(t, err)
}
