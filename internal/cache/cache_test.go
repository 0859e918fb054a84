package cache_test

import (
	"sync"
	"testing"
	"time"

	"chirpd/internal/cache"
	"chirpd/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func units(id int64) []core.DisplayUnit {
	return []core.DisplayUnit{{Chirp: core.Chirp{ID: id}}}
}

func TestGetMissesWhenEmpty(t *testing.T) {
	t.Parallel()

	c := cache.New(5 * time.Second)
	_, ok := c.Get("feed:personalized:u1")
	assert.False(t, ok)
}

func TestSetThenGet(t *testing.T) {
	t.Parallel()

	c := cache.New(5 * time.Second)
	c.Set("k", units(1))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, int64(1), got[0].Chirp.ID)
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := cache.New(5 * time.Second)
	c.SetClock(func() time.Time { return now })

	c.Set("k", units(1))

	now = now.Add(6 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLastWriteWins(t *testing.T) {
	t.Parallel()

	c := cache.New(5 * time.Second)
	c.Set("k", units(1))
	c.Set("k", units(2))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, int64(2), got[0].Chirp.ID)
}

func TestClearDropsEverything(t *testing.T) {
	t.Parallel()

	c := cache.New(5 * time.Second)
	c.Set("a", units(1))
	c.Set("b", units(2))
	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("k", units(n))
				c.Get("k")
				if j%10 == 0 {
					c.Clear()
				}
			}
		}(int64(i))
	}
	wg.Wait()
}

func TestNoopNeverStores(t *testing.T) {
	t.Parallel()

	var c cache.Noop
	c.Set("k", units(1))
	_, ok := c.Get("k")
	assert.False(t, ok)
}
