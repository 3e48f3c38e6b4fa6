package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/usestring/docschema/pkg/schema"
)

func names(cs []*Collection) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r, err := NewRegistry(4, schema.WithSampleSize(2))
	require.NoError(t, err)

	c, created := r.GetOrCreate("users")
	assert.True(t, created)
	again, created := r.GetOrCreate("users")
	assert.False(t, created)
	assert.Same(t, c, again)

	require.NoError(t, c.Update(func(m *schema.Model) error {
		assert.Equal(t, 2, m.SampleSize())
		return m.Ingest(bson.D{{Key: "a", Value: 1}})
	}))
	docs, fields := c.Stats()
	assert.Equal(t, int64(1), docs)
	assert.Equal(t, 1, fields)

	_, ok := r.Get("orders")
	assert.False(t, ok)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r, err := NewRegistry(2)
	require.NoError(t, err)

	r.GetOrCreate("a")
	r.GetOrCreate("b")
	r.Get("a")
	r.GetOrCreate("c")

	assert.Equal(t, []string{"a", "c"}, names(r.Collections()))
	assert.Equal(t, 1, r.Evictions())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.Cap())
}

func TestRegistry_RemoveIsNotEviction(t *testing.T) {
	r, err := NewRegistry(2)
	require.NoError(t, err)

	r.GetOrCreate("a")
	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 0, r.Evictions())
	assert.Empty(t, r.Collections())
}

func TestCollection_VersionGrowsWithUpdates(t *testing.T) {
	r, err := NewRegistry(2)
	require.NoError(t, err)

	c, _ := r.GetOrCreate("a")
	assert.Equal(t, uint64(0), c.Version())
	require.NoError(t, c.Update(func(m *schema.Model) error {
		return m.Ingest(bson.D{{Key: "x", Value: 1}})
	}))
	assert.Equal(t, uint64(1), c.Version())

	_, err = c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Version(), "reads leave the version alone")
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	r, err := NewRegistry(1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := r.GetOrCreate("shared")
			for j := 0; j < 50; j++ {
				_ = c.Update(func(m *schema.Model) error {
					return m.Ingest(bson.D{{Key: "n", Value: j}})
				})
			}
		}()
	}
	wg.Wait()

	c, ok := r.Get("shared")
	require.True(t, ok)
	s, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(400), s.DocumentCount)
}

func TestNewRegistry_InvalidSize(t *testing.T) {
	_, err := NewRegistry(0)
	assert.Error(t, err)
}
