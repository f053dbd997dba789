package cache_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coverkit/pkg/cache"
)

func TestLedger_Insert(t *testing.T) {
	t.Parallel()

	t.Run("appends in order", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[string]()

		require.NoError(t, l.Insert("a"))
		require.NoError(t, l.Insert("b"))
		require.NoError(t, l.Insert("c"))

		assert.Equal(t, 3, l.Len())
		assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(l.Oldest()))
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[string]()

		require.NoError(t, l.Insert("a"))
		err := l.Insert("a")

		require.ErrorIs(t, err, cache.ErrDuplicate)
		assert.Equal(t, 1, l.Len())
	})
}

func TestLedger_Touch(t *testing.T) {
	t.Parallel()

	t.Run("moves key to most recent", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[string]()
		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, l.Insert(k))
		}

		assert.True(t, l.Touch("a"))
		assert.Equal(t, []string{"b", "c", "a"}, slices.Collect(l.Oldest()))

		assert.True(t, l.Touch("c"))
		assert.Equal(t, []string{"b", "a", "c"}, slices.Collect(l.Oldest()))
	})

	t.Run("touching most recent keeps order", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[int]()
		require.NoError(t, l.Insert(1))
		require.NoError(t, l.Insert(2))

		assert.True(t, l.Touch(2))
		assert.Equal(t, []int{1, 2}, slices.Collect(l.Oldest()))
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[string]()
		require.NoError(t, l.Insert("a"))

		assert.False(t, l.Touch("missing"))
		assert.False(t, l.Contains("missing"))
		assert.Equal(t, 1, l.Len())
	})
}

func TestLedger_Remove(t *testing.T) {
	t.Parallel()
	l := cache.NewLedger[string]()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, l.Insert(k))
	}

	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("b"))
	assert.False(t, l.Contains("b"))
	assert.Equal(t, []string{"a", "c"}, slices.Collect(l.Oldest()))

	// Re-inserting a removed key lands at the most recent end.
	require.NoError(t, l.Insert("b"))
	assert.Equal(t, []string{"a", "c", "b"}, slices.Collect(l.Oldest()))
}

func TestLedger_Oldest(t *testing.T) {
	t.Parallel()

	t.Run("restartable", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[int]()
		for i := range 5 {
			require.NoError(t, l.Insert(i))
		}

		seq := l.Oldest()
		assert.Equal(t, []int{0, 1, 2, 3, 4}, slices.Collect(seq))
		assert.Equal(t, []int{0, 1, 2, 3, 4}, slices.Collect(seq))
	})

	t.Run("stops early", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[int]()
		for i := range 5 {
			require.NoError(t, l.Insert(i))
		}

		var seen []int
		for k := range l.Oldest() {
			seen = append(seen, k)
			if k == 1 {
				break
			}
		}
		assert.Equal(t, []int{0, 1}, seen)
	})

	t.Run("remove while iterating", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[int]()
		for i := range 6 {
			require.NoError(t, l.Insert(i))
		}

		for k := range l.Oldest() {
			if k%2 == 0 {
				l.Remove(k)
			}
		}
		assert.Equal(t, []int{1, 3, 5}, slices.Collect(l.Oldest()))
		assert.Equal(t, 3, l.Len())
	})

	t.Run("empty ledger", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLedger[string]()
		assert.Empty(t, slices.Collect(l.Oldest()))
	})
}

func TestLedger_Clear(t *testing.T) {
	t.Parallel()
	l := cache.NewLedger[string]()
	require.NoError(t, l.Insert("a"))
	require.NoError(t, l.Insert("b"))

	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains("a"))
	require.NoError(t, l.Insert("a"))
	assert.Equal(t, 1, l.Len())
}

func BenchmarkLedger_Touch(b *testing.B) {
	l := cache.NewLedger[int]()
	for i := range 1000 {
		_ = l.Insert(i)
	}

	b.ResetTimer()
	for i := range b.N {
		l.Touch(i % 1000)
	}
}

func BenchmarkLedger_InsertRemove(b *testing.B) {
	l := cache.NewLedger[int]()

	b.ResetTimer()
	for i := range b.N {
		_ = l.Insert(i)
		if l.Len() > 50 {
			for k := range l.Oldest() {
				l.Remove(k)
				break
			}
		}
	}
}
