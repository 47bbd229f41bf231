package prioritylist

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyRoute struct {
	name string
}

func keysOf[V any](l *List[V]) []string {
	var keys []string
	for k := range l.All() {
		keys = append(keys, k)
	}
	return keys
}

func TestNew(t *testing.T) {
	l := New[int]()
	assert.NotNil(t, l)
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, keysOf(l))
}

func TestInsert(t *testing.T) {
	l := New[*dummyRoute]()
	route := &dummyRoute{name: "foo"}

	l.Insert("foo", route, 0)

	assert.Equal(t, 1, l.Len())

	var pairs []string
	for k, v := range l.All() {
		pairs = append(pairs, k)
		assert.Same(t, route, v)
	}
	assert.Equal(t, []string{"foo"}, pairs)
}

func TestInsertEmptyKeyPanics(t *testing.T) {
	l := New[int]()

	assert.PanicsWithValue(t, "prioritylist: empty key", func() {
		l.Insert("", 1, 0)
	})
	assert.Equal(t, 0, l.Len())
}

func TestRemove(t *testing.T) {
	l := New[*dummyRoute]()
	bar := &dummyRoute{name: "bar"}
	l.Insert("foo", &dummyRoute{name: "foo"}, 0)
	l.Insert("bar", bar, 0)

	assert.Equal(t, 2, l.Len())

	l.Remove("foo")

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []string{"bar"}, keysOf(l))
	v, ok := l.Get("bar")
	require.True(t, ok)
	assert.Same(t, bar, v)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	l := New[int]()
	l.Add("foo", 1)
	_ = l.Keys()

	l.Remove("missing")

	assert.Equal(t, 1, l.Len())
	assert.False(t, l.dirty, "removing a missing key must not invalidate the order")
}

func TestClear(t *testing.T) {
	l := New[int]()
	l.Add("foo", 1)
	l.Add("bar", 2)

	assert.Equal(t, 2, l.Len())

	l.Clear()

	assert.Equal(t, 0, l.Len())
	key, v, ok := l.Current()
	assert.False(t, ok)
	assert.Equal(t, "", key)
	assert.Equal(t, 0, v)
	assert.Empty(t, keysOf(l))
}

func TestGet(t *testing.T) {
	l := New[*dummyRoute]()
	route := &dummyRoute{name: "foo"}
	l.Insert("foo", route, 0)

	v, ok := l.Get("foo")
	assert.True(t, ok)
	assert.Same(t, route, v)

	v, ok = l.Get("bar")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestGetDoesNotInvalidateOrder(t *testing.T) {
	l := New[int]()
	l.Add("foo", 1)
	_ = l.Keys()

	l.Get("foo")
	l.Get("missing")
	l.Has("foo")
	l.Len()

	assert.False(t, l.dirty)
}

func TestLIFOOnly(t *testing.T) {
	l := New[int]()
	l.Insert("foo", 0, 0)
	l.Insert("bar", 0, 0)
	l.Insert("baz", 0, 0)

	assert.Equal(t, []string{"baz", "bar", "foo"}, keysOf(l))
}

func TestPriorityOnly(t *testing.T) {
	l := New[int]()
	l.Insert("foo", 0, 1)
	l.Insert("bar", 0, 0)
	l.Insert("baz", 0, 2)

	assert.Equal(t, []string{"baz", "foo", "bar"}, keysOf(l))
}

func TestLIFOWithPriority(t *testing.T) {
	l := New[int]()
	l.Insert("foo", 0, 0)
	l.Insert("bar", 0, 0)
	l.Insert("baz", 0, 1)

	assert.Equal(t, []string{"baz", "bar", "foo"}, keysOf(l))
}

func TestPriorityWithNegativesAndDefault(t *testing.T) {
	l := New[int]()
	l.Add("foo", 0)
	l.Insert("bar", 0, 1)
	l.Insert("baz", 0, -1)

	assert.Equal(t, []string{"bar", "foo", "baz"}, keysOf(l))
}

func TestFIFO(t *testing.T) {
	l := New[int](WithFIFO())
	l.Insert("foo", 0, 0)
	l.Insert("bar", 0, 0)
	l.Insert("baz", 0, 1)
	l.Insert("qux", 0, 0)

	assert.Equal(t, []string{"baz", "foo", "bar", "qux"}, keysOf(l))
}

func TestReinsertMovesToFrontOfTier(t *testing.T) {
	l := New[string]()
	l.Insert("foo", "v1", 0)
	l.Insert("bar", "v1", 0)
	l.Insert("baz", "v1", 0)
	assert.Equal(t, []string{"baz", "bar", "foo"}, keysOf(l))

	l.Insert("foo", "v2", 0)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"foo", "baz", "bar"}, keysOf(l))
	v, _ := l.Get("foo")
	assert.Equal(t, "v2", v)
}

func TestReinsertWithNewPriority(t *testing.T) {
	l := New[string]()
	l.Insert("foo", "a", 5)
	l.Insert("bar", "b", 1)
	l.Insert("baz", "c", 1)

	l.Insert("foo", "d", 1)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"foo", "baz", "bar"}, keysOf(l))
	p, ok := l.Priority("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, p)
}

func TestSetPriorityKeepsInsertionPosition(t *testing.T) {
	l := New[int]()
	l.Insert("foo", 0, 0)
	l.Insert("bar", 0, 0)
	l.Insert("baz", 0, 5)

	require.NoError(t, l.SetPriority("baz", 0))

	// baz was inserted last, so it still leads the tier
	assert.Equal(t, []string{"baz", "bar", "foo"}, keysOf(l))

	require.NoError(t, l.SetPriority("foo", 3))
	assert.Equal(t, []string{"foo", "baz", "bar"}, keysOf(l))
}

func TestSetPriorityMissing(t *testing.T) {
	l := New[int]()

	err := l.SetPriority("missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, l.Len())
}

func TestPriorityMissing(t *testing.T) {
	l := New[int]()
	p, ok := l.Priority("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, p)
}

func TestCurrent(t *testing.T) {
	l := New[string]()
	l.Insert("low", "l", -1)
	l.Insert("high", "h", 10)

	key, v, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, "high", key)
	assert.Equal(t, "h", v)

	l.Remove("high")
	key, _, ok = l.Current()
	require.True(t, ok)
	assert.Equal(t, "low", key)
}

func TestCurrentEmpty(t *testing.T) {
	l := New[*dummyRoute]()

	key, v, ok := l.Current()
	assert.False(t, ok)
	assert.Empty(t, key)
	assert.Nil(t, v)
}

func TestKeysValuesEntries(t *testing.T) {
	l := New[string]()
	l.Insert("a", "A", 1)
	l.Insert("b", "B", 2)
	l.Insert("c", "C", 1)

	assert.Equal(t, []string{"b", "c", "a"}, l.Keys())
	assert.Equal(t, []string{"B", "C", "A"}, l.Values())
	assert.Equal(t, []Entry[string]{
		{Key: "b", Value: "B", Priority: 2},
		{Key: "c", Value: "C", Priority: 1},
		{Key: "a", Value: "A", Priority: 1},
	}, l.Entries())
}

func TestOrderedCopiesAreIndependent(t *testing.T) {
	l := New[int]()
	l.Add("a", 1)
	l.Add("b", 2)

	keys := l.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"b", "a"}, l.Keys())
}

func TestIterationIsRestartable(t *testing.T) {
	l := New[int]()
	l.Add("foo", 1)
	l.Add("bar", 2)

	seq := l.All()
	var first, second []string
	for k := range seq {
		first = append(first, k)
	}
	for k := range seq {
		second = append(second, k)
	}
	assert.Equal(t, first, second)

	// A later traversal of the same iterator sees later mutations.
	l.Add("baz", 3)
	var third []string
	for k := range seq {
		third = append(third, k)
	}
	assert.Equal(t, []string{"baz", "bar", "foo"}, third)
}

func TestIterationEarlyStop(t *testing.T) {
	l := New[int]()
	l.Add("a", 1)
	l.Add("b", 2)
	l.Add("c", 3)

	count := 0
	for range l.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestMutationDuringIterationUsesSnapshot(t *testing.T) {
	l := New[string]()
	l.Insert("foo", "f", 0)
	l.Insert("bar", "b", 0)
	l.Insert("baz", "z", 0)

	var seen []string
	for k, v := range l.All() {
		seen = append(seen, k+"="+v)
		if k == "baz" {
			l.Remove("bar")
			l.Insert("foo", "changed", 0)
			l.Insert("new", "n", 100)
		}
	}

	assert.Equal(t, []string{"baz=z", "bar=b", "foo=f"}, seen)
	assert.Equal(t, []string{"new", "foo", "baz"}, keysOf(l))
}

func TestClearDuringIterationUsesSnapshot(t *testing.T) {
	l := New[int]()
	l.Add("a", 1)
	l.Add("b", 2)

	var seen []string
	for k := range l.All() {
		seen = append(seen, k)
		l.Clear()
	}

	assert.Equal(t, []string{"b", "a"}, seen)
	assert.Equal(t, 0, l.Len())
}

func TestLazyResort(t *testing.T) {
	l := New[int]()
	l.Add("a", 1)
	assert.True(t, l.dirty)

	_ = l.Keys()
	assert.False(t, l.dirty)
	first := l.sorted

	// Ordered reads without mutation reuse the cached slice.
	l.Current()
	_ = l.Values()
	assert.Same(t, &first[0], &l.sorted[0])

	l.Add("b", 2)
	assert.True(t, l.dirty)
	_, _, _ = l.Current()
	assert.False(t, l.dirty)
	assert.Len(t, l.sorted, 2)
}

func TestCountInvariant(t *testing.T) {
	l := New[int]()
	for i := range 10 {
		l.Add(fmt.Sprintf("k%d", i), i)
	}
	l.Add("k3", 99)
	assert.Equal(t, 10, l.Len())

	l.Remove("k0")
	l.Remove("k0")
	l.Remove("nope")
	assert.Equal(t, 9, l.Len())
	assert.Len(t, l.Keys(), 9)

	l.Clear()
	assert.Equal(t, 0, l.Len())
}

// TestOrderingInvariant inserts random priorities and checks that the order is
// non-increasing in priority and reverse-insertion within a tier.
func TestOrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	l := New[int]()
	inserted := make(map[string]int)

	for i := range 500 {
		key := fmt.Sprintf("k%d", rng.IntN(200))
		l.Insert(key, i, rng.IntN(7)-3)
		inserted[key] = i
		if rng.IntN(10) == 0 {
			victim := fmt.Sprintf("k%d", rng.IntN(200))
			l.Remove(victim)
			delete(inserted, victim)
		}
	}

	entries := l.Entries()
	require.Len(t, entries, len(inserted))
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		require.GreaterOrEqual(t, prev.Priority, cur.Priority)
		if prev.Priority == cur.Priority {
			// values are the loop index of the latest insert
			require.Greater(t, prev.Value, cur.Value)
		}
	}
	for k, v := range inserted {
		got, ok := l.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestWithCapacity(t *testing.T) {
	l := New[int](WithCapacity(64), WithCapacity(-1))
	l.Add("a", 1)
	assert.Equal(t, 1, l.Len())
}

func TestZeroValueEntries(t *testing.T) {
	l := New[*int]()
	l.Add("nil", nil)

	v, ok := l.Get("nil")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = l.Get("missing")
	assert.False(t, ok)
}

func BenchmarkInsertThenIterate(b *testing.B) {
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("route-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l := New[int](WithCapacity(len(keys)))
		for j, k := range keys {
			l.Insert(k, j, j%10)
		}
		for range l.All() {
		}
	}
}

func BenchmarkGet(b *testing.B) {
	l := New[int]()
	for i := range 1000 {
		l.Add(fmt.Sprintf("route-%d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Get("route-500")
	}
}
