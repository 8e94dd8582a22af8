package store

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/weavetest/assert"
)

// TestStoreConstructor returns a fresh store and a function that releases
// all resources it holds.
type TestStoreConstructor func() (base custody.CacheableKVStore, cleanup func())

// TestSuite runs checks that are generic to the CacheableKVStore interface so
// that every implementation is tested the same way.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// NewTestSuite returns a suite that tests stores created by constructor.
func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that writes are visible in the cache but not in the base
// until written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.assertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.assertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.assertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, cache.Set(k2, v2))
	s.assertGetHas(t, cache, k2, v2, true)
	s.assertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Delete(k))
	s.assertGetHas(t, cache, k, nil, false)
	s.assertGetHas(t, base, k, v, true)

	assert.Nil(t, cache.Write())
	s.assertGetHas(t, base, k, nil, false)
	s.assertGetHas(t, base, k2, v2, true)
}

// Discard checks that discarded changes never reach the base.
func (s *TestSuite) Discard(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	assert.Nil(t, base.Set([]byte("a"), []byte("1")))

	cache := base.CacheWrap()
	assert.Nil(t, cache.Set([]byte("b"), []byte("2")))
	assert.Nil(t, cache.Delete([]byte("a")))
	cache.Discard()

	s.assertGetHas(t, base, []byte("a"), []byte("1"), true)
	s.assertGetHas(t, base, []byte("b"), nil, false)
}

// Iterate checks ordering and range bounds of both iterators, combining
// data from the base and two levels of cache.
func (s *TestSuite) Iterate(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	for _, k := range []string{"a", "c", "e", "g"} {
		assert.Nil(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	assert.Nil(t, cache.Set([]byte("b"), []byte("cache-b")))
	assert.Nil(t, cache.Set([]byte("c"), []byte("cache-c")))
	assert.Nil(t, cache.Delete([]byte("e")))
	inner := cache.CacheWrap()
	assert.Nil(t, inner.Set([]byte("f"), []byte("inner-f")))
	assert.Nil(t, inner.Delete([]byte("a")))

	cases := map[string]struct {
		reverse    bool
		start, end []byte
		want       []string
	}{
		"full ascending": {
			want: []string{"b=cache-b", "c=cache-c", "f=inner-f", "g=base-g"},
		},
		"full descending": {
			reverse: true,
			want:    []string{"g=base-g", "f=inner-f", "c=cache-c", "b=cache-b"},
		},
		"bounded ascending": {
			start: []byte("c"),
			end:   []byte("g"),
			want:  []string{"c=cache-c", "f=inner-f"},
		},
		"bounded descending": {
			reverse: true,
			start:   []byte("b"),
			end:     []byte("f"),
			want:    []string{"c=cache-c", "b=cache-b"},
		},
		"open start": {
			end:  []byte("c"),
			want: []string{"b=cache-b"},
		},
		"open end": {
			start: []byte("d"),
			want:  []string{"f=inner-f", "g=base-g"},
		},
		"empty range": {
			start: []byte("x"),
			want:  nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  custody.Iterator
				err error
			)
			if tc.reverse {
				it, err = inner.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = inner.Iterator(tc.start, tc.end)
			}
			assert.Nil(t, err)
			models, err := ReadAll(it)
			assert.Nil(t, err)

			var got []string
			for _, m := range models {
				got = append(got, string(m.Key)+"="+string(m.Value))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func (s *TestSuite) assertGetHas(t testing.TB, kv custody.ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}
