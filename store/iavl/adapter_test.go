package iavl

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest/assert"
)

// cacheConstructor returns a cache wrap over a fresh in memory tree, so the
// generic suite runs through the tree adapter.
func cacheConstructor() (custody.CacheableKVStore, func()) {
	commit := MockCommitStore()
	return commit.CacheWrap(), commit.Close
}

func TestIavlGetSet(t *testing.T) {
	store.NewTestSuite(cacheConstructor).GetSet(t)
}

func TestIavlDiscard(t *testing.T) {
	store.NewTestSuite(cacheConstructor).Discard(t)
}

func TestIavlIterate(t *testing.T) {
	store.NewTestSuite(cacheConstructor).Iterate(t)
}

func TestCommitVersions(t *testing.T) {
	commit := MockCommitStore()
	defer commit.Close()

	assert.Nil(t, commit.LoadLatestVersion())
	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)

	cache := commit.CacheWrap()
	assert.Nil(t, cache.Set([]byte("escrow"), []byte("config")))

	// Not written yet, so not visible in the tree.
	got, err := commit.Get([]byte("escrow"))
	assert.Nil(t, err)
	if got != nil {
		t.Fatalf("unexpected value %q", got)
	}

	assert.Nil(t, cache.Write())
	first, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), first.Version)
	if len(first.Hash) == 0 {
		t.Fatal("missing hash")
	}

	got, err = commit.Get([]byte("escrow"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("config"), got)

	cache = commit.CacheWrap()
	assert.Nil(t, cache.Delete([]byte("escrow")))
	assert.Nil(t, cache.Write())
	second, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), second.Version)

	latest, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, second.Version, latest.Version)
}
