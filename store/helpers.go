package store

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// PrefixEnd returns the smallest key greater than every key starting with
// given prefix, suitable as an exclusive iterator end. It returns nil when
// no such key exists (prefix of 0xFF bytes only).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// ReadAll consumes given iterator and returns all of its entries. The
// iterator is released.
func ReadAll(it custody.Iterator) ([]custody.Model, error) {
	defer it.Release()

	var res []custody.Model
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, custody.Pair(key, value))
	}
}

// PrefixModels returns all entries whose key starts with given prefix.
func PrefixModels(db custody.ReadOnlyKVStore, prefix []byte) ([]custody.Model, error) {
	it, err := db.Iterator(prefix, PrefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	return ReadAll(it)
}
