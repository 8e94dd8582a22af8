package store

import (
	"bytes"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// mergeIterator combines cached items with the iterator of the store below.
// Cached entries take precedence and deleted entries hide the parent value.
type mergeIterator struct {
	items     []keyer
	parent    custody.Iterator
	ascending bool

	// peeked parent entry
	pKey, pValue []byte
	pLoaded      bool
	pDone        bool
}

var _ custody.Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []keyer, parent custody.Iterator, ascending bool) *mergeIterator {
	return &mergeIterator{
		items:     items,
		parent:    parent,
		ascending: ascending,
	}
}

// before returns true if key a comes before key b in the iteration order.
func (m *mergeIterator) before(a, b []byte) bool {
	cmp := bytes.Compare(a, b)
	if m.ascending {
		return cmp < 0
	}
	return cmp > 0
}

func (m *mergeIterator) peekParent() error {
	if m.pLoaded || m.pDone {
		return nil
	}
	key, value, err := m.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		m.pDone = true
		return nil
	case err != nil:
		return err
	}
	m.pKey, m.pValue, m.pLoaded = key, value, true
	return nil
}

// Next returns the next visible entry.
func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		if err := m.peekParent(); err != nil {
			return nil, nil, errors.Wrap(err, "parent iterator")
		}

		if len(m.items) == 0 {
			if m.pDone {
				return nil, nil, errors.ErrIteratorDone
			}
			m.pLoaded = false
			return m.pKey, m.pValue, nil
		}

		item := m.items[0]
		if !m.pDone && m.before(m.pKey, item.Key()) {
			m.pLoaded = false
			return m.pKey, m.pValue, nil
		}

		// The cached item is next. It shadows a parent entry with the
		// same key.
		m.items = m.items[1:]
		if !m.pDone && bytes.Equal(m.pKey, item.Key()) {
			m.pLoaded = false
		}
		if s, ok := item.(setItem); ok {
			return s.key, s.value, nil
		}
	}
}

// Release releases the parent iterator.
func (m *mergeIterator) Release() {
	m.items = nil
	m.parent.Release()
}

// SliceIterator wraps an Iterator over a slice of models.
type SliceIterator struct {
	data []custody.Model
	idx  int
}

var _ custody.Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice.
func NewSliceIterator(data []custody.Model) *SliceIterator {
	return &SliceIterator{
		data: data,
	}
}

// Next returns the next model or ErrIteratorDone.
func (s *SliceIterator) Next() (key, value []byte, err error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[s.idx]
	s.idx++
	return m.Key, m.Value, nil
}

// Release releases the Iterator.
func (s *SliceIterator) Release() {
	s.data = nil
}

// EmptyKVStore never holds any data, used as a base layer to test caching.
type EmptyKVStore struct{}

var _ custody.KVStore = EmptyKVStore{}

// Get always returns nil.
func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }

// Has always returns false.
func (EmptyKVStore) Has(key []byte) (bool, error) { return false, nil }

// Set is a noop.
func (EmptyKVStore) Set(key, value []byte) error { return nil }

// Delete is a noop.
func (EmptyKVStore) Delete(key []byte) error { return nil }

// Iterator is always empty.
func (EmptyKVStore) Iterator(start, end []byte) (custody.Iterator, error) {
	return NewSliceIterator(nil), nil
}

// ReverseIterator is always empty.
func (EmptyKVStore) ReverseIterator(start, end []byte) (custody.Iterator, error) {
	return NewSliceIterator(nil), nil
}
