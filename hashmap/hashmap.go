// Package hashmap implements a chained hash map from string keys to values the
// map does not own. It backs both the handler registry and the per-request
// header table of the http package.
package hashmap

import (
	"errors"
	"math"
)

var (
	ErrInvalid  = errors.New("hashmap: invalid handle")
	ErrTooLarge = errors.New("hashmap: bucket count overflow")
)

// Entry is the user facing portion of a map entry. Key and Value belong to the
// caller: the map never copies or releases them.
type Entry[V any] struct {
	Key   string
	Value V
}

type link[V any] struct {
	Entry[V]
	next *link[V]
	hash uint
}

// Map is a singly linked hash map whose bucket count is always prime.
type Map[V any] struct {
	tab   []*link[V]
	count int
}

// New creates an empty map with the smallest prime number of buckets that is
// at least max(capacity, 1).
func New[V any](capacity int) *Map[V] {
	if capacity < 1 {
		capacity = 1
	}

	size := nextPrime(uint(capacity))
	return &Map[V]{
		tab: make([]*link[V], size),
	}
}

func (m *Map[V]) valid() error {
	if m == nil || m.tab == nil || len(m.tab) == 0 {
		return ErrInvalid
	}
	return nil
}

// Len returns the number of live entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}

// Buckets returns the current bucket count.
func (m *Map[V]) Buckets() int {
	if m == nil {
		return 0
	}
	return len(m.tab)
}

func hash(key string) uint {
	var h uint
	for i := 0; i < len(key); i++ {
		h = h*31 + uint(key[i])
	}
	return h
}

func (m *Map[V]) lookup(key string, h uint) *link[V] {
	for p := m.tab[h%uint(len(m.tab))]; p != nil; p = p.next {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// Get returns the entry stored under key.
func (m *Map[V]) Get(key string) (*Entry[V], bool) {
	if m.valid() != nil {
		return nil, false
	}

	p := m.lookup(key, hash(key))
	if p == nil {
		return nil, false
	}
	return &p.Entry, true
}

// Set stores value under key. When key is already present its value is
// overwritten in place, the existing entry is returned and replaced is true;
// the previous value is not released. Otherwise a new entry is linked at the
// head of its bucket, growing the map first when it holds as many entries as
// it has buckets.
func (m *Map[V]) Set(key string, value V) (entry *Entry[V], replaced bool, err error) {
	if err := m.valid(); err != nil {
		return nil, false, err
	}

	h := hash(key)
	if p := m.lookup(key, h); p != nil {
		p.Value = value
		return &p.Entry, true, nil
	}

	if m.count == len(m.tab) {
		if err := m.grow(); err != nil {
			return nil, false, err
		}
	}

	i := h % uint(len(m.tab))
	p := &link[V]{
		Entry: Entry[V]{Key: key, Value: value},
		next:  m.tab[i],
		hash:  h,
	}
	m.tab[i] = p
	m.count++

	return &p.Entry, false, nil
}

// grow relinks every entry into a table of the next prime at least twice the
// current size. The old table is only replaced once every entry has moved.
func (m *Map[V]) grow() error {
	size := uint(len(m.tab))
	if size > math.MaxInt/2 {
		return ErrTooLarge
	}

	newsize := nextPrime(size * 2)
	newtab := make([]*link[V], newsize)

	for i := range m.tab {
		var next *link[V]
		for p := m.tab[i]; p != nil; p = next {
			next = p.next
			j := p.hash % newsize
			p.next = newtab[j]
			newtab[j] = p
		}
	}

	m.tab = newtab
	return nil
}

// ForEach calls fn once for every live entry, bucket by bucket. The order is
// stable for a given insertion history but is not insertion order.
func (m *Map[V]) ForEach(fn func(entry *Entry[V])) error {
	if err := m.valid(); err != nil {
		return err
	}

	seen := 0
	for i := 0; seen < m.count && i < len(m.tab); i++ {
		for p := m.tab[i]; p != nil; p = p.next {
			fn(&p.Entry)
			seen++
		}
	}

	return nil
}

// Destroy unlinks every entry and drops the bucket array. Keys and values are
// left alone; release them with ForEach before calling Destroy. The map is an
// invalid handle afterwards.
func (m *Map[V]) Destroy() {
	if m == nil {
		return
	}

	for i := range m.tab {
		var next *link[V]
		for p := m.tab[i]; p != nil; p = next {
			next = p.next
			p.next = nil
		}
		m.tab[i] = nil
	}

	m.tab = nil
	m.count = 0
}
