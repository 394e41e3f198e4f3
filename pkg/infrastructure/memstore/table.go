package memstore

import "sort"

// Table is a keyed collection of values. It does no locking of its own:
// touch it only inside Store.Read, Store.Write or Store.WithinTx.
type Table[K comparable, V any] struct {
	rows map[K]V
}

func NewTable[K comparable, V any](store *Store) *Table[K, V] {
	t := &Table[K, V]{rows: make(map[K]V)}
	store.register(t)
	return t
}

func (t *Table[K, V]) snapshot() func() {
	saved := make(map[K]V, len(t.rows))
	for k, v := range t.rows {
		saved[k] = v
	}
	return func() { t.rows = saved }
}

func (t *Table[K, V]) Get(key K) (V, bool) {
	v, ok := t.rows[key]
	return v, ok
}

func (t *Table[K, V]) Put(key K, value V) {
	t.rows[key] = value
}

func (t *Table[K, V]) Delete(key K) bool {
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	return true
}

func (t *Table[K, V]) Len() int {
	return len(t.rows)
}

// Filter returns the values accepted by keep, ordered by less.
func (t *Table[K, V]) Filter(keep func(V) bool, less func(a, b V) bool) []V {
	out := make([]V, 0)
	for _, v := range t.rows {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	if less != nil {
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}
