// Package lines provides an insertion-ordered map keyed by major line id.
//
// Every stage of the release decision passes its per-line results through a
// Map so that iteration order is stable from one run to the next.
package lines

// Map is an insertion-ordered map from major line id (e.g. "18") to V.
//
// The zero value is ready to use. Values are copied in and out; callers that
// need mutation should Set a new value.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// New returns an empty map.
func New[V any]() *Map[V] {
	return &Map[V]{values: make(map[string]V)}
}

// Set stores value under line. A new line is appended to the iteration order;
// an existing line keeps its position.
func (m *Map[V]) Set(line string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, ok := m.values[line]; !ok {
		m.keys = append(m.keys, line)
	}
	m.values[line] = value
}

// Get returns the value for line and whether it was present.
func (m *Map[V]) Get(line string) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[line]
	return v, ok
}

// Has reports whether line is present.
func (m *Map[V]) Has(line string) bool {
	_, ok := m.Get(line)
	return ok
}

// Keys returns a copy of the lines in insertion order.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of lines.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in insertion order. Iteration stops early
// when fn returns false.
func (m *Map[V]) Each(fn func(line string, value V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}
