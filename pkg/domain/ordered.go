package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is a single key/value pair of an OrderedMap.
type Entry[V any] struct {
	Key   string
	Value V
}

// OrderedMap is a string-keyed mapping that keeps insertion order.
// Lookups compare keys case-insensitively while the stored key keeps the
// case it was first inserted with, so no two keys differ only by case.
// The zero value is an empty map ready for use.
type OrderedMap[V any] struct {
	entries []Entry[V]
}

// NewOrderedMap builds a map from entries in order. A later entry whose key
// matches an earlier one case-insensitively overwrites that value in place.
func NewOrderedMap[V any](entries ...Entry[V]) OrderedMap[V] {
	var m OrderedMap[V]
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Len returns the number of entries.
func (m OrderedMap[V]) Len() int { return len(m.entries) }

// Keys returns the stored keys in order.
func (m OrderedMap[V]) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in order. Values are copied
// shallowly.
func (m OrderedMap[V]) Entries() []Entry[V] {
	return append([]Entry[V](nil), m.entries...)
}

// IndexOf returns the position of key, or -1.
func (m OrderedMap[V]) IndexOf(key string) int {
	for i, e := range m.entries {
		if strings.EqualFold(e.Key, key) {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (m OrderedMap[V]) Has(key string) bool { return m.IndexOf(key) >= 0 }

// Get returns the value stored under key.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	if i := m.IndexOf(key); i >= 0 {
		return m.entries[i].Value, true
	}
	var zero V
	return zero, false
}

// StoredKey returns key as it was originally inserted.
func (m OrderedMap[V]) StoredKey(key string) (string, bool) {
	if i := m.IndexOf(key); i >= 0 {
		return m.entries[i].Key, true
	}
	return "", false
}

// Set overwrites the value of an existing key in place, keeping its stored
// case and position, or appends a new entry.
func (m *OrderedMap[V]) Set(key string, value V) {
	if i := m.IndexOf(key); i >= 0 {
		m.entries[i].Value = value
		return
	}
	m.entries = append(m.entries, Entry[V]{Key: key, Value: value})
}

// Insert appends key only when absent. It reports whether it did.
func (m *OrderedMap[V]) Insert(key string, value V) bool {
	if m.Has(key) {
		return false
	}
	m.entries = append(m.entries, Entry[V]{Key: key, Value: value})
	return true
}

// Replace overwrites the value of an existing key. It never inserts.
func (m *OrderedMap[V]) Replace(key string, value V) bool {
	i := m.IndexOf(key)
	if i < 0 {
		return false
	}
	m.entries[i].Value = value
	return true
}

// Delete removes key and reports whether it was present.
func (m *OrderedMap[V]) Delete(key string) bool {
	i := m.IndexOf(key)
	if i < 0 {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return true
}

// MoveUp moves key one position toward the front.
func (m *OrderedMap[V]) MoveUp(key string) bool {
	i := m.IndexOf(key)
	if i <= 0 {
		return false
	}
	m.entries = Reorder(m.entries, i, i-1, ShiftUp)
	return true
}

// MoveDown moves key one position toward the end.
func (m *OrderedMap[V]) MoveDown(key string) bool {
	i := m.IndexOf(key)
	if i < 0 || i == len(m.entries)-1 {
		return false
	}
	m.entries = Reorder(m.entries, i, i+1, ShiftDown)
	return true
}

// valueAt returns a pointer to the value stored under key so nested maps can
// be mutated in place.
func (m *OrderedMap[V]) valueAt(key string) (*V, bool) {
	i := m.IndexOf(key)
	if i < 0 {
		return nil, false
	}
	return &m.entries[i].Value, true
}

// MarshalJSON encodes the map as a JSON object with keys in order.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the document's key order.
// A null document yields an empty map.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	m.entries = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		m.Set(key, value)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
