package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// File names of the persisted document and its two backup generations.
const (
	StoreFileName        = "store.json"
	BackupFileName       = "store.bak.json"
	SecondBackupFileName = "store.bak2.json"
)

// ErrEmptyDocument is returned by ParseDocument for blank input.
var ErrEmptyDocument = errors.New("empty store document")

// EncodeDocument renders s as a JSON array holding one single-key object per
// PC, {"<name>": <components>}, in store order. The output is indented so
// the file stays readable by hand.
func EncodeDocument(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, pc := range s.pcs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(pc.name)
		if err != nil {
			return nil, err
		}
		components, err := json.Marshal(pc.components)
		if err != nil {
			return nil, fmt.Errorf("encode pc %q: %w", pc.name, err)
		}
		buf.WriteByte('{')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(components)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// ParseDocument decodes a store document. Only the first pair of each array
// element is read; empty elements are skipped and repeated names are dropped.
func ParseDocument(data []byte) (*Store, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	s := NewStore()
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		first := true
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected pc name, got %v", tok)
			}
			if !first {
				var skip json.RawMessage
				if err := dec.Decode(&skip); err != nil {
					return nil, err
				}
				continue
			}
			first = false
			var components Components
			if err := dec.Decode(&components); err != nil {
				return nil, fmt.Errorf("decode pc %q: %w", name, err)
			}
			s.AddPC(name, components)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after store document")
	}
	return s, nil
}

// DecodeDocument is ParseDocument that recovers from any decode failure with
// an empty Store.
func DecodeDocument(data []byte) *Store {
	s, err := ParseDocument(data)
	if err != nil {
		return NewStore()
	}
	return s
}
