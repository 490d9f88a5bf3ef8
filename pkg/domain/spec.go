package domain

import (
	"errors"
	"strings"
)

// Spec maps parameter names of one component to their values, e.g.
// "frequency" -> "4.8 GHz".
type Spec = OrderedMap[string]

// Components maps category names of a PC ("cpu", "gpu") to their Spec.
type Components = OrderedMap[Spec]

// ErrMalformedParam is returned by ParseSpecParam when a line has no
// "name: value" shape.
var ErrMalformedParam = errors.New("spec param must look like \"name: value\"")

// NewSpec builds a Spec from alternating name/value strings. A trailing name
// without a value is stored with an empty value.
func NewSpec(pairs ...string) Spec {
	var s Spec
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		s.Set(pairs[i], value)
	}
	return s
}

// ParseSpecParam splits a "name: value" line at its first colon. The name is
// right-trimmed and the value left-trimmed.
func ParseSpecParam(line string) (name, value string, err error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", ErrMalformedParam
	}
	name = strings.TrimRight(name, " \t")
	value = strings.TrimLeft(value, " \t")
	if strings.TrimSpace(name) == "" {
		return "", "", ErrMalformedParam
	}
	return name, value, nil
}

// CloneSpec returns a Spec that shares no storage with s.
func CloneSpec(s Spec) Spec {
	return Spec{entries: s.Entries()}
}

// CloneComponents deep-copies c including every nested Spec.
func CloneComponents(c Components) Components {
	out := Components{entries: make([]Entry[Spec], len(c.entries))}
	for i, e := range c.entries {
		out.entries[i] = Entry[Spec]{Key: e.Key, Value: CloneSpec(e.Value)}
	}
	return out
}
