package domain

import "strings"

// Store is the ordered collection of all catalogued PCs. PC names are unique
// under case-insensitive comparison. Store is not safe for concurrent use.
type Store struct {
	pcs []*PC
}

// NewStore builds a Store from pcs in order, dropping any PC whose name
// repeats an earlier one.
func NewStore(pcs ...*PC) *Store {
	s := &Store{}
	for _, pc := range pcs {
		if pc == nil || s.HasPC(pc.Name()) {
			continue
		}
		s.pcs = append(s.pcs, pc)
	}
	return s
}

// Len returns the number of PCs.
func (s *Store) Len() int { return len(s.pcs) }

// PCs returns the PCs in order. The slice is a copy, the PCs are not.
func (s *Store) PCs() []*PC { return append([]*PC(nil), s.pcs...) }

// Names returns the PC names in order.
func (s *Store) Names() []string {
	names := make([]string, len(s.pcs))
	for i, pc := range s.pcs {
		names[i] = pc.Name()
	}
	return names
}

func (s *Store) indexOf(name string) int {
	for i, pc := range s.pcs {
		if strings.EqualFold(pc.Name(), name) {
			return i
		}
	}
	return -1
}

// AddPC appends a new PC unless one with the same name exists.
func (s *Store) AddPC(name string, components Components) bool {
	if s.HasPC(name) {
		return false
	}
	s.pcs = append(s.pcs, NewPC(name, components))
	return true
}

// PC returns the stored PC matching name. Mutating it mutates the Store.
func (s *Store) PC(name string) (*PC, bool) {
	if i := s.indexOf(name); i >= 0 {
		return s.pcs[i], true
	}
	return nil, false
}

// RemovePC deletes the PC matching name.
func (s *Store) RemovePC(name string) bool {
	i := s.indexOf(name)
	if i < 0 {
		return false
	}
	s.pcs = append(s.pcs[:i], s.pcs[i+1:]...)
	return true
}

// HasPC reports whether a PC matching name exists.
func (s *Store) HasPC(name string) bool { return s.indexOf(name) >= 0 }

// MovePCUp moves the named PC one position toward the front.
func (s *Store) MovePCUp(name string) bool {
	i := s.indexOf(name)
	if i <= 0 {
		return false
	}
	s.pcs = Reorder(s.pcs, i, i-1, ShiftUp)
	return true
}

// MovePCDown moves the named PC one position toward the end.
func (s *Store) MovePCDown(name string) bool {
	i := s.indexOf(name)
	if i < 0 || i == len(s.pcs)-1 {
		return false
	}
	s.pcs = Reorder(s.pcs, i, i+1, ShiftDown)
	return true
}
