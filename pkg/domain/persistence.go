package domain

import "context"

// PersistentStore is the contract every storage driver fulfils. A driver
// keeps three generations of the encoded document: the live one and two
// rolling backups.
type PersistentStore interface {
	// Load returns the persisted Store. A missing, empty or malformed
	// document yields an empty Store and a nil error.
	Load(ctx context.Context) (*Store, error)
	// Save fully replaces the live document with s.
	Save(ctx context.Context, s *Store) error
	// Backup copies the first backup over the second one, then the live
	// document over the first backup. Without a live document it does
	// nothing.
	Backup(ctx context.Context) error
}
