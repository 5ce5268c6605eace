// Package store persists the owner-scoped records that outlive a
// process: public room aliases and remote screen registrations. Rooms
// themselves are deliberately not stored; they live and die with their
// connections.
package store

import (
	"github.com/dgraph-io/badger/v4"
)

// Open opens the record database at dir. Badger's own logger is too
// chatty for this process; zerolog covers the interesting events.
func Open(dir string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenInMemory backs the stores with a throwaway in-memory instance.
func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}
