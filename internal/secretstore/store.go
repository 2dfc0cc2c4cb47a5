// Package secretstore persists account credentials through a pluggable
// secure-store contract. The default implementation keeps secrets in a
// permission-restricted JSON file; platform keychains can be plugged in
// behind the same interface.
package secretstore

import "errors"

// ErrNotFound is returned by Load when the store has no entry for a key.
var ErrNotFound = errors.New("secretstore: entry not found")

// Store is the secure credential persistence contract. Each entry is a
// (key, user, secret) triple, mirroring service/username/password records of
// OS secret stores.
type Store interface {
	// Ok reports whether the backing store is usable. A false result means
	// the application degrades to "do not persist" rather than failing.
	Ok() bool

	// Save persists secret under key with an associated user field. An empty
	// secret overwrites (forgets) any previous value.
	Save(key, user, secret string) error

	// Load retrieves the user and secret stored under key. Missing entries
	// return ErrNotFound.
	Load(key string) (user, secret string, err error)
}
