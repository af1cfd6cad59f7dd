package dblist

import "errors"

var (
	// ErrNotInitialized is returned by mutating calls on a registry without a provider.
	ErrNotInitialized = errors.New("dblist: registry is not initialized")
	// ErrUnknownDB is returned by DataAccess for a dbCode that is not in the registry.
	ErrUnknownDB = errors.New("dblist: unknown database")
)
