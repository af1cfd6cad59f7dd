package base

import "errors"

var (
	// ErrVolatile is returned when trying to pass a path for opening an in-memory store.
	ErrVolatile = errors.New("store is in-memory")
)

var _ error = ErrRegistered{}

// ErrRegistered is thrown when trying to register a driver or a backend with a name that is already taken.
type ErrRegistered struct {
	Name string
}

func (e ErrRegistered) Error() string {
	return "already registered: " + e.Name
}
