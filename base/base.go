// Package base holds the pieces shared by every registry in dblist:
// storage backends, persistence providers and connection drivers.
package base

// Closer is implemented by anything that holds an open resource.
type Closer interface {
	// Close releases the resource. Calling it twice must not fail.
	Close() error
}
