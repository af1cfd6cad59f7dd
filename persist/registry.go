package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hidal-go/dblist/base"
)

// ErrUnknownBackend is returned by Open for backends that are not registered.
var ErrUnknownBackend = errors.New("persist: unknown backend")

// OpenFunc opens a provider with given options.
type OpenFunc func(ctx context.Context, opts Options) (Provider, error)

// Registration is an information about the persistence backend.
type Registration struct {
	base.Registration
	Open OpenFunc
}

var registry = make(map[string]Registration)

// Register globally registers a persistence backend.
func Register(reg Registration) {
	reg.Validate(func(name string) bool {
		_, ok := registry[name]
		return ok
	})
	if reg.Open == nil {
		panic("open function must be set for " + reg.Name)
	}
	registry[reg.Name] = reg
}

// List enumerates all globally registered persistence backends.
func List() []Registration {
	out := make([]Registration, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// ByName returns a registered persistence backend by it's name.
func ByName(name string) *Registration {
	r, ok := registry[name]
	if !ok {
		return nil
	}
	return &r
}

// Open opens a provider for the backend selected in options.
func Open(ctx context.Context, opts Options) (Provider, error) {
	name := opts.Backend
	if name == "" {
		name = DefaultBackend
	}
	r := ByName(name)
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	p, err := r.Open(ctx, opts)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	return p, nil
}
