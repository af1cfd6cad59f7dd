package conn

import (
	"sort"

	"github.com/hidal-go/dblist/base"
)

// NewFunc creates an unopened connection for a given record.
type NewFunc func(info Info) (Connection, error)

// Registration is an information about the connection driver.
type Registration struct {
	base.Registration
	New NewFunc
}

// LookupFunc finds a driver by name. ByName is the default one.
type LookupFunc func(name string) *Registration

var registry = make(map[string]Registration)

// Register globally registers a connection driver.
func Register(reg Registration) {
	reg.Validate(func(name string) bool {
		_, ok := registry[name]
		return ok
	})
	registry[reg.Name] = reg
}

// List enumerates all globally registered connection drivers.
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

// ByName returns a registered connection driver by it's name.
func ByName(name string) *Registration {
	r, ok := registry[name]
	if !ok {
		return nil
	}
	return &r
}

// New resolves the driver named by info.SQLModule and creates an unopened connection.
// If lookup is nil, globally registered drivers are used.
func New(lookup LookupFunc, info Info) (Connection, error) {
	if lookup == nil {
		lookup = ByName
	}
	if info.SQLModule == "" {
		return nil, &ErrResolution{Reason: "driver name is not set"}
	}
	r := lookup(info.SQLModule)
	if r == nil {
		return nil, &ErrResolution{Name: info.SQLModule, Reason: "not registered"}
	} else if r.New == nil {
		return nil, &ErrResolution{Name: info.SQLModule, Reason: "no connection constructor"}
	}
	return r.New(info.Clone())
}
