package conn

import "fmt"

var _ error = (*ErrResolution)(nil)

// ErrResolution is returned when a connection driver cannot be resolved by name.
type ErrResolution struct {
	Name   string // requested driver name
	Reason string
}

func (e *ErrResolution) Error() string {
	return fmt.Sprintf("conn: cannot resolve driver %q: %s", e.Name, e.Reason)
}

// TableNotFound returns an error for a missing table that matches ErrTableNotFound.
func TableNotFound(name string) error {
	return fmt.Errorf("table %q does not exist: %w", name, ErrTableNotFound)
}
