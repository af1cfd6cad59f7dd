package dblist

import (
	"context"

	"github.com/hidal-go/dblist/conn"
)

// DataAccess is an open connection to a registered database.
type DataAccess struct {
	code  string
	c     conn.Connection
	descr *DbDescriptor
}

func newDataAccess(code string, c conn.Connection) *DataAccess {
	return &DataAccess{code: code, c: c, descr: NewDbDescriptor(c)}
}

// DbCode returns the code the connection was resolved for.
func (a *DataAccess) DbCode() string {
	return a.code
}

// Conn returns the underlying open connection.
func (a *DataAccess) Conn() conn.Connection {
	return a.c
}

// Run executes a script that returns no rows.
func (a *DataAccess) Run(ctx context.Context, script string) error {
	return a.c.Run(ctx, script)
}

// Descriptor returns a table cache bound to this connection.
// It's separate from the one returned by Registry.Descriptor.
func (a *DataAccess) Descriptor() *DbDescriptor {
	return a.descr
}

// Close destroys the connection.
func (a *DataAccess) Close() error {
	return a.c.Destroy()
}
