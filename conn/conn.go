// Package conn defines the contract between the registry and SQL connection drivers.
//
// Drivers register themselves by name from init, the same way database/sql drivers do,
// and are resolved from the sqlModule field of a connection record.
package conn

import (
	"context"
	"errors"
)

var (
	// ErrNotOpen is returned when a connection is used before Open.
	ErrNotOpen = errors.New("conn: connection is not open")
	// ErrTableNotFound is returned by TableDescriptor for tables and views that does not exist.
	ErrTableNotFound = errors.New("conn: table does not exist")
)

// Kinds of database objects reported by TableInfo.XType.
const (
	XTypeTable = "T"
	XTypeView  = "V"
)

// Info holds the parameters needed to open a connection to a named database.
// It's stored in the registry as is; only SQLModule is interpreted by the registry.
type Info struct {
	Server   string `json:"server,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Pwd      string `json:"pwd,omitempty"`
	Database string `json:"database,omitempty"`
	// DefaultSchema is the schema used for introspection. Drivers pick their own default.
	DefaultSchema string `json:"defaultSchema,omitempty"`
	// UseTrustedConnection asks the driver to authenticate with the OS identity.
	UseTrustedConnection bool `json:"useTrustedConnection,omitempty"`
	// ConnectionString replaces all of the fields above when set.
	ConnectionString string `json:"connectionString,omitempty"`
	// Driver is a driver-specific sub-driver name, like an ODBC driver.
	Driver string `json:"driver,omitempty"`
	// SQLModule is the registered name of the connection driver.
	SQLModule string `json:"sqlModule"`
	// Options are passed to the driver unchanged.
	Options map[string]string `json:"options,omitempty"`
	// DBCode is set by the registry on the copy handed to the driver.
	DBCode string `json:"dbCode,omitempty"`
}

// Clone returns a deep copy of the record.
func (i Info) Clone() Info {
	if i.Options != nil {
		opts := make(map[string]string, len(i.Options))
		for k, v := range i.Options {
			opts[k] = v
		}
		i.Options = opts
	}
	return i
}

// Trusted reports whether the connection should use the OS identity.
// It's assumed when no user name is provided.
func (i Info) Trusted() bool {
	return i.UseTrustedConnection || (i.User == "" && i.ConnectionString == "")
}

// Column describes a single column of a table or a view.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	MaxLength  int    `json:"max_length"` // size in bytes
	Precision  int    `json:"precision"`  // integer digits
	Scale      int    `json:"scale"`      // decimal digits
	IsNullable bool   `json:"is_nullable"`
	PK         bool   `json:"pk"`
}

// TableInfo is the result of introspecting a single table or view.
type TableInfo struct {
	TableName string   `json:"tableName"`
	XType     string   `json:"xtype"` // XTypeTable or XTypeView
	IsDbo     bool     `json:"isDbo"`
	Columns   []Column `json:"columns"`
}

// Introspector describes tables of a database.
type Introspector interface {
	// TableDescriptor reads the structure of a table or a view.
	// It returns an error wrapping ErrTableNotFound if the object does not exist.
	TableDescriptor(ctx context.Context, tableName string) (*TableInfo, error)
}

// Connection is a connection to a single database, as returned by a driver.
type Connection interface {
	Introspector
	// Open establishes the connection. Drivers must not connect before Open.
	Open(ctx context.Context) error
	// Run executes a script that returns no rows.
	Run(ctx context.Context, script string) error
	// Destroy closes the connection. It's safe to call it on a connection that was never opened.
	Destroy() error
}
