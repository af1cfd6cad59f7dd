package sqldrv

import (
	"strings"

	"github.com/hidal-go/dblist/conn"
)

// ErrorFunc converts driver-specific errors, for example to conn.ErrTableNotFound.
type ErrorFunc func(err error) error

// Dialect describes how to connect to a particular SQL database and how to introspect it.
type Dialect struct {
	// Driver is a database/sql driver name.
	Driver string
	// DSN builds a Data Source Name for a connection record.
	DSN func(info conn.Info) (string, error)
	// DefaultSchema will be used to query table metadata.
	// If not set, defaults to the database name.
	DefaultSchema string
	// TableQuery returns a single row (kind, is_dbo) for a table or a view.
	// Two parameters will be passed to the query: current schema and the table name.
	TableQuery string
	// ColumnsQuery lists columns in their order:
	// name, type, max_length, precision, scale, is_nullable, pk.
	// Parameters are the same as for TableQuery.
	ColumnsQuery string
	// XType maps kind returned by TableQuery to conn.XTypeTable or conn.XTypeView.
	XType func(kind string) string
	// Errors converts driver errors.
	Errors ErrorFunc
	// Split breaks a script into batches that are executed one by one.
	Split func(script string) []string
}

// SetDefaults fills optional fields.
func (d *Dialect) SetDefaults() {
	if d.XType == nil {
		d.XType = InfoSchemaXType
	}
	if d.Split == nil {
		d.Split = func(s string) []string {
			return []string{s}
		}
	}
}

// InfoSchemaXType maps information_schema.tables.table_type values.
func InfoSchemaXType(kind string) string {
	if strings.EqualFold(strings.TrimSpace(kind), "VIEW") {
		return conn.XTypeView
	}
	return conn.XTypeTable
}

// SplitBatches splits a script on lines that consist of a separator only, like GO for SQL Server.
// Empty batches are dropped.
func SplitBatches(script, sep string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, line := range strings.Split(script, "\n") {
		if strings.EqualFold(strings.TrimSpace(line), sep) {
			flush()
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	flush()
	return out
}
