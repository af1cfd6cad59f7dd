// Package postgres registers a connection driver for PostgreSQL based on lib/pq.
package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lib/pq"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/driver/sqldrv"
)

const Name = "postgres"

// DefaultSchema is used for introspection when the record has none.
const DefaultSchema = "public"

const (
	// TableQuery reports a table kind and whether it lives in the default schema.
	TableQuery = `SELECT t.table_type::text, CASE WHEN t.table_schema = 'public' THEN 1 ELSE 0 END
FROM information_schema.tables t
WHERE t.table_schema = $1 AND t.table_name = $2`

	// ColumnsQuery lists columns with primary key flags, in ordinal order.
	ColumnsQuery = `SELECT c.column_name::text, c.data_type::text,
  COALESCE(c.character_octet_length, 0)::int,
  COALESCE(c.numeric_precision, 0)::int,
  COALESCE(c.numeric_scale, 0)::int,
  CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END,
  CASE WHEN EXISTS (
    SELECT 1 FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema AND tc.table_name = c.table_name
      AND kcu.column_name = c.column_name
  ) THEN 1 ELSE 0 END
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`
)

// UndefinedTable is the SQLSTATE for a missing relation.
const UndefinedTable = "42P01"

func init() {
	sqldrv.Register(Name, "PostgreSQL", Dialect())
}

// Dialect returns the PostgreSQL dialect for lib/pq.
func Dialect() sqldrv.Dialect {
	return sqldrv.Dialect{
		Driver:        "postgres",
		DSN:           DSN,
		DefaultSchema: DefaultSchema,
		TableQuery:    TableQuery,
		ColumnsQuery:  ColumnsQuery,
		Errors: func(err error) error {
			var e *pq.Error
			if errors.As(err, &e) && e.Code == UndefinedTable {
				return fmt.Errorf("%s: %w", e.Message, conn.ErrTableNotFound)
			}
			return err
		},
	}
}

// DSN builds a postgres:// URL. Driver options are passed as query parameters.
func DSN(info conn.Info) (string, error) {
	if info.ConnectionString != "" {
		return info.ConnectionString, nil
	}
	if info.Server == "" {
		return "", errors.New("postgres: server is not set")
	}
	host := info.Server
	if info.Port != 0 {
		host += ":" + strconv.Itoa(info.Port)
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + info.Database}
	if info.User != "" {
		u.User = url.UserPassword(info.User, info.Pwd)
	}
	q := url.Values{}
	for k, v := range info.Options {
		q.Set(k, v)
	}
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
