// Package mssql registers a connection driver for Microsoft SQL Server.
package mssql

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/driver/sqldrv"
)

const Name = "mssql"

// DefaultSchema is used for introspection when the record has none.
const DefaultSchema = "dbo"

func init() {
	sqldrv.Register(Name, "Microsoft SQL Server", Dialect())
}

// Dialect returns the SQL Server dialect.
func Dialect() sqldrv.Dialect {
	return sqldrv.Dialect{
		Driver:        "sqlserver",
		DSN:           DSN,
		DefaultSchema: DefaultSchema,
		// tables and views are looked up by name in any schema, the default one first
		TableQuery: `SELECT TOP 1 o.type, CASE WHEN s.name = 'dbo' THEN 1 ELSE 0 END
FROM sys.objects o JOIN sys.schemas s ON s.schema_id = o.schema_id
WHERE o.name = @p2 AND o.type IN ('U', 'V')
ORDER BY CASE WHEN s.name = @p1 THEN 0 ELSE 1 END`,
		ColumnsQuery: `SELECT c.name, t.name, c.max_length, c.precision, c.scale,
  CAST(c.is_nullable AS int),
  CASE WHEN EXISTS (
    SELECT 1 FROM sys.indexes i
    JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
    WHERE i.object_id = c.object_id AND i.is_primary_key = 1 AND ic.column_id = c.column_id
  ) THEN 1 ELSE 0 END
FROM sys.columns c
JOIN sys.types t ON t.user_type_id = c.user_type_id
WHERE c.object_id = (
  SELECT TOP 1 o.object_id FROM sys.objects o JOIN sys.schemas s ON s.schema_id = o.schema_id
  WHERE o.name = @p2 AND o.type IN ('U', 'V')
  ORDER BY CASE WHEN s.name = @p1 THEN 0 ELSE 1 END
)
ORDER BY c.column_id`,
		XType: XType,
		Split: func(script string) []string {
			return sqldrv.SplitBatches(script, "GO")
		},
		Errors: func(err error) error {
			var e mssql.Error
			if errors.As(err, &e) && e.Number == 208 {
				return fmt.Errorf("%s: %w", e.Message, conn.ErrTableNotFound)
			}
			return err
		},
	}
}

// XType maps sys.objects.type to conn.XTypeTable or conn.XTypeView.
func XType(kind string) string {
	if len(kind) > 0 && kind[0] == 'V' {
		return conn.XTypeView
	}
	return conn.XTypeTable
}

// DSN builds a sqlserver:// URL. A trusted connection omits credentials,
// which makes the driver use integrated authentication.
func DSN(info conn.Info) (string, error) {
	if info.ConnectionString != "" {
		return info.ConnectionString, nil
	}
	if info.Server == "" {
		return "", errors.New("mssql: server is not set")
	}
	host := info.Server
	if info.Port != 0 {
		host += ":" + strconv.Itoa(info.Port)
	}
	u := &url.URL{Scheme: "sqlserver", Host: host}
	if !info.Trusted() {
		u.User = url.UserPassword(info.User, info.Pwd)
	}
	q := url.Values{}
	if info.Database != "" {
		q.Set("database", info.Database)
	}
	for k, v := range info.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
