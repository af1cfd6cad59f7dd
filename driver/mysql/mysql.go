// Package mysql registers a connection driver for MySQL.
package mysql

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/driver/sqldrv"
)

const Name = "mysql"

// errNoSuchTable is ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

func init() {
	sqldrv.Register(Name, "MySQL", Dialect())
}

// Dialect returns the MySQL dialect. Schema defaults to the database name.
func Dialect() sqldrv.Dialect {
	return sqldrv.Dialect{
		Driver: "mysql",
		DSN:    DSN,
		TableQuery: `SELECT table_type, 1
FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		ColumnsQuery: `SELECT column_name, data_type,
  COALESCE(character_octet_length, 0),
  COALESCE(numeric_precision, 0),
  COALESCE(numeric_scale, 0),
  CASE WHEN is_nullable = 'YES' THEN 1 ELSE 0 END,
  CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END
FROM information_schema.columns WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`,
		Errors: func(err error) error {
			var e *mysql.MySQLError
			if errors.As(err, &e) && e.Number == errNoSuchTable {
				return fmt.Errorf("%s: %w", e.Message, conn.ErrTableNotFound)
			}
			return err
		},
	}
}

// DSN builds a go-sql-driver DSN. Multi-statement scripts are enabled for Run.
func DSN(info conn.Info) (string, error) {
	if info.ConnectionString != "" {
		return info.ConnectionString, nil
	}
	if info.Server == "" {
		return "", errors.New("mysql: server is not set")
	}
	cfg := mysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Pwd
	cfg.Net = "tcp"
	cfg.Addr = info.Server
	if info.Port != 0 {
		cfg.Addr += ":" + strconv.Itoa(info.Port)
	}
	cfg.DBName = info.Database
	cfg.ParseTime = true
	cfg.MultiStatements = true
	if len(info.Options) != 0 {
		cfg.Params = make(map[string]string, len(info.Options))
		for k, v := range info.Options {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
