// Package sqldrv implements conn.Connection on top of database/sql.
// Concrete databases are described with a Dialect.
package sqldrv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
)

// Register globally registers a connection driver for a dialect.
func Register(name, title string, dia Dialect) {
	conn.Register(conn.Registration{
		Registration: base.Registration{
			Name: name, Title: title,
			Local: false, Volatile: false,
		},
		New: NewFunc(dia),
	})
}

// NewFunc returns a connection constructor for a dialect.
func NewFunc(dia Dialect) conn.NewFunc {
	return func(info conn.Info) (conn.Connection, error) {
		return New(info, dia), nil
	}
}

var _ conn.Connection = (*Conn)(nil)

// New creates an unopened connection.
func New(info conn.Info, dia Dialect) *Conn {
	dia.SetDefaults()
	return &Conn{info: info, dia: dia}
}

// Conn is a connection to a database through database/sql.
// It's safe for concurrent use; Destroy does not wait for running queries.
type Conn struct {
	info conn.Info
	dia  Dialect

	mu sync.RWMutex
	db *sql.DB
}

// DB returns the underlying database handle, or nil if the connection is not open.
func (c *Conn) DB() *sql.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Conn) Info() conn.Info {
	return c.info
}

func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	dsn, err := c.dia.DSN(c.info)
	if err != nil {
		return err
	}
	db, err := sql.Open(c.dia.Driver, dsn)
	if err != nil {
		return err
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return c.convError(err)
	}
	c.db = db
	return nil
}

func (c *Conn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	db := c.db
	c.db = nil
	return db.Close()
}

func (c *Conn) convError(err error) error {
	if err != nil && c.dia.Errors != nil {
		err = c.dia.Errors(err)
	}
	return err
}

// Schema returns the schema used for introspection.
func (c *Conn) Schema() string {
	if s := c.info.DefaultSchema; s != "" {
		return s
	}
	if s := c.dia.DefaultSchema; s != "" {
		return s
	}
	return c.info.Database
}

func (c *Conn) Run(ctx context.Context, script string) error {
	db := c.DB()
	if db == nil {
		return conn.ErrNotOpen
	}
	for _, batch := range c.dia.Split(script) {
		slog.Debug("exec", "db", c.info.DBCode, "sql", batch)
		if _, err := db.ExecContext(ctx, batch); err != nil {
			return c.convError(err)
		}
	}
	return nil
}

func (c *Conn) TableDescriptor(ctx context.Context, tableName string) (*conn.TableInfo, error) {
	db := c.DB()
	if db == nil {
		return nil, conn.ErrNotOpen
	}
	schema := c.Schema()
	slog.Debug("describe table", "db", c.info.DBCode, "schema", schema, "table", tableName)

	var (
		kind  string
		isDbo int64
	)
	err := db.QueryRowContext(ctx, c.dia.TableQuery, schema, tableName).Scan(&kind, &isDbo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conn.TableNotFound(tableName)
	} else if err != nil {
		return nil, c.convError(err)
	}
	cols, err := c.columns(ctx, db, schema, tableName)
	if err != nil {
		return nil, err
	}
	return &conn.TableInfo{
		TableName: tableName,
		XType:     c.dia.XType(kind),
		IsDbo:     isDbo != 0,
		Columns:   cols,
	}, nil
}

func (c *Conn) columns(ctx context.Context, db *sql.DB, schema, tableName string) ([]conn.Column, error) {
	rows, err := db.QueryContext(ctx, c.dia.ColumnsQuery, schema, tableName)
	if err != nil {
		return nil, c.convError(err)
	}
	defer rows.Close()
	return ScanColumns(rows)
}

// Rows is implemented by *sql.Rows and by row sets of other drivers.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// ScanColumns reads rows produced by a Dialect.ColumnsQuery.
func ScanColumns(rows Rows) ([]conn.Column, error) {
	var cols []conn.Column
	for rows.Next() {
		var (
			col                 conn.Column
			maxLen, prec, scale sql.NullInt64
			nullable, pk        int64
		)
		if err := rows.Scan(
			&col.Name, &col.Type, &maxLen, &prec, &scale, &nullable, &pk,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.MaxLength = int(maxLen.Int64)
		col.Precision = int(prec.Int64)
		col.Scale = int(scale.Int64)
		col.IsNullable = nullable != 0
		col.PK = pk != 0
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}
