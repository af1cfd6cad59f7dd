// Package pgx registers a native PostgreSQL connection driver based on a pgx connection pool.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/driver/postgres"
	"github.com/hidal-go/dblist/driver/sqldrv"
)

const Name = "pgx"

func init() {
	conn.Register(conn.Registration{
		Registration: base.Registration{
			Name: Name, Title: "PostgreSQL (pgx)",
			Local: false, Volatile: false,
		},
		New: func(info conn.Info) (conn.Connection, error) {
			return New(info), nil
		},
	})
}

var _ conn.Connection = (*Conn)(nil)

// New creates an unopened connection. Records are interpreted the same way as by the postgres driver.
func New(info conn.Info) *Conn {
	return &Conn{info: info}
}

// Conn is a connection backed by a pgx pool. It's safe for concurrent use.
type Conn struct {
	info conn.Info

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// Pool returns the connection pool, or nil if the connection is not open.
func (c *Conn) Pool() *pgxpool.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool
}

func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		return nil
	}
	dsn, err := postgres.DSN(c.info)
	if err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return convError(err)
	}
	c.pool = pool
	return nil
}

func (c *Conn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	return nil
}

func (c *Conn) schema() string {
	if s := c.info.DefaultSchema; s != "" {
		return s
	}
	return postgres.DefaultSchema
}

// Run executes the script with the simple protocol, so it may contain multiple statements.
func (c *Conn) Run(ctx context.Context, script string) error {
	pool := c.Pool()
	if pool == nil {
		return conn.ErrNotOpen
	}
	slog.Debug("exec", "db", c.info.DBCode, "sql", script)
	_, err := pool.Exec(ctx, script, pgx.QueryExecModeSimpleProtocol)
	return convError(err)
}

func (c *Conn) TableDescriptor(ctx context.Context, tableName string) (*conn.TableInfo, error) {
	pool := c.Pool()
	if pool == nil {
		return nil, conn.ErrNotOpen
	}
	schema := c.schema()
	slog.Debug("describe table", "db", c.info.DBCode, "schema", schema, "table", tableName)

	var (
		kind  string
		isDbo int64
	)
	err := pool.QueryRow(ctx, postgres.TableQuery, schema, tableName).Scan(&kind, &isDbo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, conn.TableNotFound(tableName)
	} else if err != nil {
		return nil, convError(err)
	}

	rows, err := pool.Query(ctx, postgres.ColumnsQuery, schema, tableName)
	if err != nil {
		return nil, convError(err)
	}
	defer rows.Close()
	cols, err := sqldrv.ScanColumns(rows)
	if err != nil {
		return nil, err
	}
	return &conn.TableInfo{
		TableName: tableName,
		XType:     sqldrv.InfoSchemaXType(kind),
		IsDbo:     isDbo != 0,
		Columns:   cols,
	}, nil
}

func convError(err error) error {
	var e *pgconn.PgError
	if errors.As(err, &e) && e.Code == postgres.UndefinedTable {
		return fmt.Errorf("%s: %w", e.Message, conn.ErrTableNotFound)
	}
	return err
}
