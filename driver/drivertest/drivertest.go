// Package drivertest runs connection drivers against real database servers started in Docker.
package drivertest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/dblist"
)

var setup = []string{
	`CREATE TABLE customer (idcustomer int NOT NULL PRIMARY KEY, name varchar(50) NULL, credit decimal(10,2) NULL)`,
	`CREATE VIEW customerview AS SELECT idcustomer, name FROM customer`,
}

// Test creates a fresh database on the server and checks a driver registered under name.
func Test(t *testing.T, name string, db Database) {
	if testing.Short() {
		t.SkipNow()
	}
	admin := db.run(t, name)
	info := createDatabase(t, admin, db.Maintenance)

	for _, c := range testList {
		c := c
		t.Run(c.name, func(t *testing.T) {
			cn, err := conn.New(nil, info)
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = cn.Destroy()
			})
			require.NoError(t, cn.Open(context.TODO()))
			c.test(t, cn)
		})
	}
}

func createDatabase(t testing.TB, admin conn.Info, maintenance string) conn.Info {
	ctx := context.TODO()
	name := "db_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	info := admin
	info.Database = maintenance
	cn, err := conn.New(nil, info)
	require.NoError(t, err)
	require.NoError(t, cn.Open(ctx))
	require.NoError(t, cn.Run(ctx, `CREATE DATABASE `+name))
	require.NoError(t, cn.Destroy())

	info = admin
	info.Database = name
	cn, err = conn.New(nil, info)
	require.NoError(t, err)
	defer cn.Destroy()
	require.NoError(t, cn.Open(ctx))
	for _, s := range setup {
		require.NoError(t, cn.Run(ctx, s))
	}
	return info
}

var testList = []struct {
	name string
	test func(t testing.TB, c conn.Connection)
}{
	{name: "table", test: table},
	{name: "view", test: view},
	{name: "missing", test: missing},
	{name: "descriptor", test: descriptor},
	{name: "run", test: run},
}

func table(t testing.TB, c conn.Connection) {
	ti, err := c.TableDescriptor(context.TODO(), "customer")
	require.NoError(t, err)
	require.Equal(t, "customer", ti.TableName)
	require.Equal(t, conn.XTypeTable, ti.XType)
	require.Len(t, ti.Columns, 3)

	id, name, credit := ti.Columns[0], ti.Columns[1], ti.Columns[2]
	require.Equal(t, "idcustomer", id.Name)
	require.True(t, id.PK)
	require.False(t, id.IsNullable)
	require.Equal(t, "name", name.Name)
	require.False(t, name.PK)
	require.True(t, name.IsNullable)
	require.NotEmpty(t, name.Type)
	require.Greater(t, name.MaxLength, 0)
	require.Equal(t, 10, credit.Precision)
	require.Equal(t, 2, credit.Scale)
}

func view(t testing.TB, c conn.Connection) {
	ti, err := c.TableDescriptor(context.TODO(), "customerview")
	require.NoError(t, err)
	require.Equal(t, conn.XTypeView, ti.XType)
	require.Len(t, ti.Columns, 2)
	for _, col := range ti.Columns {
		require.False(t, col.PK, col.Name)
	}
}

func missing(t testing.TB, c conn.Connection) {
	_, err := c.TableDescriptor(context.TODO(), "customer_no")
	require.Error(t, err)
	require.True(t, errors.Is(err, conn.ErrTableNotFound), "%v", err)
	require.Contains(t, err.Error(), "does not exist")
}

func descriptor(t testing.TB, c conn.Connection) {
	ctx := context.TODO()
	d := dblist.NewDbDescriptor(c)

	td, err := d.Table(ctx, "customer")
	require.NoError(t, err)
	require.Equal(t, []string{"idcustomer"}, td.Key())
	require.NotNil(t, td.Column("name"))

	td2, err := d.Table(ctx, "customer")
	require.NoError(t, err)
	require.Same(t, td, td2)

	vd, err := d.Table(ctx, "customerview")
	require.NoError(t, err)
	require.Empty(t, vd.Key())
}

func run(t testing.TB, c conn.Connection) {
	ctx := context.TODO()
	require.NoError(t, c.Run(ctx, `INSERT INTO customer (idcustomer, name) VALUES (1, 'a')`))
	err := c.Run(ctx, `INSERT INTO customer_no (idcustomer) VALUES (1)`)
	require.Error(t, err)
}
