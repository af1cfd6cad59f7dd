package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/persist"
)

const testDriver = "clitest"

// scriptConn records scripts and describes a single table.
type scriptConn struct {
	conn.Info
}

var scripts []string

func (c *scriptConn) Open(ctx context.Context) error { return nil }
func (c *scriptConn) Destroy() error                 { return nil }

func (c *scriptConn) Run(ctx context.Context, script string) error {
	scripts = append(scripts, c.Database+": "+script)
	return nil
}

func (c *scriptConn) TableDescriptor(ctx context.Context, name string) (*conn.TableInfo, error) {
	if name != "customer" {
		return nil, conn.TableNotFound(name)
	}
	return &conn.TableInfo{
		TableName: name, XType: conn.XTypeTable,
		Columns: []conn.Column{{Name: "idcustomer", Type: "int", PK: true}},
	}, nil
}

func init() {
	conn.Register(conn.Registration{
		Registration: base.Registration{Name: testDriver},
		New: func(info conn.Info) (conn.Connection, error) {
			return &scriptConn{Info: info}, nil
		},
	})
}

func newCLI(in string) (*CLI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &CLI{
		Out: out,
		In:  strings.NewReader(in),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, out
}

func TestCLI(t *testing.T) {
	ctx := context.Background()
	opts := persist.Options{
		EncryptedFileName: filepath.Join(t.TempDir(), "dblist.bin"),
		Secret:            &persist.Secret{Pwd: "cli"},
	}
	run := func(in string, args ...string) (string, error) {
		cli, out := newCLI(in)
		err := cli.Run(ctx, opts, args)
		return out.String(), err
	}

	_, err := run("", "set", "main", "-module", testDriver, "-server", "db", "-user", "sa", "-pwd", "secret", "-database", "sales", "-opt", "encrypt=disable")
	require.NoError(t, err)

	out, err := run("", "list")
	require.NoError(t, err)
	require.Contains(t, out, "main")
	require.Contains(t, out, testDriver)

	out, err = run("", "get", "main")
	require.NoError(t, err)
	var info conn.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, "sales", info.Database)
	require.Equal(t, "***", info.Pwd)
	require.Equal(t, map[string]string{"encrypt": "disable"}, info.Options)

	// partial update keeps other fields
	_, err = run("", "set", "main", "-database", "sales2")
	require.NoError(t, err)
	out, err = run("", "get", "main")
	require.NoError(t, err)
	require.Contains(t, out, `"sales2"`)
	require.Contains(t, out, `"db"`)

	out, err = run("", "describe", "main", "customer")
	require.NoError(t, err)
	require.Contains(t, out, `"key": [`)
	require.Contains(t, out, `"idcustomer"`)

	_, err = run("", "describe", "main", "customer_no")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")

	scripts = nil
	_, err = run("DELETE FROM customer", "run", "main", "-")
	require.NoError(t, err)
	require.Equal(t, []string{"sales2: DELETE FROM customer"}, scripts)

	_, err = run("", "del", "main")
	require.NoError(t, err)
	_, err = run("", "get", "main")
	require.Error(t, err)
	_, err = run("", "del", "main")
	require.NoError(t, err)
}

func TestCLIUsage(t *testing.T) {
	ctx := context.Background()
	opts := persist.Options{FileName: filepath.Join(t.TempDir(), "dblist.json")}

	cli, _ := newCLI("")
	require.ErrorIs(t, cli.Run(ctx, opts, nil), errUsage)
	require.ErrorIs(t, cli.Run(ctx, opts, []string{"nope"}), errUsage)
	require.ErrorIs(t, cli.Run(ctx, opts, []string{"get"}), errUsage)
	require.Error(t, cli.Run(ctx, opts, []string{"set", "x"}))
	require.Error(t, cli.Run(ctx, opts, []string{"set", "x", "-module", testDriver, "-opt", "bad"}))
}

func TestCLIDrivers(t *testing.T) {
	cli, out := newCLI("")
	require.NoError(t, cli.Run(context.Background(), persist.Options{}, []string{"drivers"}))
	require.Contains(t, out.String(), testDriver)
	require.Contains(t, out.String(), "mssql")
	require.Contains(t, out.String(), "kv.bbolt")
	require.Contains(t, out.String(), "file")
}
