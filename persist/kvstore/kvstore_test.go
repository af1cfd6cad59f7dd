package kvstore_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/kv"
	"github.com/hidal-go/dblist/kv/bbolt"
	"github.com/hidal-go/dblist/kv/memkv"
	"github.com/hidal-go/dblist/persist"
	"github.com/hidal-go/dblist/persist/kvstore"
)

var testKey = hex.EncodeToString([]byte(strings.Repeat("s", 32)))

func TestStore(t *testing.T) {
	ctx := context.Background()
	db := memkv.New()
	st, err := kvstore.New(db, &persist.Secret{Key: testKey})
	require.NoError(t, err)
	defer st.Close()

	m, err := st.Read(ctx)
	require.NoError(t, err)
	require.Empty(t, m)

	m = persist.Mapping{
		"a": {SQLModule: "postgres", Database: "a"},
		"b": {SQLModule: "mysql", Database: "b"},
	}
	require.NoError(t, st.Write(ctx, m))
	got, err := st.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, m, got)

	// full rewrite drops keys that are gone from the mapping
	delete(m, "a")
	require.NoError(t, st.Write(ctx, m))
	got, err = st.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, m, got)

	// values are sealed
	err = kv.View(ctx, db, func(tx kv.Tx) error {
		v, err := tx.Get(ctx, kv.Key(kvstore.Prefix+"b"))
		require.NoError(t, err)
		require.NotContains(t, string(v), "mysql")
		return nil
	})
	require.NoError(t, err)
}

func TestForeignKeysKept(t *testing.T) {
	ctx := context.Background()
	db := memkv.New()
	err := kv.Update(ctx, db, func(tx kv.Tx) error {
		return tx.Put(kv.Key("other"), kv.Value("x"))
	})
	require.NoError(t, err)

	st, err := kvstore.New(db, nil)
	require.NoError(t, err)
	require.NoError(t, st.Write(ctx, persist.Mapping{"a": conn.Info{SQLModule: "pgx"}}))
	require.NoError(t, st.Write(ctx, persist.Mapping{}))

	err = kv.View(ctx, db, func(tx kv.Tx) error {
		v, err := tx.Get(ctx, kv.Key("other"))
		require.NoError(t, err)
		require.Equal(t, kv.Value("x"), v)
		return nil
	})
	require.NoError(t, err)
}

func TestBackendOnDisk(t *testing.T) {
	kvstore.RegisterBackends()
	ctx := context.Background()
	opts := persist.Options{
		Backend: kvstore.BackendName(bbolt.Name),
		Path:    t.TempDir(),
		Secret:  &persist.Secret{Pwd: "pwd"},
	}
	p, err := persist.Open(ctx, opts)
	require.NoError(t, err)
	m := persist.Mapping{"a": {SQLModule: "mssql", Server: "srv"}}
	require.NoError(t, p.Write(ctx, m))
	require.NoError(t, p.Close())

	p, err = persist.Open(ctx, opts)
	require.NoError(t, err)
	defer p.Close()
	got, err := p.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestDebugLog(t *testing.T) {
	kvstore.RegisterBackends()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(prev)
	})

	ctx := context.Background()
	p, err := persist.Open(ctx, persist.Options{Backend: kvstore.BackendName(memkv.Name)})
	require.NoError(t, err)
	require.NoError(t, p.Write(ctx, persist.Mapping{"a": {SQLModule: "pgx", Pwd: "hunter2"}}))
	require.NoError(t, p.Close())

	require.Contains(t, buf.String(), "kv put")
	require.Contains(t, buf.String(), kvstore.Prefix+"a")
	require.NotContains(t, buf.String(), "hunter2")
}
