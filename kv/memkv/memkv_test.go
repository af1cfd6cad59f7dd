package memkv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
	"github.com/hidal-go/dblist/kv/kvtest"
	"github.com/hidal-go/dblist/kv/memkv"
)

func TestMemKV(t *testing.T) {
	kvtest.RunTest(t, func(t testing.TB) kv.KV {
		return memkv.New()
	}, nil)
}

func TestMemKVPath(t *testing.T) {
	_, err := kv.OpenPath(memkv.Name, "/tmp/x")
	require.Equal(t, base.ErrVolatile, err)

	db, err := kv.OpenPath(memkv.Name, "")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
