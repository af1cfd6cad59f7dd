package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/kv"
)

func NewTest(t testing.TB, db kv.KV) *Test {
	return &Test{t: t, db: db}
}

type Test struct {
	t  testing.TB
	db kv.KV
}

func (t Test) Get(key kv.Key) (kv.Value, error) {
	tx, err := t.db.Tx(false)
	require.NoError(t.t, err)
	defer tx.Close()
	return tx.Get(context.TODO(), key)
}

func (t Test) NotExists(k kv.Key) {
	v, err := t.Get(k)
	require.Equal(t.t, kv.ErrNotFound, err)
	require.Equal(t.t, kv.Value(nil), v)
}

func (t Test) Expect(k kv.Key, exp kv.Value) {
	v, err := t.Get(k)
	require.NoError(t.t, err)
	require.Equal(t.t, exp, v)
}

func (t Test) Put(key kv.Key, val kv.Value) {
	ctx := context.TODO()
	err := kv.Update(ctx, t.db, func(tx kv.Tx) error {
		if err := tx.Put(key, val); err != nil {
			return err
		}
		got, err := tx.Get(ctx, key)
		require.NoError(t.t, err)
		require.Equal(t.t, val, got)
		return nil
	})
	require.NoError(t.t, err)
}

func (t Test) Del(key kv.Key) {
	ctx := context.TODO()
	err := kv.Update(ctx, t.db, func(tx kv.Tx) error {
		if err := tx.Del(key); err != nil {
			return err
		}
		got, err := tx.Get(ctx, key)
		require.Equal(t.t, kv.ErrNotFound, err)
		require.Equal(t.t, kv.Value(nil), got)
		return nil
	})
	require.NoError(t.t, err)
}

// Scan lists every pair under pref in a read-only transaction and compares them with exp.
func (t Test) Scan(pref kv.Key, exp []kv.Pair) {
	ctx := context.TODO()
	var got []kv.Pair
	err := kv.View(ctx, t.db, func(tx kv.Tx) error {
		return kv.Each(ctx, tx, pref, func(k kv.Key, v kv.Value) error {
			got = append(got, kv.Pair{Key: k.Clone(), Val: v.Clone()})
			return nil
		})
	})
	require.NoError(t.t, err)
	if len(exp) == 0 {
		exp = nil
	}
	require.Equal(t.t, exp, got)
}
