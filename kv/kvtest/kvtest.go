// Package kvtest is a conformance suite for kv.KV implementations.
package kvtest

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/kv"
)

// Func is a constructor for database implementations.
// It returns an empty database; cleanup is registered on the test.
type Func func(t testing.TB) kv.KV

// RunTest runs all tests for key-value implementations.
func RunTest(t *testing.T, fnc Func, opts *Options) {
	if opts == nil {
		opts = &Options{}
	}

	for _, c := range testList {
		t.Run(c.name, func(t *testing.T) {
			if c.txOnly && opts.NoTx {
				t.Skip("implementation doesn't support transactions")
			}
			db := fnc(t)
			c.test(t, db)
		})
	}
}

type Options struct {
	NoTx bool // implementation doesn't support proper transactions
}

// RunTestLocal is a wrapper for RunTest that automatically creates a temporary directory and opens a database.
func RunTestLocal(t *testing.T, open kv.OpenPathFunc, opts *Options) {
	RunTest(t, func(t testing.TB) kv.KV {
		db, err := open(t.TempDir())
		require.NoError(t, err)

		t.Cleanup(func() {
			db.Close()
			db.Close() // test double close
		})

		return db
	}, opts)
}

var testList = []struct {
	name   string
	test   func(t testing.TB, db kv.KV)
	txOnly bool // requires transactions
}{
	{name: "basic", test: basic},
	{name: "ro", test: readonly},
	{name: "prefix", test: prefix},
	{name: "rollback", test: rollback, txOnly: true},
	{name: "rewrite", test: rewrite},
}

var keys = []kv.Key{
	kv.Key("a"),
	kv.Key("b/a"),
	kv.Key("b/a1"),
	kv.Key("b/a2"),
	kv.Key("b/b"),
	kv.Key("c"),
}

func fill(td *Test) []kv.Pair {
	var all []kv.Pair
	for i, k := range keys {
		v := kv.Value(strconv.Itoa(i))
		td.Put(k, v)
		td.Expect(k, v)
		all = append(all, kv.Pair{Key: k, Val: v})
	}
	return all
}

func basic(t testing.TB, db kv.KV) {
	td := NewTest(t, db)

	for _, k := range keys {
		td.NotExists(k)
	}

	all := fill(td)
	td.Scan(nil, all)

	for _, k := range keys {
		td.Del(k)
	}
	for _, k := range keys {
		td.NotExists(k)
	}
	td.Scan(nil, nil)
}

func readonly(t testing.TB, db kv.KV) {
	td := NewTest(t, db)

	key := kv.Key("a")
	val := kv.Value("v")
	td.Put(key, val)

	nokey := kv.Key("b")

	tx, err := db.Tx(false)
	require.NoError(t, err)
	defer tx.Close()

	// writing anything on read-only tx must fail
	err = tx.Put(key, val)
	require.Equal(t, kv.ErrReadOnly, err)
	err = tx.Put(nokey, val)
	require.Equal(t, kv.ErrReadOnly, err)

	// deleting records on read-only tx must fail
	err = tx.Del(key)
	require.Equal(t, kv.ErrReadOnly, err)

	// deleting non-existed record on read-only tx must still fail
	err = tx.Del(nokey)
	require.Equal(t, kv.ErrReadOnly, err)
}

func prefix(t testing.TB, db kv.KV) {
	td := NewTest(t, db)
	all := fill(td)

	td.Scan(kv.Key("a"), all[:1])
	td.Scan(kv.Key("b/"), all[1:5])
	td.Scan(kv.Key("b/a"), all[1:4])
	td.Scan(kv.Key("c"), all[5:])
	td.Scan(kv.Key("d"), nil)
}

func rollback(t testing.TB, db kv.KV) {
	td := NewTest(t, db)
	ctx := context.TODO()

	errStop := errors.New("stop")
	err := kv.Update(ctx, db, func(tx kv.Tx) error {
		if err := tx.Put(kv.Key("a"), kv.Value("1")); err != nil {
			return err
		}
		return errStop
	})
	require.Equal(t, errStop, err)
	td.NotExists(kv.Key("a"))
}

// rewrite checks the pattern used to persist a whole mapping:
// delete every key under a prefix and write a new set in one transaction.
func rewrite(t testing.TB, db kv.KV) {
	td := NewTest(t, db)
	ctx := context.TODO()
	all := fill(td)

	err := kv.Update(ctx, db, func(tx kv.Tx) error {
		old, err := kv.Keys(ctx, tx, kv.Key("b/"))
		if err != nil {
			return err
		}
		require.Len(t, old, 4)
		for _, k := range old {
			if err := tx.Del(k); err != nil {
				return err
			}
		}
		return tx.Put(kv.Key("b/z"), kv.Value("z"))
	})
	require.NoError(t, err)

	exp := append([]kv.Pair{}, all[0])
	exp = append(exp, kv.Pair{Key: kv.Key("b/z"), Val: kv.Value("z")}, all[5])
	td.Scan(nil, exp)
}
