package pebble

import (
	"bytes"
	"context"

	"github.com/cockroachdb/pebble"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
)

const (
	Name = "pebble"
)

func init() {
	kv.Register(kv.Registration{
		Registration: base.Registration{
			Name: Name, Title: "Pebble",
			Local: true,
		},
		OpenPath: OpenPath,
	})
}

var _ kv.KV = (*DB)(nil)

func New(d *pebble.DB) *DB {
	return &DB{db: d}
}

func OpenPath(path string) (kv.KV, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

type DB struct {
	db     *pebble.DB
	closed bool
}

func (db *DB) DB() *pebble.DB {
	return db.db
}

func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true
	return db.db.Close()
}

// Tx uses an indexed batch for both modes: reads go through the batch to the database.
func (db *DB) Tx(rw bool) (kv.Tx, error) {
	return &Tx{tx: db.db.NewIndexedBatch(), rw: rw}, nil
}

type Tx struct {
	tx   *pebble.Batch
	rw   bool
	done bool
}

func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	if !tx.rw {
		return tx.Close()
	}
	err := tx.tx.Commit(pebble.Sync)
	if cerr := tx.Close(); err == nil {
		err = cerr
	}
	return err
}

func (tx *Tx) Close() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.tx.Close()
}

func (tx *Tx) Get(ctx context.Context, key kv.Key) (kv.Value, error) {
	if len(key) == 0 {
		return nil, kv.ErrNotFound
	}
	found, closer, err := tx.tx.Get(key)
	if err == pebble.ErrNotFound {
		return nil, kv.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	ret := make([]byte, len(found))
	copy(ret, found)
	closer.Close()
	return ret, nil
}

func (tx *Tx) Put(k kv.Key, v kv.Value) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	return tx.tx.Set(k, v, nil)
}

func (tx *Tx) Del(k kv.Key) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	return tx.tx.Delete(k, nil)
}

func (tx *Tx) Scan(pref kv.Key) kv.Iterator {
	opts := &pebble.IterOptions{}
	if len(pref) != 0 {
		opts.LowerBound = pref
		opts.UpperBound = kv.PrefixEnd(pref)
	}
	it := tx.tx.NewIter(opts)
	return &Iterator{it: it, pref: pref, first: true}
}

type Iterator struct {
	it    *pebble.Iterator
	pref  kv.Key
	first bool
}

func (it *Iterator) Next(ctx context.Context) bool {
	if it.first {
		it.first = false
		it.it.First()
	} else {
		it.it.Next()
	}
	return it.isValid()
}

func (it *Iterator) Err() error {
	return it.it.Error()
}

func (it *Iterator) Close() error {
	return it.it.Close()
}

func (it *Iterator) Key() kv.Key {
	return it.it.Key()
}

func (it *Iterator) Val() kv.Value {
	return it.it.Value()
}

func (it *Iterator) isValid() bool {
	if !it.it.Valid() {
		return false
	}
	return len(it.pref) == 0 || bytes.HasPrefix(it.it.Key(), it.pref)
}
