// Package badger stores key-value pairs in a Badger directory.
package badger

import (
	"context"

	"github.com/dgraph-io/badger/v2"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
)

const (
	Name = "badger"
)

func init() {
	kv.Register(kv.Registration{
		Registration: base.Registration{
			Name: Name, Title: "Badger",
			Local: true,
		},
		OpenPath: OpenPath,
	})
}

var _ kv.KV = (*store)(nil)

// OpenPath opens or creates a Badger database with keys and values in the same directory.
func OpenPath(path string) (kv.KV, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &store{db: db}, nil
}

type store struct {
	db     *badger.DB
	closed bool
}

func (s *store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *store) Tx(rw bool) (kv.Tx, error) {
	return &txn{t: s.db.NewTransaction(rw), rw: rw}, nil
}

type txn struct {
	t  *badger.Txn
	rw bool
}

func (t *txn) Commit(ctx context.Context) error {
	if !t.rw {
		t.t.Discard()
		return nil
	}
	return t.t.Commit()
}

// Close is safe after Commit; Discard is a no-op then.
func (t *txn) Close() error {
	t.t.Discard()
	return nil
}

func (t *txn) Get(ctx context.Context, key kv.Key) (kv.Value, error) {
	// badger rejects empty keys with an error of its own
	if len(key) == 0 {
		return nil, kv.ErrNotFound
	}
	item, err := t.t.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, kv.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *txn) Put(k kv.Key, v kv.Value) error {
	if !t.rw {
		return kv.ErrReadOnly
	}
	return t.t.Set(k, v)
}

func (t *txn) Del(k kv.Key) error {
	if !t.rw {
		return kv.ErrReadOnly
	}
	return t.t.Delete(k)
}

func (t *txn) Scan(pref kv.Key) kv.Iterator {
	opt := badger.DefaultIteratorOptions
	opt.Prefix = pref
	return &iter{it: t.t.NewIterator(opt), pref: pref}
}

type iter struct {
	it      *badger.Iterator
	pref    kv.Key
	started bool
	err     error
}

func (i *iter) Next(ctx context.Context) bool {
	if i.err != nil {
		return false
	}
	if !i.started {
		i.started = true
		i.it.Seek(i.pref)
	} else {
		i.it.Next()
	}
	return i.it.ValidForPrefix(i.pref)
}

func (i *iter) Key() kv.Key { return i.it.Item().Key() }

// Val copies the value; a read failure stops the iteration and is reported by Err.
func (i *iter) Val() kv.Value {
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		i.err = err
	}
	return v
}

func (i *iter) Err() error { return i.err }

func (i *iter) Close() error {
	i.it.Close()
	return i.err
}
