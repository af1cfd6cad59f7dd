// Package memkv is an in-memory implementation of kv.KV.
// Data is lost when the process exits.
package memkv

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
)

const (
	Name = "memkv"
)

func init() {
	kv.Register(kv.Registration{
		Registration: base.Registration{
			Name: Name, Title: "In-memory",
			Local: true, Volatile: true,
		},
		OpenPath: func(path string) (kv.KV, error) {
			if path != "" {
				return nil, base.ErrVolatile
			}
			return New(), nil
		},
	})
}

var _ kv.KV = (*DB)(nil)

// New creates a new in-memory key-value store.
func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

type DB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (db *DB) Close() error {
	return nil
}

func (db *DB) Tx(rw bool) (kv.Tx, error) {
	return &Tx{db: db, rw: rw}, nil
}

type write struct {
	val kv.Value
	del bool
}

// Tx buffers writes until Commit. Reads see committed data and own writes.
type Tx struct {
	db     *DB
	rw     bool
	writes map[string]write
	done   bool
}

func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	if len(tx.writes) == 0 {
		return nil
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for k, w := range tx.writes {
		if w.del {
			delete(tx.db.data, k)
		} else {
			tx.db.data[k] = w.val
		}
	}
	return nil
}

func (tx *Tx) Close() error {
	tx.done = true
	tx.writes = nil
	return nil
}

func (tx *Tx) Get(ctx context.Context, key kv.Key) (kv.Value, error) {
	if w, ok := tx.writes[string(key)]; ok {
		if w.del {
			return nil, kv.ErrNotFound
		}
		return w.val.Clone(), nil
	}
	tx.db.mu.RLock()
	v, ok := tx.db.data[string(key)]
	tx.db.mu.RUnlock()
	if !ok {
		return nil, kv.ErrNotFound
	}
	return kv.Value(v).Clone(), nil
}

func (tx *Tx) Put(k kv.Key, v kv.Value) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	if tx.writes == nil {
		tx.writes = make(map[string]write)
	}
	tx.writes[string(k)] = write{val: v.Clone()}
	return nil
}

func (tx *Tx) Del(k kv.Key) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	if tx.writes == nil {
		tx.writes = make(map[string]write)
	}
	tx.writes[string(k)] = write{del: true}
	return nil
}

func (tx *Tx) Scan(pref kv.Key) kv.Iterator {
	p := string(pref)
	merged := make(map[string]kv.Value)
	tx.db.mu.RLock()
	for k, v := range tx.db.data {
		if strings.HasPrefix(k, p) {
			merged[k] = v
		}
	}
	tx.db.mu.RUnlock()
	for k, w := range tx.writes {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if w.del {
			delete(merged, k)
		} else {
			merged[k] = w.val
		}
	}
	it := &Iterator{pairs: make([]kv.Pair, 0, len(merged)), i: -1}
	for k, v := range merged {
		it.pairs = append(it.pairs, kv.Pair{Key: kv.Key(k), Val: v.Clone()})
	}
	sort.Slice(it.pairs, func(i, j int) bool {
		return string(it.pairs[i].Key) < string(it.pairs[j].Key)
	})
	return it
}

// Iterator walks a snapshot of matching pairs taken when Scan was called.
type Iterator struct {
	pairs []kv.Pair
	i     int
}

func (it *Iterator) Next(ctx context.Context) bool {
	if it.i+1 >= len(it.pairs) {
		it.i = len(it.pairs)
		return false
	}
	it.i++
	return true
}

func (it *Iterator) Key() kv.Key {
	if it.i < 0 || it.i >= len(it.pairs) {
		return nil
	}
	return it.pairs[it.i].Key
}

func (it *Iterator) Val() kv.Value {
	if it.i < 0 || it.i >= len(it.pairs) {
		return nil
	}
	return it.pairs[it.i].Val
}

func (it *Iterator) Err() error { return nil }

func (it *Iterator) Close() error {
	it.pairs = nil
	return nil
}
