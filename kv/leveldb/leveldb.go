// Copyright 2017 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package leveldb stores key-value pairs in a LevelDB directory.
package leveldb

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
)

const (
	Name = "leveldb"
)

func init() {
	kv.Register(kv.Registration{
		Registration: base.Registration{
			Name: Name, Title: "LevelDB",
			Local: true,
		},
		OpenPath: OpenPath,
	})
}

var _ kv.KV = (*store)(nil)

// OpenPath opens or creates a LevelDB database in the directory.
func OpenPath(path string) (kv.KV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &store{db: db}, nil
}

type store struct {
	db     *leveldb.DB
	closed bool
}

func (s *store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// reader is the read surface shared by snapshots and transactions.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(r *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

func (s *store) Tx(rw bool) (kv.Tx, error) {
	if rw {
		t, err := s.db.OpenTransaction()
		if err != nil {
			return nil, err
		}
		return &txn{r: t, w: t, release: t.Discard}, nil
	}
	sn, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &txn{r: sn, release: sn.Release}, nil
}

type txn struct {
	r       reader
	w       *leveldb.Transaction // nil for snapshots
	release func()
	done    bool
	err     error
}

func (t *txn) Commit(ctx context.Context) error {
	if t.done {
		return t.err
	}
	t.done = true
	if t.w == nil {
		t.release()
		return nil
	}
	t.err = t.w.Commit()
	return t.err
}

func (t *txn) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	t.release()
	return nil
}

func (t *txn) Get(ctx context.Context, key kv.Key) (kv.Value, error) {
	val, err := t.r.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, kv.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (t *txn) Put(k kv.Key, v kv.Value) error {
	if t.w == nil {
		return kv.ErrReadOnly
	}
	return t.w.Put(k, v, nil)
}

func (t *txn) Del(k kv.Key) error {
	if t.w == nil {
		return kv.ErrReadOnly
	}
	return t.w.Delete(k, nil)
}

func (t *txn) Scan(pref kv.Key) kv.Iterator {
	return &iter{it: t.r.NewIterator(util.BytesPrefix(pref), nil)}
}

type iter struct {
	it iterator.Iterator
}

func (i *iter) Next(ctx context.Context) bool { return i.it.Next() }
func (i *iter) Key() kv.Key                   { return i.it.Key() }
func (i *iter) Val() kv.Value                 { return i.it.Value() }
func (i *iter) Err() error                    { return i.it.Error() }

func (i *iter) Close() error {
	i.it.Release()
	return i.Err()
}
