// Copyright 2016 The Cayley Authors. All rights reserved.
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

package bbolt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/kv"
)

const (
	Name = "bbolt"
)

const fileName = "bbolt.db"

var rootBucket = []byte("dblist")

func init() {
	kv.Register(kv.Registration{
		Registration: base.Registration{
			Name: Name, Title: "BBoltDB",
			Local: true,
		},
		OpenPath: OpenPath,
	})
}

var _ kv.KV = (*DB)(nil)

func New(d *bolt.DB) *DB {
	return &DB{db: d}
}

func Open(path string, opt *bolt.Options) (*DB, error) {
	db, err := bolt.Open(path, 0644, opt)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// OpenPath opens a database file inside a given directory, creating the directory if needed.
func OpenPath(path string) (kv.KV, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	db, err := Open(filepath.Join(path, fileName), nil)
	if err != nil {
		return nil, err
	}
	return db, nil
}

type DB struct {
	db     *bolt.DB
	closed bool
}

func (db *DB) DB() *bolt.DB {
	return db.db
}

func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true
	return db.db.Close()
}

func (db *DB) Tx(rw bool) (kv.Tx, error) {
	tx, err := db.db.Begin(rw)
	if err != nil {
		return nil, err
	}
	if rw {
		if _, err = tx.CreateBucketIfNotExists(rootBucket); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	return &Tx{tx: tx, rw: rw}, nil
}

type Tx struct {
	tx   *bolt.Tx
	rw   bool
	done bool
}

func (tx *Tx) bucket() *bolt.Bucket {
	return tx.tx.Bucket(rootBucket)
}

func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	if !tx.rw {
		return tx.tx.Rollback()
	}
	return tx.tx.Commit()
}

func (tx *Tx) Close() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.tx.Rollback()
}

func (tx *Tx) Get(ctx context.Context, key kv.Key) (kv.Value, error) {
	b := tx.bucket()
	if b == nil || len(key) == 0 {
		return nil, kv.ErrNotFound
	}
	v := b.Get(key)
	if v == nil {
		return nil, kv.ErrNotFound
	}
	return kv.Value(v).Clone(), nil
}

func (tx *Tx) Put(k kv.Key, v kv.Value) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	return tx.bucket().Put(k, v)
}

func (tx *Tx) Del(k kv.Key) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	return tx.bucket().Delete(k)
}

func (tx *Tx) Scan(pref kv.Key) kv.Iterator {
	b := tx.bucket()
	if b == nil {
		return &Iterator{}
	}
	return &Iterator{b: b, pref: pref}
}

type Iterator struct {
	b    *bolt.Bucket
	pref []byte
	c    *bolt.Cursor
	k, v []byte
}

func (it *Iterator) Next(ctx context.Context) bool {
	if it.b == nil {
		return false
	}
	if it.c == nil {
		it.c = it.b.Cursor()
		if len(it.pref) == 0 {
			it.k, it.v = it.c.First()
		} else {
			it.k, it.v = it.c.Seek(it.pref)
		}
	} else {
		it.k, it.v = it.c.Next()
	}
	ok := it.k != nil && bytes.HasPrefix(it.k, it.pref)
	if !ok {
		it.b = nil
	}
	return ok
}

func (it *Iterator) Key() kv.Key   { return it.k }
func (it *Iterator) Val() kv.Value { return it.v }
func (it *Iterator) Err() error {
	return nil
}

func (it *Iterator) Close() error {
	*it = Iterator{}
	return nil
}
