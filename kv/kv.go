// Package kv provides an abstraction over flat key-value stores.
// The registry mapping can be persisted into any store registered here.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hidal-go/dblist/base"
)

var (
	// ErrNotFound is returned then a key was not found in the database.
	ErrNotFound = errors.New("kv: not found")
	// ErrReadOnly is returned when write operation is performed on read-only database or transaction.
	ErrReadOnly = errors.New("kv: read only")
)

// KV is an interface for flat key-value databases.
type KV interface {
	base.Closer
	// Tx opens a new transaction. Read-write transactions must be committed to apply changes.
	Tx(rw bool) (Tx, error)
}

// Key is a flat binary key used in a database.
type Key []byte

// Clone returns a copy of the key.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	p := make(Key, len(k))
	copy(p, k)
	return p
}

// HasPrefix checks if the key starts with a given prefix.
func (k Key) HasPrefix(pref Key) bool {
	return bytes.HasPrefix(k, pref)
}

// Value is a binary value stored in a database.
type Value []byte

// Clone returns a copy of the value.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	p := make(Value, len(v))
	copy(p, v)
	return p
}

// Pair is a key-value pair.
type Pair struct {
	Key Key
	Val Value
}

func (p Pair) String() string {
	return fmt.Sprintf("%x = %x", p.Key, p.Val)
}

// Getter is the read half of a transaction.
type Getter interface {
	// Get fetches a value for a single key from the database.
	// It return ErrNotFound if key does not exists.
	Get(ctx context.Context, key Key) (Value, error)
}

// Tx is a transaction over flat key-value store.
type Tx interface {
	Getter
	// Commit applies the changes. Committing a read-only transaction only releases it.
	Commit(ctx context.Context) error
	// Close discards the transaction. It does nothing after Commit.
	Close() error
	// Put writes a key-value pair to the database.
	// New value will immediately be visible by Get on the same Tx,
	// but implementation might buffer the write until transaction is committed.
	Put(k Key, v Value) error
	// Del removes the key from the database. See Put for consistency guaranties.
	Del(k Key) error
	// Scan iterates over all key-value pairs with a given prefix, in key order.
	Scan(pref Key) Iterator
}

// Iterator is an iterator over flat key-value store.
type Iterator interface {
	// Next moves to the next pair. It must be called before the first Key.
	Next(ctx context.Context) bool
	Err() error
	Close() error
	// Key return current key. Returned value will become invalid on Next or Close.
	// Caller should not modify or store the value - use Clone.
	Key() Key
	// Val return current value. Returned value will become invalid on Next or Close.
	// Caller should not modify or store the value - use Clone.
	Val() Value
}

// PrefixEnd returns the first key that sorts after every key with the given prefix.
// It returns nil if there is no such key.
func PrefixEnd(pref Key) Key {
	end := pref.Clone()
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
