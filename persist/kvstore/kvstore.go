// Package kvstore keeps the registry mapping in a key-value database, one key per dbCode.
//
// Every registered kv backend is exposed as a persistence backend named "kv.<backend>".
// Backends must be linked in before this package's init runs, so import them first
// or call RegisterBackends after importing.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/kv"
	"github.com/hidal-go/dblist/kv/kvdebug"
	"github.com/hidal-go/dblist/persist"
)

// Prefix is the namespace of registry keys inside the database.
const Prefix = "dblist/"

var registerMu sync.Mutex

func init() {
	RegisterBackends()
}

// RegisterBackends exposes every kv backend that is not registered as a persistence backend yet.
func RegisterBackends() {
	registerMu.Lock()
	defer registerMu.Unlock()
	for _, r := range kv.List() {
		name := BackendName(r.Name)
		if persist.ByName(name) != nil {
			continue
		}
		backend := r.Name
		persist.Register(persist.Registration{
			Registration: base.Registration{
				Name: name, Title: r.Title,
				Local: r.Local, Volatile: r.Volatile,
			},
			Open: func(ctx context.Context, opts persist.Options) (persist.Provider, error) {
				db, err := kv.OpenPath(backend, opts.Path)
				if err != nil {
					return nil, err
				}
				if log := slog.Default(); log.Enabled(ctx, slog.LevelDebug) {
					db = kvdebug.New(db, log)
				}
				p, err := New(db, opts.Secret)
				if err != nil {
					db.Close()
					return nil, err
				}
				return p, nil
			},
		})
	}
}

// BackendName returns the persistence backend name for a kv backend.
func BackendName(kvName string) string {
	return "kv" + base.RegistrySep + kvName
}

var _ persist.Provider = (*Store)(nil)

// Store is a persistence provider on top of kv.KV.
type Store struct {
	db kv.KV
	s  *persist.Sealer
}

// New wraps a key-value database. The store owns the database and closes it.
func New(db kv.KV, sec *persist.Secret) (*Store, error) {
	s, err := persist.NewSealer(sec)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, s: s}, nil
}

func key(dbCode string) kv.Key {
	return kv.Key(Prefix + dbCode)
}

func (st *Store) Read(ctx context.Context) (persist.Mapping, error) {
	m := make(persist.Mapping)
	err := kv.View(ctx, st.db, func(tx kv.Tx) error {
		return kv.Each(ctx, tx, kv.Key(Prefix), func(k kv.Key, v kv.Value) error {
			code := string(k[len(Prefix):])
			plain, err := st.s.Open(v)
			if err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			var info conn.Info
			if err := json.Unmarshal(plain, &info); err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			m[code] = info
			return nil
		})
	})
	if err != nil {
		return nil, &persist.Error{Op: "read", Err: err}
	}
	return m, nil
}

// Write replaces all stored records in a single transaction.
func (st *Store) Write(ctx context.Context, m persist.Mapping) error {
	err := kv.Update(ctx, st.db, func(tx kv.Tx) error {
		old, err := kv.Keys(ctx, tx, kv.Key(Prefix))
		if err != nil {
			return err
		}
		for _, k := range old {
			if err := tx.Del(k); err != nil {
				return err
			}
		}
		for code, info := range m {
			data, err := json.Marshal(info)
			if err != nil {
				return err
			}
			if data, err = st.s.Seal(data); err != nil {
				return err
			}
			if err := tx.Put(key(code), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &persist.Error{Op: "write", Err: err}
	}
	return nil
}

func (st *Store) Close() error {
	return st.db.Close()
}
