// Package kvdebug wraps a kv.KV to count operations and log them with slog.
// Values are never logged, only their sizes.
package kvdebug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hidal-go/dblist/kv"
)

// ErrLeak is returned by Close when transactions or iterators were left open.
var ErrLeak = errors.New("kvdebug: resource leak")

var _ kv.KV = (*KV)(nil)

// New wraps db. Operations are logged at Debug level if log is not nil.
func New(db kv.KV, log *slog.Logger) *KV {
	return &KV{KV: db, log: log}
}

type Stats struct {
	Errs int64
	Tx   struct {
		RO int64
		RW int64
	}
	Get struct {
		N    int64
		Miss int64
	}
	Put  int64
	Del  int64
	Scan struct {
		N    int64
		Next int64
	}
}

type KV struct {
	stats   Stats
	running struct {
		tx   int64
		iter int64
	}
	log *slog.Logger

	KV kv.KV
}

func (d *KV) debug(msg string, args ...interface{}) {
	if d.log != nil {
		d.log.Debug(msg, args...)
	}
}

func (d *KV) fail(err error) {
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		atomic.AddInt64(&d.stats.Errs, 1)
	}
}

// Stats returns a snapshot of operation counters.
func (d *KV) Stats() Stats {
	var s Stats
	s.Errs = atomic.LoadInt64(&d.stats.Errs)
	s.Tx.RO = atomic.LoadInt64(&d.stats.Tx.RO)
	s.Tx.RW = atomic.LoadInt64(&d.stats.Tx.RW)
	s.Get.N = atomic.LoadInt64(&d.stats.Get.N)
	s.Get.Miss = atomic.LoadInt64(&d.stats.Get.Miss)
	s.Put = atomic.LoadInt64(&d.stats.Put)
	s.Del = atomic.LoadInt64(&d.stats.Del)
	s.Scan.N = atomic.LoadInt64(&d.stats.Scan.N)
	s.Scan.Next = atomic.LoadInt64(&d.stats.Scan.Next)
	return s
}

// Close closes the database. It returns ErrLeak if something was not closed,
// after closing the underlying database anyway.
func (d *KV) Close() error {
	err := d.KV.Close()
	d.fail(err)
	tx := atomic.LoadInt64(&d.running.tx)
	it := atomic.LoadInt64(&d.running.iter)
	d.debug("kv close", "stats", fmt.Sprintf("%+v", d.Stats()))
	if err == nil && tx+it != 0 {
		err = fmt.Errorf("%w: tx: %d, iter: %d", ErrLeak, tx, it)
	}
	return err
}

func (d *KV) Tx(rw bool) (kv.Tx, error) {
	tx, err := d.KV.Tx(rw)
	if err != nil {
		d.fail(err)
		return nil, err
	}
	if rw {
		atomic.AddInt64(&d.stats.Tx.RW, 1)
	} else {
		atomic.AddInt64(&d.stats.Tx.RO, 1)
	}
	atomic.AddInt64(&d.running.tx, 1)
	d.debug("kv tx", "rw", rw)
	return &kvTx{kv: d, tx: tx, rw: rw}, nil
}

type kvTx struct {
	kv  *KV
	tx  kv.Tx
	err error
	rw  bool
}

func (tx *kvTx) done(err error) {
	tx.err = err
	tx.tx = nil
	tx.kv.fail(err)
	atomic.AddInt64(&tx.kv.running.tx, -1)
}

func (tx *kvTx) Commit(ctx context.Context) error {
	if tx.tx == nil {
		return tx.err
	}
	err := tx.tx.Commit(ctx)
	tx.done(err)
	tx.kv.debug("kv commit", "rw", tx.rw, "err", err)
	return err
}

func (tx *kvTx) Close() error {
	if tx.tx == nil {
		return tx.err
	}
	err := tx.tx.Close()
	tx.done(err)
	return err
}

func (tx *kvTx) Get(ctx context.Context, k kv.Key) (kv.Value, error) {
	v, err := tx.tx.Get(ctx, k)
	d := tx.kv
	atomic.AddInt64(&d.stats.Get.N, 1)
	if errors.Is(err, kv.ErrNotFound) {
		atomic.AddInt64(&d.stats.Get.Miss, 1)
	}
	d.fail(err)
	d.debug("kv get", "key", string(k), "size", len(v), "err", err)
	return v, err
}

func (tx *kvTx) Put(k kv.Key, v kv.Value) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	err := tx.tx.Put(k, v)
	d := tx.kv
	atomic.AddInt64(&d.stats.Put, 1)
	d.fail(err)
	d.debug("kv put", "key", string(k), "size", len(v), "err", err)
	return err
}

func (tx *kvTx) Del(k kv.Key) error {
	if !tx.rw {
		return kv.ErrReadOnly
	}
	err := tx.tx.Del(k)
	d := tx.kv
	atomic.AddInt64(&d.stats.Del, 1)
	d.fail(err)
	d.debug("kv del", "key", string(k), "err", err)
	return err
}

func (tx *kvTx) Scan(pref kv.Key) kv.Iterator {
	d := tx.kv
	atomic.AddInt64(&d.running.iter, 1)
	atomic.AddInt64(&d.stats.Scan.N, 1)
	d.debug("kv scan", "prefix", string(pref))
	return &kvIter{kv: d, it: tx.tx.Scan(pref), pref: pref}
}

type kvIter struct {
	kv   *KV
	pref kv.Key
	it   kv.Iterator
	n    int
	err  error
}

func (it *kvIter) Next(ctx context.Context) bool {
	if it.it == nil || !it.it.Next(ctx) {
		return false
	}
	it.n++
	atomic.AddInt64(&it.kv.stats.Scan.Next, 1)
	return true
}

func (it *kvIter) Err() error {
	if it.it == nil {
		return it.err
	}
	return it.it.Err()
}

func (it *kvIter) Close() error {
	if it.it == nil {
		return it.err
	}
	err := it.it.Close()
	it.err = err
	it.it = nil

	d := it.kv
	d.fail(err)
	atomic.AddInt64(&d.running.iter, -1)
	d.debug("kv scan done", "prefix", string(it.pref), "keys", it.n)
	return err
}

func (it *kvIter) Key() kv.Key {
	return it.it.Key()
}

func (it *kvIter) Val() kv.Value {
	return it.it.Val()
}
