// Package dblist keeps a list of named databases and the structure of their tables.
//
// A Registry maps a dbCode to the connection record (conn.Info) needed to reach the database.
// The mapping is loaded from and saved to a persist.Provider, and every change
// rewrites it as a whole. Connections are created by drivers registered in package conn,
// selected by the sqlModule field of the record.
package dblist

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/persist"
)

// Option configures a Registry.
type Option func(r *Registry)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// WithDrivers sets a function to look up connection drivers. conn.ByName is used otherwise.
func WithDrivers(lookup conn.LookupFunc) Option {
	return func(r *Registry) {
		r.drivers = lookup
	}
}

// Registry is a list of databases, each identified by a dbCode.
// It must be bound to a provider with Init or Bind before it can be modified.
type Registry struct {
	log     *slog.Logger
	drivers conn.LookupFunc

	mu    sync.RWMutex
	p     persist.Provider
	m     persist.Mapping
	descr map[string]*DbDescriptor
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		m:     make(persist.Mapping),
		descr: make(map[string]*DbDescriptor),
	}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.drivers == nil {
		r.drivers = conn.ByName
	}
	return r
}

// Open creates a registry and initializes it with given options.
func Open(ctx context.Context, popts persist.Options, opts ...Option) (*Registry, error) {
	r := New(opts...)
	if err := r.Init(ctx, popts); err != nil {
		return nil, err
	}
	return r, nil
}

// Init opens a provider and loads the mapping from it.
//
// Calling Init again replaces both the mapping and the provider; the old provider is closed.
// Cached descriptors are kept.
func (r *Registry) Init(ctx context.Context, opts persist.Options) error {
	p, err := persist.Open(ctx, opts)
	if err != nil {
		return err
	}
	if err = r.Bind(ctx, p); err != nil {
		p.Close()
		return err
	}
	return nil
}

// Bind loads the mapping from p and uses it for all following changes.
// The registry takes ownership of p.
func (r *Registry) Bind(ctx context.Context, p persist.Provider) error {
	m, err := p.Read(ctx)
	if err != nil {
		return err
	}
	if m == nil {
		m = make(persist.Mapping)
	}
	r.mu.Lock()
	old := r.p
	r.p, r.m = p, m
	r.mu.Unlock()

	r.log.Debug("registry loaded", "databases", len(m))
	if old != nil && old != p {
		if err := old.Close(); err != nil {
			r.log.Warn("cannot close previous provider", "err", err)
		}
	}
	return nil
}

// DbInfo returns the connection record for a database.
func (r *Registry) DbInfo(code string) (conn.Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.m[code]
	if !ok {
		return conn.Info{}, false
	}
	return info.Clone(), true
}

// ExistsDbInfo checks if a database is in the registry.
func (r *Registry) ExistsDbInfo(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.m[code]
	return ok
}

// List returns all dbCodes, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for code := range r.m {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// SetDbInfo adds or replaces a database and saves the registry.
//
// A cached descriptor for the same dbCode is not affected; see ForgetDescriptor.
func (r *Registry) SetDbInfo(ctx context.Context, code string, info conn.Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.p == nil {
		return ErrNotInitialized
	}
	m := r.m.Clone()
	m[code] = info.Clone()
	if err := r.p.Write(ctx, m); err != nil {
		return err
	}
	r.m = m
	r.log.Info("database saved", "db", code, "sqlModule", info.SQLModule)
	return nil
}

// DelDbInfo removes a database from the registry. The registry is saved only if it had the database.
func (r *Registry) DelDbInfo(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.p == nil {
		return ErrNotInitialized
	}
	if _, ok := r.m[code]; !ok {
		return nil
	}
	m := r.m.Clone()
	delete(m, code)
	if err := r.p.Write(ctx, m); err != nil {
		return err
	}
	r.m = m
	r.log.Info("database removed", "db", code)
	return nil
}

// Connection creates an unopened connection to a database.
//
// It returns nil and no error if the database is not in the registry,
// and *conn.ErrResolution if its driver cannot be found.
func (r *Registry) Connection(code string) (conn.Connection, error) {
	info, ok := r.DbInfo(code)
	if !ok {
		return nil, nil
	}
	info.DBCode = code
	return conn.New(r.drivers, info)
}

// DataAccess opens a connection to a database.
// If the connection cannot be opened, it's destroyed and the driver error is returned.
func (r *Registry) DataAccess(ctx context.Context, code string) (*DataAccess, error) {
	c, err := r.Connection(code)
	if err != nil {
		return nil, err
	} else if c == nil {
		return nil, ErrUnknownDB
	}
	if err = c.Open(ctx); err != nil {
		if derr := c.Destroy(); derr != nil {
			r.log.Debug("cannot destroy connection", "db", code, "err", derr)
		}
		return nil, err
	}
	return newDataAccess(code, c), nil
}

// Descriptor returns the table cache of a database, creating it on the first call.
// Later calls return the same descriptor until ForgetDescriptor is called.
//
// The connection used by the descriptor is opened on the first table lookup.
// Nil is returned for databases that are not in the registry.
func (r *Registry) Descriptor(code string) (*DbDescriptor, error) {
	r.mu.RLock()
	d := r.descr[code]
	r.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	c, err := r.Connection(code)
	if err != nil || c == nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d = r.descr[code]; d != nil {
		// created concurrently
		if err := c.Destroy(); err != nil {
			r.log.Debug("cannot destroy connection", "db", code, "err", err)
		}
		return d, nil
	}
	d = NewDbDescriptor(&lazyConn{Connection: c})
	r.descr[code] = d
	r.log.Debug("descriptor created", "db", code)
	return d, nil
}

// ForgetDescriptor drops the table cache of a database and destroys its connection.
func (r *Registry) ForgetDescriptor(code string) error {
	r.mu.Lock()
	d := r.descr[code]
	delete(r.descr, code)
	r.mu.Unlock()
	if d == nil {
		return nil
	}
	return destroy(d)
}

// Close destroys connections of all descriptors and closes the provider.
func (r *Registry) Close() error {
	r.mu.Lock()
	descr, p := r.descr, r.p
	r.descr = make(map[string]*DbDescriptor)
	r.p = nil
	r.mu.Unlock()

	var errs []error
	for _, d := range descr {
		if err := destroy(d); err != nil {
			errs = append(errs, err)
		}
	}
	if p != nil {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func destroy(d *DbDescriptor) error {
	if c, ok := d.Conn().(conn.Connection); ok {
		return c.Destroy()
	}
	return nil
}

// lazyConn opens the connection on the first introspection.
// Once destroyed, it stays closed and returns conn.ErrNotOpen.
type lazyConn struct {
	conn.Connection

	mu        sync.RWMutex
	opened    bool
	destroyed bool
}

func (c *lazyConn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return conn.ErrNotOpen
	}
	if c.opened {
		return nil
	}
	if err := c.Connection.Open(ctx); err != nil {
		return err
	}
	c.opened = true
	return nil
}

func (c *lazyConn) TableDescriptor(ctx context.Context, name string) (*conn.TableInfo, error) {
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.destroyed {
		return nil, conn.ErrNotOpen
	}
	return c.Connection.TableDescriptor(ctx, name)
}

func (c *lazyConn) Run(ctx context.Context, script string) error {
	if err := c.Open(ctx); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.destroyed {
		return conn.ErrNotOpen
	}
	return c.Connection.Run(ctx, script)
}

// Destroy waits for running calls and closes the connection.
func (c *lazyConn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	c.opened = false
	return c.Connection.Destroy()
}
