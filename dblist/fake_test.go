package dblist_test

import (
	"context"
	"sync"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/persist"
)

const fakeDriver = "fake"

var customer = &conn.TableInfo{
	TableName: "customer", XType: conn.XTypeTable, IsDbo: true,
	Columns: []conn.Column{
		{Name: "idcustomer", Type: "int", PK: true},
		{Name: "name", Type: "varchar", MaxLength: 50, IsNullable: true},
	},
}

var customerView = &conn.TableInfo{
	TableName: "customerview", XType: conn.XTypeView, IsDbo: true,
	Columns: []conn.Column{
		{Name: "idcustomer", Type: "int"},
		{Name: "name", Type: "varchar", MaxLength: 50, IsNullable: true},
	},
}

// fakeConn serves customer and customerview and counts introspection calls.
type fakeConn struct {
	info    conn.Info
	openErr error
	// barrier, if set, holds TableDescriptor until all expected calls arrive.
	barrier *sync.WaitGroup

	mu        sync.Mutex
	opened    bool
	destroyed bool
	calls     map[string]int
	scripts   []string
}

func newFakeConn(info conn.Info) *fakeConn {
	return &fakeConn{info: info, calls: make(map[string]int)}
}

func (c *fakeConn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	return nil
}

func (c *fakeConn) Run(ctx context.Context, script string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return conn.ErrNotOpen
	}
	c.scripts = append(c.scripts, script)
	return nil
}

func (c *fakeConn) TableDescriptor(ctx context.Context, name string) (*conn.TableInfo, error) {
	if c.barrier != nil {
		c.barrier.Done()
		c.barrier.Wait()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return nil, conn.ErrNotOpen
	}
	c.calls[name]++
	switch name {
	case customer.TableName:
		return customer, nil
	case customerView.TableName:
		return customerView, nil
	}
	return nil, conn.TableNotFound(name)
}

func (c *fakeConn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = false
	c.destroyed = true
	return nil
}

func (c *fakeConn) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// fakeDrivers is a driver lookup that remembers every connection it created.
type fakeDrivers struct {
	openErr error

	mu    sync.Mutex
	conns []*fakeConn
}

func (d *fakeDrivers) Lookup(name string) *conn.Registration {
	if name != fakeDriver {
		return nil
	}
	return &conn.Registration{
		Registration: base.Registration{Name: fakeDriver},
		New: func(info conn.Info) (conn.Connection, error) {
			c := newFakeConn(info)
			c.openErr = d.openErr
			d.mu.Lock()
			d.conns = append(d.conns, c)
			d.mu.Unlock()
			return c, nil
		},
	}
}

func (d *fakeDrivers) Last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// memProvider is an in-memory persist.Provider that counts writes.
type memProvider struct {
	mu       sync.Mutex
	m        persist.Mapping
	writes   int
	writeErr error
	closed   bool
}

func (p *memProvider) Read(ctx context.Context) (persist.Mapping, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m.Clone(), nil
}

func (p *memProvider) Write(ctx context.Context, m persist.Mapping) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return &persist.Error{Op: "write", Err: p.writeErr}
	}
	p.writes++
	p.m = m.Clone()
	return nil
}

func (p *memProvider) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
