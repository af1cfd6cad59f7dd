package dblist

import (
	"context"
	"sort"
	"sync"

	"github.com/hidal-go/dblist/conn"
)

// ColumnDescriptor describes a single column of a table or a view.
type ColumnDescriptor = conn.Column

// TableDescriptor is the structure of a table or a view. It must not be modified once built.
type TableDescriptor struct {
	Name    string             `json:"name"`
	XType   string             `json:"xtype"` // conn.XTypeTable or conn.XTypeView
	Dbo     bool               `json:"dbo"`
	Columns []ColumnDescriptor `json:"columns"`
}

// NewTableDescriptor creates a descriptor with given columns, in order.
func NewTableDescriptor(name, xtype string, isDbo bool, columns []ColumnDescriptor) *TableDescriptor {
	return &TableDescriptor{Name: name, XType: xtype, Dbo: isDbo, Columns: columns}
}

func newTableDescriptor(ti *conn.TableInfo) *TableDescriptor {
	cols := make([]ColumnDescriptor, len(ti.Columns))
	copy(cols, ti.Columns)
	return NewTableDescriptor(ti.TableName, ti.XType, ti.IsDbo, cols)
}

// Column returns a column by name, or nil if there is none.
func (t *TableDescriptor) Column(name string) *ColumnDescriptor {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Key returns names of primary key columns in column order.
// The result is empty for views and tables without a primary key.
func (t *TableDescriptor) Key() []string {
	keys := []string{}
	for _, c := range t.Columns {
		if c.PK {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// IsView reports whether the descriptor is for a view.
func (t *TableDescriptor) IsView() bool {
	return t.XType == conn.XTypeView
}

// DbDescriptor keeps track of the structure of one database.
//
// Tables are introspected on first access and cached until ForgetTable is called.
// Concurrent reads of the same uncached table are not merged:
// each of them queries the database.
type DbDescriptor struct {
	c conn.Introspector

	mu     sync.RWMutex
	tables map[string]*TableDescriptor
}

// NewDbDescriptor creates an empty descriptor that introspects tables with c.
func NewDbDescriptor(c conn.Introspector) *DbDescriptor {
	return &DbDescriptor{c: c, tables: make(map[string]*TableDescriptor)}
}

// Conn returns the introspector the descriptor is bound to.
func (d *DbDescriptor) Conn() conn.Introspector {
	return d.c
}

func (d *DbDescriptor) cached(name string) *TableDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tables[name]
}

// Table returns the structure of a table or a view.
//
// Errors of the introspection are returned as is and nothing is cached for them,
// so the next call will query the database again.
func (d *DbDescriptor) Table(ctx context.Context, name string) (*TableDescriptor, error) {
	if t := d.cached(name); t != nil {
		return t, nil
	}
	ti, err := d.c.TableDescriptor(ctx, name)
	if err != nil {
		return nil, err
	}
	t := newTableDescriptor(ti)
	d.SetTable(name, t)
	return t, nil
}

// SetTable stores the structure of a table without querying the database.
func (d *DbDescriptor) SetTable(name string, t *TableDescriptor) {
	d.mu.Lock()
	d.tables[name] = t
	d.mu.Unlock()
}

// ForgetTable drops a cached table, if any.
func (d *DbDescriptor) ForgetTable(name string) {
	d.mu.Lock()
	delete(d.tables, name)
	d.mu.Unlock()
}

// Tables lists names of cached tables.
func (d *DbDescriptor) Tables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.tables))
	for name := range d.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
