package conn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/base"
)

type nopConn struct {
	info Info
}

func (c *nopConn) Open(ctx context.Context) error               { return nil }
func (c *nopConn) Run(ctx context.Context, script string) error { return nil }
func (c *nopConn) Destroy() error                               { return nil }
func (c *nopConn) TableDescriptor(ctx context.Context, name string) (*TableInfo, error) {
	return nil, TableNotFound(name)
}

func init() {
	Register(Registration{
		Registration: base.Registration{Name: "nop", Title: "No-op"},
		New: func(info Info) (Connection, error) {
			return &nopConn{info: info}, nil
		},
	})
}

func TestRegisterDuplicate(t *testing.T) {
	require.PanicsWithValue(t, base.ErrRegistered{Name: "nop"}, func() {
		Register(Registration{Registration: base.Registration{Name: "nop"}})
	})
}

func TestList(t *testing.T) {
	var names []string
	for _, r := range List() {
		names = append(names, r.Name)
	}
	require.Contains(t, names, "nop")
	require.NotNil(t, ByName("nop"))
	require.Nil(t, ByName("missing"))
}

func TestNew(t *testing.T) {
	info := Info{SQLModule: "nop", Options: map[string]string{"a": "b"}}
	c, err := New(nil, info)
	require.NoError(t, err)
	got := c.(*nopConn).info
	require.Equal(t, info, got)

	got.Options["a"] = "c"
	require.Equal(t, "b", info.Options["a"], "driver must get a copy")
}

func TestNewResolution(t *testing.T) {
	lookup := func(name string) *Registration {
		if name == "empty" {
			return &Registration{Registration: base.Registration{Name: name}}
		}
		return nil
	}
	cases := []struct {
		module string
		reason string
	}{
		{module: "", reason: "driver name is not set"},
		{module: "missing", reason: "not registered"},
		{module: "empty", reason: "no connection constructor"},
	}
	for _, c := range cases {
		_, err := New(lookup, Info{SQLModule: c.module})
		var rerr *ErrResolution
		require.True(t, errors.As(err, &rerr), "%v", err)
		require.Equal(t, c.module, rerr.Name)
		require.Equal(t, c.reason, rerr.Reason)
	}
}

func TestTableNotFound(t *testing.T) {
	err := TableNotFound("customer_no")
	require.True(t, errors.Is(err, ErrTableNotFound))
	require.Contains(t, err.Error(), "does not exist")
}

func TestTrusted(t *testing.T) {
	require.True(t, Info{}.Trusted())
	require.True(t, Info{User: "sa", UseTrustedConnection: true}.Trusted())
	require.False(t, Info{User: "sa"}.Trusted())
	require.False(t, Info{ConnectionString: "x"}.Trusted())
}
