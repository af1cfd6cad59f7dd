package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var prefixEndCases = []struct {
	pref Key
	exp  Key
}{
	{pref: Key("a"), exp: Key("b")},
	{pref: Key("dblist/"), exp: Key("dblist0")},
	{pref: Key{'a', 0xff}, exp: Key("b")},
	{pref: Key{0xff, 0xff}, exp: nil},
	{pref: nil, exp: nil},
}

func TestPrefixEnd(t *testing.T) {
	for _, c := range prefixEndCases {
		require.Equal(t, c.exp, PrefixEnd(c.pref), "%q", c.pref)
	}
}

func TestKeyClone(t *testing.T) {
	k := Key("abc")
	c := k.Clone()
	c[0] = 'x'
	require.Equal(t, Key("abc"), k)
	require.Nil(t, Key(nil).Clone())
	require.True(t, k.HasPrefix(Key("ab")))
	require.False(t, k.HasPrefix(Key("b")))
}

func TestOpenPathUnknown(t *testing.T) {
	_, err := OpenPath("no-such-backend", "")
	require.Error(t, err)
	require.Nil(t, ByName("no-such-backend"))
}
