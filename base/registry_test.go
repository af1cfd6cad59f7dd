package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrationValidate(t *testing.T) {
	taken := map[string]bool{"mem": true}
	exists := func(name string) bool { return taken[name] }

	require.NotPanics(t, func() {
		Registration{Name: "disk"}.Validate(exists)
	})
	require.PanicsWithValue(t, "name cannot be empty", func() {
		Registration{}.Validate(exists)
	})
	require.PanicsWithValue(t, ErrRegistered{Name: "mem"}, func() {
		Registration{Name: "mem"}.Validate(exists)
	})
	require.Equal(t, "already registered: mem", ErrRegistered{Name: "mem"}.Error())
}
