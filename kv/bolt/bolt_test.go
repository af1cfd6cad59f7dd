package bolt_test

import (
	"testing"

	"github.com/hidal-go/dblist/kv/bolt"
	"github.com/hidal-go/dblist/kv/kvtest"
)

func TestBolt(t *testing.T) {
	kvtest.RunTestLocal(t, bolt.OpenPath, nil)
}
