package mongo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ory/dockertest"
	"github.com/stretchr/testify/require"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hidal-go/dblist/persist"
	"github.com/hidal-go/dblist/persist/mongo"
)

const vers = "5"

func runMongo(t testing.TB) string {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skip("docker is not available:", err)
	}
	cont, err := pool.Run("mongo", vers, nil)
	if err != nil {
		t.Skip("cannot start mongo:", err)
	}
	t.Cleanup(func() {
		_ = cont.Close()
	})

	addr := "mongodb://localhost:" + cont.GetPort("27017/tcp")
	err = pool.Retry(func() error {
		cli, err := gomongo.Connect(context.TODO(), options.Client().ApplyURI(addr))
		if err != nil {
			return err
		}
		defer cli.Disconnect(context.TODO())
		return cli.Ping(context.TODO(), nil)
	})
	require.NoError(t, err)
	return addr
}

func TestMongo(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}
	addr := runMongo(t)
	ctx := context.Background()
	opts := persist.Options{
		Backend:  mongo.Name,
		Addr:     addr,
		Database: "db_" + uuid.NewString()[:8],
		Secret:   &persist.Secret{Pwd: "pwd"},
	}

	p, err := persist.Open(ctx, opts)
	require.NoError(t, err)
	defer p.Close()

	m, err := p.Read(ctx)
	require.NoError(t, err)
	require.Empty(t, m)

	m = persist.Mapping{
		"a": {SQLModule: "postgres", Server: "pg"},
		"b": {SQLModule: "mysql", Server: "my"},
	}
	require.NoError(t, p.Write(ctx, m))
	delete(m, "b")
	require.NoError(t, p.Write(ctx, m))

	got, err := p.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, m, got)

	// an interrupted write keeps stored records
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, p.Write(cctx, persist.Mapping{"c": {SQLModule: "pgx"}}))
	got, err = p.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, m, got)

	require.NoError(t, p.Write(ctx, persist.Mapping{}))
	got, err = p.Read(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDialNoDatabase(t *testing.T) {
	_, err := mongo.Dial(context.Background(), persist.Options{Addr: "localhost"})
	require.Error(t, err)
}
