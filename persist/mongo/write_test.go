package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hidal-go/dblist/persist"
)

// memColl applies writes to a map and fails after a number of replaces.
type memColl struct {
	docs     map[string]document
	failAt   int // fail the n-th replace, 1-based; 0 never fails
	replaces int
	deletes  int
}

var errNetwork = errors.New("connection reset")

func (c *memColl) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	c.replaces++
	if c.failAt != 0 && c.replaces == c.failAt {
		return nil, errNetwork
	}
	d := replacement.(document)
	c.docs[d.Code] = d
	return &mongo.UpdateResult{}, nil
}

func (c *memColl) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.deletes++
	keep := make(map[string]bool)
	for _, code := range filter.(bson.M)["_id"].(bson.M)["$nin"].([]string) {
		keep[code] = true
	}
	for code := range c.docs {
		if !keep[code] {
			delete(c.docs, code)
		}
	}
	return &mongo.DeleteResult{}, nil
}

func TestWriteFailureKeepsRecords(t *testing.T) {
	ctx := context.Background()
	st := &Store{}
	coll := &memColl{docs: make(map[string]document)}

	require.NoError(t, st.write(ctx, coll, persist.Mapping{
		"a": {SQLModule: "postgres"},
		"b": {SQLModule: "mysql"},
	}))
	require.Len(t, coll.docs, 2)

	coll.failAt = coll.replaces + 1
	err := st.write(ctx, coll, persist.Mapping{"c": {SQLModule: "pgx"}})
	require.True(t, errors.Is(err, errNetwork))
	require.Len(t, coll.docs, 2)
	require.Equal(t, 1, coll.deletes)

	coll.failAt = 0
	require.NoError(t, st.write(ctx, coll, persist.Mapping{"c": {SQLModule: "pgx"}}))
	require.Len(t, coll.docs, 1)
	require.Contains(t, coll.docs, "c")

	require.NoError(t, st.write(ctx, coll, persist.Mapping{}))
	require.Empty(t, coll.docs)
}
