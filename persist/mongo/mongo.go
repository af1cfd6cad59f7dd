// Package mongo keeps the registry mapping in a MongoDB collection.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/persist"
)

const (
	Name = "mongo"
	// Collection holds one document per dbCode.
	Collection = "dblist"
)

func init() {
	persist.Register(persist.Registration{
		Registration: base.Registration{
			Name: Name, Title: "MongoDB",
			Local: false, Volatile: false,
		},
		Open: func(ctx context.Context, opts persist.Options) (persist.Provider, error) {
			return Dial(ctx, opts)
		},
	})
}

type document struct {
	Code string `bson:"_id"`
	Info []byte `bson:"info"`
}

var _ persist.Provider = (*Store)(nil)

type Store struct {
	cli  *mongo.Client
	coll *mongo.Collection
	s    *persist.Sealer
}

// Dial connects to opts.Addr and uses the collection in opts.Database.
func Dial(ctx context.Context, opts persist.Options) (*Store, error) {
	if opts.Database == "" {
		return nil, errors.New("database name is not set")
	}
	s, err := persist.NewSealer(opts.Secret)
	if err != nil {
		return nil, err
	}
	addr := opts.Addr
	if !strings.HasPrefix(addr, "mongodb://") && !strings.HasPrefix(addr, "mongodb+srv://") {
		addr = "mongodb://" + addr
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(addr))
	if err != nil {
		return nil, err
	}
	return New(cli, opts.Database, s), nil
}

// New uses an existing client. The store disconnects it on Close.
func New(cli *mongo.Client, database string, s *persist.Sealer) *Store {
	return &Store{
		cli:  cli,
		coll: cli.Database(database).Collection(Collection),
		s:    s,
	}
}

func (st *Store) Read(ctx context.Context) (persist.Mapping, error) {
	m, err := st.read(ctx)
	if err != nil {
		return nil, &persist.Error{Op: "read", Err: err}
	}
	return m, nil
}

func (st *Store) read(ctx context.Context) (persist.Mapping, error) {
	cur, err := st.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	m := make(persist.Mapping)
	for cur.Next(ctx) {
		var d document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		plain, err := st.s.Open(d.Info)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Code, err)
		}
		var info conn.Info
		if err := json.Unmarshal(plain, &info); err != nil {
			return nil, fmt.Errorf("%s: %w", d.Code, err)
		}
		m[d.Code] = info
	}
	return m, cur.Err()
}

// Write upserts every record and then removes documents that are not in m.
// A failed write may leave extra records behind, but never drops existing ones.
func (st *Store) Write(ctx context.Context, m persist.Mapping) error {
	if err := st.write(ctx, st.coll, m); err != nil {
		return &persist.Error{Op: "write", Err: err}
	}
	return nil
}

// writer is implemented by *mongo.Collection.
type writer interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

func (st *Store) write(ctx context.Context, w writer, m persist.Mapping) error {
	docs := make([]document, 0, len(m))
	for code, info := range m {
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		if data, err = st.s.Seal(data); err != nil {
			return err
		}
		docs = append(docs, document{Code: code, Info: data})
	}
	codes := make([]string, 0, len(docs))
	upsert := options.Replace().SetUpsert(true)
	for _, d := range docs {
		if _, err := w.ReplaceOne(ctx, bson.M{"_id": d.Code}, d, upsert); err != nil {
			return fmt.Errorf("%s: %w", d.Code, err)
		}
		codes = append(codes, d.Code)
	}
	_, err := w.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": codes}})
	return err
}

func (st *Store) Close() error {
	return st.cli.Disconnect(context.Background())
}
