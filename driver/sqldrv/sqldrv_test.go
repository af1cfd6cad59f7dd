package sqldrv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/conn"
)

func TestSplitBatches(t *testing.T) {
	script := "CREATE TABLE a (id int)\nGO\n\n  go  \nCREATE VIEW v AS SELECT * FROM a\nGO"
	require.Equal(t, []string{
		"CREATE TABLE a (id int)",
		"CREATE VIEW v AS SELECT * FROM a",
	}, SplitBatches(script, "GO"))
	require.Empty(t, SplitBatches("\nGO\n", "GO"))
}

func TestInfoSchemaXType(t *testing.T) {
	require.Equal(t, conn.XTypeTable, InfoSchemaXType("BASE TABLE"))
	require.Equal(t, conn.XTypeView, InfoSchemaXType("VIEW"))
	require.Equal(t, conn.XTypeView, InfoSchemaXType("view "))
}

func TestNotOpen(t *testing.T) {
	c := New(conn.Info{Database: "db"}, Dialect{})
	ctx := context.Background()

	require.Equal(t, conn.ErrNotOpen, c.Run(ctx, "SELECT 1"))
	_, err := c.TableDescriptor(ctx, "customer")
	require.Equal(t, conn.ErrNotOpen, err)
	require.NoError(t, c.Destroy())
	require.Nil(t, c.DB())
}

func TestSchema(t *testing.T) {
	require.Equal(t, "db", New(conn.Info{Database: "db"}, Dialect{}).Schema())
	require.Equal(t, "public", New(conn.Info{Database: "db"}, Dialect{DefaultSchema: "public"}).Schema())
	require.Equal(t, "sales", New(conn.Info{Database: "db", DefaultSchema: "sales"}, Dialect{DefaultSchema: "public"}).Schema())
}

func TestDSNError(t *testing.T) {
	errDSN := errors.New("no dsn")
	c := New(conn.Info{}, Dialect{DSN: func(conn.Info) (string, error) { return "", errDSN }})
	require.Equal(t, errDSN, c.Open(context.Background()))
}

type fakeRows struct {
	rows [][]interface{}
	i    int
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.rows[r.i-1]
	*dest[0].(*string) = row[0].(string)
	*dest[1].(*string) = row[1].(string)
	for i := 2; i < 5; i++ {
		if row[i] != nil {
			if err := dest[i].(interface{ Scan(interface{}) error }).Scan(row[i]); err != nil {
				return err
			}
		}
	}
	*dest[5].(*int64) = row[5].(int64)
	*dest[6].(*int64) = row[6].(int64)
	return nil
}

func TestScanColumns(t *testing.T) {
	rows := &fakeRows{rows: [][]interface{}{
		{"idcustomer", "int", int64(4), int64(10), int64(0), int64(0), int64(1)},
		{"name", "varchar", int64(50), nil, nil, int64(1), int64(0)},
	}}
	cols, err := ScanColumns(rows)
	require.NoError(t, err)
	require.Equal(t, []conn.Column{
		{Name: "idcustomer", Type: "int", MaxLength: 4, Precision: 10, PK: true},
		{Name: "name", Type: "varchar", MaxLength: 50, IsNullable: true},
	}, cols)
}
