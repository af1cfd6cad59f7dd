package mysql_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/driver/drivertest"
	"github.com/hidal-go/dblist/driver/mysql"
)

func TestDSN(t *testing.T) {
	dsn, err := mysql.DSN(conn.Info{Server: "my", Port: 3306, User: "root", Pwd: "root", Database: "sales"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "root:root@tcp(my:3306)/sales?"), dsn)
	require.Contains(t, dsn, "multiStatements=true")
	require.Contains(t, dsn, "parseTime=true")

	_, err = mysql.DSN(conn.Info{})
	require.Error(t, err)
}

func TestMySQL(t *testing.T) {
	drivertest.Test(t, mysql.Name, drivertest.MySQL("5.7"))
}
