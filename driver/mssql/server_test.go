package mssql_test

import (
	"testing"

	"github.com/hidal-go/dblist/driver/drivertest"
	"github.com/hidal-go/dblist/driver/mssql"
)

func TestSQLServer(t *testing.T) {
	drivertest.Test(t, mssql.Name, drivertest.MSSQL("2019-latest"))
}
