package drivertest

import (
	"context"
	"strconv"
	"testing"

	"github.com/ory/dockertest"

	"github.com/hidal-go/dblist/conn"
)

// Database starts a database server and returns a record that connects to it
// as an administrator, without a database selected.
type Database struct {
	Image string
	Tag   string
	Env   []string
	Port  string // container port, like 5432/tcp
	// Info builds an admin record for a given host port.
	Info func(port int) conn.Info
	// Maintenance is a database that always exists on the server.
	Maintenance string
}

func (d Database) run(tb testing.TB, driver string) conn.Info {
	pool, err := dockertest.NewPool("")
	if err != nil {
		tb.Skip("docker is not available:", err)
	}

	cont, err := pool.Run(d.Image, d.Tag, d.Env)
	if err != nil {
		tb.Skip("cannot start a container:", err)
	}
	tb.Cleanup(func() {
		_ = cont.Close()
	})

	port, err := strconv.Atoi(cont.GetPort(d.Port))
	if err != nil {
		tb.Fatal(err)
	}
	info := d.Info(port)
	info.SQLModule = driver

	err = pool.Retry(func() error {
		admin := info
		admin.Database = d.Maintenance
		c, err := conn.New(nil, admin)
		if err != nil {
			return err
		}
		defer c.Destroy()
		return c.Open(context.TODO())
	})
	if err != nil {
		tb.Fatal(err)
	}
	return info
}

// Postgres runs the official postgres image.
func Postgres(vers string) Database {
	return Database{
		Image: "postgres", Tag: vers,
		Env:  []string{"POSTGRES_PASSWORD=postgres"},
		Port: "5432/tcp",
		Info: func(port int) conn.Info {
			return conn.Info{Server: "localhost", Port: port, User: "postgres", Pwd: "postgres"}
		},
		Maintenance: "postgres",
	}
}

// MySQL runs the official mysql image.
func MySQL(vers string) Database {
	return Database{
		Image: "mysql", Tag: vers,
		Env:  []string{"MYSQL_ROOT_PASSWORD=root"},
		Port: "3306/tcp",
		Info: func(port int) conn.Info {
			return conn.Info{Server: "127.0.0.1", Port: port, User: "root", Pwd: "root"}
		},
		Maintenance: "mysql",
	}
}

// MSSQL runs the SQL Server image.
func MSSQL(vers string) Database {
	const pwd = "Dblist-Passw0rd"
	return Database{
		Image: "mcr.microsoft.com/mssql/server", Tag: vers,
		Env:  []string{"ACCEPT_EULA=Y", "MSSQL_SA_PASSWORD=" + pwd},
		Port: "1433/tcp",
		Info: func(port int) conn.Info {
			return conn.Info{Server: "localhost", Port: port, User: "sa", Pwd: pwd}
		},
		Maintenance: "master",
	}
}
