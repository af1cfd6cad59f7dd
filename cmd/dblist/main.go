// Command dblist manages a list of databases and describes their tables.
//
//	dblist list
//	dblist get <dbCode>
//	dblist set <dbCode> [-module name] [-server host] [-user name] ...
//	dblist del <dbCode>
//	dblist describe <dbCode> <table>
//	dblist run <dbCode> <script file or ->
//	dblist drivers
//
// Storage is configured with DBLIST_* environment variables, see internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hidal-go/dblist/internal/config"

	_ "github.com/hidal-go/dblist/driver/mssql"
	_ "github.com/hidal-go/dblist/driver/mysql"
	_ "github.com/hidal-go/dblist/driver/pgx"
	_ "github.com/hidal-go/dblist/driver/postgres"

	_ "github.com/hidal-go/dblist/kv/badger"
	_ "github.com/hidal-go/dblist/kv/bbolt"
	_ "github.com/hidal-go/dblist/kv/bolt"
	_ "github.com/hidal-go/dblist/kv/leveldb"
	_ "github.com/hidal-go/dblist/kv/memkv"
	_ "github.com/hidal-go/dblist/kv/pebble"

	_ "github.com/hidal-go/dblist/persist/file"
	_ "github.com/hidal-go/dblist/persist/kvstore"
	_ "github.com/hidal-go/dblist/persist/mongo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cli := &CLI{Out: os.Stdout, In: os.Stdin, Log: logger}
	return cli.Run(ctx, cfg.PersistOptions(), os.Args[1:])
}
