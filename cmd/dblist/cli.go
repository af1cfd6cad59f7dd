package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hidal-go/dblist/conn"
	"github.com/hidal-go/dblist/dblist"
	"github.com/hidal-go/dblist/persist"
	"github.com/hidal-go/dblist/persist/kvstore"
)

var errUsage = errors.New("usage: dblist list|get|set|del|describe|run|drivers [args]")

// CLI runs a single command against a registry.
type CLI struct {
	Out io.Writer
	In  io.Reader
	Log *slog.Logger
}

type command struct {
	args int // required positional arguments
	run  func(ctx context.Context, r *dblist.Registry, args []string) error
}

func (c *CLI) commands() map[string]command {
	return map[string]command{
		"list":     {0, c.list},
		"get":      {1, c.get},
		"set":      {1, c.set},
		"del":      {1, c.del},
		"describe": {2, c.describe},
		"run":      {2, c.runScript},
	}
}

func (c *CLI) Run(ctx context.Context, opts persist.Options, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	// kv backends linked in after kvstore initialized
	kvstore.RegisterBackends()
	if args[0] == "drivers" {
		return c.drivers()
	}
	cmd, ok := c.commands()[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	if len(args)-1 < cmd.args {
		return fmt.Errorf("%s: expected %d arguments: %w", args[0], cmd.args, errUsage)
	}
	args = args[1:]

	r, err := dblist.Open(ctx, opts, dblist.WithLogger(c.Log))
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			c.Log.Warn("cannot close registry", "err", err)
		}
	}()
	return cmd.run(ctx, r, args)
}

func (c *CLI) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) list(ctx context.Context, r *dblist.Registry, args []string) error {
	w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	for _, code := range r.List() {
		info, _ := r.DbInfo(code)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", code, info.SQLModule, info.Server, info.Database)
	}
	return w.Flush()
}

func (c *CLI) get(ctx context.Context, r *dblist.Registry, args []string) error {
	info, ok := r.DbInfo(args[0])
	if !ok {
		return fmt.Errorf("database %q is not in the list", args[0])
	}
	if info.Pwd != "" {
		info.Pwd = "***"
	}
	return c.printJSON(info)
}

// optionsFlag collects repeated -opt key=value flags.
type optionsFlag map[string]string

func (o optionsFlag) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (o optionsFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	o[k] = v
	return nil
}

func (c *CLI) set(ctx context.Context, r *dblist.Registry, args []string) error {
	code := args[0]
	info, _ := r.DbInfo(code)
	if info.Options == nil {
		info.Options = make(map[string]string)
	}

	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&info.SQLModule, "module", info.SQLModule, "connection driver name")
	fs.StringVar(&info.Server, "server", info.Server, "server host")
	fs.IntVar(&info.Port, "port", info.Port, "server port")
	fs.StringVar(&info.User, "user", info.User, "user name")
	fs.StringVar(&info.Pwd, "pwd", info.Pwd, "password")
	fs.StringVar(&info.Database, "database", info.Database, "database name")
	fs.StringVar(&info.DefaultSchema, "schema", info.DefaultSchema, "default schema")
	fs.BoolVar(&info.UseTrustedConnection, "trusted", info.UseTrustedConnection, "use trusted connection")
	fs.StringVar(&info.ConnectionString, "conn", info.ConnectionString, "raw connection string")
	fs.StringVar(&info.Driver, "driver", info.Driver, "driver-specific sub-driver")
	fs.Var(optionsFlag(info.Options), "opt", "driver option as key=value, can be repeated")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if len(info.Options) == 0 {
		info.Options = nil
	}
	if info.SQLModule == "" {
		return errors.New("connection driver is not set, use -module")
	}
	if conn.ByName(info.SQLModule) == nil {
		c.Log.Warn("connection driver is not registered", "module", info.SQLModule)
	}
	return r.SetDbInfo(ctx, code, info)
}

func (c *CLI) del(ctx context.Context, r *dblist.Registry, args []string) error {
	return r.DelDbInfo(ctx, args[0])
}

func (c *CLI) describe(ctx context.Context, r *dblist.Registry, args []string) error {
	d, err := r.Descriptor(args[0])
	if err != nil {
		return err
	} else if d == nil {
		return fmt.Errorf("database %q is not in the list", args[0])
	}
	t, err := d.Table(ctx, args[1])
	if err != nil {
		return err
	}
	return c.printJSON(struct {
		*dblist.TableDescriptor
		Key []string `json:"key"`
	}{t, t.Key()})
}

func (c *CLI) runScript(ctx context.Context, r *dblist.Registry, args []string) error {
	var (
		script []byte
		err    error
	)
	if args[1] == "-" {
		script, err = io.ReadAll(c.In)
	} else {
		script, err = os.ReadFile(args[1])
	}
	if err != nil {
		return err
	}
	da, err := r.DataAccess(ctx, args[0])
	if err != nil {
		return err
	}
	defer da.Close()
	return da.Run(ctx, string(script))
}

func (c *CLI) drivers() error {
	w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	for _, d := range conn.List() {
		fmt.Fprintf(w, "driver\t%s\t%s\n", d.Name, d.Title)
	}
	for _, p := range persist.List() {
		fmt.Fprintf(w, "backend\t%s\t%s\n", p.Name, p.Title)
	}
	return w.Flush()
}
