// Command aiodb inspects and maintains the database files written by package
// aiodb.
//
// Usage:
//
//	aiodb [--dir DIR] schema <table>
//	aiodb [--dir DIR] journal <table> [--set MODE]
//	aiodb driver
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/go-mizu/aiodb"
	"github.com/go-mizu/aiodb/sqlite"
)

// Globals are flags shared by every command.
type Globals struct {
	Dir     string `name:"dir" short:"d" help:"Directory holding <table>.db files" type:"path" default:"." env:"AIODB_DIR"`
	Verbose bool   `name:"verbose" short:"v" help:"Log at debug level"`
}

// runtime carries what commands need besides flags.
type runtime struct {
	log *zap.SugaredLogger
	out io.Writer
}

// CLI defines the command-line interface for aiodb.
type CLI struct {
	Globals

	Schema  SchemaCmd  `cmd:"" help:"Print the columns of a table"`
	Journal JournalCmd `cmd:"" help:"Show or change the journal mode of a table's database"`
	Driver  DriverCmd  `cmd:"" help:"Print the linked SQLite driver"`
}

// SchemaCmd prints the live columns of a table as JSON.
type SchemaCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *SchemaCmd) Run(g *Globals, rt *runtime) error {
	ctx := context.Background()
	st, err := g.open(rt, c.Table)
	if err != nil {
		return err
	}
	defer st.Close()

	cols, ok, err := aiodb.TableColumns(ctx, st, c.Table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("table %s not found in %s", c.Table, g.Dir)
	}
	return rt.print(map[string]any{"table": c.Table, "columns": cols})
}

// JournalCmd reads, and with --set changes, the journal mode.
type JournalCmd struct {
	Table string `arg:"" help:"Table name"`
	Set   string `name:"set" help:"New journal mode (WAL, DELETE, TRUNCATE, PERSIST, MEMORY or OFF)"`
}

func (c *JournalCmd) Run(g *Globals, rt *runtime) error {
	ctx := context.Background()
	st, err := g.open(rt, c.Table)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Set != "" {
		if err := aiodb.ApplyJournalMode(ctx, st, aiodb.JournalMode(c.Set)); err != nil {
			return err
		}
		rt.log.Infow("Journal mode changed", "table", c.Table, "mode", c.Set)
	}
	mode, err := aiodb.ReadJournalMode(ctx, st)
	if err != nil {
		return err
	}
	return rt.print(map[string]any{"table": c.Table, "journal_mode": mode})
}

// DriverCmd prints sqlite.GetInfo.
type DriverCmd struct{}

func (c *DriverCmd) Run(g *Globals, rt *runtime) error {
	return rt.print(sqlite.GetInfo())
}

type store interface {
	aiodb.Querier
	Close() error
}

// open opens the file of an existing table; it never creates one.
func (g *Globals) open(rt *runtime, table string) (store, error) {
	path := filepath.Join(g.Dir, table+".db")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rt.log.Debugw("Opening database", "path", path, "driver", sqlite.DriverName())
	db, err := sqlite.Open(sqlite.FileDSN(path))
	if err != nil {
		return nil, err
	}
	// Leaving WAL needs the only connection to the file.
	db.SetMaxOpenConns(1)
	return db, nil
}

func (rt *runtime) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(rt.out, string(b))
	return err
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("aiodb"),
		kong.Description("Inspect and maintain aiodb SQLite tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	log, err := newLogger(cli.Verbose)
	ctx.FatalIfErrorf(err)
	defer func() { _ = log.Sync() }()

	err = ctx.Run(&cli.Globals, &runtime{log: log, out: os.Stdout})
	ctx.FatalIfErrorf(err)
}
