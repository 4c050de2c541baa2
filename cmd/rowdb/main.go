// Command rowdb is a single-table record store.
//
// EDUCATIONAL NOTES:
// ------------------
// The default command is the REPL, so "rowdb mydb.db" opens the file and
// reads statements from stdin:
//
//	db > insert 1 alice alice@example.com
//	Executed.
//	db > select
//	(1, alice, alice@example.com)
//	Executed.
//	db > .exit
//
// The other subcommands serve the same file over HTTP or work on it
// offline (inspect, backup, restore, export).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/repl"
	"github.com/cabewaldrop/rowdb/internal/sql/executor"
	"github.com/cabewaldrop/rowdb/internal/tools"
	"github.com/cabewaldrop/rowdb/internal/web"
)

const version = "0.3.0"

// Globals are flags shared by every command, plus the process streams.
type Globals struct {
	LogLevel  string `name:"log-level" env:"ROWDB_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"ROWDB_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// initLogging configures the process logger. Logs always go to stderr so
// they never mix with REPL output.
func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.Init(level, format, g.Stderr)
	return nil
}

// CLI defines the command-line interface for rowdb.
type CLI struct {
	Globals

	Repl    ReplCmd    `cmd:"" default:"withargs" help:"Run the interactive REPL on a database file"`
	Serve   ServeCmd   `cmd:"" help:"Serve a database file over HTTP"`
	Inspect InspectCmd `cmd:"" help:"Describe a database file without modifying it"`
	Backup  BackupCmd  `cmd:"" help:"Write a compressed backup of a database file"`
	Restore RestoreCmd `cmd:"" help:"Restore a backup into a new database file"`
	Export  ExportCmd  `cmd:"" help:"Export a database file to SQLite"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ReplCmd runs the read-execute-print loop.
type ReplCmd struct {
	File string `arg:"" help:"Database file, created if missing" type:"path"`
}

func (c *ReplCmd) Run(g *Globals) error {
	exec, err := executor.Open(c.File)
	if err != nil {
		return err
	}
	return repl.New(exec, g.Stdin, g.Stdout).Run()
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	File string `arg:"" help:"Database file, created if missing" type:"path"`
	Addr string `env:"ROWDB_ADDR" default:":8080" help:"Listen address"`
}

func (c *ServeCmd) Run(g *Globals) error {
	exec, err := executor.Open(c.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := web.NewServer(c.Addr, exec).Run(ctx)
	if err := exec.Close(); err != nil {
		return err
	}
	return serveErr
}

// InspectCmd prints a summary of a database file.
type InspectCmd struct {
	File string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *InspectCmd) Run(g *Globals) error {
	report, err := tools.Inspect(c.File)
	if err != nil {
		return err
	}
	fmt.Fprint(g.Stdout, report.String())
	return nil
}

// BackupCmd writes a tar.xz backup.
type BackupCmd struct {
	File string `arg:"" help:"Database file" type:"existingfile"`
	Out  string `required:"" help:"Output archive path" type:"path"`
}

func (c *BackupCmd) Run(g *Globals) error {
	manifest, err := tools.Backup(c.File, c.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Backed up %d rows to %s (blake3 %s)\n", manifest.Rows, c.Out, manifest.BLAKE3)
	return nil
}

// RestoreCmd unpacks a backup into a new file.
type RestoreCmd struct {
	Archive string `arg:"" help:"Backup archive" type:"existingfile"`
	File    string `arg:"" help:"Database file to create" type:"path"`
}

func (c *RestoreCmd) Run(g *Globals) error {
	manifest, err := tools.Restore(c.Archive, c.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Restored %d rows to %s\n", manifest.Rows, c.File)
	return nil
}

// ExportCmd copies the rows into an SQLite database.
type ExportCmd struct {
	File   string `arg:"" help:"Database file" type:"existingfile"`
	SQLite string `name:"sqlite" required:"" help:"Output SQLite database path" type:"path"`
}

func (c *ExportCmd) Run(g *Globals) error {
	n, err := tools.ExportSQLite(context.Background(), c.File, c.SQLite)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Exported %d rows to %s\n", n, c.SQLite)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.Stdout, "rowdb version %s\n", version)
	return nil
}

// newParser builds the kong parser for cli.
func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("rowdb"),
		kong.Description("A single-table record store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)
	return kong.New(cli, options...)
}

// run parses args and runs the selected command.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := CLI{}
	parser, err := newParser(&cli, kong.Writers(stdout, stderr))
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Stdin = stdin
	cli.Stdout = stdout
	cli.Stderr = stderr
	if err := cli.initLogging(); err != nil {
		return err
	}

	return ctx.Run(&cli.Globals)
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rowdb: error: %v\n", err)
		os.Exit(1)
	}
}
