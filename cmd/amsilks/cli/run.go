// Package cli implements the maintenance subcommands of the amsilks binary.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// Deps carries what the subcommands need. Unused fields may be nil.
type Deps struct {
	Importer   LedgerImporter
	Statements StatementSource
	Writer     StatementWriter
	Jobs       *JobsCLI
	Users      UserCreator
	Actor      ledger.Actor
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// Usage lists the subcommands.
const Usage = `usage: amsilks <command> [flags]

commands:
  serve                                   run the HTTP server (default)
  import-ledger --file F [--sheet S]      import a legacy workbook or CSV export
  statement --kind K --key K --file F     write a statement as pdf, xlsx or csv
  jobs trigger <task> | jobs stats        enqueue a job or show queue counters
  user add --username U --role R          create a login (password on stdin)
`

// IsCommand reports whether name is a subcommand handled by Run.
func IsCommand(name string) bool {
	switch name {
	case "import-ledger", "statement", "jobs", "user", "help", "-h", "--help":
		return true
	}
	return false
}

// Run dispatches args (without the program name) and returns the exit code.
func Run(ctx context.Context, args []string, deps Deps) int {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprint(deps.Stderr, Usage)
		return 2
	}

	switch args[0] {
	case "import-ledger":
		fs := newFlagSet("import-ledger", deps.Stderr)
		opts := ImportOptions{Actor: deps.Actor, Stdout: deps.Stdout, Stderr: deps.Stderr}
		fs.StringVar(&opts.File, "file", "", "workbook (.xlsx) or sheet export (.csv)")
		fs.StringVar(&opts.Sheet, "sheet", "Transactions", "Transactions or Suppliers")
		fs.BoolVar(&opts.DryRun, "dry-run", false, "parse only")
		fs.BoolVar(&opts.JSONOutput, "json", false, "print a JSON summary")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		return ImportCommand(ctx, deps.Importer, opts)

	case "statement":
		fs := newFlagSet("statement", deps.Stderr)
		opts := StatementOptions{Stdout: deps.Stdout, Stderr: deps.Stderr}
		fs.StringVar(&opts.Kind, "kind", "customer", "customer or supplier")
		fs.StringVar(&opts.Key, "key", "", "customer phone or supplier name")
		fs.StringVar(&opts.File, "file", "", "output path ending in .pdf, .xlsx or .csv")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		return StatementCommand(ctx, deps.Statements, deps.Writer, opts)

	case "jobs":
		fs := newFlagSet("jobs", deps.Stderr)
		opts := JobsOptions{Stdout: deps.Stdout, Stderr: deps.Stderr}
		fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		rest := fs.Args()
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(deps.Stderr, "jobs: expected trigger or stats")
			return 2
		}
		switch rest[0] {
		case "trigger":
			if len(rest) > 1 {
				opts.Task = rest[1]
			}
			return deps.Jobs.TriggerCommand(ctx, opts)
		case "stats":
			return deps.Jobs.StatsCommand(ctx, opts)
		}
		_, _ = fmt.Fprintf(deps.Stderr, "jobs: unknown subcommand %q\n", rest[0])
		return 2

	case "user":
		if len(args) < 2 || args[1] != "add" {
			_, _ = fmt.Fprintln(deps.Stderr, "user: expected add")
			return 2
		}
		fs := newFlagSet("user add", deps.Stderr)
		opts := UserAddOptions{Stdin: deps.Stdin, Stdout: deps.Stdout, Stderr: deps.Stderr}
		fs.StringVar(&opts.Username, "username", "", "login name")
		fs.StringVar(&opts.Name, "name", "", "display name")
		fs.StringVar(&opts.Role, "role", "staff", "admin or staff")
		fs.StringVar(&opts.Password, "password", "", "password (read from stdin when empty)")
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		return UserAddCommand(ctx, deps.Users, opts)

	case "help", "-h", "--help":
		_, _ = fmt.Fprint(deps.Stdout, Usage)
		return 0
	}

	_, _ = fmt.Fprintf(deps.Stderr, "unknown command %q\n\n%s", args[0], Usage)
	return 2
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
