package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// LedgerImporter appends legacy rows. *ledger.Service satisfies it.
type LedgerImporter interface {
	Import(ctx context.Context, entries []ledger.Entry, actor ledger.Actor) (int, error)
}

// ImportOptions defines available flags for the import-ledger command.
type ImportOptions struct {
	File       string
	Sheet      string
	DryRun     bool
	JSONOutput bool
	Actor      ledger.Actor
	Stdout     io.Writer
	Stderr     io.Writer
}

// ImportSummary describes the JSON response for import-ledger.
type ImportSummary struct {
	Sheet    string                  `json:"sheet"`
	Account  ledger.AccountKind      `json:"account"`
	Read     int                     `json:"read"`
	Imported int                     `json:"imported"`
	DryRun   bool                    `json:"dry_run"`
	Issues   []documents.LegacyIssue `json:"issues"`
}

// ImportCommand reads a legacy workbook (or one sheet exported as CSV) and
// appends its rows to the ledger. It exits 10 when some rows were skipped.
func ImportCommand(ctx context.Context, importer LedgerImporter, opts ImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.File) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "import-ledger: --file is required")
		return 1
	}
	if opts.Sheet == "" {
		opts.Sheet = documents.SheetTransactions
	}

	f, err := os.Open(opts.File)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import-ledger: %v\n", err)
		return 1
	}
	defer func() { _ = f.Close() }()

	var parsed documents.LegacyImport
	switch strings.ToLower(filepath.Ext(opts.File)) {
	case ".xlsx":
		parsed, err = documents.ReadLegacyXLSX(f, opts.Sheet)
	case ".csv":
		parsed, err = documents.ReadLegacyCSV(f, opts.Sheet)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "import-ledger: unsupported file type %q (expected .xlsx or .csv)\n", filepath.Ext(opts.File))
		return 1
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import-ledger: %v\n", err)
		return 1
	}

	summary := ImportSummary{
		Sheet:   opts.Sheet,
		Account: parsed.Account,
		Read:    len(parsed.Entries),
		DryRun:  opts.DryRun,
		Issues:  parsed.Issues,
	}
	if summary.Issues == nil {
		summary.Issues = []documents.LegacyIssue{}
	}
	if !opts.DryRun {
		n, err := importer.Import(ctx, parsed.Entries, opts.Actor)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "import-ledger: %v\n", err)
			return 1
		}
		summary.Imported = n
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "import-ledger: encode json: %v\n", err)
			return 1
		}
	} else {
		renderImportHuman(opts.Stdout, summary)
	}
	if len(summary.Issues) > 0 {
		return 10
	}
	return 0
}

func renderImportHuman(out io.Writer, s ImportSummary) {
	verb := "imported"
	if s.DryRun {
		verb = "would import"
	}
	count := s.Imported
	if s.DryRun {
		count = s.Read
	}
	_, _ = fmt.Fprintf(out, "%s: %s %d %s row(s)\n", s.Sheet, verb, count, s.Account)
	if len(s.Issues) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "%d row(s) skipped:\n", len(s.Issues))
	for _, issue := range s.Issues {
		_, _ = fmt.Fprintf(out, "  %s\n", issue.Error())
	}
}
