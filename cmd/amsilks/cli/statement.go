package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// StatementSource builds running-balance statements. *ledger.Service
// satisfies it.
type StatementSource interface {
	CustomerStatement(ctx context.Context, phone string) (ledger.Statement, error)
	SupplierStatement(ctx context.Context, name string) (ledger.Statement, error)
}

// StatementWriter renders statements. *documents.Renderer satisfies it.
type StatementWriter interface {
	StatementPDF(doc documents.StatementDoc) ([]byte, error)
	StatementXLSX(doc documents.StatementDoc) ([]byte, error)
}

// StatementOptions defines available flags for the statement command.
type StatementOptions struct {
	Kind   string
	Key    string
	File   string
	Now    time.Time
	Stdout io.Writer
	Stderr io.Writer
}

// StatementCommand writes a customer or supplier statement to opts.File. The
// format follows the file extension.
func StatementCommand(ctx context.Context, source StatementSource, writer StatementWriter, opts StatementOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" || opts.File == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "statement: --key and --file are required")
		return 1
	}

	var (
		stmt  ledger.Statement
		title string
		err   error
	)
	switch ledger.AccountKind(strings.ToLower(opts.Kind)) {
	case ledger.AccountCustomer:
		key = ledger.NormalizePhone(key)
		stmt, err = source.CustomerStatement(ctx, key)
		title = key
	case ledger.AccountSupplier:
		stmt, err = source.SupplierStatement(ctx, key)
		title = key
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "statement: --kind must be %s or %s\n", ledger.AccountCustomer, ledger.AccountSupplier)
		return 1
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
		return 1
	}

	doc := documents.StatementDoc{Title: title, Statement: stmt, AsOf: opts.Now}
	var body []byte
	switch strings.ToLower(filepath.Ext(opts.File)) {
	case ".pdf":
		body, err = writer.StatementPDF(doc)
	case ".xlsx":
		body, err = writer.StatementXLSX(doc)
	case ".csv":
		body, err = documents.StatementCSV(stmt)
	default:
		_, _ = fmt.Fprintln(opts.Stderr, "statement: --file must end in .pdf, .xlsx or .csv")
		return 1
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: render: %v\n", err)
		return 1
	}
	if err := os.WriteFile(opts.File, body, 0o644); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "wrote %d row(s) to %s, balance %s\n",
		len(stmt.Rows), opts.File, stmt.Balance.StringFixed(2))
	if stmt.Invalid > 0 {
		_, _ = fmt.Fprintf(opts.Stdout, "%d row(s) could not be read and are flagged in the statement\n", stmt.Invalid)
	}
	return 0
}
