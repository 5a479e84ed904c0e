package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/auth"
	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/shared"
	"github.com/amsilks/amsilks-erp/jobs"
)

type recordingImporter struct {
	entries []ledger.Entry
	actor   ledger.Actor
	err     error
}

func (r *recordingImporter) Import(ctx context.Context, entries []ledger.Entry, actor ledger.Actor) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.entries = append(r.entries, entries...)
	r.actor = actor
	return len(entries), nil
}

const legacyCSV = "Date,Customer,Phone,Type,Amount,Mode,Ref_No,Cheque_Date,Status,Note,User\n" +
	"2024-01-05,Fatima,5500 1122,Invoice,\"1,000\",Credit,ORD-9,,Cleared,,Mariam\n" +
	"2024-01-06,Fatima,5500 1122,Receipt,400,Cash,REC-1,,Cleared,,Mariam\n"

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportCommandJSON(t *testing.T) {
	importer := &recordingImporter{}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := ImportCommand(context.Background(), importer, ImportOptions{
		File:       writeTemp(t, "transactions.csv", legacyCSV),
		JSONOutput: true,
		Actor:      ledger.Actor{Name: "cli"},
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Zero(t, code, stderr.String())

	var summary ImportSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, ledger.AccountCustomer, summary.Account)
	assert.Equal(t, 2, summary.Read)
	assert.Equal(t, 2, summary.Imported)
	assert.Empty(t, summary.Issues)
	require.Len(t, importer.entries, 2)
	assert.Equal(t, "1,000", importer.entries[0].Amount)
	assert.Equal(t, "cli", importer.actor.Name)
}

func TestImportCommandDryRunWithIssues(t *testing.T) {
	importer := &recordingImporter{}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	src := legacyCSV + "yesterday,Fatima,5500 1122,Receipt,10,Cash,,,Cleared,,Mariam\n"

	code := ImportCommand(context.Background(), importer, ImportOptions{
		File:   writeTemp(t, "transactions.csv", src),
		DryRun: true,
		Stdout: stdout,
		Stderr: stderr,
	})
	assert.Equal(t, 10, code)
	assert.Empty(t, importer.entries)
	assert.Contains(t, stdout.String(), "would import 2 customer row(s)")
	assert.Contains(t, stdout.String(), "row 4: date \"yesterday\"")
}

func TestImportCommandErrors(t *testing.T) {
	cases := []struct {
		name string
		opts ImportOptions
		imp  *recordingImporter
		want string
	}{
		{name: "missing file flag", opts: ImportOptions{}, imp: &recordingImporter{}, want: "--file is required"},
		{name: "bad extension", opts: ImportOptions{File: writeTemp(t, "ledger.txt", legacyCSV)}, imp: &recordingImporter{}, want: "unsupported file type"},
		{name: "unknown sheet", opts: ImportOptions{File: writeTemp(t, "x.csv", legacyCSV), Sheet: "Expenses"}, imp: &recordingImporter{}, want: "unknown legacy sheet"},
		{name: "ledger failure", opts: ImportOptions{File: writeTemp(t, "x.csv", legacyCSV)}, imp: &recordingImporter{err: errors.New("db down")}, want: "db down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			tc.opts.Stdout = new(bytes.Buffer)
			tc.opts.Stderr = stderr
			assert.Equal(t, 1, ImportCommand(context.Background(), tc.imp, tc.opts))
			assert.Contains(t, stderr.String(), tc.want)
		})
	}
}

type stubStatements struct {
	phone string
}

func (s *stubStatements) CustomerStatement(ctx context.Context, phone string) (ledger.Statement, error) {
	s.phone = phone
	return ledger.BuildStatement(ledger.AccountCustomer, []ledger.Entry{
		{Account: ledger.AccountCustomer, Type: ledger.EntryInvoice, Amount: "1000", Counterparty: "Fatima"},
		{Account: ledger.AccountCustomer, Type: ledger.EntryReceipt, Amount: "400", Counterparty: "Fatima"},
		{Account: ledger.AccountCustomer, Type: ledger.EntryReceipt, Amount: "abc", Counterparty: "Fatima"},
	}), nil
}

func (s *stubStatements) SupplierStatement(ctx context.Context, name string) (ledger.Statement, error) {
	return ledger.Statement{}, shared.ErrNotFound
}

type stubWriter struct{}

func (stubWriter) StatementPDF(doc documents.StatementDoc) ([]byte, error) {
	return []byte("%PDF " + doc.Title), nil
}

func (stubWriter) StatementXLSX(doc documents.StatementDoc) ([]byte, error) {
	return []byte("xlsx"), nil
}

func TestStatementCommandWritesFile(t *testing.T) {
	source := &stubStatements{}
	out := filepath.Join(t.TempDir(), "fatima.pdf")
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := StatementCommand(context.Background(), source, stubWriter{}, StatementOptions{
		Kind: "customer", Key: "5500 1122", File: out, Stdout: stdout, Stderr: stderr,
	})
	require.Zero(t, code, stderr.String())
	assert.Equal(t, ledger.NormalizePhone("5500 1122"), source.phone)

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
	assert.Contains(t, stdout.String(), "balance 600.00")
	assert.Contains(t, stdout.String(), "1 row(s) could not be read")
}

func TestStatementCommandCSVAndErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fatima.csv")
	code := StatementCommand(context.Background(), &stubStatements{}, stubWriter{}, StatementOptions{
		Kind: "customer", Key: "55001122", File: out, Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer),
	})
	require.Zero(t, code)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Invoice")

	stderr := new(bytes.Buffer)
	code = StatementCommand(context.Background(), &stubStatements{}, stubWriter{}, StatementOptions{
		Kind: "partner", Key: "x", File: out, Stderr: stderr,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "--kind")

	stderr.Reset()
	code = StatementCommand(context.Background(), &stubStatements{}, stubWriter{}, StatementOptions{
		Kind: "supplier", Key: "Gulf Fabrics", File: out, Stderr: stderr,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "not found")
}

type stubTrigger struct{ got string }

func (s *stubTrigger) Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error) {
	if taskType != jobs.TaskAlertsScan {
		return nil, errors.New("jobs: unknown task")
	}
	s.got = taskType
	return &asynq.TaskInfo{ID: "task-1", Queue: jobs.QueueDefault}, nil
}

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Retry: 1}, nil
}

func TestRunJobsCommands(t *testing.T) {
	trigger := &stubTrigger{}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	deps := Deps{Jobs: NewJobsCLI(trigger, stubInspector{}), Stdout: stdout, Stderr: stderr}

	require.Zero(t, Run(context.Background(), []string{"jobs", "trigger", jobs.TaskAlertsScan}, deps))
	assert.Equal(t, jobs.TaskAlertsScan, trigger.got)
	assert.Contains(t, stdout.String(), "enqueued alerts:scan as task-1")

	stdout.Reset()
	require.Zero(t, Run(context.Background(), []string{"jobs", "--json", "stats"}, deps))
	var stats jobs.QueueStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 1, stats.Retry)

	assert.Equal(t, 1, Run(context.Background(), []string{"jobs", "trigger", "reports:build"}, deps))
	assert.Equal(t, 1, Run(context.Background(), []string{"jobs", "trigger"}, deps))
	assert.Equal(t, 2, Run(context.Background(), []string{"jobs", "purge"}, deps))
}

type stubUsers struct{ got auth.NewUser }

func (s *stubUsers) CreateUser(ctx context.Context, in auth.NewUser) (*auth.User, error) {
	s.got = in
	if len(in.Password) < 8 {
		return nil, shared.NewFieldError("password", "must be at least 8 characters")
	}
	return &auth.User{ID: 3, Username: in.Username, Role: in.Role}, nil
}

func TestRunUserAddReadsPasswordFromStdin(t *testing.T) {
	users := &stubUsers{}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	deps := Deps{Users: users, Stdin: strings.NewReader("s3cret-pass\n"), Stdout: stdout, Stderr: stderr}

	code := Run(context.Background(), []string{"user", "add", "--username", "mariam", "--role", "admin"}, deps)
	require.Zero(t, code, stderr.String())
	assert.Equal(t, "s3cret-pass", users.got.Password)
	assert.Equal(t, "admin", users.got.Role)
	assert.Contains(t, stdout.String(), "created user mariam (id 3, role admin)")

	deps.Stdin = strings.NewReader("short")
	assert.Equal(t, 1, Run(context.Background(), []string{"user", "add", "--username", "x"}, deps))
	assert.Contains(t, stderr.String(), "at least 8")
}

func TestRunUnknownCommand(t *testing.T) {
	stderr := new(bytes.Buffer)
	assert.Equal(t, 2, Run(context.Background(), []string{"migrate"}, Deps{Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Contains(t, stderr.String(), "unknown command")
	assert.True(t, IsCommand("import-ledger"))
	assert.False(t, IsCommand("serve"))
}
