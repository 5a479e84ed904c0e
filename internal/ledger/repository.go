package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amsilks/amsilks-erp/internal/platform/db"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// ErrNotFound indicates the entry does not exist.
var ErrNotFound = fmt.Errorf("ledger: entry %w", shared.ErrNotFound)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence for ledger entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, account, entry_date, counterparty, phone, entry_type, amount_raw,
	mode, reference, cheque_date, status, note, recorded_by, created_at`

// InsertEntry appends e using q, which may be a transaction owned by another
// package. The amount is stored exactly as given.
func InsertEntry(ctx context.Context, q DBTX, e Entry) (Entry, error) {
	var chequeDate pgtype.Date
	if e.ChequeDate != nil {
		chequeDate = pgtype.Date{Time: *e.ChequeDate, Valid: true}
	}
	err := q.QueryRow(ctx, `INSERT INTO ledger_entries (
		account, entry_date, counterparty, phone, entry_type, amount_raw,
		mode, reference, cheque_date, status, note, recorded_by, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
	RETURNING id, created_at`,
		e.Account, e.Date, e.Counterparty, e.Phone, string(e.Type), e.Amount,
		string(e.Mode), e.Reference, chequeDate, string(e.Status), e.Note, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: insert entry: %w", err)
	}
	return e, nil
}

// Append stores a single entry.
func (r *Repository) Append(ctx context.Context, e Entry) (Entry, error) {
	return InsertEntry(ctx, r.pool, e)
}

// AppendBatch stores entries in one transaction, preserving their order.
func (r *Repository) AppendBatch(ctx context.Context, entries []Entry) (int, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i, e := range entries {
			if _, err := InsertEntry(ctx, tx, e); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Get loads one entry by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// List returns entries matching filter in recording sequence.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Account != "" {
		add("account = $%d", string(filter.Account))
	}
	if filter.Phone != "" {
		add("phone = $%d", filter.Phone)
	}
	if filter.Counterparty != "" {
		add("LOWER(counterparty) = LOWER($%d)", filter.Counterparty)
	}
	if filter.ExcludeBounced {
		add("status <> $%d", string(StatusBounced))
	}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	return r.query(ctx, query, args...)
}

// ListDue returns pending cheques whose cheque date, and supplier payments
// whose entry date, fall within [from, to].
func (r *Repository) ListDue(ctx context.Context, from, to time.Time) ([]Entry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE (mode = $1 AND status = $2 AND cheque_date BETWEEN $3 AND $4)
		   OR (account = $5 AND entry_type = $6 AND entry_date BETWEEN $3 AND $4)
		ORDER BY COALESCE(cheque_date, entry_date), id`,
		string(ModeCheque), string(StatusPending), from, to,
		string(AccountSupplier), string(EntryPayment))
}

// UpdateStatus changes the clearance status of a cheque entry.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status EntryStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ledger_entries SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e          Entry
		account    string
		entryType  string
		mode       string
		status     string
		chequeDate pgtype.Date
	)
	if err := row.Scan(&e.ID, &account, &e.Date, &e.Counterparty, &e.Phone, &entryType, &e.Amount,
		&mode, &e.Reference, &chequeDate, &status, &e.Note, &e.RecordedBy, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Account = AccountKind(account)
	e.Type = EntryType(entryType)
	e.Mode = PaymentMode(mode)
	e.Status = EntryStatus(status)
	if chequeDate.Valid {
		d := chequeDate.Time
		e.ChequeDate = &d
	}
	return e, nil
}
