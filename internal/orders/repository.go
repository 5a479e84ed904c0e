package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/platform/db"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

const idempotencyScope = "orders:save"

// PgRepository persists orders in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
	keys *shared.IdempotencyStore
}

// NewRepository constructs a PgRepository.
func NewRepository(pool *pgxpool.Pool, keys *shared.IdempotencyStore) *PgRepository {
	if keys == nil {
		keys = shared.NewIdempotencyStore()
	}
	return &PgRepository{pool: pool, keys: keys}
}

type txRepo struct {
	tx   pgx.Tx
	keys *shared.IdempotencyStore
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, keys: r.keys})
	})
}

const orderColumns = `id, number, customer_name, customer_phone, lines, discount::text,
	advance::text, advance_mode, created_by, created_at`

// InsertOrder claims the idempotency key, when given, and stores the order.
func (t *txRepo) InsertOrder(ctx context.Context, order Order, idempotencyKey string) (Order, error) {
	if idempotencyKey != "" {
		if err := t.keys.Claim(ctx, t.tx, idempotencyKey, idempotencyScope); err != nil {
			return Order{}, fmt.Errorf("orders: claim key: %w", err)
		}
	}
	lines, err := encodeLines(order.Lines)
	if err != nil {
		return Order{}, err
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return Order{}, fmt.Errorf("orders: encode lines: %w", err)
	}
	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	err = t.tx.QueryRow(ctx, `INSERT INTO orders (
		number, customer_name, customer_phone, lines, subtotal, discount, net_total,
		advance, advance_mode, idempotency_key, created_by, created_at
	) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11, $12)
	RETURNING id`,
		order.Number, order.Customer.Name, order.Customer.Phone, payload,
		order.Subtotal().String(), order.Discount.String(), order.NetTotal().String(),
		order.Advance.String(), order.AdvanceMode, key, order.CreatedBy, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return Order{}, fmt.Errorf("orders: insert order: %w", err)
	}
	return order, nil
}

// AppendLedger posts a ledger entry on the same transaction.
func (t *txRepo) AppendLedger(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	return ledger.InsertEntry(ctx, t.tx, entry)
}

// FindByIdempotencyKey returns the order saved under key.
func (r *PgRepository) FindByIdempotencyKey(ctx context.Context, key string) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return order, err
}

// ListByPhone returns the customer's orders, newest first.
func (r *PgRepository) ListByPhone(ctx context.Context, phone string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_phone = $1 ORDER BY created_at DESC, id DESC`, phone)
}

// ListAll returns every order, oldest first.
func (r *PgRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (r *PgRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                 Order
		payload           []byte
		discount, advance string
	)
	if err := row.Scan(&o.ID, &o.Number, &o.Customer.Name, &o.Customer.Phone, &payload,
		&discount, &advance, &o.AdvanceMode, &o.CreatedBy, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	var envelopes []lineEnvelope
	if err := json.Unmarshal(payload, &envelopes); err != nil {
		return Order{}, fmt.Errorf("orders: decode lines of %s: %w", o.Number, err)
	}
	lines, err := decodeLines(envelopes)
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return Order{}, fmt.Errorf("orders: discount of %s: %w", o.Number, err)
	}
	if o.Advance, err = decimal.NewFromString(advance); err != nil {
		return Order{}, fmt.Errorf("orders: advance of %s: %w", o.Number, err)
	}
	return o, nil
}
