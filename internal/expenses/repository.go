package expenses

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository stores expenses in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores e and returns it with its ID.
func (r *Repository) Insert(ctx context.Context, e Expense) (Expense, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO expenses (expense_date, category, amount, note, project, recorded_by, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		e.Date, string(e.Category), e.Amount.String(), e.Note, e.Project, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: insert: %w", err)
	}
	return e, nil
}

// List returns expenses matching filter ordered by date then ID.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Expense, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !filter.From.IsZero() {
		add("expense_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("expense_date <= $%d", filter.To)
	}
	if filter.Category != "" {
		add("category = $%d", string(filter.Category))
	}
	if filter.Project != "" {
		add("LOWER(project) = LOWER($%d)", filter.Project)
	}
	query := `SELECT id, expense_date, category, amount::text, note, project, recorded_by, created_at FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expense_date, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Expense, error) {
		var (
			e      Expense
			amount string
		)
		if err := row.Scan(&e.ID, &e.Date, &e.Category, &amount, &e.Note, &e.Project, &e.RecordedBy, &e.CreatedAt); err != nil {
			return Expense{}, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return Expense{}, fmt.Errorf("expenses: amount of %d: %w", e.ID, err)
		}
		e.Amount = d
		return e, nil
	})
}
