package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

type memoryRepo struct {
	items []Expense
}

func (m *memoryRepo) Insert(ctx context.Context, e Expense) (Expense, error) {
	e.ID = int64(len(m.items) + 1)
	e.CreatedAt = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	m.items = append(m.items, e)
	return e, nil
}

func (m *memoryRepo) List(ctx context.Context, f Filter) ([]Expense, error) {
	var out []Expense
	for _, e := range m.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingAudit struct{ logs []shared.AuditLog }

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func day(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"rent":                  CategoryRent,
		"SALARY":                CategorySalary,
		"partner_withdrawal":    CategoryPartnerWithdrawal,
		" Partner  Withdrawal ": CategoryPartnerWithdrawal,
	}
	for raw, want := range cases {
		got, err := ParseCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseCategory("Fuel")
	var fe *shared.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "category", fe.FieldName())
}

func TestRecordNormalisesAndAudits(t *testing.T) {
	repo := &memoryRepo{}
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil)
	svc.clock = func() time.Time { return time.Date(2024, 5, 10, 15, 45, 0, 0, time.UTC) }

	saved, err := svc.Record(context.Background(), Input{
		Category: "purchase",
		Amount:   decimal.RequireFromString("120.505"),
		Note:     "  lining  ",
		Project:  "Fatima Al-Sayed",
	}, Actor{ID: 2, Name: "Yousef"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, CategoryPurchase, saved.Category)
	assert.Equal(t, day(10), saved.Date)
	assert.Equal(t, "120.51", saved.Amount.StringFixed(2))
	assert.Equal(t, "lining", saved.Note)
	assert.Equal(t, "Yousef", saved.RecordedBy)

	general, err := svc.Record(context.Background(), Input{Date: day(3), Category: "Rent", Amount: decimal.NewFromInt(4000)}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, GeneralProject, general.Project)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, "expenses:record", audit.logs[0].Action)
	assert.Equal(t, "1", audit.logs[0].EntityID)
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil, nil)
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"unknown category", Input{Category: "Travel", Amount: decimal.NewFromInt(1)}, "category"},
		{"zero amount", Input{Category: "Rent", Amount: decimal.Zero}, "amount"},
		{"negative amount", Input{Category: "Rent", Amount: decimal.NewFromInt(-5)}, "amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), tc.in, Actor{})
			var fe *shared.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.FieldName())
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestListFilters(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	for _, in := range []Input{
		{Date: day(1), Category: "Rent", Amount: decimal.NewFromInt(4000)},
		{Date: day(5), Category: "Purchase", Amount: decimal.NewFromInt(300), Project: "fatima al-sayed"},
		{Date: day(9), Category: "Partner Withdrawal", Amount: decimal.NewFromInt(1000)},
	} {
		_, err := svc.Record(ctx, in, Actor{})
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, Filter{From: day(2), To: day(9)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(ctx, Filter{Project: "Fatima Al-Sayed"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, CategoryPurchase, got[0].Category)

	got, err = svc.List(ctx, Filter{Category: CategoryPartnerWithdrawal})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Category.IsWithdrawal())

	_, err = svc.List(ctx, Filter{From: day(9), To: day(1)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
