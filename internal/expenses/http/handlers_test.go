package expenseshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/expenses"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

type memoryExpenses struct{ items []expenses.Expense }

func (m *memoryExpenses) Insert(ctx context.Context, e expenses.Expense) (expenses.Expense, error) {
	e.ID = int64(len(m.items) + 1)
	m.items = append(m.items, e)
	return e, nil
}

func (m *memoryExpenses) List(ctx context.Context, f expenses.Filter) ([]expenses.Expense, error) {
	var out []expenses.Expense
	for _, e := range m.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubRBAC struct{ perms []string }

func (s stubRBAC) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, nil
}

func newRouter(t *testing.T, perms ...string) http.Handler {
	t.Helper()
	svc := expenses.NewService(&memoryExpenses{}, nil, nil)
	if perms == nil {
		perms = shared.AllPermissions()
	}
	h := NewHandler(nil, svc, rbac.Middleware{Service: stubRBAC{perms: perms}})

	sessions := shared.NewSessionManager(nil, "amsilks_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	sess.Set(shared.SessionUserNameKey, "Owner")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h.MountRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateAndListExpenses(t *testing.T) {
	router := newRouter(t)

	rr := do(router, http.MethodPost, "/expenses", `{"date":"2024-05-02","category":"purchase","amount":"450","project":"Fatima Al-Sayed","note":"blackout lining"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/expenses?project=Fatima+Al-Sayed", rr.Header().Get("Location"))

	var created expenses.Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, expenses.CategoryPurchase, created.Category)
	assert.Equal(t, "Owner", created.RecordedBy)

	rr = do(router, http.MethodPost, "/expenses", `{"date":"2024-05-20","category":"Rent","amount":4000}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(router, http.MethodGet, "/expenses?from=2024-05-01&to=2024-05-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Expenses []expenses.Expense `json:"expenses"`
		Total    string             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Expenses, 2)
	assert.Equal(t, "4450", list.Total)

	rr = do(router, http.MethodGet, "/expenses?project=General", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, expenses.CategoryRent, list.Expenses[0].Category)
}

func TestExpenseValidation(t *testing.T) {
	router := newRouter(t)
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing category", `{"amount":"10"}`, "category"},
		{"bad date", `{"date":"02/05/2024","category":"Rent","amount":"10"}`, "date"},
		{"unknown category", `{"category":"Fuel","amount":"10"}`, "category"},
		{"zero amount", `{"category":"Rent","amount":"0"}`, "amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(router, http.MethodPost, "/expenses", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var problem struct {
				Field string `json:"field"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
			assert.Equal(t, tc.field, problem.Field)
		})
	}

	rr := do(router, http.MethodGet, "/expenses?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExpensesRequirePermission(t *testing.T) {
	router := newRouter(t, shared.RolePermissions(shared.RoleStaff)...)
	rr := do(router, http.MethodGet, "/expenses", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
